// Package state keeps per-user conversation sessions in memory.
//
// A session tracks the active conversation, its current step, the fields
// collected so far, and identity attributes that outlive a single
// conversation. Handlers describe changes as a Patch which the Manager applies
// atomically. The package knows nothing about the conversations themselves.
package state

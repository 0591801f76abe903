package state

import (
	"maps"
	"time"
)

// Conversation names a multi-step dialog such as a registration form.
type Conversation string

// State identifies a step inside a conversation.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
	// NoConversation is the conversation of an idle session.
	NoConversation Conversation = ""
)

// Session is a snapshot of one user's conversation state.
type Session struct {
	UserID       int64
	Conversation Conversation
	State        State
	// Temp holds fields collected by the active conversation. It is emptied
	// whenever a conversation starts or ends.
	Temp map[string]string
	// Attrs holds identity values that survive conversations.
	Attrs         map[string]string
	Authenticated bool
	UpdatedAt     time.Time
}

// Active reports whether a conversation is in progress.
func (s Session) Active() bool {
	return s.Conversation != NoConversation && s.State != StateIdle
}

// Value returns a collected field.
func (s Session) Value(key string) string {
	return s.Temp[key]
}

// Attr returns an identity attribute.
func (s Session) Attr(key string) string {
	return s.Attrs[key]
}

func (s Session) clone() Session {
	s.Temp = maps.Clone(s.Temp)
	s.Attrs = maps.Clone(s.Attrs)
	if s.Temp == nil {
		s.Temp = map[string]string{}
	}
	if s.Attrs == nil {
		s.Attrs = map[string]string{}
	}
	return s
}

// Patch describes a change to a session. Fields are applied in order:
// Begin, Set, Unset, Next, Attrs, Authenticated, End.
type Patch struct {
	// Begin starts the named conversation, discarding collected fields.
	Begin Conversation
	// Next moves the conversation to this step when non-empty.
	Next State
	// Set stores collected fields.
	Set map[string]string
	// Unset removes collected fields.
	Unset []string
	// Attrs stores identity attributes; an empty value deletes the key.
	Attrs map[string]string
	// Authenticated replaces the flag when non-nil.
	Authenticated *bool
	// End finishes the active conversation and discards collected fields.
	End bool
}

// Empty reports whether applying p would change nothing.
func (p Patch) Empty() bool {
	return p.Begin == NoConversation && p.Next == "" && !p.End &&
		len(p.Set) == 0 && len(p.Unset) == 0 && len(p.Attrs) == 0 && p.Authenticated == nil
}

// Bool returns a pointer for Patch.Authenticated.
func Bool(v bool) *bool {
	return &v
}

// Manager stores sessions keyed by Telegram user id.
type Manager interface {
	// Get returns a copy of the user's session, creating an idle one on first access.
	Get(userID int64) Session
	// Set stores collected fields.
	Set(userID int64, fields map[string]string)
	// Clear removes the named collected fields.
	Clear(userID int64, keys ...string)
	// StartConversation replaces any active conversation and returns its first step.
	StartConversation(userID int64, kind Conversation, initial State) State
	// EndConversation returns the session to idle, keeping identity attributes.
	EndConversation(userID int64)
	// Apply applies p and returns the resulting session.
	Apply(userID int64, p Patch) Session
	// Reset drops the session entirely.
	Reset(userID int64)

	GetState(userID int64) State
	InProgress(userID int64) bool

	// Lock serializes work for one user; call the returned func to release.
	Lock(userID int64) (unlock func())
}

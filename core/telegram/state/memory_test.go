package state

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	convRegister Conversation = "register"
	convCheckout Conversation = "checkout"

	stName  State = "register.await_name"
	stStore State = "register.await_store"
	stCode  State = "checkout.await_code"
)

func TestGetCreatesIdleSession(t *testing.T) {
	m := NewMemoryManager(Options{})
	s := m.Get(7)
	assert.Equal(t, int64(7), s.UserID)
	assert.Equal(t, StateIdle, s.State)
	assert.False(t, s.Active())
	assert.NotNil(t, s.Temp)
	assert.Equal(t, 1, m.Len())
}

func TestGetReturnsCopy(t *testing.T) {
	m := NewMemoryManager(Options{})
	m.Set(1, map[string]string{"a": "1"})
	s := m.Get(1)
	s.Temp["a"] = "changed"
	assert.Equal(t, "1", m.Get(1).Value("a"))
}

func TestConversationLifecycle(t *testing.T) {
	m := NewMemoryManager(Options{})
	assert.Equal(t, stName, m.StartConversation(1, convRegister, stName))
	assert.True(t, m.InProgress(1))

	m.Set(1, map[string]string{"seller_name": "Ali"})
	s := m.Apply(1, Patch{Next: stStore, Set: map[string]string{"x": "y"}})
	assert.Equal(t, stStore, s.State)
	assert.Equal(t, "Ali", s.Value("seller_name"))

	m.Clear(1, "x")
	assert.Empty(t, m.Get(1).Value("x"))

	m.EndConversation(1)
	s = m.Get(1)
	assert.False(t, s.Active())
	assert.Empty(t, s.Temp)
	assert.Equal(t, StateIdle, m.GetState(1))
}

func TestStartConversationOverwritesActiveOne(t *testing.T) {
	m := NewMemoryManager(Options{})
	m.StartConversation(1, convRegister, stName)
	m.Apply(1, Patch{
		Set:           map[string]string{"seller_name": "Ali"},
		Attrs:         map[string]string{"seller_id": "4"},
		Authenticated: Bool(true),
	})

	m.StartConversation(1, convCheckout, stCode)
	s := m.Get(1)
	assert.Equal(t, convCheckout, s.Conversation)
	assert.Equal(t, stCode, s.State)
	assert.Empty(t, s.Value("seller_name"), "in-progress fields are discarded")
	assert.True(t, s.Authenticated, "authentication survives")
	assert.Equal(t, "4", s.Attr("seller_id"))
}

func TestApplyAttrsDeleteOnEmpty(t *testing.T) {
	m := NewMemoryManager(Options{})
	m.Apply(1, Patch{Attrs: map[string]string{"seller_id": "1", "store_name": "Shop"}})
	s := m.Apply(1, Patch{Attrs: map[string]string{"seller_id": ""}, Authenticated: Bool(false)})
	assert.Equal(t, map[string]string{"store_name": "Shop"}, s.Attrs)
	assert.False(t, s.Authenticated)
}

func TestNextIgnoredWithoutConversation(t *testing.T) {
	m := NewMemoryManager(Options{})
	s := m.Apply(1, Patch{Next: stStore})
	assert.Equal(t, StateIdle, s.State)
	assert.True(t, Patch{}.Empty())
	assert.False(t, Patch{End: true}.Empty())
}

func TestReset(t *testing.T) {
	m := NewMemoryManager(Options{})
	m.Apply(1, Patch{Authenticated: Bool(true)})
	m.Reset(1)
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Get(1).Authenticated)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m := NewMemoryManager(Options{TTL: time.Hour, Now: clock})

	m.StartConversation(1, convRegister, stName)
	now = now.Add(30 * time.Minute)
	m.Get(2)
	now = now.Add(45 * time.Minute)

	unlock := m.Lock(3)
	m.Get(3)
	now = now.Add(2 * time.Hour)

	assert.Equal(t, 2, m.Sweep(now))
	assert.Equal(t, 1, m.Len(), "locked user is kept")
	unlock()
	assert.Equal(t, 1, m.Sweep(now))
	assert.False(t, m.InProgress(1))
}

func TestSweepDisabled(t *testing.T) {
	m := NewMemoryManager(Options{TTL: -1})
	m.Get(1)
	assert.Equal(t, 0, m.Sweep(time.Now().Add(1000*time.Hour)))
}

func TestLockSerializesPerUser(t *testing.T) {
	m := NewMemoryManager(Options{})
	var inFlight, maxInFlight atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock(42)
			defer unlock()
			n := inFlight.Add(1)
			if n > maxInFlight.Load() {
				maxInFlight.Store(n)
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInFlight.Load())

	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	require.Empty(t, m.locks)
}

func TestLockIndependentUsers(t *testing.T) {
	m := NewMemoryManager(Options{})
	unlockA := m.Lock(1)
	done := make(chan struct{})
	go func() {
		unlock := m.Lock(2)
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for another user blocked")
	}
	unlockA()
	unlockA()
}

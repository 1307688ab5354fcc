package auth

import (
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T, timeout time.Duration) (*SessionStore, *time.Time) {
	t.Helper()

	store, err := NewSessionStore(timeout)
	if err != nil {
		t.Fatal(err)
	}
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return clock }
	return store, &clock
}

func TestNewSessionStoreRejectsBadTimeout(t *testing.T) {
	t.Parallel()

	if _, err := NewSessionStore(0); err == nil {
		t.Error("zero timeout accepted")
	}
	if _, err := NewSessionStore(-time.Minute); err == nil {
		t.Error("negative timeout accepted")
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, time.Hour)

	id := store.Create("admin")
	if id == "" {
		t.Fatal("empty session id")
	}

	sess, ok := store.Get(id)
	if !ok {
		t.Fatal("created session not found")
	}
	if sess.Username != "admin" {
		t.Errorf("username = %q, want admin", sess.Username)
	}
	if !sess.CreatedAt.Equal(sess.LastAccessed) {
		t.Error("fresh session has CreatedAt != LastAccessed")
	}

	if !store.Remove(id) {
		t.Error("remove reported false for live session")
	}
	if _, ok := store.Get(id); ok {
		t.Error("session still returned after remove")
	}
	if store.Remove(id) {
		t.Error("second remove reported true")
	}
}

func TestGetUnknownToken(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, time.Hour)
	if _, ok := store.Get("no-such-token"); ok {
		t.Error("unknown token returned a session")
	}
	if store.Remove("no-such-token") {
		t.Error("remove of unknown token reported true")
	}
}

func TestLazyExpiry(t *testing.T) {
	t.Parallel()

	store, clock := newTestStore(t, time.Hour)
	id := store.Create("admin")

	// Just inside the window: still alive, and the read refreshes it.
	*clock = clock.Add(time.Hour)
	if _, ok := store.Get(id); !ok {
		t.Fatal("session expired exactly at the timeout boundary")
	}

	// The refresh above pushed LastAccessed forward, so another full
	// window must elapse before expiry.
	*clock = clock.Add(time.Hour + time.Second)
	if _, ok := store.Get(id); ok {
		t.Fatal("expired session returned")
	}

	// The failed Get itself deleted the record.
	if store.Remove(id) {
		t.Error("remove after lazy-expiring Get reported true")
	}
	if store.Len() != 0 {
		t.Errorf("store still holds %d sessions", store.Len())
	}
}

func TestGetRefreshesLastAccessed(t *testing.T) {
	t.Parallel()

	store, clock := newTestStore(t, time.Hour)
	id := store.Create("admin")

	*clock = clock.Add(30 * time.Minute)
	sess, ok := store.Get(id)
	if !ok {
		t.Fatal("session missing")
	}
	if !sess.LastAccessed.Equal(*clock) {
		t.Errorf("LastAccessed = %v, want %v", sess.LastAccessed, *clock)
	}
	if sess.LastAccessed.Before(sess.CreatedAt) {
		t.Error("LastAccessed went backwards")
	}
}

func TestSweepExpired(t *testing.T) {
	t.Parallel()

	store, clock := newTestStore(t, time.Hour)
	stale := store.Create("admin")
	*clock = clock.Add(2 * time.Hour)
	fresh := store.Create("admin")

	if n := store.SweepExpired(); n != 1 {
		t.Errorf("swept %d sessions, want 1", n)
	}
	if _, ok := store.Get(stale); ok {
		t.Error("stale session survived sweep")
	}
	if _, ok := store.Get(fresh); !ok {
		t.Error("fresh session removed by sweep")
	}
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	store, err := NewSessionStore(time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	const workers = 32
	id := store.Create("admin")

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				switch n % 3 {
				case 0:
					store.Get(id)
				case 1:
					tok := store.Create("admin")
					store.Remove(tok)
				case 2:
					store.SweepExpired()
				}
			}
		}(i)
	}
	wg.Wait()

	if _, ok := store.Get(id); !ok {
		t.Error("long-lived session lost under concurrent access")
	}
}

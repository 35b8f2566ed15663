package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/services/logger"
	"github.com/trezcool/studytrack/storage/docstore/memstore"
)

func newRegistry(t *testing.T, idle time.Duration) (*Registry, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	r := NewRegistry(store, logsvc.NewNopLogger(), core.SessionConfig{})
	r.idleTimeout = idle
	t.Cleanup(r.Close)
	return r, store
}

func seed(t *testing.T, store core.DocumentStore, uid string) {
	t.Helper()
	_, err := store.Add(context.Background(), core.SemestersPath(uid), map[string]interface{}{"number": "1", "active": true})
	require.NoError(t, err)
}

func TestRegistry_SignIn(t *testing.T) {
	r, store := newRegistry(t, 0)
	seed(t, store, "u1")

	sess, err := r.SignIn("u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
	assert.Len(t, sess.Mirror.Snapshot().Semesters, 1)
	assert.Equal(t, 2, store.TotalListeners())

	again, err := r.SignIn("u1")
	require.NoError(t, err)
	assert.Same(t, sess, again)
	assert.Equal(t, 2, store.TotalListeners())

	got, ok := r.Get("u1")
	assert.True(t, ok)
	assert.Same(t, sess, got)

	_, err = r.SignIn("")
	assert.Equal(t, ErrNoUser, err)
}

func TestRegistry_SignOut(t *testing.T) {
	r, store := newRegistry(t, 0)
	seed(t, store, "u1")
	seed(t, store, "u2")

	_, err := r.SignIn("u1")
	require.NoError(t, err)
	_, err = r.SignIn("u2")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 4, store.TotalListeners())

	r.SignOut("u1")
	r.SignOut("u1")
	r.SignOut("nobody")
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 2, store.TotalListeners())
	_, ok := r.Get("u1")
	assert.False(t, ok)
}

func TestRegistry_EvictIdle(t *testing.T) {
	r, store := newRegistry(t, time.Minute)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	_, err := r.SignIn("u1")
	require.NoError(t, err)
	_, err = r.SignIn("u2")
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	_, ok := r.Get("u2")
	require.True(t, ok)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, r.EvictIdle())
	_, ok = r.Get("u1")
	assert.False(t, ok)
	_, ok = r.Get("u2")
	assert.True(t, ok)
	assert.Equal(t, 1, store.TotalListeners())
}

func TestRegistry_Close(t *testing.T) {
	store := memstore.New()
	r := NewRegistry(store, logsvc.NewNopLogger(), core.SessionConfig{IdleTimeout: time.Hour})
	_, err := r.SignIn("u1")
	require.NoError(t, err)

	r.Close()
	r.Close()
	assert.Zero(t, r.Len())
	assert.Zero(t, store.TotalListeners())

	_, err = r.SignIn("u1")
	assert.Equal(t, ErrClosed, err)
}

type fakeAuth struct {
	mu  sync.Mutex
	fns map[int]func(string)
	n   int
}

func (a *fakeAuth) OnAuth(fn func(uid string)) core.Disposer {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fns == nil {
		a.fns = make(map[int]func(string))
	}
	id := a.n
	a.n++
	a.fns[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.fns, id)
	}
}

func (a *fakeAuth) emit(uid string) {
	a.mu.Lock()
	fns := make([]func(string), 0, len(a.fns))
	for _, fn := range a.fns {
		fns = append(fns, fn)
	}
	a.mu.Unlock()
	for _, fn := range fns {
		fn(uid)
	}
}

func TestFollow(t *testing.T) {
	r, store := newRegistry(t, 0)
	seed(t, store, "a")
	seed(t, store, "b")
	auth := &fakeAuth{}

	stop := Follow(auth, r)

	auth.emit("a")
	sessA, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, store.TotalListeners())

	auth.emit("b")
	_, ok = r.Get("a")
	assert.False(t, ok, "previous user is signed out")
	assert.Zero(t, sessA.Mirror.Subscriptions())
	assert.Zero(t, store.Listeners(core.SemestersPath("a")))
	_, ok = r.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, store.TotalListeners())

	auth.emit("")
	assert.Zero(t, r.Len())
	assert.Zero(t, store.TotalListeners())

	auth.emit("a")
	assert.Equal(t, 1, r.Len())

	stop()
	assert.Zero(t, r.Len())
	assert.Zero(t, store.TotalListeners())

	auth.emit("b")
	assert.Zero(t, r.Len(), "no longer following")
}

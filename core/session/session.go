// Package session keeps one live mirror per signed-in user.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/core/mirror"
)

var (
	ErrNoUser = errors.New("no user id")
	ErrClosed = errors.New("session registry closed")
)

// Session is the mirror of one user.
type Session struct {
	UserID string
	Mirror *mirror.Manager

	lastSeen int64 // unix nanoseconds
}

func (s *Session) touch(now time.Time) {
	atomic.StoreInt64(&s.lastSeen, now.UnixNano())
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, atomic.LoadInt64(&s.lastSeen))
}

type Registry struct {
	store       core.DocumentStore
	logger      core.Logger
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewRegistry creates a registry. With a positive idle timeout, sessions unused for longer are signed out
// in the background until Close is called.
func NewRegistry(store core.DocumentStore, logger core.Logger, conf core.SessionConfig) *Registry {
	r := &Registry{
		store:       store,
		logger:      logger,
		idleTimeout: conf.IdleTimeout,
		now:         time.Now,
		sessions:    make(map[string]*Session),
		done:        make(chan struct{}),
	}
	if r.idleTimeout > 0 {
		r.wg.Add(1)
		go r.evictLoop()
	}
	return r
}

func (r *Registry) evictLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.idleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.EvictIdle(); n > 0 {
				r.logger.Debug("idle sessions evicted", map[string]interface{}{"count": n})
			}
		case <-r.done:
			return
		}
	}
}

// SignIn returns the session of uid, attaching a new mirror the first time.
func (r *Registry) SignIn(uid string) (*Session, error) {
	if uid == "" {
		return nil, ErrNoUser
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	if sess, ok := r.sessions[uid]; ok {
		sess.touch(r.now())
		return sess, nil
	}

	sess := &Session{UserID: uid, Mirror: mirror.NewManager(r.store, r.logger)}
	sess.touch(r.now())
	sess.Mirror.Attach(uid)
	r.sessions[uid] = sess
	r.logger.Info("session started", core.UserID(uid))
	return sess, nil
}

// Get returns the session of uid without creating one.
func (r *Registry) Get(uid string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[uid]
	if ok {
		sess.touch(r.now())
	}
	return sess, ok
}

// SignOut detaches the mirror of uid. Signing out an unknown user is a no-op.
func (r *Registry) SignOut(uid string) {
	r.mu.Lock()
	sess, ok := r.sessions[uid]
	delete(r.sessions, uid)
	r.mu.Unlock()

	if ok {
		sess.Mirror.Detach()
		r.logger.Info("session ended", core.UserID(uid))
	}
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle signs out every session unused for longer than the idle timeout and returns how many it closed.
func (r *Registry) EvictIdle() int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	var idle []string
	for uid, sess := range r.sessions {
		if sess.LastSeen().Before(cutoff) {
			idle = append(idle, uid)
		}
	}
	r.mu.Unlock()

	for _, uid := range idle {
		r.SignOut(uid)
	}
	return len(idle)
}

// Close signs every user out and stops the eviction loop. Later sign-ins fail with ErrClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	uids := make([]string, 0, len(r.sessions))
	for uid := range r.sessions {
		uids = append(uids, uid)
	}
	r.mu.Unlock()

	close(r.done)
	r.wg.Wait()
	for _, uid := range uids {
		r.SignOut(uid)
	}
}

package session

import (
	"sync"

	"github.com/trezcool/studytrack/core"
)

// AuthProvider emits the identity of the signed-in user, or "" when nobody is signed in.
type AuthProvider interface {
	OnAuth(fn func(uid string)) core.Disposer
}

// Follow keeps the registry in step with a single-user auth provider: on every new identity the previous
// session is signed out before the next one is signed in. An empty identity only signs out.
// The returned disposer stops following and signs out the current user.
func Follow(provider AuthProvider, r *Registry) core.Disposer {
	var (
		mu      sync.Mutex
		current string
		stopped bool
	)

	unsubscribe := provider.OnAuth(func(uid string) {
		mu.Lock()
		defer mu.Unlock()
		if stopped || uid == current {
			return
		}
		if current != "" {
			r.SignOut(current)
		}
		current = uid
		if uid == "" {
			return
		}
		if _, err := r.SignIn(uid); err != nil {
			r.logger.Error("signing in", err, core.UserID(uid))
			current = ""
		}
	})

	return core.OnceDisposer(func() {
		unsubscribe()
		mu.Lock()
		defer mu.Unlock()
		stopped = true
		if current != "" {
			r.SignOut(current)
			current = ""
		}
	})
}

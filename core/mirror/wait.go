package mirror

import (
	"context"

	"github.com/pkg/errors"
)

// ErrIncomplete is returned by Wait when a level failed before any error event could be observed.
var ErrIncomplete = errors.New("mirror incomplete: a subscription failed")

// Settled reports whether every subscription has delivered its first snapshot or failed.
func (st States) Settled() bool {
	if st.Semesters == Subscribing || st.Subjects == Subscribing {
		return false
	}
	for _, s := range st.Labs {
		if s == Subscribing {
			return false
		}
	}
	return true
}

// Failed reports whether any level is in the Failed state.
func (st States) Failed() bool {
	if st.Semesters == Failed || st.Subjects == Failed {
		return true
	}
	for _, s := range st.Labs {
		if s == Failed {
			return true
		}
	}
	return false
}

// Wait blocks until the mirror has settled and returns its snapshot.
// When a level failed, the snapshot holds the data received so far and the error is the *SubscriptionError
// of the failure, or ErrIncomplete if it happened before Wait was called.
func (m *Manager) Wait(ctx context.Context) (Snapshot, error) {
	changed := make(chan struct{}, 1)
	var failure error
	errs := make(chan error, 1)
	remove := m.Observe(func(ev Event) {
		if ev.Err != nil {
			select {
			case errs <- ev.Err:
			default:
			}
		}
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer remove()

	for {
		snap := m.Snapshot()
		if snap.States.Settled() {
			select {
			case failure = <-errs:
			default:
			}
			if snap.States.Failed() {
				if failure == nil {
					failure = ErrIncomplete
				}
				return snap, failure
			}
			return snap, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return m.Snapshot(), ctx.Err()
		}
	}
}

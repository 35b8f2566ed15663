package mirror

import (
	"fmt"
	"sync/atomic"

	"github.com/trezcool/studytrack/core"
)

// Level names one of the three nesting levels of the mirror.
type Level int

const (
	Semesters Level = iota
	Subjects
	Labs
)

func (l Level) String() string {
	switch l {
	case Semesters:
		return "semesters"
	case Subjects:
		return "subjects"
	case Labs:
		return "labs"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// State is the lifecycle state of one subscription.
type State int

const (
	Detached    State = iota // no subscription
	Subscribing              // listening, no snapshot received yet
	Active                   // listening, mirror up to date
	Failed                   // the store rejected or dropped the subscription; last known data is kept
)

func (s State) String() string {
	switch s {
	case Detached:
		return "detached"
	case Subscribing:
		return "subscribing"
	case Active:
		return "active"
	case Failed:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// subscription is one attempt at listening to a collection.
// A failed or replaced subscription is never reused: Refresh opens a new one on the same collection.
type subscription struct {
	level      Level
	collection string
	parentID   string // semester id for Subjects, subject id for Labs
	state      State
	err        error
	dispose    core.Disposer
	closed     int32
}

func (s *subscription) isClosed() bool {
	return atomic.LoadInt32(&s.closed) == 1
}

// close stops the subscription and reports whether it was still live.
func (s *subscription) close() bool {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return false
	}
	if s.dispose != nil {
		s.dispose()
	}
	return s.state == Subscribing || s.state == Active
}

func stateOf(s *subscription) State {
	if s == nil {
		return Detached
	}
	return s.state
}

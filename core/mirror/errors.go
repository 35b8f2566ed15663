package mirror

import "fmt"

// SubscriptionError reports that the store rejected or dropped a subscription.
// The mirror keeps the data last received for that level.
type SubscriptionError struct {
	Level      Level
	Collection string
	Err        error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("%s subscription to %s failed: %v", e.Level, e.Collection, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

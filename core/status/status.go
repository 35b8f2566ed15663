// Package status canonicalizes the status field of lab works.
//
// Stored records carry statuses written by several generations of clients: the current display forms,
// the identifiers and English labels of an earlier schema, and text damaged by encoding mismatches.
// Every read goes through Normalize; records are never rewritten.
package status

// Status is the canonical form of a lab status.
// A Status returned by Normalize for unrecognized input holds that input unchanged.
type Status string

// Canonical statuses
const (
	NotStarted Status = "Не розпочато"
	InProgress Status = "У процесі"
	Done       Status = "Виконано"
	Defended   Status = "Захищено"
)

// All lists the canonical statuses in lookup order.
var All = []Status{NotStarted, InProgress, Done, Defended}

var ids = map[Status]string{
	NotStarted: "not_started",
	InProgress: "in_progress",
	Done:       "done",
	Defended:   "defended",
}

func (s Status) String() string {
	return string(s)
}

// ID returns the snake_case identifier of a canonical status, "" otherwise.
func (s Status) ID() string {
	return ids[s]
}

// IsCanonical reports whether s is exactly one of the four canonical forms.
func (s Status) IsCanonical() bool {
	_, ok := ids[s]
	return ok
}

// FromID returns the canonical status with the given identifier.
func FromID(id string) (Status, bool) {
	for s, sid := range ids {
		if sid == id {
			return s, true
		}
	}
	return "", false
}

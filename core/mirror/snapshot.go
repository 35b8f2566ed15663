package mirror

import (
	"github.com/trezcool/studytrack/core/lab"
	"github.com/trezcool/studytrack/core/semester"
	"github.com/trezcool/studytrack/core/subject"
)

// Snapshot is a read-only copy of the mirror. A published snapshot is never modified.
type Snapshot struct {
	UserID    string                   `json:"userId"`
	Semesters []semester.Semester      `json:"semesters"`
	Active    *semester.Semester       `json:"active"` // nil when no semester is active
	Subjects  []subject.Subject        `json:"subjects"`
	Labs      map[string][]lab.LabWork `json:"labs"` // by subject id
	States    States                   `json:"states"`
}

// States are the subscription states behind a snapshot.
type States struct {
	Semesters State            `json:"semesters"`
	Subjects  State            `json:"subjects"`
	Labs      map[string]State `json:"labs"`
}

func emptySnapshot(uid string) Snapshot {
	return Snapshot{
		UserID:    uid,
		Semesters: []semester.Semester{},
		Subjects:  []subject.Subject{},
		Labs:      map[string][]lab.LabWork{},
		States:    States{Labs: map[string]State{}},
	}
}

// Event is delivered to observers after every change of the mirror.
// Err is a *SubscriptionError when the change is a failed subscription; Snapshot then holds the last known data.
type Event struct {
	Snapshot Snapshot
	Err      error
}

// ActiveSemester returns the active semester, if any.
func (s Snapshot) ActiveSemester() (semester.Semester, bool) {
	if s.Active == nil {
		return semester.Semester{}, false
	}
	return *s.Active, true
}

// Subject returns the subject of the active semester with the given id.
func (s Snapshot) Subject(id string) (subject.Subject, error) {
	return subject.Find(s.Subjects, id)
}

// Lab returns a lab of the given subject.
func (s Snapshot) Lab(subjectID, id string) (lab.LabWork, error) {
	return lab.Find(s.Labs[subjectID], id)
}

// AllLabs returns every mirrored lab, in subject order.
func (s Snapshot) AllLabs() []lab.LabWork {
	var all []lab.LabWork
	for _, subj := range s.Subjects {
		all = append(all, s.Labs[subj.ID]...)
	}
	return all
}

// Subscriptions counts the live subscriptions behind the snapshot.
func (st States) Subscriptions() int {
	n := live(st.Semesters) + live(st.Subjects)
	for _, s := range st.Labs {
		n += live(s)
	}
	return n
}

func live(s State) int {
	if s == Subscribing || s == Active {
		return 1
	}
	return 0
}

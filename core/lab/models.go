package lab

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/core/status"
)

// Document fields
const (
	fieldNumber        = "number"
	fieldTopic         = "topic"
	fieldMaxScore      = "maxScore"
	fieldObtainedScore = "obtainedScore"
	fieldStatus        = "status"
	fieldCreatedAt     = "createdAt"
)

type LabWork struct {
	ID            string        `json:"id"`
	SemesterID    string        `json:"-"`
	SubjectID     string        `json:"subjectId"`
	Number        int           `json:"number"`
	Topic         string        `json:"topic,omitempty"`
	MaxScore      float64       `json:"maxScore"`
	ObtainedScore null.Float64  `json:"obtainedScore"` // null until graded
	Status        status.Status `json:"status"`        // normalized on read
	RawStatus     string        `json:"-"`             // as stored
	CreatedAt     time.Time     `json:"createdAt"`     // UTC
}

// FromDocument decodes a stored lab of the given subject.
// Malformed scores read as absent; the status is normalized.
func FromDocument(semesterID, subjectID string, doc core.Document) LabWork {
	l := LabWork{
		ID:         doc.ID,
		SemesterID: semesterID,
		SubjectID:  subjectID,
		Number:     int(core.FloatOrZero(doc.Get(fieldNumber))),
		Topic:      core.String(doc.Get(fieldTopic)),
		MaxScore:   core.FloatOrZero(doc.Get(fieldMaxScore)),
		RawStatus:  core.String(doc.Get(fieldStatus)),
		CreatedAt:  core.Time(doc.Get(fieldCreatedAt)),
	}
	if l.MaxScore < 0 {
		l.MaxScore = 0
	}
	if f, ok := core.Float(doc.Get(fieldObtainedScore)); ok && f >= 0 {
		l.ObtainedScore = null.Float64From(f)
	}
	l.Status = status.Normalize(l.RawStatus)
	return l
}

func FromDocuments(semesterID, subjectID string, docs []core.Document) []LabWork {
	labs := make([]LabWork, 0, len(docs))
	for _, doc := range docs {
		labs = append(labs, FromDocument(semesterID, subjectID, doc))
	}
	return labs
}

// Obtained returns the obtained score, 0 while ungraded.
func (l LabWork) Obtained() float64 {
	if !l.ObtainedScore.Valid {
		return 0
	}
	return l.ObtainedScore.Float64
}

func (l LabWork) IsCompleted() bool {
	return status.IsCompleted(string(l.Status))
}

func (l LabWork) IsDefended() bool {
	return status.IsDefended(string(l.Status))
}

// NextNumber returns the number of a lab added after labs.
func NextNumber(labs []LabWork) int {
	var max int
	for _, l := range labs {
		if l.Number > max {
			max = l.Number
		}
	}
	return max + 1
}

// NewLab contains information needed to add a lab. MaxScore may be a number or a numeric string.
type NewLab struct {
	Topic    string      `json:"topic"`
	MaxScore interface{} `json:"maxScore"`
}

// UpdateLab defines what may be changed on an existing lab. Nil fields are left untouched.
type UpdateLab struct {
	Topic    *string     `json:"topic"`
	MaxScore interface{} `json:"maxScore"`
}

// StatusChange moves a lab to another status. Defended is reached through Defend only.
type StatusChange struct {
	Status string `json:"status" validate:"required,canonstatus,notdefended"`
}

// Defense records the score obtained at the defense of a lab.
type Defense struct {
	Score interface{} `json:"score"`
}

package semester

import (
	"time"

	"github.com/trezcool/studytrack/core"
)

// DateLayout is the layout of start and end dates.
const DateLayout = "2006-01-02"

// Document fields
const (
	fieldNumber    = "number"
	fieldTitle     = "title"
	fieldStartDate = "startDate"
	fieldEndDate   = "endDate"
	fieldActive    = "active"
)

type Semester struct {
	ID        string `json:"id"`
	Number    string `json:"number"`
	Title     string `json:"title,omitempty"`
	StartDate string `json:"startDate,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"endDate,omitempty"`   // YYYY-MM-DD
	Active    bool   `json:"active"`
}

// FromDocument decodes a stored semester. Malformed fields read as zero values.
func FromDocument(doc core.Document) Semester {
	return Semester{
		ID:        doc.ID,
		Number:    core.String(doc.Get(fieldNumber)),
		Title:     core.String(doc.Get(fieldTitle)),
		StartDate: core.String(doc.Get(fieldStartDate)),
		EndDate:   core.String(doc.Get(fieldEndDate)),
		Active:    core.Bool(doc.Get(fieldActive)),
	}
}

// FromDocuments decodes a collection snapshot, keeping its order.
func FromDocuments(docs []core.Document) []Semester {
	sems := make([]Semester, 0, len(docs))
	for _, doc := range docs {
		sems = append(sems, FromDocument(doc))
	}
	return sems
}

// End returns the end date, if set and well formed.
func (s Semester) End() (time.Time, bool) {
	return parseDate(s.EndDate)
}

// Start returns the start date, if set and well formed.
func (s Semester) Start() (time.Time, bool) {
	return parseDate(s.StartDate)
}

// Label is how the semester is named in reports.
func (s Semester) Label() string {
	if s.Title != "" {
		return s.Number + " (" + s.Title + ")"
	}
	return s.Number
}

// DaysLeft counts whole days from now until the end date, never below 0.
func (s Semester) DaysLeft(now time.Time) int {
	end, ok := s.End()
	if !ok {
		return 0
	}
	days := int(end.Sub(now.UTC()).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NewSemester contains information needed to create a new Semester.
type NewSemester struct {
	Number    string `json:"number" validate:"notblank"`
	Title     string `json:"title"`
	StartDate string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

func (ns *NewSemester) Validate() error {
	ns.Number = core.CleanString(ns.Number)
	ns.Title = core.CleanString(ns.Title)
	ns.StartDate = core.CleanString(ns.StartDate)
	ns.EndDate = core.CleanString(ns.EndDate)
	return core.Validate.Struct(ns)
}

func (ns NewSemester) document() map[string]interface{} {
	return map[string]interface{}{
		fieldNumber:    ns.Number,
		fieldTitle:     ns.Title,
		fieldStartDate: ns.StartDate,
		fieldEndDate:   ns.EndDate,
		fieldActive:    false,
	}
}

// UpdateSemester defines what information may be provided to modify an existing Semester.
// Nil fields are left untouched. The active flag is changed through SetActive only.
type UpdateSemester struct {
	Number    *string `json:"number"`
	Title     *string `json:"title"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

// Validate checks the semester as it will read once patched.
func (us *UpdateSemester) Validate(orig Semester) error {
	merged := NewSemester{Number: orig.Number, Title: orig.Title, StartDate: orig.StartDate, EndDate: orig.EndDate}
	for _, f := range []struct {
		src *string
		dst *string
	}{
		{us.Number, &merged.Number},
		{us.Title, &merged.Title},
		{us.StartDate, &merged.StartDate},
		{us.EndDate, &merged.EndDate},
	} {
		if f.src != nil {
			*f.src = core.CleanString(*f.src)
			*f.dst = *f.src
		}
	}
	return merged.Validate()
}

func (us UpdateSemester) document() map[string]interface{} {
	data := make(map[string]interface{})
	if us.Number != nil {
		data[fieldNumber] = *us.Number
	}
	if us.Title != nil {
		data[fieldTitle] = *us.Title
	}
	if us.StartDate != nil {
		data[fieldStartDate] = *us.StartDate
	}
	if us.EndDate != nil {
		data[fieldEndDate] = *us.EndDate
	}
	return data
}

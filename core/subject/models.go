package subject

import (
	"strconv"

	"github.com/spf13/cast"

	"github.com/trezcool/studytrack/core"
)

// Document fields
const (
	fieldTitle       = "title"
	fieldTeacher     = "teacher"
	fieldControlType = "controlType"
	fieldIconURL     = "iconUrl"
	fieldModules     = "modules"

	fieldModuleName     = "name"
	fieldModuleMax      = "max"
	fieldModuleObtained = "obtained"
)

// Module is a graded block embedded in a subject, identified by its position.
type Module struct {
	Name     string  `json:"name"`
	Max      float64 `json:"max"`
	Obtained float64 `json:"obtained"`
}

type Subject struct {
	ID          string   `json:"id"`
	SemesterID  string   `json:"semesterId"`
	Title       string   `json:"title"`
	Teacher     string   `json:"teacher,omitempty"`
	ControlType string   `json:"controlType,omitempty"`
	IconURL     string   `json:"iconUrl,omitempty"`
	Modules     []Module `json:"modules"`
}

// DefaultModuleName names the module at position i (0 based).
func DefaultModuleName(i int) string {
	return "Модуль " + strconv.Itoa(i+1)
}

// FromDocument decodes a stored subject of the given semester.
// Module scores that are missing, malformed or negative read as 0.
func FromDocument(semesterID string, doc core.Document) Subject {
	return Subject{
		ID:          doc.ID,
		SemesterID:  semesterID,
		Title:       core.String(doc.Get(fieldTitle)),
		Teacher:     core.String(doc.Get(fieldTeacher)),
		ControlType: core.String(doc.Get(fieldControlType)),
		IconURL:     core.String(doc.Get(fieldIconURL)),
		Modules:     decodeModules(doc.Get(fieldModules)),
	}
}

func FromDocuments(semesterID string, docs []core.Document) []Subject {
	subjs := make([]Subject, 0, len(docs))
	for _, doc := range docs {
		subjs = append(subjs, FromDocument(semesterID, doc))
	}
	return subjs
}

func decodeModules(v interface{}) []Module {
	items, err := cast.ToSliceE(v)
	if err != nil {
		return []Module{}
	}
	mods := make([]Module, 0, len(items))
	for i, item := range items {
		m, err := cast.ToStringMapE(item)
		if err != nil {
			continue
		}
		name := core.String(m[fieldModuleName])
		if name == "" {
			name = DefaultModuleName(i)
		}
		mods = append(mods, Module{
			Name:     name,
			Max:      nonNegative(core.FloatOrZero(m[fieldModuleMax])),
			Obtained: nonNegative(core.FloatOrZero(m[fieldModuleObtained])),
		})
	}
	return mods
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

// IDs returns the subject ids, in order.
func IDs(subjs []Subject) []string {
	ids := make([]string, 0, len(subjs))
	for _, s := range subjs {
		ids = append(ids, s.ID)
	}
	return ids
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Title       string `json:"title" validate:"notblank"`
	Teacher     string `json:"teacher"`
	ControlType string `json:"controlType"`
	IconURL     string `json:"iconUrl" validate:"omitempty,url"`
}

func (ns *NewSubject) Validate() error {
	ns.Title = core.CleanString(ns.Title)
	ns.Teacher = core.CleanString(ns.Teacher)
	ns.ControlType = core.CleanString(ns.ControlType)
	ns.IconURL = core.CleanString(ns.IconURL)
	return core.Validate.Struct(ns)
}

func (ns NewSubject) document() map[string]interface{} {
	return map[string]interface{}{
		fieldTitle:       ns.Title,
		fieldTeacher:     ns.Teacher,
		fieldControlType: ns.ControlType,
		fieldIconURL:     ns.IconURL,
		fieldModules:     []interface{}{},
	}
}

// UpdateSubject defines what information may be provided to modify an existing Subject.
// Nil fields are left untouched; modules are saved through SaveModules.
type UpdateSubject struct {
	Title       *string `json:"title"`
	Teacher     *string `json:"teacher"`
	ControlType *string `json:"controlType"`
	IconURL     *string `json:"iconUrl"`
}

// Validate checks the subject as it will read once patched.
func (us *UpdateSubject) Validate(orig Subject) error {
	merged := NewSubject{Title: orig.Title, Teacher: orig.Teacher, ControlType: orig.ControlType, IconURL: orig.IconURL}
	if us.Title != nil {
		merged.Title = *us.Title
	}
	if us.Teacher != nil {
		merged.Teacher = *us.Teacher
	}
	if us.ControlType != nil {
		merged.ControlType = *us.ControlType
	}
	if us.IconURL != nil {
		merged.IconURL = *us.IconURL
	}
	if err := merged.Validate(); err != nil {
		return err
	}

	// keep the cleaned values
	for _, f := range []struct {
		dst **string
		val string
	}{
		{&us.Title, merged.Title},
		{&us.Teacher, merged.Teacher},
		{&us.ControlType, merged.ControlType},
		{&us.IconURL, merged.IconURL},
	} {
		if *f.dst != nil {
			v := f.val
			*f.dst = &v
		}
	}
	return nil
}

func (us UpdateSubject) document() map[string]interface{} {
	data := make(map[string]interface{})
	if us.Title != nil {
		data[fieldTitle] = *us.Title
	}
	if us.Teacher != nil {
		data[fieldTeacher] = *us.Teacher
	}
	if us.ControlType != nil {
		data[fieldControlType] = *us.ControlType
	}
	if us.IconURL != nil {
		data[fieldIconURL] = *us.IconURL
	}
	return data
}

// ModuleInput is a module as submitted by the user. Scores may be numbers or numeric strings.
type ModuleInput struct {
	Name     string      `json:"name"`
	Max      interface{} `json:"max"`
	Obtained interface{} `json:"obtained"`
}

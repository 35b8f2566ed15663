package semester

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/studytrack/core"
)

var (
	periodTag  = "period"
	periodText = "the end date cannot be before the start date"
)

func init() {
	core.Validate.RegisterStructValidation(newSemesterStructValidation, NewSemester{})
	core.RegisterCustomTranslation(core.Validate, core.Translator, periodTag, periodText)
}

// newSemesterStructValidation checks that the semester does not end before it starts.
func newSemesterStructValidation(sl validator.StructLevel) {
	ns, ok := sl.Current().Interface().(NewSemester)
	if !ok {
		return
	}
	if !validPeriod(ns.StartDate, ns.EndDate) {
		sl.ReportError(ns.EndDate, "endDate", "EndDate", periodTag, "")
	}
}

// validPeriod is true unless both dates are well formed and end precedes start.
func validPeriod(start, end string) bool {
	s, okS := parseDate(start)
	e, okE := parseDate(end)
	return !(okS && okE && e.Before(s))
}

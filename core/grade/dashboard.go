package grade

import (
	"math"
	"time"

	"github.com/trezcool/studytrack/core/lab"
	"github.com/trezcool/studytrack/core/semester"
	"github.com/trezcool/studytrack/core/subject"
)

type (
	// Dashboard is the overview of the active semester.
	Dashboard struct {
		Semester          string            `json:"semester"` // empty when no semester is active
		SubjectCount      int               `json:"subjectCount"`
		CompletedLabs     int               `json:"completedLabs"`
		TotalLabs         int               `json:"totalLabs"`
		CompletionPercent int               `json:"completionPercent"`
		Average           float64           `json:"average"` // one decimal
		DaysLeft          int               `json:"daysLeft"`
		Histogram         []MonthCount      `json:"histogram"`
		Subjects          []SubjectProgress `json:"subjects"`
		Reminders         []Reminder        `json:"reminders"`
	}

	SubjectProgress struct {
		SubjectID string `json:"subjectId"`
		Title     string `json:"title"`
		Totals
		Completed int `json:"completed"`
		Total     int `json:"total"`
	}

	// Reminder flags a subject that still has labs to complete.
	Reminder struct {
		SubjectID string `json:"subjectId"`
		Title     string `json:"title"`
		Pending   int    `json:"pending"`
	}

	// Line is the grade summary of one subject.
	Line struct {
		SubjectID   string `json:"subjectId"`
		Title       string `json:"title"`
		Teacher     string `json:"teacher,omitempty"`
		ControlType string `json:"controlType,omitempty"`
		Labs        Totals `json:"labs"`
		Modules     Totals `json:"modules"`
		Total       Totals `json:"total"`
	}
)

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(whole)))
}

// NewDashboard rolls up the subjects of sem, which is nil when no semester is active.
func NewDashboard(sem *semester.Semester, subjects []subject.Subject, labsBySubject map[string][]lab.LabWork, now time.Time) Dashboard {
	d := Dashboard{
		SubjectCount: len(subjects),
		Subjects:     make([]SubjectProgress, 0, len(subjects)),
		Reminders:    []Reminder{},
	}
	if sem != nil {
		d.Semester = sem.Number
		d.DaysLeft = sem.DaysLeft(now)
	}

	var (
		all    []lab.LabWork
		totals = make([]Totals, 0, len(subjects))
	)
	for _, subj := range subjects {
		labs := labsBySubject[subj.ID]
		all = append(all, labs...)

		var completed int
		for _, l := range labs {
			if l.IsCompleted() {
				completed++
			}
		}
		t := SubjectWithModulesTotals(labs, subj.Modules)
		totals = append(totals, t)

		d.TotalLabs += len(labs)
		d.CompletedLabs += completed
		d.Subjects = append(d.Subjects, SubjectProgress{
			SubjectID: subj.ID,
			Title:     subj.Title,
			Totals:    t,
			Completed: completed,
			Total:     len(labs),
		})
		if pending := len(labs) - completed; pending > 0 {
			d.Reminders = append(d.Reminders, Reminder{SubjectID: subj.ID, Title: subj.Title, Pending: pending})
		}
	}

	d.CompletionPercent = percent(d.CompletedLabs, d.TotalLabs)
	d.Average = RoundTo(SemesterAverage(totals), 1)
	d.Histogram = MonthlyCompletionHistogram(all)
	return d
}

// Report returns one grade line per subject, in subject order.
func Report(subjects []subject.Subject, labsBySubject map[string][]lab.LabWork) []Line {
	lines := make([]Line, 0, len(subjects))
	for _, subj := range subjects {
		labs := labsBySubject[subj.ID]
		lines = append(lines, Line{
			SubjectID:   subj.ID,
			Title:       subj.Title,
			Teacher:     subj.Teacher,
			ControlType: subj.ControlType,
			Labs:        SubjectTotals(labs),
			Modules:     SubjectWithModulesTotals(nil, subj.Modules),
			Total:       SubjectWithModulesTotals(labs, subj.Modules),
		})
	}
	return lines
}

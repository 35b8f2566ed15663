package grade

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/studytrack/core/lab"
	"github.com/trezcool/studytrack/core/semester"
	"github.com/trezcool/studytrack/core/status"
	"github.com/trezcool/studytrack/core/subject"
)

func fixtures() (semester.Semester, []subject.Subject, map[string][]lab.LabWork) {
	sem := semester.Semester{ID: "sem1", Number: "1", EndDate: "2024-12-31", Active: true}
	subjects := []subject.Subject{
		{ID: "math", Title: "Math", Modules: []subject.Module{{Name: "M1", Max: 20, Obtained: 15}}},
		{ID: "art", Title: "Art"},
		{ID: "phys", Title: "Physics"},
	}
	created := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	labs := map[string][]lab.LabWork{
		"math": {
			{ID: "l1", Number: 1, MaxScore: 10, ObtainedScore: graded(10, 8).ObtainedScore, Status: status.Defended, CreatedAt: created},
			{ID: "l2", Number: 2, MaxScore: 5, Status: status.InProgress, CreatedAt: created},
		},
		"phys": {
			{ID: "l3", Number: 1, MaxScore: 10, Status: status.Done, CreatedAt: created.AddDate(0, 1, 0)},
		},
	}
	return sem, subjects, labs
}

func TestNewDashboard(t *testing.T) {
	sem, subjects, labs := fixtures()
	now := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	d := NewDashboard(&sem, subjects, labs, now)
	assert.Equal(t, "1", d.Semester)
	assert.Equal(t, 3, d.SubjectCount)
	assert.Equal(t, 2, d.CompletedLabs)
	assert.Equal(t, 3, d.TotalLabs)
	assert.Equal(t, 67, d.CompletionPercent)
	assert.Equal(t, 30, d.DaysLeft)
	// math: 23/35, art: excluded, phys: 0/10
	assert.Equal(t, 11.5, d.Average)
	assert.Equal(t, []MonthCount{{Month: "2024-10", Count: 1}, {Month: "2024-11", Count: 1}}, d.Histogram)
	assert.Equal(t, []Reminder{{SubjectID: "math", Title: "Math", Pending: 1}}, d.Reminders)

	require.Len(t, d.Subjects, 3)
	assert.Equal(t, SubjectProgress{SubjectID: "math", Title: "Math", Totals: Totals{Obtained: 23, Max: 35, Percent: 66}, Completed: 1, Total: 2}, d.Subjects[0])
	assert.Equal(t, SubjectProgress{SubjectID: "art", Title: "Art"}, d.Subjects[1])
}

func TestNewDashboard_NoActiveSemester(t *testing.T) {
	d := NewDashboard(nil, nil, nil, time.Now())
	assert.Equal(t, Dashboard{Subjects: []SubjectProgress{}, Reminders: []Reminder{}, Histogram: []MonthCount{}}, d)
}

func TestReport(t *testing.T) {
	_, subjects, labs := fixtures()
	lines := Report(subjects, labs)
	require.Len(t, lines, 3)
	assert.Equal(t, Line{
		SubjectID: "math",
		Title:     "Math",
		Labs:      Totals{Obtained: 8, Max: 15, Percent: 53},
		Modules:   Totals{Obtained: 15, Max: 20, Percent: 75},
		Total:     Totals{Obtained: 23, Max: 35, Percent: 66},
	}, lines[0])
	assert.Equal(t, Totals{}, lines[1].Total)
}

func TestWriteXLSX(t *testing.T) {
	_, subjects, labs := fixtures()
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "1", Report(subjects, labs)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(reportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2+len(subjects), "title, header and one row per subject")
	assert.Equal(t, "Семестр 1", rows[0][0])
	assert.Equal(t, reportHeader, rows[1])
	assert.Equal(t, "Math", rows[2][0])
	assert.Equal(t, "66", rows[2][len(reportHeader)-1])
	assert.Equal(t, "Physics", rows[4][0])
}

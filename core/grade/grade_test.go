package grade

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studytrack/core/lab"
	"github.com/trezcool/studytrack/core/status"
	"github.com/trezcool/studytrack/core/subject"
)

func graded(max, obtained float64) lab.LabWork {
	return lab.LabWork{MaxScore: max, ObtainedScore: null.Float64From(obtained)}
}

func ungraded(max float64) lab.LabWork {
	return lab.LabWork{MaxScore: max}
}

func TestSubjectTotals(t *testing.T) {
	tests := []struct {
		name string
		labs []lab.LabWork
		want Totals
	}{
		{name: "empty", want: Totals{}},
		{name: "graded and ungraded", labs: []lab.LabWork{graded(10, 8), ungraded(5)}, want: Totals{Obtained: 8, Max: 15, Percent: 53}},
		{name: "nothing scored", labs: []lab.LabWork{ungraded(0)}, want: Totals{}},
		{name: "rounds half up", labs: []lab.LabWork{graded(8, 1)}, want: Totals{Obtained: 1, Max: 8, Percent: 13}},
		{name: "full marks", labs: []lab.LabWork{graded(10, 10), graded(5, 5)}, want: Totals{Obtained: 15, Max: 15, Percent: 100}},
		{name: "non finite figures", labs: []lab.LabWork{graded(math.Inf(1), math.NaN()), graded(-3, -1), graded(4, 2)}, want: Totals{Obtained: 2, Max: 4, Percent: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SubjectTotals(tt.labs))
		})
	}
}

func TestSubjectTotals_OrderIndependent(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		labs := make([]lab.LabWork, 1+rnd.Intn(12))
		for j := range labs {
			max := float64(rnd.Intn(20)) + rnd.Float64()
			labs[j] = graded(max, max*rnd.Float64())
		}
		want := SubjectTotals(labs)
		assert.GreaterOrEqual(t, want.Percent, 0)
		assert.LessOrEqual(t, want.Percent, 100)

		shuffled := append([]lab.LabWork(nil), labs...)
		rnd.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, SubjectTotals(shuffled))
	}
}

func TestSubjectWithModulesTotals(t *testing.T) {
	labs := []lab.LabWork{graded(10, 8), ungraded(5)}
	mods := []subject.Module{{Name: "M1", Max: 40, Obtained: 30}, {Name: "M2", Max: -2, Obtained: math.NaN()}}

	got := SubjectWithModulesTotals(labs, mods)
	assert.Equal(t, Totals{Obtained: 38, Max: 55, Percent: 69}, got)
	assert.Equal(t, SubjectTotals(labs), SubjectWithModulesTotals(labs, nil))
	assert.Equal(t, Totals{}, SubjectWithModulesTotals(nil, nil))
	assert.Equal(t, 8.0, labs[0].Obtained(), "inputs are left untouched")
}

func TestSemesterAverage(t *testing.T) {
	tests := []struct {
		name     string
		subjects []Totals
		want     float64
	}{
		{name: "empty"},
		{name: "unscored subjects are excluded", subjects: []Totals{{Obtained: 0, Max: 0}, {Obtained: 8, Max: 10}}, want: 8},
		{name: "all unscored", subjects: []Totals{{}, {}}},
		{name: "unweighted mean", subjects: []Totals{{Obtained: 8, Max: 10}, {Obtained: 50, Max: 100}}, want: 29},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SemesterAverage(tt.subjects))
		})
	}
}

func TestMonthlyCompletionHistogram(t *testing.T) {
	at := func(y int, m time.Month) time.Time { return time.Date(y, m, 15, 10, 0, 0, 0, time.UTC) }
	labs := []lab.LabWork{
		{Status: status.Done, CreatedAt: at(2024, 11)},
		{Status: status.Defended, CreatedAt: at(2024, 9)},
		{Status: status.Normalize("defended"), CreatedAt: at(2024, 11)},
		{Status: status.InProgress, CreatedAt: at(2024, 10)},
		{Status: status.NotStarted, CreatedAt: at(2024, 8)},
		{Status: status.Done},
		{Status: "archived", CreatedAt: at(2024, 12)},
	}
	want := []MonthCount{
		{Month: "1970-01", Count: 1},
		{Month: "2024-09", Count: 1},
		{Month: "2024-11", Count: 2},
	}
	assert.Equal(t, want, MonthlyCompletionHistogram(labs))
	assert.Empty(t, MonthlyCompletionHistogram(nil))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 7.3, RoundTo(7.25, 1))
	assert.Equal(t, 8.0, RoundTo(8, 1))
	assert.Equal(t, 0.0, RoundTo(0, 1))
}

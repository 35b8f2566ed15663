// Package grade derives totals, percentages and rollups from labs and modules.
// Every function is pure: inputs are never modified and malformed figures count as 0.
package grade

import (
	"math"
	"sort"
	"time"

	"github.com/trezcool/studytrack/core/lab"
	"github.com/trezcool/studytrack/core/subject"
)

// MonthLayout keys the completion histogram.
const MonthLayout = "2006-01"

// Totals sums the obtained and maximum scores of a subject.
type Totals struct {
	Obtained float64 `json:"obtained"`
	Max      float64 `json:"max"`
	Percent  int     `json:"percent"` // round(100 * obtained / max), 0 when max is 0
}

type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}

// figure coerces a score into a usable number.
func figure(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// sum adds values in ascending order, so the result does not depend on the input order.
func sum(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var total float64
	for _, v := range sorted {
		total += v
	}
	return total
}

func newTotals(obtained, max []float64) Totals {
	t := Totals{Obtained: sum(obtained), Max: sum(max)}
	if t.Max > 0 {
		t.Percent = int(math.Round(100 * t.Obtained / t.Max))
	}
	return t
}

func labFigures(labs []lab.LabWork) (obtained, max []float64) {
	obtained = make([]float64, 0, len(labs))
	max = make([]float64, 0, len(labs))
	for _, l := range labs {
		obtained = append(obtained, figure(l.Obtained()))
		max = append(max, figure(l.MaxScore))
	}
	return obtained, max
}

// SubjectTotals sums the scores of the labs of a subject. Ungraded labs count 0 obtained.
func SubjectTotals(labs []lab.LabWork) Totals {
	return newTotals(labFigures(labs))
}

// SubjectWithModulesTotals sums the scores of the labs and the modules of a subject.
func SubjectWithModulesTotals(labs []lab.LabWork, modules []subject.Module) Totals {
	obtained, max := labFigures(labs)
	for _, m := range modules {
		obtained = append(obtained, figure(m.Obtained))
		max = append(max, figure(m.Max))
	}
	return newTotals(obtained, max)
}

// SemesterAverage is the mean obtained score over the subjects with a positive maximum.
// Subjects without any scored material are left out entirely. Subjects are not weighted.
func SemesterAverage(subjects []Totals) float64 {
	values := make([]float64, 0, len(subjects))
	for _, t := range subjects {
		if figure(t.Max) > 0 {
			values = append(values, figure(t.Obtained))
		}
	}
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// MonthlyCompletionHistogram counts completed labs per month of creation, in ascending month order.
// Labs without a creation time are counted in January 1970.
func MonthlyCompletionHistogram(labs []lab.LabWork) []MonthCount {
	counts := make(map[string]int)
	for _, l := range labs {
		if !l.IsCompleted() {
			continue
		}
		created := l.CreatedAt
		if created.IsZero() {
			created = time.Unix(0, 0)
		}
		counts[created.UTC().Format(MonthLayout)]++
	}

	hist := make([]MonthCount, 0, len(counts))
	for month, n := range counts {
		hist = append(hist, MonthCount{Month: month, Count: n})
	}
	sort.Slice(hist, func(i, j int) bool { return hist[i].Month < hist[j].Month })
	return hist
}

// RoundTo rounds f to the given number of decimals.
func RoundTo(f float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(f*p) / p
}

package status

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// MinSuggestRatio is the similarity below which Suggest gives up.
const MinSuggestRatio = .6

// Suggestion is the closest canonical status to an unrecognized value.
type Suggestion struct {
	Status Status  `json:"status"`
	Ratio  float64 `json:"ratio"`
}

// Suggest compares raw with every known variant and returns the status of the most similar one.
// ok is false when raw is already recognized or nothing is similar enough.
func (c *Codec) Suggest(raw string) (sug Suggestion, ok bool) {
	key := strings.TrimSpace(raw)
	if key == "" || c.Recognized(key) {
		return Suggestion{}, false
	}

	chars := strings.Split(strings.ToLower(key), "")
	for _, s := range All {
		for v := range c.sets[s] {
			m := difflib.NewMatcher(chars, strings.Split(strings.ToLower(v), ""))
			if m.QuickRatio() <= sug.Ratio {
				continue
			}
			if r := m.Ratio(); r > sug.Ratio {
				sug = Suggestion{Status: s, Ratio: r}
			}
		}
	}
	return sug, sug.Ratio >= MinSuggestRatio
}

func Suggest(raw string) (Suggestion, bool) { return std.Suggest(raw) }

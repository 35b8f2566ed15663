package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func garble(t *testing.T, cm *charmap.Charmap, s string) string {
	t.Helper()
	out, err := cm.NewDecoder().String(s)
	require.NoError(t, err)
	return out
}

func TestNormalize_FixedPoint(t *testing.T) {
	for _, s := range All {
		t.Run(s.ID(), func(t *testing.T) {
			once := Normalize(string(s))
			assert.Equal(t, s, once)
			assert.Equal(t, once, Normalize(string(once)))
		})
	}
}

func TestNormalize_Variants(t *testing.T) {
	c := Default()
	for _, s := range All {
		variants := c.Variants(s)
		require.NotEmpty(t, variants)
		for _, v := range variants {
			assert.Equalf(t, Normalize(string(s)), Normalize(v), "variant %q of %q", v, s)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Status
	}{
		{name: "empty", raw: "", want: ""},
		{name: "blank", raw: "  ", want: "  "},
		{name: "canonical", raw: "У процесі", want: InProgress},
		{name: "surrounding whitespace", raw: " Виконано\n", want: Done},
		{name: "legacy id", raw: "not_started", want: NotStarted},
		{name: "legacy english", raw: "Defended", want: Defended},
		{name: "windows-1251 mojibake", raw: garble(t, charmap.Windows1251, "Захищено"), want: Defended},
		{name: "koi8-u mojibake", raw: garble(t, charmap.KOI8U, "Виконано"), want: Done},
		{name: "latin-1 mojibake", raw: garble(t, charmap.ISO8859_1, "У процесі"), want: InProgress},
		{name: "unknown passes through", raw: "archived", want: "archived"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestIsCompleted(t *testing.T) {
	c := Default()
	want := map[Status]bool{NotStarted: false, InProgress: false, Done: true, Defended: true}
	for s, completed := range want {
		for _, v := range c.Variants(s) {
			assert.Equalf(t, completed, IsCompleted(v), "IsCompleted(%q)", v)
			assert.Equalf(t, s == Defended, IsDefended(v), "IsDefended(%q)", v)
		}
	}
	assert.False(t, IsCompleted(""))
	assert.False(t, IsCompleted("archived"))
}

func TestCorruptedDefendedCountsAsCompleted(t *testing.T) {
	// UTF-8 bytes of "Захищено" read as Windows-1251
	raw := string([]rune{'Р', '—', 'Р', '°', 'С', '…', 'Р', 'ё', 'С', '‰', 'Р', 'µ', 'Р', 'Ѕ', 'Р', 'ѕ'})
	assert.Equal(t, garble(t, charmap.Windows1251, "Захищено"), raw)

	assert.Equal(t, Defended, Normalize(raw))
	assert.True(t, IsCompleted(raw))
	assert.True(t, IsDefended(raw))
}

func TestNewCodec(t *testing.T) {
	t.Run("builtin table is disjoint", func(t *testing.T) {
		_, err := NewCodec(Builtin())
		require.NoError(t, err)
	})

	t.Run("overlapping variant", func(t *testing.T) {
		tbl := Builtin()
		tbl.Add(Done, "defended")
		_, err := NewCodec(tbl)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"defended"`)
	})

	t.Run("canonical form claimed by another status", func(t *testing.T) {
		_, err := NewCodec(Table{NotStarted: {string(Done)}})
		require.Error(t, err)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := NewCodec(Table{"archived": {"old"}})
		require.Error(t, err)
	})

	t.Run("registered variant", func(t *testing.T) {
		tbl := Builtin()
		tbl.Add(InProgress, "в процесі")
		c, err := NewCodec(tbl)
		require.NoError(t, err)
		assert.Equal(t, InProgress, c.Normalize("в процесі"))
		assert.Equal(t, Status("в процесі"), Normalize("в процесі"))
	})
}

func TestParseVariants(t *testing.T) {
	tbl, err := ParseVariants([]byte("defended:\n  - Zakhyshcheno\nВиконано:\n  - виконано\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Zakhyshcheno"}, tbl[Defended])
	assert.Equal(t, []string{"виконано"}, tbl[Done])

	_, err = ParseVariants([]byte("archived:\n  - x\n"))
	assert.Error(t, err)

	_, err = ParseVariants([]byte("defended: [unclosed"))
	assert.Error(t, err)
}

func TestSuggest(t *testing.T) {
	sug, ok := Suggest("Захищенно")
	require.True(t, ok)
	assert.Equal(t, Defended, sug.Status)
	assert.Greater(t, sug.Ratio, MinSuggestRatio)

	_, ok = Suggest("Захищено")
	assert.False(t, ok, "recognized values need no suggestion")

	_, ok = Suggest("")
	assert.False(t, ok)
}

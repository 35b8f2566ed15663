package status

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Table maps every canonical status to its accepted textual variants.
type Table map[Status][]string

// Add registers more variants for s.
func (t Table) Add(s Status, variants ...string) {
	t[s] = append(t[s], variants...)
}

// Merge adds every variant of other to t.
func (t Table) Merge(other Table) {
	for s, variants := range other {
		t.Add(s, variants...)
	}
}

// Builtin returns the variants known to this version: the canonical forms, the identifiers and English labels
// of the previous schema revision, and the text produced by the historical encoding incidents.
func Builtin() Table {
	t := Table{
		NotStarted: {"not_started", "Not started", "Not Started"},
		InProgress: {"in_progress", "In progress", "In Progress"},
		Done:       {"done", "Done", "Completed"},
		Defended:   {"defended", "Defended"},
	}
	for _, s := range All {
		t.Add(s, Mojibake(string(s))...)
	}
	return t
}

// Codec normalizes raw status text. It is immutable once built and safe for concurrent use.
type Codec struct {
	sets map[Status]map[string]struct{}
}

// NewCodec builds a codec from t. Every canonical form is always a variant of itself.
// It fails when a variant is claimed by two statuses or when t names a status that is not canonical.
func NewCodec(t Table) (*Codec, error) {
	c := &Codec{sets: make(map[Status]map[string]struct{}, len(All))}
	owner := make(map[string]Status)

	claim := func(s Status, v string) error {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil
		}
		if prev, ok := owner[v]; ok && prev != s {
			return errors.Errorf("status variant %q claimed by both %q and %q", v, prev, s)
		}
		owner[v] = s
		c.sets[s][v] = struct{}{}
		return nil
	}

	for _, s := range All {
		c.sets[s] = make(map[string]struct{})
		if err := claim(s, string(s)); err != nil {
			return nil, err
		}
	}
	for _, s := range sortedKeys(t) {
		if !s.IsCanonical() {
			return nil, errors.Errorf("unknown status %q in variants table", s)
		}
		for _, v := range t[s] {
			if err := claim(s, v); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// MustCodec is like NewCodec but panics on an invalid table.
func MustCodec(t Table) *Codec {
	c, err := NewCodec(t)
	if err != nil {
		panic(fmt.Sprintf("status: %v", err))
	}
	return c
}

// Normalize maps raw onto its canonical status. Empty and unrecognized input is returned unchanged.
func (c *Codec) Normalize(raw string) Status {
	key := strings.TrimSpace(raw)
	if key == "" {
		return Status(raw)
	}
	for _, s := range All {
		if _, ok := c.sets[s][key]; ok {
			return s
		}
	}
	return Status(raw)
}

// Recognized reports whether raw is a known variant of some status.
func (c *Codec) Recognized(raw string) bool {
	return c.Normalize(raw).IsCanonical()
}

func (c *Codec) IsCompleted(raw string) bool {
	switch c.Normalize(raw) {
	case Done, Defended:
		return true
	}
	return false
}

func (c *Codec) IsDefended(raw string) bool {
	return c.Normalize(raw) == Defended
}

// Variants returns the accepted variants of s, sorted.
func (c *Codec) Variants(s Status) []string {
	set := c.sets[s]
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(t Table) []Status {
	keys := make([]Status, 0, len(t))
	for s := range t {
		keys = append(keys, s)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

var std = MustCodec(Builtin())

// Default returns the codec used by the package level helpers.
func Default() *Codec {
	return std
}

// SetDefault replaces the package level codec. It must be called during startup, before any lookup.
func SetDefault(c *Codec) {
	std = c
}

func Normalize(raw string) Status { return std.Normalize(raw) }
func IsCompleted(raw string) bool { return std.IsCompleted(raw) }
func IsDefended(raw string) bool  { return std.IsDefended(raw) }
func Recognized(raw string) bool  { return std.Recognized(raw) }
func IsCanonical(raw string) bool { return Status(raw).IsCanonical() }

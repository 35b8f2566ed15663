package status

import (
	"io/ioutil"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
)

// legacyCharmaps are the single byte encodings UTF-8 text was mistakenly read as.
var legacyCharmaps = []*charmap.Charmap{
	charmap.Windows1251,
	charmap.KOI8U,
	charmap.ISO8859_1,
}

// Mojibake returns s as it reads when its UTF-8 bytes are decoded with each legacy charmap.
func Mojibake(s string) []string {
	out := make([]string, 0, len(legacyCharmaps))
	for _, cm := range legacyCharmaps {
		garbled, err := cm.NewDecoder().String(s)
		if err != nil || garbled == s || !utf8.ValidString(garbled) || strings.ContainsRune(garbled, utf8.RuneError) {
			continue
		}
		out = append(out, garbled)
	}
	return out
}

// LoadVariants reads additional variants from a YAML file shaped like:
//
//	defended:
//	  - "Zakhyshcheno"
//	Виконано:
//	  - "виконано"
//
// Keys are canonical forms or their identifiers.
func LoadVariants(path string) (Table, error) {
	content, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading status variants")
	}
	return ParseVariants(content)
}

func ParseVariants(content []byte) (Table, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding status variants")
	}

	t := make(Table, len(raw))
	for key, variants := range raw {
		s := Status(strings.TrimSpace(key))
		if !s.IsCanonical() {
			var ok bool
			if s, ok = FromID(strings.TrimSpace(key)); !ok {
				return nil, errors.Errorf("unknown status %q in variants file", key)
			}
		}
		t.Add(s, variants...)
	}
	return t, nil
}

// Build returns the codec for the builtin table plus the variants of file, if any.
func Build(file string) (*Codec, error) {
	t := Builtin()
	if file != "" {
		extra, err := LoadVariants(file)
		if err != nil {
			return nil, err
		}
		t.Merge(extra)
	}
	return NewCodec(t)
}

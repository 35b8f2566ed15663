package semester

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/storage/docstore/memstore"
)

type patch struct {
	doc    string
	active bool
}

type recordingPatcher struct {
	patches []patch
	err     error
}

func (p *recordingPatcher) Patch(_ context.Context, doc string, data map[string]interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.patches = append(p.patches, patch{doc: doc, active: data[fieldActive].(bool)})
	return nil
}

func TestActive(t *testing.T) {
	tests := []struct {
		name   string
		sems   []Semester
		wantID string
		wantOK bool
	}{
		{name: "empty"},
		{name: "none flagged", sems: []Semester{{ID: "a"}, {ID: "b"}}},
		{name: "one flagged", sems: []Semester{{ID: "a"}, {ID: "b", Active: true}}, wantID: "b", wantOK: true},
		{name: "first flagged wins", sems: []Semester{{ID: "a", Active: true}, {ID: "b", Active: true}}, wantID: "a", wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Active(tt.sems)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestSetActive_Patches(t *testing.T) {
	coll := core.SemestersPath("u1")
	doc := func(id string) string { return core.DocPath(coll, id) }

	tests := []struct {
		name    string
		sems    []Semester
		target  string
		want    []patch
		wantErr error
	}{
		{
			name:   "switch",
			sems:   []Semester{{ID: "a", Active: true}, {ID: "b"}},
			target: "b",
			want:   []patch{{doc("a"), false}, {doc("b"), true}},
		},
		{
			name:   "first activation",
			sems:   []Semester{{ID: "a"}, {ID: "b"}},
			target: "a",
			want:   []patch{{doc("a"), true}},
		},
		{
			name:   "already sole active is a no-op",
			sems:   []Semester{{ID: "a", Active: true}, {ID: "b"}},
			target: "a",
		},
		{
			name:   "repairs several active semesters",
			sems:   []Semester{{ID: "a", Active: true}, {ID: "b", Active: true}, {ID: "c", Active: true}},
			target: "b",
			want:   []patch{{doc("a"), false}, {doc("c"), false}},
		},
		{
			name:    "unknown target",
			sems:    []Semester{{ID: "a", Active: true}},
			target:  "zzz",
			wantErr: core.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &recordingPatcher{}
			err := SetActive(context.Background(), p, "u1", tt.sems, tt.target)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				assert.Empty(t, p.patches)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.patches)
		})
	}
}

func TestSetActive_StoreError(t *testing.T) {
	p := &recordingPatcher{err: errors.New("unavailable")}
	err := SetActive(context.Background(), p, "u1", []Semester{{ID: "a", Active: true}, {ID: "b"}}, "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deactivating semester")
}

func TestSetActive_SingleActive(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewService(store)

	var ids []string
	for _, n := range []string{"1", "2", "3", "4"} {
		sem, err := svc.Create(ctx, "u1", NewSemester{Number: n})
		require.NoError(t, err)
		ids = append(ids, sem.ID)
	}

	load := func() []Semester {
		docs, err := core.Fetch(ctx, store, core.SemestersPath("u1"))
		require.NoError(t, err)
		return FromDocuments(docs)
	}

	for _, target := range []string{ids[2], ids[0], ids[0], ids[3]} {
		require.NoError(t, svc.SetActive(ctx, "u1", load(), target))

		sems := load()
		active, ok := Active(sems)
		require.True(t, ok)
		assert.Equal(t, target, active.ID)

		var n int
		for _, s := range sems {
			if s.Active {
				n++
			}
		}
		assert.Equal(t, 1, n)
	}
}

// Package storetest checks that a DocumentStore honours the contract the mirror relies on.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studytrack/core"
)

// Timeout bounds every wait for a notification.
var Timeout = 5 * time.Second

// Recorder collects the snapshots delivered to one listener.
type Recorder struct {
	mu    sync.Mutex
	snaps [][]core.Document
	errs  []error
	ch    chan struct{}
}

func NewRecorder() *Recorder {
	return &Recorder{ch: make(chan struct{}, 1024)}
}

func (r *Recorder) Func(docs []core.Document, err error) {
	r.mu.Lock()
	if err != nil {
		r.errs = append(r.errs, err)
	} else {
		r.snaps = append(r.snaps, docs)
	}
	r.mu.Unlock()
	r.ch <- struct{}{}
}

// Wait blocks until n deliveries (snapshots or errors) have been recorded.
func (r *Recorder) Wait(t *testing.T, n int) {
	t.Helper()
	deadline := time.After(Timeout)
	for r.Count() < n {
		select {
		case <-r.ch:
		case <-deadline:
			t.Fatalf("timed out waiting for %d notifications, got %d", n, r.Count())
		}
	}
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps) + len(r.errs)
}

func (r *Recorder) Last() []core.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return nil
	}
	return r.snaps[len(r.snaps)-1]
}

func (r *Recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func ids(docs []core.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

// Run exercises store. Collections are namespaced by prefix so runs do not collide.
func Run(t *testing.T, store core.DocumentStore, prefix string) {
	ctx := context.Background()

	t.Run("initial snapshot", func(t *testing.T) {
		coll := core.SemestersPath(prefix + "-initial")
		id, err := store.Add(ctx, coll, map[string]interface{}{"number": "1"})
		require.NoError(t, err)

		rec := NewRecorder()
		dispose := store.Listen(coll, rec.Func)
		defer dispose()

		rec.Wait(t, 1)
		require.Equal(t, []string{id}, ids(rec.Last()))
		assert.Equal(t, "1", core.String(rec.Last()[0].Get("number")))
	})

	t.Run("empty collection", func(t *testing.T) {
		rec := NewRecorder()
		dispose := store.Listen(core.SemestersPath(prefix+"-empty"), rec.Func)
		defer dispose()

		rec.Wait(t, 1)
		assert.Empty(t, rec.Last())
		assert.Empty(t, rec.Errors())
	})

	t.Run("snapshot per change", func(t *testing.T) {
		coll := core.SemestersPath(prefix + "-changes")
		rec := NewRecorder()
		dispose := store.Listen(coll, rec.Func)
		defer dispose()
		rec.Wait(t, 1)

		id1, err := store.Add(ctx, coll, map[string]interface{}{"number": "1", "active": false})
		require.NoError(t, err)
		rec.Wait(t, 2)
		id2, err := store.Add(ctx, coll, map[string]interface{}{"number": "2", "active": false})
		require.NoError(t, err)
		rec.Wait(t, 3)
		assert.Equal(t, []string{id1, id2}, ids(rec.Last()), "insertion order")

		require.NoError(t, store.Patch(ctx, core.DocPath(coll, id2), map[string]interface{}{"active": true}))
		rec.Wait(t, 4)
		last := rec.Last()
		require.Len(t, last, 2)
		assert.True(t, core.Bool(last[1].Get("active")))
		assert.Equal(t, "2", core.String(last[1].Get("number")), "patch merges fields")

		require.NoError(t, store.Remove(ctx, core.DocPath(coll, id1)))
		rec.Wait(t, 5)
		assert.Equal(t, []string{id2}, ids(rec.Last()))
	})

	t.Run("patch missing document", func(t *testing.T) {
		err := store.Patch(ctx, core.DocPath(core.SemestersPath(prefix+"-missing"), "nope"), map[string]interface{}{"active": true})
		assert.Error(t, err)
	})

	t.Run("disposal stops delivery", func(t *testing.T) {
		coll := core.SemestersPath(prefix + "-dispose")
		rec := NewRecorder()
		dispose := store.Listen(coll, rec.Func)
		rec.Wait(t, 1)

		dispose()
		dispose() // idempotent

		probe := NewRecorder()
		disposeProbe := store.Listen(coll, probe.Func)
		defer disposeProbe()
		probe.Wait(t, 1)

		_, err := store.Add(ctx, coll, map[string]interface{}{"number": "3"})
		require.NoError(t, err)
		probe.Wait(t, 2)
		assert.Equal(t, 1, rec.Count())
	})

	t.Run("collections are independent", func(t *testing.T) {
		a := core.SubjectsPath(prefix+"-indep", "a")
		b := core.SubjectsPath(prefix+"-indep", "b")
		recA, recB := NewRecorder(), NewRecorder()
		disposeA := store.Listen(a, recA.Func)
		defer disposeA()
		disposeB := store.Listen(b, recB.Func)
		defer disposeB()
		recA.Wait(t, 1)
		recB.Wait(t, 1)

		_, err := store.Add(ctx, b, map[string]interface{}{"title": "Physics"})
		require.NoError(t, err)
		recB.Wait(t, 2)
		assert.Equal(t, 1, recA.Count())
	})

	t.Run("fetch", func(t *testing.T) {
		coll := core.LabsPath(prefix+"-fetch", "s", "x")
		_, err := store.Add(ctx, coll, map[string]interface{}{"number": 1})
		require.NoError(t, err)

		docs, err := core.Fetch(ctx, store, coll)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})
}

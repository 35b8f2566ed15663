package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/storage/docstore/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, New(), "mem")
}

func TestStore_Synchronous(t *testing.T) {
	store := New()
	coll := core.SemestersPath("u1")

	var got [][]core.Document
	dispose := store.Listen(coll, func(docs []core.Document, err error) {
		require.NoError(t, err)
		got = append(got, docs)
	})
	require.Len(t, got, 1, "initial snapshot is delivered before Listen returns")

	_, err := store.Add(context.Background(), coll, map[string]interface{}{"number": "1"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, store.Listeners(coll))

	dispose()
	assert.Zero(t, store.Listeners(coll))
	assert.Zero(t, store.TotalListeners())
}

func TestStore_ListenFromCallback(t *testing.T) {
	store := New()
	parent, child := core.SemestersPath("u1"), core.SubjectsPath("u1", "s1")

	var trace []string
	store.Listen(parent, func(docs []core.Document, err error) {
		trace = append(trace, "parent")
		store.Listen(child, func(docs []core.Document, err error) {
			trace = append(trace, "child")
		})
	})
	assert.Equal(t, []string{"parent", "child"}, trace, "nested deliveries are queued, not re-entered")
	assert.ElementsMatch(t, []string{parent, child}, store.ListenedCollections())
}

func TestStore_FailListen(t *testing.T) {
	store := New()
	coll := core.SemestersPath("u1")
	denied := errors.New("permission denied")
	store.FailListen(coll, denied)

	var gotErr error
	dispose := store.Listen(coll, func(docs []core.Document, err error) { gotErr = err })
	dispose()
	require.Error(t, gotErr)
	assert.True(t, errors.Is(gotErr, denied))
	assert.Zero(t, store.Listeners(coll))

	store.FailListen(coll, nil)
	gotErr = nil
	dispose = store.Listen(coll, func(docs []core.Document, err error) { gotErr = err })
	defer dispose()
	assert.NoError(t, gotErr)
	assert.Equal(t, 1, store.Listeners(coll))
}

func TestStore_Drop(t *testing.T) {
	store := New()
	coll := core.SemestersPath("u1")

	var errs int
	store.Listen(coll, func(docs []core.Document, err error) {
		if err != nil {
			errs++
		}
	})
	store.Drop(coll, errors.New("revoked"))
	assert.Equal(t, 1, errs)
	assert.Zero(t, store.Listeners(coll))
}

func TestStore_SnapshotsAreCopies(t *testing.T) {
	store := New()
	coll := core.SemestersPath("u1")
	data := map[string]interface{}{"number": "1"}
	_, err := store.Add(context.Background(), coll, data)
	require.NoError(t, err)
	data["number"] = "changed"

	docs, err := core.Fetch(context.Background(), store, coll)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "1", docs[0].Get("number"))

	docs[0].Data["number"] = "mutated"
	docs, _ = core.Fetch(context.Background(), store, coll)
	assert.Equal(t, "1", docs[0].Get("number"))
}

package core

import (
	"context"
	"path"
	"strings"
	"sync"
)

type (
	// Document is one record of a collection, as held by the DocumentStore.
	Document struct {
		ID   string                 `json:"id"`
		Data map[string]interface{} `json:"data"`
	}

	// ChangeFunc receives the full contents of a collection after every change,
	// or the error that made the store drop the subscription.
	ChangeFunc func(docs []Document, err error)

	// Disposer cancels a subscription. Calling it more than once is a no-op.
	Disposer func()

	// DocumentStore is the remote source of truth.
	// Writes are last-write-wins per document; there is no multi-document atomicity.
	DocumentStore interface {
		// Listen delivers the current contents of the collection first, then one snapshot per change,
		// in emission order.
		Listen(collection string, fn ChangeFunc) Disposer
		Add(ctx context.Context, collection string, data map[string]interface{}) (string, error)
		// Patch merges the given top-level fields into the document.
		Patch(ctx context.Context, doc string, data map[string]interface{}) error
		Remove(ctx context.Context, doc string) error
	}
)

// Get returns the value of a top-level field.
func (d Document) Get(field string) interface{} {
	if d.Data == nil {
		return nil
	}
	return d.Data[field]
}

// Collection paths

func SemestersPath(uid string) string {
	return path.Join("users", uid, "semesters")
}

func SubjectsPath(uid, semesterID string) string {
	return path.Join(SemestersPath(uid), semesterID, "subjects")
}

func LabsPath(uid, semesterID, subjectID string) string {
	return path.Join(SubjectsPath(uid, semesterID), subjectID, "labs")
}

// DocPath joins a collection path and a document id.
func DocPath(collection, id string) string {
	return collection + "/" + id
}

// SplitDocPath splits a document path into its collection and id.
func SplitDocPath(doc string) (collection, id string) {
	i := strings.LastIndex(doc, "/")
	if i < 0 {
		return "", doc
	}
	return doc[:i], doc[i+1:]
}

// OnceDisposer makes fn safe to call many times.
func OnceDisposer(fn func()) Disposer {
	var once sync.Once
	return func() { once.Do(fn) }
}

// Fetch reads the current contents of a collection through a short-lived subscription.
func Fetch(ctx context.Context, store DocumentStore, collection string) ([]Document, error) {
	type result struct {
		docs []Document
		err  error
	}
	ch := make(chan result, 1)
	dispose := store.Listen(collection, func(docs []Document, err error) {
		select {
		case ch <- result{docs, err}:
		default:
		}
	})
	defer dispose()

	select {
	case res := <-ch:
		return res.docs, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

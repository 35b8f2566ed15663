// Package memstore is an in-memory DocumentStore for development and tests.
//
// Notifications are delivered synchronously: by the time a write returns on an otherwise idle store,
// every listener of the written collection has received its snapshot.
package memstore

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/core/serial"
)

type (
	collection struct {
		ids  []string // insertion order
		docs map[string]map[string]interface{}
	}

	listener struct {
		fn     core.ChangeFunc
		closed int32
	}

	Store struct {
		mu        sync.RWMutex
		colls     map[string]*collection
		listeners map[string]map[*listener]struct{}
		failures  map[string]error
		delivery  serial.Queue
	}
)

var _ core.DocumentStore = (*Store)(nil)

func New() *Store {
	return &Store{
		colls:     make(map[string]*collection),
		listeners: make(map[string]map[*listener]struct{}),
		failures:  make(map[string]error),
	}
}

// FailListen makes the next Listen calls on coll fail with err. A nil err clears the fault.
func (s *Store) FailListen(coll string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, coll)
		return
	}
	s.failures[coll] = err
}

// Drop terminates every listener of coll with err, as a server revoking access would.
func (s *Store) Drop(coll string, err error) {
	s.mu.Lock()
	ls := s.listeners[coll]
	delete(s.listeners, coll)
	for l := range ls {
		l := l
		s.delivery.Push(func() { l.fn(nil, err) })
	}
	s.mu.Unlock()
	s.delivery.Drain()
}

// Listeners returns the number of live listeners on coll.
func (s *Store) Listeners(coll string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners[coll])
}

// TotalListeners returns the number of live listeners on every collection.
func (s *Store) TotalListeners() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	for _, ls := range s.listeners {
		n += len(ls)
	}
	return n
}

// ListenedCollections lists the collections with at least one live listener.
func (s *Store) ListenedCollections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	colls := make([]string, 0, len(s.listeners))
	for coll, ls := range s.listeners {
		if len(ls) > 0 {
			colls = append(colls, coll)
		}
	}
	return colls
}

func (s *Store) Listen(coll string, fn core.ChangeFunc) core.Disposer {
	l := &listener{fn: fn}

	s.mu.Lock()
	if err, ok := s.failures[coll]; ok {
		s.mu.Unlock()
		s.delivery.Do(func() { fn(nil, errors.Wrapf(err, "listening to %s", coll)) })
		return func() {}
	}
	if s.listeners[coll] == nil {
		s.listeners[coll] = make(map[*listener]struct{})
	}
	s.listeners[coll][l] = struct{}{}
	docs := s.snapshot(coll)
	s.delivery.Push(func() { l.deliver(docs) })
	s.mu.Unlock()
	s.delivery.Drain()

	return core.OnceDisposer(func() {
		atomic.StoreInt32(&l.closed, 1)
		s.mu.Lock()
		delete(s.listeners[coll], l)
		if len(s.listeners[coll]) == 0 {
			delete(s.listeners, coll)
		}
		s.mu.Unlock()
	})
}

func (l *listener) deliver(docs []core.Document) {
	if atomic.LoadInt32(&l.closed) == 1 {
		return
	}
	l.fn(docs, nil)
}

func (s *Store) Add(ctx context.Context, coll string, data map[string]interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.New().String()

	s.mu.Lock()
	c := s.coll(coll)
	c.ids = append(c.ids, id)
	c.docs[id] = copyData(data)
	s.notify(coll)
	s.mu.Unlock()
	s.delivery.Drain()
	return id, nil
}

func (s *Store) Patch(ctx context.Context, doc string, data map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	collPath, id := core.SplitDocPath(doc)

	s.mu.Lock()
	c, ok := s.colls[collPath]
	if !ok || c.docs[id] == nil {
		s.mu.Unlock()
		return errors.Wrapf(core.ErrNotFound, "document %s", doc)
	}
	for k, v := range data {
		c.docs[id][k] = v
	}
	s.notify(collPath)
	s.mu.Unlock()
	s.delivery.Drain()
	return nil
}

// Remove deletes a document. Removing a missing document is not an error.
func (s *Store) Remove(ctx context.Context, doc string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	collPath, id := core.SplitDocPath(doc)

	s.mu.Lock()
	c, ok := s.colls[collPath]
	if !ok || c.docs[id] == nil {
		s.mu.Unlock()
		return nil
	}
	delete(c.docs, id)
	for i, cid := range c.ids {
		if cid == id {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			break
		}
	}
	s.notify(collPath)
	s.mu.Unlock()
	s.delivery.Drain()
	return nil
}

// coll must be called with the write lock held.
func (s *Store) coll(path string) *collection {
	c, ok := s.colls[path]
	if !ok {
		c = &collection{docs: make(map[string]map[string]interface{})}
		s.colls[path] = c
	}
	return c
}

// snapshot must be called with the lock held.
func (s *Store) snapshot(path string) []core.Document {
	c, ok := s.colls[path]
	if !ok {
		return []core.Document{}
	}
	docs := make([]core.Document, 0, len(c.ids))
	for _, id := range c.ids {
		docs = append(docs, core.Document{ID: id, Data: copyData(c.docs[id])})
	}
	return docs
}

// notify queues one snapshot per listener of path. It must be called with the write lock held,
// so queued snapshots follow the order of writes.
func (s *Store) notify(path string) {
	ls := s.listeners[path]
	if len(ls) == 0 {
		return
	}
	docs := s.snapshot(path)
	for l := range ls {
		l := l
		s.delivery.Push(func() { l.deliver(cloneDocs(docs)) })
	}
}

func cloneDocs(docs []core.Document) []core.Document {
	out := make([]core.Document, len(docs))
	for i, d := range docs {
		out[i] = core.Document{ID: d.ID, Data: copyData(d.Data)}
	}
	return out
}

func copyData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

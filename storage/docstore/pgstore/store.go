// Package pgstore is a DocumentStore over a PostgreSQL `documents` table.
//
// Every write fires a NOTIFY on the `documents` channel carrying the collection path; the store re-reads
// the collection and delivers the full snapshot to its listeners. All deliveries run on one goroutine,
// so each listener sees snapshots in the order they were read.
package pgstore

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core"
)

const channel = "documents"

type (
	row struct {
		ID   string `db:"id"`
		Data []byte `db:"data"`
	}

	listener struct {
		coll   string
		fn     core.ChangeFunc
		closed int32
	}

	Store struct {
		db     *sqlx.DB
		pql    *pq.Listener
		logger core.Logger

		mu        sync.Mutex
		listeners map[string]map[*listener]struct{}
		pending   []*listener // waiting for their first snapshot
		wake      chan struct{}

		done chan struct{}
		wg   sync.WaitGroup
	}
)

var _ core.DocumentStore = (*Store)(nil)

// New starts listening for changes on dsn. Close releases the notification connection.
func New(db *sqlx.DB, dsn string, logger core.Logger) (*Store, error) {
	s := &Store{
		db:        db,
		logger:    logger,
		listeners: make(map[string]map[*listener]struct{}),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}

	s.pql = pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			s.logger.Warn("postgres notification connection", err, map[string]interface{}{"event": int(ev)})
		}
	})
	if err := s.pql.Listen(channel); err != nil {
		_ = s.pql.Close()
		return nil, errors.Wrap(err, "listening to document changes")
	}

	s.wg.Add(1)
	go s.loop()
	return s, nil
}

func (s *Store) Close() error {
	close(s.done)
	s.wg.Wait()
	return s.pql.Close()
}

func (s *Store) loop() {
	defer s.wg.Done()
	for {
		select {
		case n := <-s.pql.Notify:
			if n == nil {
				// reconnected: notifications may have been missed
				s.refreshAll()
				continue
			}
			s.refresh(n.Extra)
		case <-s.wake:
			s.mu.Lock()
			pending := s.pending
			s.pending = nil
			s.mu.Unlock()
			for _, l := range pending {
				s.deliverInitial(l)
			}
		case <-time.After(90 * time.Second):
			go func() { _ = s.pql.Ping() }()
		case <-s.done:
			return
		}
	}
}

// Listen registers fn; the initial snapshot is delivered from the store goroutine.
func (s *Store) Listen(coll string, fn core.ChangeFunc) core.Disposer {
	l := &listener{coll: coll, fn: fn}

	s.mu.Lock()
	if s.listeners[coll] == nil {
		s.listeners[coll] = make(map[*listener]struct{})
	}
	s.listeners[coll][l] = struct{}{}
	s.pending = append(s.pending, l)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}

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

func (l *listener) deliver(docs []core.Document, err error) {
	if atomic.LoadInt32(&l.closed) == 1 {
		return
	}
	l.fn(docs, err)
}

func (s *Store) deliverInitial(l *listener) {
	docs, err := s.query(context.Background(), l.coll)
	if err != nil {
		s.fail(l.coll, []*listener{l}, err)
		return
	}
	l.deliver(docs, nil)
}

func (s *Store) listenersOf(coll string) []*listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	ls := make([]*listener, 0, len(s.listeners[coll]))
	for l := range s.listeners[coll] {
		ls = append(ls, l)
	}
	return ls
}

func (s *Store) refresh(coll string) {
	ls := s.listenersOf(coll)
	if len(ls) == 0 {
		return
	}
	docs, err := s.query(context.Background(), coll)
	if err != nil {
		s.fail(coll, ls, err)
		return
	}
	for _, l := range ls {
		l.deliver(cloneDocs(docs), nil)
	}
}

func (s *Store) refreshAll() {
	s.mu.Lock()
	colls := make([]string, 0, len(s.listeners))
	for coll := range s.listeners {
		colls = append(colls, coll)
	}
	s.mu.Unlock()
	for _, coll := range colls {
		s.refresh(coll)
	}
}

// fail drops the listeners after delivering err.
func (s *Store) fail(coll string, ls []*listener, err error) {
	err = errors.Wrapf(err, "listening to %s", coll)
	s.mu.Lock()
	for _, l := range ls {
		delete(s.listeners[coll], l)
	}
	if len(s.listeners[coll]) == 0 {
		delete(s.listeners, coll)
	}
	s.mu.Unlock()
	for _, l := range ls {
		l.deliver(nil, err)
	}
}

func (s *Store) query(ctx context.Context, coll string) ([]core.Document, error) {
	var rows []row
	const q = `SELECT id, data FROM documents WHERE collection = $1 ORDER BY seq`
	if err := s.db.SelectContext(ctx, &rows, q, coll); err != nil {
		return nil, errors.Wrap(err, "selecting documents")
	}

	docs := make([]core.Document, 0, len(rows))
	for _, r := range rows {
		data := make(map[string]interface{})
		if err := json.Unmarshal(r.Data, &data); err != nil {
			return nil, errors.Wrapf(err, "decoding document %s", r.ID)
		}
		docs = append(docs, core.Document{ID: r.ID, Data: data})
	}
	return docs, nil
}

func (s *Store) Add(ctx context.Context, coll string, data map[string]interface{}) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", errors.Wrap(err, "encoding document")
	}
	id := uuid.New().String()
	const q = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, q, coll, id, raw); err != nil {
		return "", errors.Wrap(err, "inserting document")
	}
	return id, nil
}

func (s *Store) Patch(ctx context.Context, doc string, data map[string]interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encoding patch")
	}
	coll, id := core.SplitDocPath(doc)
	const q = `UPDATE documents SET data = data || $3::jsonb, updated_at = now() WHERE collection = $1 AND id = $2`
	res, err := s.db.ExecContext(ctx, q, coll, id, raw)
	if err != nil {
		return errors.Wrap(err, "updating document")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating document")
	}
	if n == 0 {
		return errors.Wrapf(core.ErrNotFound, "document %s", doc)
	}
	return nil
}

// Remove deletes a document. Removing a missing document is not an error.
func (s *Store) Remove(ctx context.Context, doc string) error {
	coll, id := core.SplitDocPath(doc)
	const q = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	if _, err := s.db.ExecContext(ctx, q, coll, id); err != nil {
		return errors.Wrap(err, "deleting document")
	}
	return nil
}

func cloneDocs(docs []core.Document) []core.Document {
	out := make([]core.Document, len(docs))
	for i, d := range docs {
		data := make(map[string]interface{}, len(d.Data))
		for k, v := range d.Data {
			data[k] = v
		}
		out[i] = core.Document{ID: d.ID, Data: data}
	}
	return out
}

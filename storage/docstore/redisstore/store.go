// Package redisstore is a DocumentStore over redis.
//
// A collection is a hash of JSON documents plus a sorted set keeping insertion order. Every write publishes
// the collection path on its change channel; the store re-reads the collection and delivers the full
// snapshot from a single goroutine.
package redisstore

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core"
)

const (
	keyPrefix     = "studytrack:"
	channelPrefix = keyPrefix + "changes:"
	maxRetries    = 5
)

func docsKey(coll string) string  { return keyPrefix + "docs:" + coll }
func orderKey(coll string) string { return keyPrefix + "order:" + coll }
func seqKey() string              { return keyPrefix + "seq" }
func channel(coll string) string  { return channelPrefix + coll }

type (
	listener struct {
		coll   string
		fn     core.ChangeFunc
		closed int32
	}

	Store struct {
		rdb    *redis.Client
		pubsub *redis.PubSub
		logger core.Logger

		mu        sync.Mutex
		listeners map[string]map[*listener]struct{}
		pending   []*listener
		wake      chan struct{}

		cancel context.CancelFunc
		wg     sync.WaitGroup
	}
)

var _ core.DocumentStore = (*Store)(nil)

// NewClient connects to redis and checks the connection.
func NewClient(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

// New subscribes to document changes. Close stops the subscription; the client is left open.
func New(ctx context.Context, rdb *redis.Client, logger core.Logger) (*Store, error) {
	pubsub := rdb.PSubscribe(ctx, channelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Wrap(err, "subscribing to document changes")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		rdb:       rdb,
		pubsub:    pubsub,
		logger:    logger,
		listeners: make(map[string]map[*listener]struct{}),
		wake:      make(chan struct{}, 1),
		cancel:    cancel,
	}
	s.wg.Add(1)
	go s.loop(ctx)
	return s, nil
}

func (s *Store) Close() error {
	s.cancel()
	err := s.pubsub.Close()
	s.wg.Wait()
	return err
}

func (s *Store) loop(ctx context.Context) {
	defer s.wg.Done()
	msgs := s.pubsub.Channel()
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			s.refresh(ctx, strings.TrimPrefix(msg.Channel, channelPrefix))
		case <-s.wake:
			s.mu.Lock()
			pending := s.pending
			s.pending = nil
			s.mu.Unlock()
			for _, l := range pending {
				docs, err := s.query(ctx, l.coll)
				if err != nil {
					s.fail(l.coll, []*listener{l}, err)
					continue
				}
				l.deliver(docs, nil)
			}
		case <-ctx.Done():
			return
		}
	}
}

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

func (s *Store) refresh(ctx context.Context, coll string) {
	s.mu.Lock()
	ls := make([]*listener, 0, len(s.listeners[coll]))
	for l := range s.listeners[coll] {
		ls = append(ls, l)
	}
	s.mu.Unlock()
	if len(ls) == 0 {
		return
	}

	rc, err := s.read(ctx, coll)
	if err != nil {
		s.fail(coll, ls, err)
		return
	}
	for _, l := range ls {
		// every listener gets its own copy
		docs, err := s.decode(rc.ids, rc.raw)
		if err != nil {
			s.fail(coll, []*listener{l}, err)
			continue
		}
		l.deliver(docs, nil)
	}
}

// fail drops the listeners after delivering err.
func (s *Store) fail(coll string, ls []*listener, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	err = errors.Wrapf(err, "listening to %s", coll)
	s.logger.Warn("dropping document listeners", err)
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

type rawCollection struct {
	ids []string
	raw []interface{}
}

func (s *Store) read(ctx context.Context, coll string) (rawCollection, error) {
	ids, err := s.rdb.ZRange(ctx, orderKey(coll), 0, -1).Result()
	if err != nil {
		return rawCollection{}, errors.Wrap(err, "reading collection order")
	}
	if len(ids) == 0 {
		return rawCollection{}, nil
	}
	raw, err := s.rdb.HMGet(ctx, docsKey(coll), ids...).Result()
	if err != nil {
		return rawCollection{}, errors.Wrap(err, "reading documents")
	}
	return rawCollection{ids: ids, raw: raw}, nil
}

func (s *Store) decode(ids []string, raw []interface{}) ([]core.Document, error) {
	docs := make([]core.Document, 0, len(ids))
	for i, id := range ids {
		str, ok := raw[i].(string)
		if !ok {
			continue // removed between the two reads
		}
		data := make(map[string]interface{})
		if err := json.Unmarshal([]byte(str), &data); err != nil {
			return nil, errors.Wrapf(err, "decoding document %s", id)
		}
		docs = append(docs, core.Document{ID: id, Data: data})
	}
	return docs, nil
}

func (s *Store) query(ctx context.Context, coll string) ([]core.Document, error) {
	rc, err := s.read(ctx, coll)
	if err != nil {
		return nil, err
	}
	return s.decode(rc.ids, rc.raw)
}

func (s *Store) Add(ctx context.Context, coll string, data map[string]interface{}) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", errors.Wrap(err, "encoding document")
	}
	seq, err := s.rdb.Incr(ctx, seqKey()).Result()
	if err != nil {
		return "", errors.Wrap(err, "allocating sequence")
	}

	id := uuid.New().String()
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, docsKey(coll), id, raw)
		pipe.ZAdd(ctx, orderKey(coll), &redis.Z{Score: float64(seq), Member: id})
		pipe.Publish(ctx, channel(coll), coll)
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "inserting document")
	}
	return id, nil
}

// Patch merges data into the document under optimistic locking.
func (s *Store) Patch(ctx context.Context, doc string, data map[string]interface{}) error {
	coll, id := core.SplitDocPath(doc)
	key := docsKey(coll)

	txf := func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, id).Result()
		if err == redis.Nil {
			return errors.Wrapf(core.ErrNotFound, "document %s", doc)
		}
		if err != nil {
			return err
		}

		merged := make(map[string]interface{})
		if err := json.Unmarshal([]byte(current), &merged); err != nil {
			return errors.Wrapf(err, "decoding document %s", doc)
		}
		for k, v := range data {
			merged[k] = v
		}
		raw, err := json.Marshal(merged)
		if err != nil {
			return errors.Wrap(err, "encoding document")
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, id, raw)
			pipe.Publish(ctx, channel(coll), coll)
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err != redis.TxFailedErr {
			return err
		}
	}
	return errors.Errorf("patching %s: too much contention", doc)
}

// Remove deletes a document. Removing a missing document is not an error.
func (s *Store) Remove(ctx context.Context, doc string) error {
	coll, id := core.SplitDocPath(doc)
	removed, err := s.rdb.HDel(ctx, docsKey(coll), id).Result()
	if err != nil {
		return errors.Wrap(err, "deleting document")
	}
	if removed == 0 {
		return nil
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, orderKey(coll), id)
		pipe.Publish(ctx, channel(coll), coll)
		return nil
	})
	return errors.Wrap(err, "deleting document")
}

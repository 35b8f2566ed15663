// Package docstore opens the DocumentStore selected by the configuration.
package docstore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/storage/docstore/memstore"
	"github.com/trezcool/studytrack/storage/docstore/pgstore"
	"github.com/trezcool/studytrack/storage/docstore/redisstore"
)

// Store is an open DocumentStore and the function releasing it.
type Store struct {
	core.DocumentStore
	close func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects the configured engine. With postgres, the database is created and migrated first.
func Open(ctx context.Context, conf *core.Config, logger core.Logger) (*Store, error) {
	switch conf.Store.Engine {
	case core.StoreMemory, "":
		return &Store{DocumentStore: memstore.New()}, nil

	case core.StorePostgres:
		if err := pgstore.CreateIfNotExist(ctx, conf.Database); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
		db, err := pgstore.Open(conf.Database)
		if err != nil {
			return nil, err
		}
		if err = pgstore.Migrate(db.DB, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		store, err := pgstore.New(db, pgstore.DSN(conf.Database, conf.Database.Name, false), logger)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Store{DocumentStore: store, close: func() error {
			serr := store.Close()
			if err := db.Close(); err != nil {
				return err
			}
			return serr
		}}, nil

	case core.StoreRedis:
		rdb, err := redisstore.NewClient(ctx, conf.Redis)
		if err != nil {
			return nil, err
		}
		store, err := redisstore.New(ctx, rdb, logger)
		if err != nil {
			_ = rdb.Close()
			return nil, err
		}
		return &Store{DocumentStore: store, close: func() error {
			serr := store.Close()
			if err := rdb.Close(); err != nil {
				return err
			}
			return serr
		}}, nil
	}
	return nil, errors.Errorf("unknown store engine %q", conf.Store.Engine)
}

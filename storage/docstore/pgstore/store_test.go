package pgstore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/services/logger"
	"github.com/trezcool/studytrack/storage/docstore/storetest"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Open(driverName, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Ping(context.Background(), db))
	require.NoError(t, Migrate(db.DB, "up"))

	store, err := New(db, dsn, logsvc.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestContract(t *testing.T) {
	storetest.Run(t, newStore(t), "pg-"+uuid.New().String())
}

func TestStore_PatchMissing(t *testing.T) {
	store := newStore(t)
	err := store.Patch(context.Background(), core.DocPath(core.SemestersPath(uuid.New().String()), "nope"), map[string]interface{}{"active": true})
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestDSN(t *testing.T) {
	conf := core.DatabaseConfig{
		Engine:        "postgres",
		Host:          "db",
		Port:          "5432",
		Name:          "studytrack",
		User:          "app",
		Password:      "secret",
		AdminUser:     "root",
		AdminPassword: "toor",
		DisableTLS:    true,
	}
	assert.Equal(t, "postgres://app:secret@db:5432/studytrack?sslmode=disable&timezone=utc", DSN(conf, conf.Name, false))
	assert.Equal(t, "postgres://root:toor@db:5432/postgres?sslmode=disable&timezone=utc", DSN(conf, "postgres", true))

	conf.AdminUser = ""
	conf.DisableTLS = false
	assert.Equal(t, "postgres://app:secret@db:5432/postgres?sslmode=require&timezone=utc", DSN(conf, "postgres", true))
}

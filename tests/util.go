// Package testutil seeds document stores with StudyTrack fixtures.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/studytrack/core"
)

// NewConfig returns the configuration used by tests; the store is in memory.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:   "StudyTrack",
		Env:       "TEST",
		TestMode:  true,
		SecretKey: "test-secret",
		Server: core.ServerConfig{
			Host:               "localhost",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: time.Hour,
		},
		Store: core.StoreConfig{Engine: core.StoreMemory},
		Email: core.EmailConfig{DefaultFromEmail: "noreply@test.local"},
	}
}

func add(t *testing.T, store core.DocumentStore, coll string, data map[string]interface{}) string {
	t.Helper()
	id, err := store.Add(context.Background(), coll, data)
	require.NoError(t, err)
	return id
}

// AddSemester stores a semester; dates are optional start and end dates (YYYY-MM-DD).
func AddSemester(t *testing.T, store core.DocumentStore, uid, number string, active bool, dates ...string) string {
	data := map[string]interface{}{"number": number, "active": active}
	if len(dates) > 0 {
		data["startDate"] = dates[0]
	}
	if len(dates) > 1 {
		data["endDate"] = dates[1]
	}
	return add(t, store, core.SemestersPath(uid), data)
}

func AddSubject(t *testing.T, store core.DocumentStore, uid, semesterID, title string) string {
	return add(t, store, core.SubjectsPath(uid, semesterID), map[string]interface{}{"title": title})
}

// AddLab stores a lab; a nil obtained score means not graded yet.
func AddLab(
	t *testing.T,
	store core.DocumentStore,
	uid, semesterID, subjectID string,
	number int,
	max float64,
	obtained interface{},
	status string,
) string {
	return add(t, store, core.LabsPath(uid, semesterID, subjectID), map[string]interface{}{
		"number":        number,
		"maxScore":      max,
		"obtainedScore": obtained,
		"status":        status,
	})
}

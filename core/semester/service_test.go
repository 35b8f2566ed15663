package semester

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/storage/docstore/memstore"
)

func strPtr(s string) *string { return &s }

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		ns        NewSemester
		wantField string
	}{
		{name: "number required", ns: NewSemester{}, wantField: "number"},
		{name: "blank number", ns: NewSemester{Number: "   "}, wantField: "number"},
		{name: "bad start date", ns: NewSemester{Number: "1", StartDate: "01.09.2024"}, wantField: "startDate"},
		{name: "end before start", ns: NewSemester{Number: "1", StartDate: "2024-09-01", EndDate: "2024-08-01"}, wantField: "endDate"},
		{name: "valid", ns: NewSemester{Number: " 1 ", Title: "Autumn", StartDate: "2024-09-01", EndDate: "2024-12-31"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			svc := NewService(store)

			sem, err := svc.Create(ctx, "u1", tt.ns)
			if tt.wantField != "" {
				require.Error(t, err)
				assert.True(t, core.IsValidationError(err))
				flds := core.TranslateErrors(err, core.Translator)
				require.NotEmpty(t, flds)
				assert.Equal(t, tt.wantField, flds[0].Field)

				docs, _ := core.Fetch(ctx, store, core.SemestersPath("u1"))
				assert.Empty(t, docs, "nothing reaches the store")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "1", sem.Number)
			assert.False(t, sem.Active)

			docs, err := core.Fetch(ctx, store, core.SemestersPath("u1"))
			require.NoError(t, err)
			require.Len(t, docs, 1)
			assert.Equal(t, sem, FromDocument(docs[0]))
		})
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := NewService(store)

	sem, err := svc.Create(ctx, "u1", NewSemester{Number: "1", StartDate: "2024-09-01"})
	require.NoError(t, err)

	err = svc.Update(ctx, "u1", sem, UpdateSemester{EndDate: strPtr("2024-01-01")})
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))

	err = svc.Update(ctx, "u1", sem, UpdateSemester{Number: strPtr("")})
	require.Error(t, err)

	require.NoError(t, svc.Update(ctx, "u1", sem, UpdateSemester{Title: strPtr("Spring"), EndDate: strPtr("2025-01-31")}))
	docs, _ := core.Fetch(ctx, store, core.SemestersPath("u1"))
	got := FromDocument(docs[0])
	assert.Equal(t, "1", got.Number)
	assert.Equal(t, "Spring", got.Title)
	assert.Equal(t, "2025-01-31", got.EndDate)

	require.NoError(t, svc.Remove(ctx, "u1", sem.ID))
	docs, _ = core.Fetch(ctx, store, core.SemestersPath("u1"))
	assert.Empty(t, docs)
}

func TestFromDocument(t *testing.T) {
	sem := FromDocument(core.Document{ID: "x", Data: map[string]interface{}{
		"number": 3, "active": "true", "endDate": "2024-12-31",
	}})
	assert.Equal(t, Semester{ID: "x", Number: "3", EndDate: "2024-12-31", Active: true}, sem)

	now := time.Date(2024, 12, 21, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 10, sem.DaysLeft(now))
	assert.Equal(t, 0, sem.DaysLeft(now.AddDate(1, 0, 0)))
	assert.Equal(t, 0, Semester{}.DaysLeft(now))
}

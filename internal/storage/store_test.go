package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LouieCads/iskolar-forms/internal/storage"
	"github.com/LouieCads/iskolar-forms/pkg/form"
)

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "forms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDefinition() form.FormDefinition {
	return form.FormDefinition{
		{Key: "k-name", Type: form.FieldTypeText, Label: "Full Name", Required: true},
		{Key: "k-tor", Type: form.FieldTypeFile, Label: "Transcript", Required: true},
	}
}

func TestScholarshipRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	def := testDefinition()
	require.NoError(t, store.SaveScholarship(ctx, "sch-1", "STEM Grant", def))

	rec, err := store.Scholarship(ctx, "sch-1")
	require.NoError(t, err)
	assert.Equal(t, "STEM Grant", rec.Name)

	// The stored shape is the canonical JSON array, which the Normalizer
	// accepts as a string.
	normalized := form.Normalize(rec.CustomFormFields, nil)
	assert.Equal(t, def, normalized)
}

func TestScholarshipNotFound(t *testing.T) {
	store := openStore(t)

	_, err := store.Scholarship(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestApplicationLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	require.NoError(t, store.SaveScholarship(ctx, "sch-1", "STEM Grant", testDefinition()))

	app := storage.Application{
		ID:            "app-1",
		ScholarshipID: "sch-1",
		StudentID:     "stu-1",
		Status:        storage.StatusSubmitted,
		Response: form.FormResponse{
			{Key: "k-name", Label: "Full Name", Value: "Juan"},
			{Key: "k-tor", Label: "Transcript", Value: nil},
		},
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateApplication(ctx, app))

	loaded, err := store.Application(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, storage.StatusSubmitted, loaded.Status)
	require.Len(t, loaded.Response, 2)
	assert.Equal(t, "Juan", loaded.Response[0].Value)
	assert.Nil(t, loaded.Response[1].Value)

	// Patch the file entry and persist.
	patched := loaded.Response
	patched[1].Value = []string{"https://cdn.iskolar.ph/apps/app-1/tor.pdf"}
	require.NoError(t, store.UpdateResponse(ctx, "app-1", patched))
	require.NoError(t, store.UpdateStatus(ctx, "app-1", storage.StatusComplete))

	reloaded, err := store.Application(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, storage.StatusComplete, reloaded.Status)
	assert.Equal(t, []any{"https://cdn.iskolar.ph/apps/app-1/tor.pdf"}, reloaded.Response[1].Value)
}

func TestDuplicateApplicationRejected(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	require.NoError(t, store.SaveScholarship(ctx, "sch-1", "STEM Grant", nil))

	first := storage.Application{
		ID: "app-1", ScholarshipID: "sch-1", StudentID: "stu-1",
		Status: storage.StatusSubmitted, CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateApplication(ctx, first))

	second := first
	second.ID = "app-2"
	err := store.CreateApplication(ctx, second)
	assert.ErrorIs(t, err, storage.ErrDuplicateApplied)
}

func TestUploadStatusUpsert(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	require.NoError(t, store.SaveScholarship(ctx, "sch-1", "STEM Grant", nil))
	require.NoError(t, store.CreateApplication(ctx, storage.Application{
		ID: "app-1", ScholarshipID: "sch-1", StudentID: "stu-1",
		Status: storage.StatusSubmitted, CreatedAt: time.Now(),
	}))

	require.NoError(t, store.SetUploadStatus(ctx, "app-1", "k-tor", storage.UploadPending))
	require.NoError(t, store.SetUploadStatus(ctx, "app-1", "k-tor", storage.UploadFailed))
	require.NoError(t, store.SetUploadStatus(ctx, "app-1", "k-essay", storage.UploadStored))

	statuses, err := store.UploadStatuses(ctx, "app-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"k-tor":   storage.UploadFailed,
		"k-essay": storage.UploadStored,
	}, statuses)
}

func TestListApplicationsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	require.NoError(t, store.SaveScholarship(ctx, "sch-1", "STEM Grant", nil))

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"app-old", "app-new"} {
		require.NoError(t, store.CreateApplication(ctx, storage.Application{
			ID: id, ScholarshipID: "sch-1", StudentID: "stu-" + id,
			Status: storage.StatusSubmitted, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	apps, err := store.ListApplications(ctx, "sch-1")
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "app-new", apps[0].ID)
}

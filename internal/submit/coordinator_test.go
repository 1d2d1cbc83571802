package submit_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LouieCads/iskolar-forms/internal/storage"
	"github.com/LouieCads/iskolar-forms/internal/submit"
	"github.com/LouieCads/iskolar-forms/pkg/form"
)

type uploadCall struct {
	req submit.UploadRequest
}

// fakeUploader succeeds by default and fails for field keys listed in fail.
type fakeUploader struct {
	mu    sync.Mutex
	calls []uploadCall
	fail  map[string]bool

	// onUpload lets a test observe state mid-upload.
	onUpload func(req submit.UploadRequest)
}

func (u *fakeUploader) Upload(_ context.Context, req submit.UploadRequest) ([]string, error) {
	u.mu.Lock()
	u.calls = append(u.calls, uploadCall{req: req})
	u.mu.Unlock()

	if u.onUpload != nil {
		u.onUpload(req)
	}
	if u.fail[req.FieldKey] {
		return nil, errors.New("blob store unavailable")
	}
	urls := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		urls = append(urls, fmt.Sprintf("https://cdn.iskolar.ph/%s/%s/%s", req.ApplicationID, req.FieldKey, f.Name))
	}
	return urls, nil
}

func (u *fakeUploader) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.calls)
}

func scholarshipDefinition() form.FormDefinition {
	return form.FormDefinition{
		{Key: "k-name", Type: form.FieldTypeText, Label: "Full Name", Required: true},
		{Key: "k-tor", Type: form.FieldTypeFile, Label: "Transcript", Required: true},
		{Key: "k-cert", Type: form.FieldTypeFile, Label: "Certificate"},
	}
}

func newCoordinator(t *testing.T, uploader submit.Uploader) (*submit.Coordinator, *storage.Store) {
	t.Helper()
	ctx := context.Background()
	store, err := storage.Open(ctx, filepath.Join(t.TempDir(), "forms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.SaveScholarship(ctx, "sch-1", "STEM Grant", scholarshipDefinition()))

	coordinator := submit.New(store, uploader, submit.WithLogger(slog.Default()))
	return coordinator, store
}

func validRequest() submit.Request {
	return submit.Request{
		ScholarshipID: "sch-1",
		StudentID:     "stu-1",
		Input:         map[string]any{"k-name": "Juan Dela Cruz"},
		Attachments: map[string][]submit.File{
			"k-tor": {{Name: "tor.pdf", Content: []byte("pdf")}},
		},
	}
}

func TestSubmitHappyPath(t *testing.T) {
	uploader := &fakeUploader{}
	coordinator, store := newCoordinator(t, uploader)

	result, err := coordinator.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, storage.StatusComplete, result.Status)
	require.Contains(t, result.Uploads, "k-tor")
	assert.Equal(t, storage.UploadStored, result.Uploads["k-tor"].Status)

	app, err := store.Application(context.Background(), result.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusComplete, app.Status)

	entry := app.Response.Entry("k-tor")
	require.NotNil(t, entry)
	assert.NotNil(t, entry.Value, "file references should be patched in")

	// Optional file field without attachments stays nil and gets no upload.
	assert.Nil(t, app.Response.Entry("k-cert").Value)
	assert.Equal(t, 1, uploader.callCount())
}

func TestSubmitValidationRejectionWritesNothing(t *testing.T) {
	uploader := &fakeUploader{}
	coordinator, store := newCoordinator(t, uploader)

	req := validRequest()
	req.Input = map[string]any{"k-name": ""}

	_, err := coordinator.Submit(context.Background(), req)
	result, ok := submit.IsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Full Name is required", result.Errors[0].Message)

	apps, err := store.ListApplications(context.Background(), "sch-1")
	require.NoError(t, err)
	assert.Empty(t, apps, "rejected submission must not persist")
	assert.Zero(t, uploader.callCount(), "rejected submission must not upload")
}

func TestSubmitRequiredFileCheckedBeforeAnyNetworkCall(t *testing.T) {
	uploader := &fakeUploader{}
	coordinator, store := newCoordinator(t, uploader)

	req := validRequest()
	req.Attachments = nil

	_, err := coordinator.Submit(context.Background(), req)
	result, ok := submit.IsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Equal(t, "Transcript is required", result.Errors[0].Message)
	assert.Zero(t, uploader.callCount())

	apps, err := store.ListApplications(context.Background(), "sch-1")
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestSubmitResponseRowExistsBeforeUploads(t *testing.T) {
	var store *storage.Store
	uploader := &fakeUploader{}
	uploader.onUpload = func(req submit.UploadRequest) {
		app, err := store.Application(context.Background(), req.ApplicationID)
		if err != nil {
			panic("upload issued before the response row was acknowledged: " + err.Error())
		}
		if app.Response.Entry(req.FieldKey).Value != nil {
			panic("file entry must still be nil mid-upload")
		}
	}
	coordinator, s := newCoordinator(t, uploader)
	store = s

	_, err := coordinator.Submit(context.Background(), validRequest())
	require.NoError(t, err)
}

func TestSubmitPartialUploadFailureIsIncomplete(t *testing.T) {
	uploader := &fakeUploader{fail: map[string]bool{"k-tor": true}}
	coordinator, store := newCoordinator(t, uploader)

	req := validRequest()
	req.Attachments["k-cert"] = []submit.File{{Name: "cert.pdf", Content: []byte("pdf")}}

	result, err := coordinator.Submit(context.Background(), req)
	require.NoError(t, err, "partial upload failure is not a submission failure")
	assert.Equal(t, storage.StatusIncomplete, result.Status)
	assert.Equal(t, storage.UploadFailed, result.Uploads["k-tor"].Status)
	assert.Equal(t, storage.UploadStored, result.Uploads["k-cert"].Status)

	app, err := store.Application(context.Background(), result.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusIncomplete, app.Status)
	assert.Nil(t, app.Response.Entry("k-tor").Value, "failed field keeps its nil placeholder")
	assert.NotNil(t, app.Response.Entry("k-cert").Value)

	statuses, err := store.UploadStatuses(context.Background(), result.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, storage.UploadFailed, statuses["k-tor"])
	assert.Equal(t, storage.UploadStored, statuses["k-cert"])
}

func TestRetryUploadsFixesFailedFieldOnly(t *testing.T) {
	uploader := &fakeUploader{fail: map[string]bool{"k-tor": true}}
	coordinator, store := newCoordinator(t, uploader)

	result, err := coordinator.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, storage.StatusIncomplete, result.Status)
	firstKey := uploader.calls[0].req.IdempotencyKey

	// The blob store recovers; retry just the failed field.
	uploader.fail = nil
	retried, err := coordinator.RetryUploads(context.Background(), result.ApplicationID, map[string][]submit.File{
		"k-tor": {{Name: "tor.pdf", Content: []byte("pdf")}},
	})
	require.NoError(t, err)
	assert.Equal(t, storage.StatusComplete, retried.Status)

	// Same (application, field) pair, same idempotency key.
	require.Equal(t, 2, uploader.callCount())
	assert.Equal(t, firstKey, uploader.calls[1].req.IdempotencyKey)

	app, err := store.Application(context.Background(), result.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusComplete, app.Status)
	assert.NotNil(t, app.Response.Entry("k-tor").Value)
}

func TestRetryUploadsNoFailedFieldsIsNoOp(t *testing.T) {
	uploader := &fakeUploader{}
	coordinator, _ := newCoordinator(t, uploader)

	result, err := coordinator.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, storage.StatusComplete, result.Status)
	callsAfterSubmit := uploader.callCount()

	retried, err := coordinator.RetryUploads(context.Background(), result.ApplicationID, map[string][]submit.File{
		"k-tor": {{Name: "tor.pdf", Content: []byte("pdf")}},
	})
	require.NoError(t, err)
	assert.Equal(t, storage.StatusComplete, retried.Status)
	assert.Equal(t, callsAfterSubmit, uploader.callCount())
}

func TestSubmitDuplicateApplication(t *testing.T) {
	uploader := &fakeUploader{}
	coordinator, _ := newCoordinator(t, uploader)

	_, err := coordinator.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = coordinator.Submit(context.Background(), validRequest())
	assert.ErrorIs(t, err, storage.ErrDuplicateApplied)
}

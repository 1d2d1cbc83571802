// Package submit implements the two-phase application submit: the validated
// response row is persisted first, then file uploads run concurrently and
// their remote references are patched into the stored response. A failed
// upload leaves the application in an explicit "submitted but incomplete"
// state instead of failing the whole submission.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/LouieCads/iskolar-forms/internal/platform/metrics"
	"github.com/LouieCads/iskolar-forms/internal/storage"
	"github.com/LouieCads/iskolar-forms/pkg/form"
	"github.com/LouieCads/iskolar-forms/pkg/response"
	"github.com/LouieCads/iskolar-forms/pkg/validation"
)

// File is one pending attachment collected locally before submission.
type File struct {
	Name    string
	Content []byte
}

// UploadRequest is one per-field upload call to the file collaborator.
type UploadRequest struct {
	ApplicationID string
	FieldKey      string
	// IdempotencyKey is deterministic per (application, field) so a retry
	// after partial failure cannot double-create remote files.
	IdempotencyKey string
	Files          []File
}

// Uploader is the out-of-band file collaborator. A successful call returns
// the remote references for every file in the request.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) ([]string, error)
}

// Request is one submission attempt.
type Request struct {
	ScholarshipID string
	StudentID     string
	// Input is the applicant's field state keyed by field identity.
	Input map[string]any
	// Attachments holds pending files per file-field identity.
	Attachments map[string][]File
}

// FieldUpload reports one file field's upload outcome.
type FieldUpload struct {
	Status string   `json:"status"` // storage.UploadStored / UploadFailed
	URLs   []string `json:"urls,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// Result reports the submission outcome. Status is storage.StatusComplete
// when every upload landed and storage.StatusIncomplete when the response row
// exists but at least one upload failed.
type Result struct {
	ApplicationID string                 `json:"application_id"`
	Status        string                 `json:"status"`
	Uploads       map[string]FieldUpload `json:"uploads,omitempty"`
}

// ValidationError carries the per-field failures of a rejected submission.
// Nothing has been written when it is returned.
type ValidationError struct {
	Result validation.Result
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("submit: validation failed with %d error(s)", len(e.Result.Errors))
}

// Coordinator drives validation, persistence and uploads for one submission.
type Coordinator struct {
	store    *storage.Store
	uploader Uploader
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	newID    func() string
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithLogger attaches a logger; nil is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics attaches service metrics; nil is ignored.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs a Coordinator.
func New(store *storage.Store, uploader Uploader, options ...Option) *Coordinator {
	c := &Coordinator{
		store:    store,
		uploader: uploader,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Submit runs the full pipeline. The hard ordering guarantee: the response
// row is acknowledged by storage before any upload request is issued.
func (c *Coordinator) Submit(ctx context.Context, req Request) (Result, error) {
	scholarship, err := c.store.Scholarship(ctx, req.ScholarshipID)
	if err != nil {
		return Result{}, err
	}
	def := form.Normalize(scholarship.CustomFormFields, c.logger)

	// Phase zero: everything that can reject without side effects.
	validator := validation.Compile(def)
	result := validator.Validate(req.Input)
	if !result.Valid() {
		c.countRejection(len(result.Errors))
		return Result{}, &ValidationError{Result: result}
	}
	fileCheck := validation.RequiredFiles(def, attachmentCounts(req.Attachments))
	if !fileCheck.Valid() {
		c.countRejection(len(fileCheck.Errors))
		return Result{}, &ValidationError{Result: fileCheck}
	}

	// Phase one: persist the base response.
	resp := response.Assemble(def, req.Input)
	app := storage.Application{
		ID:            c.newID(),
		ScholarshipID: req.ScholarshipID,
		StudentID:     req.StudentID,
		Status:        storage.StatusSubmitted,
		Response:      resp,
		CreatedAt:     c.now(),
	}
	if err := c.store.CreateApplication(ctx, app); err != nil {
		return Result{}, err
	}
	if c.metrics != nil {
		c.metrics.SubmissionsAccepted.Inc()
	}

	// Phase two: uploads, fire all and await all.
	uploads := c.uploadFields(ctx, app.ID, fileUploadPlan(def, req.Attachments))
	return c.finish(ctx, app.ID, resp, uploads)
}

// RetryUploads re-issues uploads for the fields whose previous attempt
// failed, reusing the deterministic idempotency key. Fields without a failed
// status or without attachments in the request are left alone.
func (c *Coordinator) RetryUploads(ctx context.Context, applicationID string, attachments map[string][]File) (Result, error) {
	app, err := c.store.Application(ctx, applicationID)
	if err != nil {
		return Result{}, err
	}
	statuses, err := c.store.UploadStatuses(ctx, applicationID)
	if err != nil {
		return Result{}, err
	}

	var plan []plannedUpload
	for key, status := range statuses {
		if status != storage.UploadFailed {
			continue
		}
		files := attachments[key]
		if len(files) == 0 {
			continue
		}
		plan = append(plan, plannedUpload{fieldKey: key, files: files})
	}
	if len(plan) == 0 {
		return Result{ApplicationID: applicationID, Status: app.Status}, nil
	}

	uploads := c.uploadFields(ctx, applicationID, plan)
	return c.finish(ctx, applicationID, app.Response, uploads)
}

type plannedUpload struct {
	fieldKey string
	files    []File
}

type uploadOutcome struct {
	fieldKey string
	urls     []string
	err      error
}

// uploadFields issues one upload per planned field, concurrently. Failures
// are collected per field, never propagated: a sibling upload must not be
// cancelled because another field failed.
func (c *Coordinator) uploadFields(ctx context.Context, applicationID string, plan []plannedUpload) []uploadOutcome {
	outcomes := make([]uploadOutcome, len(plan))
	var g errgroup.Group
	for i, planned := range plan {
		i, planned := i, planned
		g.Go(func() error {
			urls, err := c.uploader.Upload(ctx, UploadRequest{
				ApplicationID:  applicationID,
				FieldKey:       planned.fieldKey,
				IdempotencyKey: idempotencyKey(applicationID, planned.fieldKey),
				Files:          planned.files,
			})
			outcomes[i] = uploadOutcome{fieldKey: planned.fieldKey, urls: urls, err: err}
			return nil
		})
	}
	// Goroutines record failures per field and never return an error, so a
	// failed upload cannot cancel its siblings.
	_ = g.Wait()
	return outcomes
}

// finish applies upload outcomes: patches successful references into the
// response, records per-field statuses, and settles the application status.
func (c *Coordinator) finish(ctx context.Context, applicationID string, resp form.FormResponse, uploads []uploadOutcome) (Result, error) {
	result := Result{
		ApplicationID: applicationID,
		Status:        storage.StatusComplete,
		Uploads:       make(map[string]FieldUpload, len(uploads)),
	}

	patched := resp
	var patchErr error
	for _, outcome := range uploads {
		if outcome.err != nil {
			c.logger.Error("file upload failed",
				"application_id", applicationID,
				"field", outcome.fieldKey,
				"error", outcome.err)
			c.countUpload("failed")
			result.Uploads[outcome.fieldKey] = FieldUpload{
				Status: storage.UploadFailed,
				Error:  outcome.err.Error(),
			}
			if err := c.store.SetUploadStatus(ctx, applicationID, outcome.fieldKey, storage.UploadFailed); err != nil {
				return Result{}, err
			}
			result.Status = storage.StatusIncomplete
			continue
		}

		patched, patchErr = response.PatchFiles(patched, outcome.fieldKey, outcome.urls)
		if patchErr != nil {
			return Result{}, fmt.Errorf("submit: patch %q: %w", outcome.fieldKey, patchErr)
		}
		c.countUpload("stored")
		result.Uploads[outcome.fieldKey] = FieldUpload{
			Status: storage.UploadStored,
			URLs:   outcome.urls,
		}
		if err := c.store.SetUploadStatus(ctx, applicationID, outcome.fieldKey, storage.UploadStored); err != nil {
			return Result{}, err
		}
	}

	if err := c.store.UpdateResponse(ctx, applicationID, patched); err != nil {
		return Result{}, err
	}

	// Settle against every recorded status, not just this batch, so a retry
	// that fixes one field while another stays failed remains incomplete.
	statuses, err := c.store.UploadStatuses(ctx, applicationID)
	if err != nil {
		return Result{}, err
	}
	for _, status := range statuses {
		if status == storage.UploadFailed {
			result.Status = storage.StatusIncomplete
		}
	}
	if err := c.store.UpdateStatus(ctx, applicationID, result.Status); err != nil {
		return Result{}, err
	}
	if c.metrics != nil && result.Status == storage.StatusIncomplete {
		c.metrics.SubmissionsIncomplete.Inc()
	}
	return result, nil
}

// fileUploadPlan selects the file fields that have pending attachments, in
// definition order. Optional file fields without attachments keep their nil
// response value and get no upload status row.
func fileUploadPlan(def form.FormDefinition, attachments map[string][]File) []plannedUpload {
	var plan []plannedUpload
	for _, field := range def {
		if field.Type != form.FieldTypeFile {
			continue
		}
		files := attachments[field.Identity()]
		if len(files) == 0 && field.Key != "" {
			files = attachments[field.Label]
		}
		if len(files) == 0 {
			continue
		}
		plan = append(plan, plannedUpload{fieldKey: field.Identity(), files: files})
	}
	return plan
}

func attachmentCounts(attachments map[string][]File) map[string]int {
	out := make(map[string]int, len(attachments))
	for key, files := range attachments {
		out[key] = len(files)
	}
	return out
}

// idempotencyKey derives a stable UUID from the application and field so the
// collaborator can dedupe retried uploads.
func idempotencyKey(applicationID, fieldKey string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(applicationID+"/"+fieldKey)).String()
}

func (c *Coordinator) countRejection(fieldErrors int) {
	if c.metrics == nil {
		return
	}
	c.metrics.SubmissionsRejected.Inc()
	c.metrics.ValidationErrors.Add(float64(fieldErrors))
}

func (c *Coordinator) countUpload(outcome string) {
	if c.metrics != nil {
		c.metrics.UploadOutcomes.WithLabelValues(outcome).Inc()
	}
}

// IsValidation reports whether err is a validation rejection and returns the
// underlying result.
func IsValidation(err error) (validation.Result, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Result, true
	}
	return validation.Result{}, false
}

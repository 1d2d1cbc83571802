// Package storage persists scholarships and applications in SQLite. Form
// definitions are written in one canonical shape (a JSON array); the
// Normalizer stays on the read path as a compatibility shim for rows written
// by older clients.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/LouieCads/iskolar-forms/pkg/form"
)

// Application statuses. An application is created as StatusSubmitted the
// moment its response row is accepted; uploads move it to StatusComplete or
// StatusIncomplete afterwards.
const (
	StatusSubmitted  = "submitted"
	StatusComplete   = "complete"
	StatusIncomplete = "submitted_incomplete"
)

// Per-field upload statuses.
const (
	UploadPending = "pending"
	UploadStored  = "stored"
	UploadFailed  = "failed"
)

var (
	ErrNotFound         = errors.New("storage: not found")
	ErrDuplicateApplied = errors.New("storage: student already applied to this scholarship")
)

// Scholarship is the slice of the scholarship record the form engine cares
// about.
type Scholarship struct {
	ID               string
	Name             string
	CustomFormFields string // raw stored definition, any legacy shape
}

// Application is one (student, scholarship) submission.
type Application struct {
	ID            string
	ScholarshipID string
	StudentID     string
	Status        string
	Response      form.FormResponse
	CreatedAt     time.Time
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and prepares the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	// modernc sqlite serializes access itself; a single connection avoids
	// table-lock errors under concurrent writers.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing handle without migrating, for callers that manage the
// schema themselves.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scholarships (
			id                 TEXT PRIMARY KEY,
			name               TEXT NOT NULL,
			custom_form_fields TEXT NOT NULL DEFAULT '[]'
		);

		CREATE TABLE IF NOT EXISTS applications (
			id                   TEXT PRIMARY KEY,
			scholarship_id       TEXT NOT NULL REFERENCES scholarships(id),
			student_id           TEXT NOT NULL,
			status               TEXT NOT NULL,
			custom_form_response TEXT NOT NULL DEFAULT '[]',
			created_at           TIMESTAMP NOT NULL,
			UNIQUE (scholarship_id, student_id)
		);

		CREATE TABLE IF NOT EXISTS upload_status (
			application_id TEXT NOT NULL REFERENCES applications(id),
			field_key      TEXT NOT NULL,
			status         TEXT NOT NULL,
			updated_at     TIMESTAMP NOT NULL,
			PRIMARY KEY (application_id, field_key)
		);
	`)
	if err != nil {
		return fmt.Errorf("storage: migrate: %w", err)
	}
	return nil
}

// SaveScholarship upserts a scholarship, always writing the definition in the
// canonical array shape.
func (s *Store) SaveScholarship(ctx context.Context, id, name string, def form.FormDefinition) error {
	if def == nil {
		def = form.FormDefinition{}
	}
	raw, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("storage: encode definition: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scholarships (id, name, custom_form_fields) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, custom_form_fields = excluded.custom_form_fields
	`, id, name, string(raw))
	if err != nil {
		return fmt.Errorf("storage: save scholarship: %w", err)
	}
	return nil
}

// Scholarship fetches one scholarship, returning the definition exactly as
// stored so callers can run it through the Normalizer.
func (s *Store) Scholarship(ctx context.Context, id string) (Scholarship, error) {
	var out Scholarship
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, custom_form_fields FROM scholarships WHERE id = ?`, id)
	if err := row.Scan(&out.ID, &out.Name, &out.CustomFormFields); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Scholarship{}, fmt.Errorf("%w: scholarship %q", ErrNotFound, id)
		}
		return Scholarship{}, fmt.Errorf("storage: load scholarship: %w", err)
	}
	return out, nil
}

// CreateApplication inserts the base response row. This is the first phase of
// the two-phase submit: once this returns, the application exists regardless
// of how the file uploads go.
func (s *Store) CreateApplication(ctx context.Context, app Application) error {
	raw, err := json.Marshal(app.Response)
	if err != nil {
		return fmt.Errorf("storage: encode response: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO applications (id, scholarship_id, student_id, status, custom_form_response, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, app.ID, app.ScholarshipID, app.StudentID, app.Status, string(raw), app.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w (scholarship %q, student %q)", ErrDuplicateApplied, app.ScholarshipID, app.StudentID)
		}
		return fmt.Errorf("storage: create application: %w", err)
	}
	return nil
}

// Application loads one application with its decoded response.
func (s *Store) Application(ctx context.Context, id string) (Application, error) {
	var (
		out Application
		raw string
	)
	row := s.db.QueryRowContext(ctx, `
		SELECT id, scholarship_id, student_id, status, custom_form_response, created_at
		FROM applications WHERE id = ?
	`, id)
	if err := row.Scan(&out.ID, &out.ScholarshipID, &out.StudentID, &out.Status, &raw, &out.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, fmt.Errorf("%w: application %q", ErrNotFound, id)
		}
		return Application{}, fmt.Errorf("storage: load application: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &out.Response); err != nil {
		return Application{}, fmt.Errorf("storage: decode response: %w", err)
	}
	return out, nil
}

// ListApplications returns the applications for one scholarship, newest
// first.
func (s *Store) ListApplications(ctx context.Context, scholarshipID string) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scholarship_id, student_id, status, custom_form_response, created_at
		FROM applications WHERE scholarship_id = ? ORDER BY created_at DESC
	`, scholarshipID)
	if err != nil {
		return nil, fmt.Errorf("storage: list applications: %w", err)
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		var (
			app Application
			raw string
		)
		if err := rows.Scan(&app.ID, &app.ScholarshipID, &app.StudentID, &app.Status, &raw, &app.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan application: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &app.Response); err != nil {
			return nil, fmt.Errorf("storage: decode response: %w", err)
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

// UpdateResponse replaces an application's stored response, used when file
// references are patched in after upload.
func (s *Store) UpdateResponse(ctx context.Context, id string, resp form.FormResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("storage: encode response: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE applications SET custom_form_response = ? WHERE id = ?`, string(raw), id)
	if err != nil {
		return fmt.Errorf("storage: update response: %w", err)
	}
	return requireRow(result, id)
}

// UpdateStatus moves an application between submitted / incomplete /
// complete.
func (s *Store) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE applications SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("storage: update status: %w", err)
	}
	return requireRow(result, id)
}

// SetUploadStatus records the per-field upload state, keeping the two-phase
// intermediate window queryable.
func (s *Store) SetUploadStatus(ctx context.Context, applicationID, fieldKey, status string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO upload_status (application_id, field_key, status, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (application_id, field_key) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at
	`, applicationID, fieldKey, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storage: set upload status: %w", err)
	}
	return nil
}

// UploadStatuses returns the per-field upload states for an application.
func (s *Store) UploadStatuses(ctx context.Context, applicationID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT field_key, status FROM upload_status WHERE application_id = ?`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("storage: load upload statuses: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, status string
		if err := rows.Scan(&key, &status); err != nil {
			return nil, fmt.Errorf("storage: scan upload status: %w", err)
		}
		out[key] = status
	}
	return out, rows.Err()
}

func requireRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: application %q", ErrNotFound, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// modernc/sqlite surfaces constraint failures as plain errors; the
	// message is the stable part.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Package server exposes the form engine over HTTP: definition fetch,
// application submission, upload retry and response review. It deliberately
// covers only the form-engine surface; marketplace CRUD and auth live
// elsewhere.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/LouieCads/iskolar-forms/internal/storage"
	"github.com/LouieCads/iskolar-forms/internal/submit"
	"github.com/LouieCads/iskolar-forms/pkg/form"
	"github.com/LouieCads/iskolar-forms/pkg/render"
	"github.com/LouieCads/iskolar-forms/pkg/response"
)

// maxErrorsShown bounds how many validation messages a submit rejection
// surfaces directly; the rest collapse into a count.
const maxErrorsShown = 5

// Server wires the engine components behind chi routes.
type Server struct {
	store       *storage.Store
	coordinator *submit.Coordinator
	renderers   *render.Registry
	logger      *slog.Logger
}

// New constructs a Server.
func New(store *storage.Store, coordinator *submit.Coordinator, renderers *render.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:       store,
		coordinator: coordinator,
		renderers:   renderers,
		logger:      logger,
	}
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/scholarships/{scholarshipID}/form", s.handleGetForm)
	r.Post("/scholarships/{scholarshipID}/applications", s.handleSubmit)
	r.Post("/applications/{applicationID}/uploads/retry", s.handleRetryUploads)
	r.Get("/applications/{applicationID}", s.handleGetApplication)
	return r
}

// handleGetForm returns the normalized definition as JSON, or rendered markup
// when a renderer is requested via ?renderer=html.
func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	scholarshipID := chi.URLParam(r, "scholarshipID")
	scholarship, err := s.store.Scholarship(r.Context(), scholarshipID)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	def := form.Normalize(scholarship.CustomFormFields, s.logger)

	name := r.URL.Query().Get("renderer")
	if name == "" {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"scholarship_id": scholarship.ID,
			"name":           scholarship.Name,
			"fields":         def,
		})
		return
	}

	renderer, err := s.renderers.Get(name)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := renderer.Render(r.Context(), def, render.Options{
		Title:  scholarship.Name,
		Action: "/scholarships/" + scholarship.ID + "/applications",
		Method: "POST",
	})
	if err != nil {
		s.logger.Error("render form", "scholarship_id", scholarshipID, "renderer", name, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to render form")
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

type submitPayload struct {
	StudentID   string                   `json:"student_id"`
	Input       map[string]any           `json:"input"`
	Attachments map[string][]filePayload `json:"attachments,omitempty"`
}

type filePayload struct {
	Name    string `json:"name"`
	Content []byte `json:"content"` // base64 in JSON
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.StudentID == "" {
		s.writeError(w, http.StatusBadRequest, "student_id is required")
		return
	}

	result, err := s.coordinator.Submit(r.Context(), submit.Request{
		ScholarshipID: chi.URLParam(r, "scholarshipID"),
		StudentID:     payload.StudentID,
		Input:         payload.Input,
		Attachments:   decodeAttachments(payload.Attachments),
	})
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}

	// 201 even when incomplete: the application exists; the payload says
	// which uploads still need attention.
	s.writeJSON(w, http.StatusCreated, result)
}

type retryPayload struct {
	Attachments map[string][]filePayload `json:"attachments"`
}

func (s *Server) handleRetryUploads(w http.ResponseWriter, r *http.Request) {
	var payload retryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.coordinator.RetryUploads(r.Context(),
		chi.URLParam(r, "applicationID"), decodeAttachments(payload.Attachments))
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "applicationID")
	app, err := s.store.Application(r.Context(), applicationID)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}

	scholarship, err := s.store.Scholarship(r.Context(), app.ScholarshipID)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}
	def := form.Normalize(scholarship.CustomFormFields, s.logger)

	statuses, err := s.store.UploadStatuses(r.Context(), applicationID)
	if err != nil {
		s.writeStorageError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"application_id": app.ID,
		"scholarship_id": app.ScholarshipID,
		"student_id":     app.StudentID,
		"status":         app.Status,
		"submitted_at":   app.CreatedAt,
		"entries":        response.Interpret(def, app.Response),
		"uploads":        statuses,
	})
}

func (s *Server) writeSubmitError(w http.ResponseWriter, err error) {
	if result, ok := submit.IsValidation(err); ok {
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":    "validation failed",
			"messages": result.Bounded(maxErrorsShown),
			"fields":   result.Errors,
		})
		return
	}
	if errors.Is(err, storage.ErrDuplicateApplied) {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeStorageError(w, err)
}

func (s *Server) writeStorageError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error("request failed", "error", err)
	s.writeError(w, http.StatusInternalServerError, "internal error")
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func decodeAttachments(in map[string][]filePayload) map[string][]submit.File {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]submit.File, len(in))
	for key, files := range in {
		converted := make([]submit.File, 0, len(files))
		for _, f := range files {
			converted = append(converted, submit.File{Name: f.Name, Content: f.Content})
		}
		out[key] = converted
	}
	return out
}

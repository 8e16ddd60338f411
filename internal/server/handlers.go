package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/maauso/mediacomposer/internal/compose"
	"github.com/maauso/mediacomposer/internal/job"
	"github.com/maauso/mediacomposer/internal/media"
	"github.com/maauso/mediacomposer/internal/timeline"
)

// CompositionService is the job service the handlers drive.
// *job.Service implements it.
type CompositionService interface {
	Submit(ctx context.Context, req timeline.Request) (*job.Job, error)
	Get(ctx context.Context, id string) (*job.Job, error)
	List(ctx context.Context) ([]*job.Job, error)
	Cancel(ctx context.Context, id string) error
	Plan(ctx context.Context, req timeline.Request) (*compose.Program, error)
}

var _ CompositionService = (*job.Service)(nil)

// maxBodyBytes bounds request bodies; records payloads can be large.
const maxBodyBytes = 8 << 20

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service   CompositionService
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service CompositionService, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:   service,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateComposition handles POST /compositions requests.
func (h *Handlers) CreateComposition(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	created, err := h.service.Submit(r.Context(), req.toTimeline())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.Info("composition submitted",
		slog.String("job_id", created.ID),
		slog.String("request_id", RequestIDFromContext(r.Context())),
		slog.Int("scenes", len(req.Scenes)),
		slog.Int("tracks", len(req.Audio)),
	)

	writeJSON(w, http.StatusAccepted, CreateCompositionResponse{
		ID:     created.ID,
		Status: string(created.Status),
	})
}

// PlanComposition handles POST /compositions/plan requests. It probes and
// compiles without encoding.
func (h *Handlers) PlanComposition(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	program, err := h.service.Plan(r.Context(), req.toTimeline())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newPlanResponse(program))
}

// ListCompositions handles GET /compositions requests.
func (h *Handlers) ListCompositions(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ListCompositionsResponse{
		Compositions: lo.Map(jobs, func(j *job.Job, _ int) CompositionResponse {
			return newCompositionResponse(j)
		}),
	})
}

// GetComposition handles GET /compositions/{id} requests.
func (h *Handlers) GetComposition(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	found, err := h.service.Get(r.Context(), jobID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newCompositionResponse(found))
}

// CancelComposition handles POST /compositions/{id}/cancel requests.
func (h *Handlers) CancelComposition(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	if err := h.service.Cancel(r.Context(), jobID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.Info("composition cancel requested", slog.String("job_id", jobID))
	w.WriteHeader(http.StatusAccepted)
}

// decode reads and validates a CompositionRequest, writing the error
// response itself when it fails.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request) (CompositionRequest, bool) {
	var req CompositionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return req, false
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return req, false
	}

	return req, true
}

// writeServiceError maps domain errors onto HTTP statuses.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *timeline.ValidationError
	switch {
	case errors.Is(err, timeline.ErrNoAudioStream),
		errors.Is(err, timeline.ErrZeroDuration),
		errors.Is(err, timeline.ErrMissingPrimaryStream):
		resp := ErrorResponse{Error: err.Error(), Code: "INVALID_TIMELINE"}
		if errors.As(err, &verr) {
			resp.Field = verr.Field
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Code: "VALIDATION_ERROR", Field: verr.Field})
	case errors.Is(err, timeline.ErrUnsupportedSubtitleFormat):
		writeError(w, http.StatusBadRequest, err.Error(), "UNSUPPORTED_SUBTITLE")
	case errors.Is(err, compose.ErrNoPublisher):
		writeError(w, http.StatusBadRequest, err.Error(), "PUBLISH_UNAVAILABLE")
	case errors.Is(err, job.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
	case errors.Is(err, job.ErrJobFinished):
		writeError(w, http.StatusConflict, err.Error(), "JOB_FINISHED")
	case errors.Is(err, media.ErrProbeFailed):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), "PROBE_FAILED")
	default:
		h.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

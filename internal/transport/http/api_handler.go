package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"proctor-quiz-service/internal/app"
	"proctor-quiz-service/internal/domain"
	"proctor-quiz-service/internal/validator"
)

// APIHandler serves the attempt flow around the live session: login,
// verification, photo, results, feedback and retake.
type APIHandler struct {
	service *app.QuizService
	log     zerolog.Logger
}

func NewAPIHandler(service *app.QuizService, log zerolog.Logger) *APIHandler {
	return &APIHandler{
		service: service,
		log:     log.With().Str("component", "api").Logger(),
	}
}

// Register mounts the attempt routes on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/attempts", h.login)
	mux.HandleFunc("GET /api/attempts/{id}", h.attempt)
	mux.HandleFunc("POST /api/attempts/{id}/verify", h.verify)
	mux.HandleFunc("POST /api/attempts/{id}/photo", h.photo)
	mux.HandleFunc("GET /api/attempts/{id}/results", h.results)
	mux.HandleFunc("POST /api/attempts/{id}/feedback", h.feedback)
	mux.HandleFunc("DELETE /api/attempts/{id}", h.retake)
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (h *APIHandler) login(w http.ResponseWriter, r *http.Request) {
	var req app.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	attempt, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, attempt)
}

func (h *APIHandler) attempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.Attempt(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *APIHandler) verify(w http.ResponseWriter, r *http.Request) {
	var req app.PasskeyRequest
	if !h.decode(w, r, &req) {
		return
	}
	attempt, err := h.service.VerifyPasskey(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *APIHandler) photo(w http.ResponseWriter, r *http.Request) {
	var req app.PhotoRequest
	if !h.decode(w, r, &req) {
		return
	}
	attempt, err := h.service.CapturePhoto(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *APIHandler) results(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Results(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *APIHandler) feedback(w http.ResponseWriter, r *http.Request) {
	var req app.FeedbackRequest
	if !h.decode(w, r, &req) {
		return
	}
	feedback, err := h.service.SubmitFeedback(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

func (h *APIHandler) retake(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Retake(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// photos arrive as data URLs, so the body limit is generous
const maxBodyBytes = 8 << 20

func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (h *APIHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var fields validator.FieldErrors
	if errors.As(err, &fields) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: fields})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAttemptNotFound), errors.Is(err, domain.ErrBankNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPasskey):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrStageMismatch),
		errors.Is(err, domain.ErrSessionActive),
		errors.Is(err, domain.ErrResultsNotReady):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidOption):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

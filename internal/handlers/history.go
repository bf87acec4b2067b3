package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/voxnote/apiserver/internal/services"
	"github.com/voxnote/apiserver/internal/storage"
	"github.com/voxnote/apiserver/internal/store"
)

// HistoryHandler serves a user's transcription history.
type HistoryHandler struct {
	transcriptionService *services.TranscriptionService
}

// NewHistoryHandler constructs a handler with the provided service.
func NewHistoryHandler(transcriptionService *services.TranscriptionService) *HistoryHandler {
	return &HistoryHandler{transcriptionService: transcriptionService}
}

// HistoryRouter registers history routes on the given router.
func HistoryRouter(
	r chi.Router,
	transcriptionService *services.TranscriptionService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewHistoryHandler(transcriptionService)

	r.With(authMiddleware).Get("/history", handler.List)
	r.With(authMiddleware).Get("/history/{transcriptionID}/audio", handler.Audio)
	r.With(authMiddleware).Delete("/history/{transcriptionID}", handler.Delete)
}

// List returns the caller's transcriptions, most recent first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, err := usernameFromContext(r.Context())
	if err != nil {
		unauthenticated(w)
		return
	}

	items, err := h.transcriptionService.History(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// Audio streams the archived original recording for one of the
// caller's transcriptions.
func (h *HistoryHandler) Audio(w http.ResponseWriter, r *http.Request) {
	owner, err := usernameFromContext(r.Context())
	if err != nil {
		unauthenticated(w)
		return
	}

	id, err := parseTranscriptionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rc, err := h.transcriptionService.OriginalRecording(r.Context(), owner, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			writeError(w, http.StatusNotFound, "Recording not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load recording")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

// Delete removes one of the caller's transcriptions.
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, err := usernameFromContext(r.Context())
	if err != nil {
		unauthenticated(w)
		return
	}

	id, err := parseTranscriptionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.transcriptionService.Delete(r.Context(), owner, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transcription not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete transcription")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Transcription deleted successfully"})
}

func parseTranscriptionID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "transcriptionID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid transcription id")
	}
	return id, nil
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/voxnote/apiserver/internal/media"
	"github.com/voxnote/apiserver/internal/recognize"
	"github.com/voxnote/apiserver/internal/services"
)

const (
	maxMultipartMemory = 32 << 20
	maxUploadBytes     = 64 << 20
	formFieldFile      = "file"
)

// AudioFile represents an uploaded recording.
type AudioFile struct {
	Filename string
	Data     []byte
}

// UploadHandler runs the upload pipeline for authenticated callers.
type UploadHandler struct {
	transcriptionService *services.TranscriptionService
}

// NewUploadHandler constructs a handler with the provided service.
func NewUploadHandler(transcriptionService *services.TranscriptionService) *UploadHandler {
	return &UploadHandler{transcriptionService: transcriptionService}
}

// UploadRouter registers upload routes on the given router.
func UploadRouter(
	r chi.Router,
	transcriptionService *services.TranscriptionService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewUploadHandler(transcriptionService)

	r.With(authMiddleware).Post("/upload", handler.Upload)
	r.With(authMiddleware).Post("/quiz", handler.Quiz)
}

// UploadResponse is the pipeline result payload. Domain failures keep
// HTTP 200 and report through Error plus an "Error:"-prefixed Text, so
// the client always receives a structured result.
type UploadResponse struct {
	Text      string     `json:"text"`
	Questions []string   `json:"questions"`
	ID        int        `json:"id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	Error     bool       `json:"error"`
}

// Upload accepts a multipart recording and answers with the transcript,
// derived questions and the stored row.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	owner, err := usernameFromContext(r.Context())
	if err != nil {
		unauthenticated(w)
		return
	}

	upload, err := parseAudioFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.transcriptionService.Process(r.Context(), owner, upload.Filename, upload.Data)
	if err != nil {
		writeJSON(w, http.StatusOK, UploadResponse{
			Text:      pipelineErrorText(err),
			Questions: []string{},
			Error:     true,
		})
		return
	}

	questions := result.Questions
	if questions == nil {
		questions = []string{}
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Text:      result.Text,
		Questions: questions,
		ID:        result.ID,
		CreatedAt: &result.CreatedAt,
	})
}

// pipelineErrorText maps a pipeline failure onto the user-facing text
// the client displays in place of a transcript.
func pipelineErrorText(err error) string {
	switch {
	case errors.Is(err, recognize.ErrUnintelligible):
		return "Error: Could not understand audio"
	case errors.Is(err, recognize.ErrServiceUnavailable):
		return "Error: Could not reach the speech recognition service"
	case errors.Is(err, media.ErrConversionFailed):
		return "Error: audio conversion failed"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

// QuizRequest carries the transcript to build a quiz from.
type QuizRequest struct {
	Text string `json:"text"`
}

// Quiz derives a four-question multiple-choice quiz from a transcript.
func (h *UploadHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	var req QuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"questions": services.GenerateQuiz(req.Text),
	})
}

func parseAudioFile(r *http.Request) (AudioFile, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return AudioFile{}, errors.New("invalid multipart form")
	}
	return audioFileFromForm(r.MultipartForm)
}

func audioFileFromForm(form *multipart.Form) (AudioFile, error) {
	if form == nil {
		return AudioFile{}, errors.New("missing form data")
	}

	files := form.File[formFieldFile]
	if len(files) == 0 {
		return AudioFile{}, errors.New("audio file is required")
	}
	if len(files) > 1 {
		return AudioFile{}, errors.New("only one audio file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return AudioFile{}, fmt.Errorf("failed to read audio file: %w", err)
	}

	data, err := readFileLimited(file, maxUploadBytes)
	_ = file.Close()
	if err != nil {
		return AudioFile{}, err
	}

	return AudioFile{
		Filename: fileHeader.Filename,
		Data:     data,
	}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}

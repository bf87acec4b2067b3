package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/voxnote/apiserver/internal/storage"
	"github.com/voxnote/apiserver/types"
)

const (
	// Uploads without a recognizable extension are assumed to be opus,
	// the container browsers produce for voice recordings.
	defaultContainerExt = ".opus"

	convertTimeout   = 2 * time.Minute
	recognizeTimeout = 5 * time.Minute
)

// TranscriptionRepository defines persistence operations for transcriptions.
type TranscriptionRepository interface {
	ListByOwner(ctx context.Context, owner string) ([]types.Transcription, error)
	Create(ctx context.Context, t types.Transcription) (types.Transcription, error)
	Delete(ctx context.Context, owner string, id int) error
}

// Converter normalizes an uploaded recording into mono 16 kHz WAV.
type Converter interface {
	Convert(ctx context.Context, inputPath string) (string, error)
}

// Recognizer turns normalized audio into plain text.
type Recognizer interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// TranscriptionService runs the upload pipeline and serves transcription
// history.
type TranscriptionService struct {
	repo       TranscriptionRepository
	converter  Converter
	recognizer Recognizer
	archive    *storage.Storage
	uploadDir  string
}

// NewTranscriptionService constructs the service. archive may be nil,
// which disables upload archiving.
func NewTranscriptionService(
	repo TranscriptionRepository,
	converter Converter,
	recognizer Recognizer,
	archive *storage.Storage,
	uploadDir string,
) *TranscriptionService {
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	return &TranscriptionService{
		repo:       repo,
		converter:  converter,
		recognizer: recognizer,
		archive:    archive,
		uploadDir:  uploadDir,
	}
}

// PipelineResult is the outcome of a successful upload pipeline run.
type PipelineResult struct {
	Text      string
	Questions []string
	ID        int
	CreatedAt time.Time
}

// Process runs the whole pipeline for one uploaded recording: store the
// bytes under a unique temp name, convert, transcribe, derive questions
// and persist the transcript for the owner. Domain failures
// (media.ErrConversionFailed, recognize.ErrUnintelligible,
// recognize.ErrServiceUnavailable) skip persistence and are returned for
// the handler to map; temp files are removed best-effort on every path.
func (s *TranscriptionService) Process(ctx context.Context, owner, filename string, data []byte) (PipelineResult, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return PipelineResult{}, err
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = defaultContainerExt
	}
	inputPath := filepath.Join(s.uploadDir, uuid.NewString()+ext)
	if err := os.WriteFile(inputPath, data, 0o644); err != nil {
		return PipelineResult{}, err
	}
	defer func() {
		_ = os.Remove(inputPath)
	}()

	convertCtx, cancelConvert := context.WithTimeout(ctx, convertTimeout)
	defer cancelConvert()
	wavPath, err := s.converter.Convert(convertCtx, inputPath)
	if err != nil {
		return PipelineResult{}, err
	}
	defer func() {
		_ = os.Remove(wavPath)
	}()

	recognizeCtx, cancelRecognize := context.WithTimeout(ctx, recognizeTimeout)
	defer cancelRecognize()
	text, err := s.recognizer.Transcribe(recognizeCtx, wavPath)
	if err != nil {
		return PipelineResult{}, err
	}

	questions := GenerateQuestions(text)

	row, err := s.repo.Create(ctx, types.Transcription{
		Filename:      filename,
		Text:          text,
		OwnerUsername: owner,
	})
	if err != nil {
		return PipelineResult{}, err
	}

	s.archiveUpload(ctx, owner, row.ID, data)

	return PipelineResult{
		Text:      text,
		Questions: questions,
		ID:        row.ID,
		CreatedAt: row.CreatedAt,
	}, nil
}

// archiveKey names the archived original for a transcription row. The
// owner prefix scopes lookups so a caller can only ever reach their own
// recordings.
func archiveKey(owner string, id int) string {
	return path.Join(owner, strconv.Itoa(id))
}

// archiveUpload copies the original bytes to object storage when an
// archive backend is configured. Failures are logged, never surfaced.
func (s *TranscriptionService) archiveUpload(ctx context.Context, owner string, id int, data []byte) {
	if s.archive == nil {
		return
	}

	key := archiveKey(owner, id)
	if err := s.archive.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/octet-stream"); err != nil {
		slog.Warn("failed to archive upload", "key", key, "error", err)
	}
}

// OriginalRecording opens the archived upload for one of the owner's
// transcriptions. Returns storage.ErrNotExist when archiving is
// disabled, the row was never archived, or the id belongs to someone
// else.
func (s *TranscriptionService) OriginalRecording(ctx context.Context, owner string, id int) (io.ReadCloser, error) {
	if s.archive == nil {
		return nil, storage.ErrNotExist
	}
	return s.archive.Get(ctx, archiveKey(owner, id))
}

// History returns the owner's transcriptions, most recent first.
func (s *TranscriptionService) History(ctx context.Context, owner string) ([]types.Transcription, error) {
	return s.repo.ListByOwner(ctx, owner)
}

// Delete removes one transcription owned by the given username, along
// with its archived original when one exists.
func (s *TranscriptionService) Delete(ctx context.Context, owner string, id int) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return err
	}

	if s.archive != nil {
		key := archiveKey(owner, id)
		if err := s.archive.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotExist) {
			slog.Warn("failed to delete archived upload", "key", key, "error", err)
		}
	}
	return nil
}

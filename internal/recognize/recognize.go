package recognize

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnintelligible means the recognition service ran but could not
	// produce a transcript from the audio.
	ErrUnintelligible = errors.New("could not understand audio")

	// ErrServiceUnavailable means the recognition service could not be
	// reached or failed at the service level.
	ErrServiceUnavailable = errors.New("speech recognition service unavailable")
)

const defaultRequestTimeout = 5 * time.Minute

// Backend defines the recognition operation implemented by each provider.
type Backend interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Recognizer wraps a backend with a stable API.
type Recognizer struct {
	backend Backend
}

// New constructs a Recognizer for the provided backend.
func New(backend Backend) *Recognizer {
	return &Recognizer{backend: backend}
}

// Transcribe sends normalized audio to the configured provider and
// returns the plain-text transcript.
func (r *Recognizer) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return r.backend.Transcribe(ctx, audioPath)
}

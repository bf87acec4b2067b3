package recognize

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return newOpenAIClient(cfg, openai.Whisper1)
}

func TestOpenAITranscribe(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.True(t, strings.HasSuffix(r.URL.Path, "/audio/transcriptions"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hello from the other side"}`))
	})

	text, err := client.Transcribe(context.Background(), writeClip(t))
	require.NoError(t, err)
	assert.Equal(t, "hello from the other side", text)
}

func TestOpenAITranscribeEmptyText(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  "}`))
	})

	_, err := client.Transcribe(context.Background(), writeClip(t))
	assert.ErrorIs(t, err, ErrUnintelligible)
}

func TestOpenAITranscribeServerError(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusBadGateway)
	})

	_, err := client.Transcribe(context.Background(), writeClip(t))
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

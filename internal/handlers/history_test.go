package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxnote/apiserver/internal/services"
	"github.com/voxnote/apiserver/internal/storage"
	"github.com/voxnote/apiserver/types"
)

func newHistoryRouter(t *testing.T) (*chi.Mux, *fakeTranscriptionRepo) {
	t.Helper()
	repo := newFakeTranscriptionRepo()
	svc := services.NewTranscriptionService(repo, nil, nil, nil, t.TempDir())

	router := chi.NewRouter()
	HistoryRouter(router, svc, RequireAuth(testJWTSecret))
	return router, repo
}

func authedRequest(t *testing.T, method, path, username string) *http.Request {
	t.Helper()
	token, err := issueToken(username, []byte(testJWTSecret), defaultTokenTTL)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestHistoryListOrder(t *testing.T) {
	router, repo := newHistoryRouter(t)

	for i := 1; i <= 3; i++ {
		_, err := repo.Create(context.Background(), types.Transcription{
			Filename:      fmt.Sprintf("clip-%d.opus", i),
			Text:          fmt.Sprintf("transcript %d", i),
			OwnerUsername: "alice",
		})
		require.NoError(t, err)
	}
	_, err := repo.Create(context.Background(), types.Transcription{
		Filename:      "other.opus",
		Text:          "not alice's",
		OwnerUsername: "bob",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/history", "alice"))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []types.Transcription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 3)

	// Most recent first.
	assert.Equal(t, "clip-3.opus", items[0].Filename)
	assert.Equal(t, "clip-1.opus", items[2].Filename)
	for i := 0; i < len(items)-1; i++ {
		assert.True(t, !items[i].CreatedAt.Before(items[i+1].CreatedAt))
	}
}

func TestHistoryListEmpty(t *testing.T) {
	router, _ := newHistoryRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/history", "alice"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHistoryRequiresAuth(t *testing.T) {
	router, _ := newHistoryRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHistoryDelete(t *testing.T) {
	router, repo := newHistoryRouter(t)

	row, err := repo.Create(context.Background(), types.Transcription{
		Filename:      "clip.opus",
		Text:          "transcript",
		OwnerUsername: "alice",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodDelete, fmt.Sprintf("/history/%d", row.ID), "alice"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Transcription deleted successfully")
	assert.Zero(t, repo.count())
}

func TestHistoryDeleteForeignOwner(t *testing.T) {
	router, repo := newHistoryRouter(t)

	row, err := repo.Create(context.Background(), types.Transcription{
		Filename:      "clip.opus",
		Text:          "transcript",
		OwnerUsername: "alice",
	})
	require.NoError(t, err)

	// bob cannot delete alice's row, and the row must survive.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodDelete, fmt.Sprintf("/history/%d", row.ID), "bob"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Transcription not found")
	assert.Equal(t, 1, repo.count())
}

func TestHistoryDeleteUnknownID(t *testing.T) {
	router, _ := newHistoryRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodDelete, "/history/42", "alice"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryDeleteInvalidID(t *testing.T) {
	router, _ := newHistoryRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodDelete, "/history/banana", "alice"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func newArchivedHistoryRouter(t *testing.T) (*chi.Mux, *services.TranscriptionService, *memArchive) {
	t.Helper()
	repo := newFakeTranscriptionRepo()
	archive := newMemArchive()
	svc := services.NewTranscriptionService(
		repo,
		&stubConverter{},
		&stubRecognizer{text: "a perfectly useful transcript"},
		storage.NewStorage(archive),
		t.TempDir(),
	)

	router := chi.NewRouter()
	HistoryRouter(router, svc, RequireAuth(testJWTSecret))
	return router, svc, archive
}

func TestHistoryAudio(t *testing.T) {
	router, svc, _ := newArchivedHistoryRouter(t)

	original := []byte("original recording bytes")
	result, err := svc.Process(context.Background(), "alice", "clip.opus", original)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodGet, fmt.Sprintf("/history/%d/audio", result.ID), "alice"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, original, rec.Body.Bytes())
}

func TestHistoryAudioForeignOwner(t *testing.T) {
	router, svc, _ := newArchivedHistoryRouter(t)

	result, err := svc.Process(context.Background(), "alice", "clip.opus", []byte("bytes"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodGet, fmt.Sprintf("/history/%d/audio", result.ID), "bob"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Recording not found")
}

func TestHistoryAudioWithoutArchive(t *testing.T) {
	router, repo := newHistoryRouter(t)

	row, err := repo.Create(context.Background(), types.Transcription{
		Filename:      "clip.opus",
		Text:          "transcript",
		OwnerUsername: "alice",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodGet, fmt.Sprintf("/history/%d/audio", row.ID), "alice"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryDeleteRemovesArchivedAudio(t *testing.T) {
	router, svc, archive := newArchivedHistoryRouter(t)

	result, err := svc.Process(context.Background(), "alice", "clip.opus", []byte("bytes"))
	require.NoError(t, err)
	require.Len(t, archive.objects, 1)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodDelete, fmt.Sprintf("/history/%d", result.ID), "alice"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, archive.objects)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodGet, fmt.Sprintf("/history/%d/audio", result.ID), "alice"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

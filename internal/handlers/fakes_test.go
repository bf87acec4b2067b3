package handlers

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/voxnote/apiserver/internal/storage"
	"github.com/voxnote/apiserver/internal/store"
	"github.com/voxnote/apiserver/types"
)

// fakeUserRepo is an in-memory services.UserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]types.User)}
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return types.User{}, store.ErrDuplicate
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now().UTC()
	r.users[user.Username] = user
	return user, nil
}

// blindUserRepo hides existing users from the lookup methods, the way a
// concurrent registration does between the existence check and the
// insert.
type blindUserRepo struct {
	*fakeUserRepo
}

func (r *blindUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return types.User{}, store.ErrNotFound
}

func (r *blindUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return types.User{}, store.ErrNotFound
}

// fakeTranscriptionRepo is an in-memory services.TranscriptionRepository.
type fakeTranscriptionRepo struct {
	mu     sync.Mutex
	nextID int
	rows   []types.Transcription
}

func newFakeTranscriptionRepo() *fakeTranscriptionRepo {
	return &fakeTranscriptionRepo{}
}

func (r *fakeTranscriptionRepo) ListByOwner(ctx context.Context, owner string) ([]types.Transcription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owned := make([]types.Transcription, 0)
	for _, row := range r.rows {
		if row.OwnerUsername == owner {
			owned = append(owned, row)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	return owned, nil
}

func (r *fakeTranscriptionRepo) Create(ctx context.Context, t types.Transcription) (types.Transcription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = time.Now().UTC().Add(time.Duration(r.nextID) * time.Millisecond)
	r.rows = append(r.rows, t)
	return t, nil
}

func (r *fakeTranscriptionRepo) Delete(ctx context.Context, owner string, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.ID == id && row.OwnerUsername == owner {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (r *fakeTranscriptionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// memArchive is an in-memory storage.ObjectStorage.
type memArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemArchive() *memArchive {
	return &memArchive{objects: make(map[string][]byte)}
}

func (a *memArchive) EnsureBucket(ctx context.Context) error { return nil }

func (a *memArchive) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = data
	return nil
}

func (a *memArchive) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.objects[key]
	if !ok {
		return nil, storage.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (a *memArchive) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.objects[key]; !ok {
		return storage.ErrNotExist
	}
	delete(a.objects, key)
	return nil
}

func (a *memArchive) Bucket() string { return "test-bucket" }

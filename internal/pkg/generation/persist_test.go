package generation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plateful-app/plateful/app/models"
	"github.com/plateful-app/plateful/app/repository"
	"github.com/plateful-app/plateful/internal/pkg/background"
	"github.com/plateful-app/plateful/internal/pkg/storage"
)

// memoryStore is an in-memory ObjectStore for pipeline tests.
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *memoryStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (m *memoryStore) Head(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	return out
}

func newImageRepo(t *testing.T) repository.RecipeImageRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access underlying connection: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.RecipeImage{}); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}
	return repository.NewRecipeImageRepository(db)
}

func newImageServer(t *testing.T, body []byte, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestPersister_Persist_HappyPath(t *testing.T) {
	payload := []byte("png-bytes")
	server := newImageServer(t, payload, http.StatusOK)
	store := newMemoryStore()
	images := newImageRepo(t)

	p := NewPersister(store, images, "https://img.plateful.app/")

	result, err := p.Persist(context.Background(), server.URL+"/result.png", 7, 42, "flux")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.ImagePath, "7/42/"), "key must be scoped to user and recipe: %s", result.ImagePath)
	assert.True(t, strings.HasSuffix(result.ImagePath, ".png"))
	assert.Equal(t, "https://img.plateful.app/r/"+result.ImagePath, result.PublicURL)
	assert.WithinDuration(t, time.Now().Add(models.RecipeImageTTL), result.ExpiresAt, time.Minute)

	stored, err := store.Get(context.Background(), result.ImagePath)
	require.NoError(t, err)
	assert.Equal(t, payload, stored)

	row, err := images.GetByRecipeID(42)
	require.NoError(t, err)
	assert.Equal(t, result.ImagePath, row.ImagePath)
	assert.Equal(t, "flux", row.ImageModel)
	assert.Equal(t, uint(7), row.UserID)
}

func TestPersister_Persist_ReplacesAndDeletesOldObject(t *testing.T) {
	server := newImageServer(t, []byte("image"), http.StatusOK)
	store := newMemoryStore()
	images := newImageRepo(t)

	p := NewPersister(store, images, "https://img.plateful.app")

	first, err := p.Persist(context.Background(), server.URL+"/a.png", 7, 42, "flux")
	require.NoError(t, err)

	second, err := p.Persist(context.Background(), server.URL+"/b.png", 7, 42, "sd-turbo")
	require.NoError(t, err)
	require.NotEqual(t, first.ImagePath, second.ImagePath)

	// The delete of the superseded object runs fire-and-forget.
	background.Wait()

	keys := store.keys()
	require.Len(t, keys, 1, "superseded object must be deleted")
	assert.Equal(t, second.ImagePath, keys[0])

	row, err := images.GetByRecipeID(42)
	require.NoError(t, err)
	assert.Equal(t, second.ImagePath, row.ImagePath)
	assert.Equal(t, "sd-turbo", row.ImageModel)
}

func TestPersister_Persist_DownloadHTTPError(t *testing.T) {
	server := newImageServer(t, []byte("gone"), http.StatusNotFound)
	p := NewPersister(newMemoryStore(), newImageRepo(t), "https://img.plateful.app")

	_, err := p.Persist(context.Background(), server.URL+"/missing.png", 7, 42, "flux")

	var downloadErr *DownloadError
	require.ErrorAs(t, err, &downloadErr)
	assert.Equal(t, http.StatusNotFound, downloadErr.StatusCode)
}

func TestPersister_Persist_EmptyBody(t *testing.T) {
	server := newImageServer(t, nil, http.StatusOK)
	p := NewPersister(newMemoryStore(), newImageRepo(t), "https://img.plateful.app")

	_, err := p.Persist(context.Background(), server.URL+"/empty.png", 7, 42, "flux")

	var downloadErr *DownloadError
	require.ErrorAs(t, err, &downloadErr)
}

func TestPersister_Persist_UploadFailureKeepsOldAssociation(t *testing.T) {
	server := newImageServer(t, []byte("image"), http.StatusOK)
	store := newMemoryStore()
	images := newImageRepo(t)

	p := NewPersister(store, images, "https://img.plateful.app")

	first, err := p.Persist(context.Background(), server.URL+"/a.png", 7, 42, "flux")
	require.NoError(t, err)

	store.putErr = errors.New("bucket unavailable")
	_, err = p.Persist(context.Background(), server.URL+"/b.png", 7, 42, "flux")

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)

	// The old association and its object must survive the failed replacement.
	row, rowErr := images.GetByRecipeID(42)
	require.NoError(t, rowErr)
	assert.Equal(t, first.ImagePath, row.ImagePath)

	exists, _ := store.Head(context.Background(), first.ImagePath)
	assert.True(t, exists)
}

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/blogport/media-pipeline/internal/media/models"
	"github.com/blogport/media-pipeline/internal/media/repository"
)

const (
	testUploadBucket   = "upload-test"
	testOutputBucket   = "variants-test"
	testManifestBucket = "manifests-test"
)

// memoryStore is a map-backed ObjectStore for pipeline tests.
type memoryStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failPut  map[string]error
	uploads  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		objects: make(map[string][]byte),
		failPut: make(map[string]error),
	}
}

func storeKey(bucket, key string) string { return bucket + "/" + key }

func (s *memoryStore) put(bucket, key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storeKey(bucket, key)] = data
}

func (s *memoryStore) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[storeKey(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("object %s/%s does not exist", bucket, key)
	}
	return data, nil
}

func (s *memoryStore) Upload(ctx context.Context, bucket, key, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failPut[storeKey(bucket, key)]; ok {
		return err
	}
	s.uploads++
	s.objects[storeKey(bucket, key)] = data
	return nil
}

func (s *memoryStore) uploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 120, G: 180, B: 60, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func seedPending(t *testing.T, repo *repository.MemoryRepository, key string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	m := &models.Media{
		ID:               id,
		OwnerID:          uuid.New(),
		BucketName:       testUploadBucket,
		ObjectKey:        key,
		OriginalFilename: "photo.png",
		MimeType:         "image/png",
		FileSizeBytes:    1024,
		State:            models.PendingState,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	a := &models.MediaAttachment{
		ID:             uuid.New(),
		MediaID:        id,
		AttachableType: models.AttachableBlogPost,
		AttachableID:   uuid.New(),
		Role:           "cover",
	}
	require.NoError(t, repo.CreateWithAttachment(context.Background(), m, a))
	return id
}

func newTestPipeline(t *testing.T, repo *repository.MemoryRepository, store *memoryStore) *Pipeline {
	t.Helper()
	p, err := New(Config{
		Repo:           repo,
		Store:          store,
		OutputBucket:   testOutputBucket,
		ManifestBucket: testManifestBucket,
		Workers:        2,
		Logger:         zerolog.Nop(),
	})
	require.NoError(t, err)
	return p
}

func TestProcess_Success(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	store := newMemoryStore()
	p := newTestPipeline(t, repo, store)

	id := seedPending(t, repo, "orig.png")
	store.put(testUploadBucket, "orig.png", pngBytes(t, 1200, 900))

	require.NoError(t, p.Process(ctx, id))

	m, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.ReadyState, m.State)

	// One variant per size class, all recorded in one pass.
	for _, size := range models.SizeClasses {
		v, err := repo.GetVariant(ctx, id, size)
		require.NoError(t, err)
		require.Equal(t, testOutputBucket, v.BucketName)
		require.Equal(t, models.VariantObjectKey(id, size), v.ObjectKey)
		require.Equal(t, "image/webp", v.MimeType)
		require.Positive(t, v.FileSizeBytes)

		obj, err := store.Download(ctx, testOutputBucket, v.ObjectKey)
		require.NoError(t, err)
		require.Equal(t, int64(len(obj)), v.FileSizeBytes)
	}

	thumb, err := repo.GetVariant(ctx, id, models.Thumbnail)
	require.NoError(t, err)
	require.Equal(t, 150, thumb.Width)
	require.Equal(t, 150, thumb.Height)

	large, err := repo.GetVariant(ctx, id, models.Large)
	require.NoError(t, err)
	require.Equal(t, 1200, large.Width)
	require.Equal(t, 900, large.Height)
}

func TestProcess_WritesManifest(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	store := newMemoryStore()
	p := newTestPipeline(t, repo, store)

	id := seedPending(t, repo, "orig.png")
	store.put(testUploadBucket, "orig.png", pngBytes(t, 800, 600))

	require.NoError(t, p.Process(ctx, id))

	raw, err := store.Download(ctx, testManifestBucket, models.ManifestObjectKey(id))
	require.NoError(t, err)

	var manifest models.Manifest
	require.NoError(t, json.Unmarshal(raw, &manifest))
	require.Equal(t, id, manifest.MediaID)
	require.Len(t, manifest.Variants, len(models.SizeClasses))

	for i, v := range manifest.Variants {
		require.Equal(t, models.SizeClasses[i], v.Size)
		require.Equal(t, testOutputBucket, v.Bucket)
		require.Equal(t, models.VariantObjectKey(id, v.Size), v.Key)
		require.Equal(t, "image/webp", v.Mime)
		require.Positive(t, v.Bytes)
	}
}

func TestProcess_Redelivery(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	store := newMemoryStore()
	p := newTestPipeline(t, repo, store)

	id := seedPending(t, repo, "orig.png")
	store.put(testUploadBucket, "orig.png", pngBytes(t, 640, 480))

	require.NoError(t, p.Process(ctx, id))
	uploadsAfterFirst := store.uploadCount()

	// A second delivery of the same trigger must be a silent no-op.
	require.NoError(t, p.Process(ctx, id))
	require.Equal(t, uploadsAfterFirst, store.uploadCount())

	m, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.ReadyState, m.State)
}

func TestProcess_MissingOriginal(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	store := newMemoryStore()
	p := newTestPipeline(t, repo, store)

	id := seedPending(t, repo, "gone.png")

	require.NoError(t, p.Process(ctx, id))

	m, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.FailedState, m.State)
}

func TestProcess_CorruptOriginal(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	store := newMemoryStore()
	p := newTestPipeline(t, repo, store)

	id := seedPending(t, repo, "orig.png")
	store.put(testUploadBucket, "orig.png", []byte("definitely not an image"))

	require.NoError(t, p.Process(ctx, id))

	m, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.FailedState, m.State)
}

func TestProcess_VariantUploadFailure(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	store := newMemoryStore()
	p := newTestPipeline(t, repo, store)

	id := seedPending(t, repo, "orig.png")
	store.put(testUploadBucket, "orig.png", pngBytes(t, 640, 480))
	store.failPut[storeKey(testOutputBucket, models.VariantObjectKey(id, models.Large))] = fmt.Errorf("connection reset")

	require.NoError(t, p.Process(ctx, id))

	// One variant failing fails the media as a whole, even if siblings
	// already landed in storage.
	m, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.FailedState, m.State)

	_, err = repo.GetVariant(ctx, id, models.Small)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestProcess_ManifestUploadFailure(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	store := newMemoryStore()
	p := newTestPipeline(t, repo, store)

	id := seedPending(t, repo, "orig.png")
	store.put(testUploadBucket, "orig.png", pngBytes(t, 640, 480))
	store.failPut[storeKey(testManifestBucket, models.ManifestObjectKey(id))] = fmt.Errorf("access denied")

	require.NoError(t, p.Process(ctx, id))

	m, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.FailedState, m.State)
}

func TestProcess_UnknownMedia(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	store := newMemoryStore()
	p := newTestPipeline(t, repo, store)

	// No row at all: the CAS is lost and nothing else happens.
	require.NoError(t, p.Process(ctx, uuid.New()))
	require.Zero(t, store.uploadCount())
}

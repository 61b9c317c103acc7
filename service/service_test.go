package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/tnqbao/gau-media-service/entity"
	"github.com/tnqbao/gau-media-service/infra"
	"github.com/tnqbao/gau-media-service/infra/produce"
	"github.com/tnqbao/gau-media-service/repository"
	"go.opentelemetry.io/otel/log/noop"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
}

type fakeStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	puts         int
	presigns     int
	putErr       error
	failPresign  map[string]bool
	onPresign    func(key string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:      map[string][]byte{},
		contentTypes: map[string]string{},
		failPresign:  map[string]bool{},
	}
}

func (f *fakeStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.puts++
	f.objects[key] = data
	f.contentTypes[key] = contentType
	return nil
}

// clientPut stores an object the way a client does through a presigned PUT.
func (f *fakeStore) clientPut(key string, data []byte, contentType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.contentTypes[key] = contentType
}

func (f *fakeStore) Stat(_ context.Context, key string) (*infra.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, infra.ErrObjectNotFound
	}
	return &infra.ObjectInfo{Size: int64(len(data)), ContentType: f.contentTypes[key]}, nil
}

func (f *fakeStore) PresignedGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	f.presigns++
	fail := f.failPresign[key]
	hook := f.onPresign
	f.mu.Unlock()

	if hook != nil {
		hook(key)
	}
	if fail {
		return "", errors.New("object unavailable")
	}
	return fmt.Sprintf("https://storage.test/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

func (f *fakeStore) PresignedPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + key, nil
}

func (f *fakeStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) counts() (puts, presigns int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts, f.presigns
}

type fakeCache struct {
	mu   sync.Mutex
	urls map[string]string
}

func (c *fakeCache) GetPresignedURL(_ context.Context, mediaID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	url, ok := c.urls[mediaID]
	if !ok {
		return "", infra.ErrCacheMiss
	}
	return url, nil
}

func (c *fakeCache) SetPresignedURL(_ context.Context, mediaID, url string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls[mediaID] = url
	return nil
}

func (c *fakeCache) DeletePresignedURL(_ context.Context, mediaID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.urls, mediaID)
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []produce.DeleteBlobMessage
}

func (p *fakePublisher) PublishBlobDelete(_ context.Context, msg produce.DeleteBlobMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

type fixture struct {
	svc    *Service
	store  *fakeStore
	cache  *fakeCache
	events *fakePublisher
	repo   *repository.Repository
	db     *gorm.DB
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "media.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return newFixtureWithDB(t, db, opts)
}

func newFixtureWithDB(t *testing.T, db *gorm.DB, opts Options) *fixture {
	t.Helper()
	require.NoError(t, db.AutoMigrate(entity.Models()...))

	f := &fixture{
		store:  newFakeStore(),
		cache:  &fakeCache{urls: map[string]string{}},
		events: &fakePublisher{},
		repo:   repository.NewRepository(db),
		db:     db,
	}
	log := infra.NewLoggerClient("gau-media-service-test", noop.NewLoggerProvider(), io.Discard, slog.LevelError)
	f.svc = NewService(f.repo, f.store, f.cache, f.events, log, opts)
	return f
}

func (f *fixture) upload(t *testing.T, in UploadInput) *MediaRecord {
	t.Helper()
	if in.FileName == "" {
		in.FileName = "photo.png"
	}
	if in.FileContent == "" {
		in.FileContent = pngDataURL()
	}
	if in.UserID == "" {
		in.UserID = "user-1"
	}
	record, err := f.svc.Upload(context.Background(), in)
	require.NoError(t, err)
	return record
}

func (f *fixture) countRows(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}

func boolPtr(v bool) *bool {
	return &v
}

func intPtr(v int) *int {
	return &v
}

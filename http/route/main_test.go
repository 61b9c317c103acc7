package routes

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnqbao/gau-media-service/config"
	"github.com/tnqbao/gau-media-service/entity"
	"github.com/tnqbao/gau-media-service/http/controller"
	"github.com/tnqbao/gau-media-service/infra"
	"github.com/tnqbao/gau-media-service/repository"
	"github.com/tnqbao/gau-media-service/service"
	"github.com/tnqbao/gau-media-service/utils"
	"go.opentelemetry.io/otel/log/noop"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testJWTSecret  = "jwt-secret"
	testPrivateKey = "internal-key"
)

type memoryStore struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (m *memoryStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.objects[key] = data
	m.contentTypes[key] = contentType
	return nil
}

func (m *memoryStore) Stat(_ context.Context, key string) (*infra.ObjectInfo, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, infra.ErrObjectNotFound
	}
	return &infra.ObjectInfo{Size: int64(len(data)), ContentType: m.contentTypes[key]}, nil
}

func (m *memoryStore) PresignedGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (m *memoryStore) PresignedPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://cdn.test/upload/" + key, nil
}

func (m *memoryStore) Remove(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	router, _ := newTestRouterWithStore(t)
	return router
}

func newTestRouterWithStore(t *testing.T) (*gin.Engine, *memoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "media.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(entity.Models()...))

	envCfg := &config.EnvConfig{}
	envCfg.JWT.SecretKey = testJWTSecret
	envCfg.PrivateKey = testPrivateKey
	envCfg.Media.MaxBytes = 1 << 20
	cfg := &config.Config{EnvConfig: envCfg}
	store := newMemoryStore()

	infraClient := &infra.Infra{
		Logger:  infra.NewLoggerClient("gau-media-service-test", noop.NewLoggerProvider(), io.Discard, slog.LevelError),
		Storage: store,
	}
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, infraClient.Storage, nil, nil, infraClient.Logger, service.OptionsFromConfig(envCfg))

	return SetupRouter(controller.NewController(cfg, infraClient, repo, svc)), store
}

func token(t *testing.T, permission string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    "user-1",
		"permission": permission,
		"exp":        time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, router *gin.Engine, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func pngDataURL() string {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

func TestUploadAndFetchMedia(t *testing.T) {
	router := newTestRouter(t)
	editor := token(t, "editor")

	w := doJSON(t, router, http.MethodPost, "/api/v1/media/", editor, map[string]interface{}{
		"file_name":    "well.png",
		"file_key":     "well-1",
		"entity_id":    "ws-9",
		"entity_type":  "water_source",
		"file_content": pngDataURL(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	media := decode(t, w)["media"].(map[string]interface{})
	assert.Equal(t, "well-1", media["id"])
	assert.Equal(t, true, media["is_primary"])
	assert.Equal(t, "WATER_SOURCE", media["entity_type"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/media/well-1", editor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	media = decode(t, w)["media"].(map[string]interface{})
	assert.Equal(t, "https://cdn.test/media/well-1.png", media["file_url"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/media/entity/WATER_SOURCE/ws-9", editor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	w = doJSON(t, router, http.MethodPost, "/api/v1/media/presigned-urls", editor, map[string]interface{}{
		"ids": []string{"well-1", "ghost"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	urls := decode(t, w)["urls"].([]interface{})
	require.Len(t, urls, 2)
	assert.Nil(t, urls[1].(map[string]interface{})["url"])

	w = doJSON(t, router, http.MethodDelete, "/api/v1/media/well-1", editor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "well-1", decode(t, w)["id"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/media/well-1", editor, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w)["code"])
}

func TestEmptyPresignedURLBatch(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/media/presigned-urls", token(t, "viewer"), map[string]interface{}{
		"ids": []string{},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["urls"])
}

func TestInvalidPayloadIsBadRequest(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/media/", token(t, "editor"), map[string]interface{}{
		"file_name":    "x.bin",
		"file_content": "not-a-data-url",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(service.KindInvalidFormat), decode(t, w)["code"])
}

func TestAuthRules(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/media/any", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/media/any", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/media/any", token(t, "viewer"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHMACAuthentication(t *testing.T) {
	router := newTestRouter(t)

	body, err := json.Marshal(map[string]interface{}{"file_name": "doc.pdf", "mime_type": "application/pdf"})
	require.NoError(t, err)

	path := "/api/v1/media/upload-url"
	now := time.Now().Unix()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "svc-survey")
	req.Header.Set("Authorization", utils.SignRequest(testPrivateKey, http.MethodPost, path, now, "svc-survey", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Contains(t, resp["upload_url"], "https://cdn.test/upload/media/")
	assert.Equal(t, float64(900), resp["expires_in"])

	req = httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("X-User-ID", "svc-survey")
	req.Header.Set("Authorization", "HMAC "+strconv.FormatInt(now, 10)+":bad")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFileKeyWithPathSeparatorIsRejected(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/media/", token(t, "editor"), map[string]interface{}{
		"file_name":    "a.png",
		"file_key":     "surveys/2024/a.png",
		"file_content": pngDataURL(),
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, string(service.KindInvalidFormat), decode(t, w)["code"])
}

func TestRegisterUploadedObject(t *testing.T) {
	router, store := newTestRouterWithStore(t)
	editor := token(t, "editor")

	w := doJSON(t, router, http.MethodPost, "/api/v1/media/upload-url", editor, map[string]interface{}{
		"file_name": "photo.jpeg",
		"mime_type": "image/jpeg",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	target := decode(t, w)
	fileKey := target["file_key"].(string)
	filePath := target["file_path"].(string)

	w = doJSON(t, router, http.MethodPost, "/api/v1/media/", editor, map[string]interface{}{
		"file_name": "photo.jpeg",
		"file_key":  fileKey,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "nothing uploaded yet")

	require.NoError(t, store.Put(context.Background(), filePath, []byte("jpeg-bytes"), "image/jpeg"))

	w = doJSON(t, router, http.MethodPost, "/api/v1/media/", editor, map[string]interface{}{
		"file_name": "photo.jpeg",
		"file_key":  fileKey,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	media := decode(t, w)["media"].(map[string]interface{})
	assert.Equal(t, filePath, media["file_path"])
	assert.Equal(t, "image/jpeg", media["mime_type"])
	assert.Equal(t, "IMAGE", media["type"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/media/"+fileKey, editor, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOversizedBodyIsRejectedBeforeAuthentication(t *testing.T) {
	router := newTestRouter(t)
	oversized := bytes.Repeat([]byte("a"), 2<<20)

	path := "/api/v1/media/any"
	req := httptest.NewRequest(http.MethodPatch, path, bytes.NewReader(oversized))
	req.Header.Set("X-User-ID", "svc-survey")
	req.Header.Set("Authorization", "HMAC "+strconv.FormatInt(time.Now().Unix(), 10)+":unchecked")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/media/", token(t, "editor"), map[string]interface{}{
		"file_name":    "big.png",
		"file_content": "data:image/png;base64," + string(oversized),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TheDarkness2001/SMS-sub002/internal/config"
)

func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "token", "abc"))
	v, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	require.NoError(t, s.Set(ctx, "token", "def"))
	v, err = s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "def", v)

	require.NoError(t, s.Set(ctx, "user", `{"id":"u1"}`))
	require.NoError(t, s.Delete(ctx, "token", "user", "missing"))

	_, err = s.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, "user")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	runStoreContract(t, s)
	assert.Equal(t, 0, s.Len())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	runStoreContract(t, s)
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "durable.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "language", "ru"))
	require.NoError(t, s.Close())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, err := reopened.Get(ctx, "language")
	require.NoError(t, err)
	assert.Equal(t, "ru", v)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "device.db"))
	require.NoError(t, err)
	defer s.Close()

	runStoreContract(t, s)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "device.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "deviceId", "d-1"))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get(ctx, "deviceId")
	require.NoError(t, err)
	assert.Equal(t, "d-1", v)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("FRONTDESK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FRONTDESK_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	s := NewRedisStoreWithClient(client, "frontdesk:test:"+time.Now().Format("150405.000")+":", time.Minute)
	defer s.Close()

	runStoreContract(t, s)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type user struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, SetJSON(ctx, s, "user", user{ID: "u1", Name: "Dilnoza"}))

	var got user
	require.NoError(t, GetJSON(ctx, s, "user", &got))
	assert.Equal(t, user{ID: "u1", Name: "Dilnoza"}, got)

	require.NoError(t, s.Set(ctx, "broken", "{"))
	assert.Error(t, GetJSON(ctx, s, "broken", &got))
	assert.ErrorIs(t, GetJSON(ctx, s, "absent", &got), ErrNotFound)
}

func TestOpenSession_Drivers(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenSession(config.StorageConfig{SessionDriver: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = OpenSession(config.StorageConfig{SessionDriver: "file", SessionPath: filepath.Join(dir, "s.json")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = OpenSession(config.StorageConfig{SessionDriver: "carrier-pigeon"}, nil)
	assert.Error(t, err)
}

func TestOpenSession_RedisFallsBackToFile(t *testing.T) {
	cfg := config.StorageConfig{
		SessionDriver: "redis",
		SessionPath:   filepath.Join(t.TempDir(), "s.json"),
		Redis:         config.RedisConfig{Addr: "127.0.0.1:1"},
	}
	s, err := OpenSession(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
}

func TestOpenDurable_Drivers(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenDurable(config.StorageConfig{DurableDriver: "sqlite", DurablePath: filepath.Join(dir, "d.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = OpenDurable(config.StorageConfig{DurableDriver: "file", DurablePath: filepath.Join(dir, "d.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = OpenDurable(config.StorageConfig{DurableDriver: "tape"})
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, PostStoreMongo, cfg.PostStore)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 360000*time.Second, cfg.JWT.Expire)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("POSTBOARD_POST_STORE", "sql")
	t.Setenv("POSTBOARD_SERVER_PORT", "8081")
	t.Setenv("POSTBOARD_JWT_EXPIRE", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, PostStoreSQL, cfg.PostStore)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.JWT.Expire)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postboard.yaml")
	body := []byte("server:\n  mode: release\nmongo:\n  database: board_test\njwt:\n  secret: s3cret\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsRelease())
	assert.Equal(t, "board_test", cfg.Mongo.Database)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "posts", cfg.Mongo.Collection)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			PostStore: PostStoreSQL,
			Database:  DatabaseConfig{Driver: "sqlite"},
			JWT:       JWTConfig{Secret: "x", Expire: time.Minute},
		}
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.PostStore = "couch"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Database.Driver = "oracle"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.JWT.Secret = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.JWT.Secret = DefaultJWTSecret
	assert.NoError(t, cfg.Validate())
	cfg.Server.Mode = "release"
	assert.Error(t, cfg.Validate())
	cfg.JWT.Secret = "s3cret"
	assert.NoError(t, cfg.Validate())
}

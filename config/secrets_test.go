package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSecretsDefaults(t *testing.T) {
	for _, k := range []string{"ARANGO_DB_HOST", "ARANGO_DB_PORT", "ARANGO_DB_USER", "ARANGO_DB_PASSWORD", "NATS_URL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	s, err := LoadSecrets(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8529", s.ArangoEndpoint())
	assert.Equal(t, "root", s.ArangoUser)
	assert.Empty(t, s.NATSURL)
}

func TestLoadSecretsFromEnvironment(t *testing.T) {
	t.Setenv("ARANGO_DB_HOST", "arango.internal")
	t.Setenv("ARANGO_DB_PORT", "9000")
	t.Setenv("NATS_URL", "nats://bus:4222")

	s, err := LoadSecrets()
	require.NoError(t, err)
	assert.Equal(t, "http://arango.internal:9000", s.ArangoEndpoint())

	cfg := DefaultConfig()
	s.Apply(cfg)
	assert.Equal(t, "nats://bus:4222", cfg.NATS.URL)
}

func TestLoadSecretsDotenv(t *testing.T) {
	t.Setenv("ARANGO_DB_PASSWORD", "")
	require.NoError(t, os.Unsetenv("ARANGO_DB_PASSWORD"))
	t.Setenv("ARANGO_DB_USER", "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ARANGO_DB_PASSWORD=s3cret\nARANGO_DB_USER=from-file\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("ARANGO_DB_PASSWORD") })

	s, err := LoadSecrets(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", s.ArangoPassword)
	assert.Equal(t, "from-env", s.ArangoUser, "environment wins over dotenv")
}

func TestLoadSecretsBadPort(t *testing.T) {
	t.Setenv("ARANGO_DB_PORT", "not-a-port")
	_, err := LoadSecrets()
	assert.Error(t, err)
}

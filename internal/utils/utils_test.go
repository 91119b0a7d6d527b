package utils

import (
	"crypto/tls"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TRIHASH_TEST_S", " abc ")
	t.Setenv("TRIHASH_TEST_I", "12")
	t.Setenv("TRIHASH_TEST_BAD", "x")
	t.Setenv("TRIHASH_TEST_B", "TRUE")
	t.Setenv("TRIHASH_TEST_F", "no")

	assert.Equal(t, "abc", EnvString("TRIHASH_TEST_S", "d"))
	assert.Equal(t, "d", EnvString("TRIHASH_TEST_MISSING", "d"))
	assert.Equal(t, 12, EnvInt("TRIHASH_TEST_I", 3))
	assert.Equal(t, 3, EnvInt("TRIHASH_TEST_BAD", 3))
	assert.True(t, EnvBool("TRIHASH_TEST_B", false))
	assert.False(t, EnvBool("TRIHASH_TEST_F", true))
	assert.True(t, EnvBool("TRIHASH_TEST_MISSING", true))
}

func TestBuildPostgresDSNFromEnv(t *testing.T) {
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_PORT", "6543")
	t.Setenv("PG_USER", "u")
	t.Setenv("PG_PASSWORD", "p")
	t.Setenv("PG_DB", "geo")
	t.Setenv("PG_SSLMODE", "require")
	assert.Equal(t, "postgres://u:p@db:6543/geo?sslmode=require", BuildPostgresDSNFromEnv())

	t.Setenv("PG_PASSWORD", "")
	assert.Equal(t, "postgres://u@db:6543/geo?sslmode=require", BuildPostgresDSNFromEnv())
}

func TestOpenRedisFromEnvDisabled(t *testing.T) {
	t.Setenv("REDIS_ENABLE", "false")
	assert.Nil(t, OpenRedisFromEnv())
	assert.Nil(t, OpenRedis("", ""))
}

func TestEnsureSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "certs", "server.crt")
	key := filepath.Join(dir, "certs", "server.key")
	require.NoError(t, EnsureSelfSignedCert(cert, key, "trihash.local"))
	_, err := tls.LoadX509KeyPair(cert, key)
	require.NoError(t, err)
	// 已存在时不重新生成
	require.NoError(t, EnsureSelfSignedCert(cert, key, "other"))
}

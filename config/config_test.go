package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("SUI_PRIVATE_KEY", "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8=")
	t.Setenv("SUI_PACKAGE_ID", "0x2")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5200", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, uint64(50_000_000), cfg.Sui.GasBudget)
	assert.Equal(t, "0x2::sui::SUI", cfg.Sui.CoinType)
	assert.Equal(t, "certificate", cfg.Sui.CertificateModule)
	assert.Equal(t, 10, cfg.AuthRateBurst)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SUI_PRIVATE_KEY", "")
	t.Setenv("SUI_PACKAGE_ID", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "SUI_PACKAGE_ID")
}

func TestLoadRejectsShortSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadBadDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestNormalizeOrigins(t *testing.T) {
	assert.Equal(t, "http://a.com,http://b.com", normalizeOrigins(" http://a.com , ,http://b.com "))
}

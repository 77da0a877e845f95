// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	DatabaseURL    string
	AllowedOrigins string

	LogLevel  string
	LogFormat string

	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	AuthRateLimit float64
	AuthRateBurst int

	R2 R2Config
	Sui SuiConfig

	BalanceSyncInterval time.Duration
}

// R2Config holds Cloudflare R2 credentials. An empty bucket disables uploads.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

type SuiConfig struct {
	RPCURL            string
	PrivateKey        string
	PackageID         string
	AdminCapID        string
	TreasuryCapID     string
	CertificateModule string
	BadgeModule       string
	TokenModule       string
	GasBudget         uint64
	CoinType          string
}

// Load reads the environment. Call godotenv.Load before it if a .env file should apply.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getOr("PORT", "5200"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AllowedOrigins: normalizeOrigins(getOr("ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:       strings.ToLower(getOr("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getOr("LOG_FORMAT", "text")),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTIssuer:      getOr("JWT_ISSUER", "clan-missions"),
		R2: R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      os.Getenv("CDN_BASE_URL"),
		},
		Sui: SuiConfig{
			RPCURL:            getOr("SUI_RPC_URL", "https://fullnode.testnet.sui.io:443"),
			PrivateKey:        os.Getenv("SUI_PRIVATE_KEY"),
			PackageID:         os.Getenv("SUI_PACKAGE_ID"),
			AdminCapID:        os.Getenv("SUI_ADMIN_CAP_ID"),
			TreasuryCapID:     os.Getenv("SUI_TREASURY_CAP_ID"),
			CertificateModule: getOr("SUI_CERTIFICATE_MODULE", "certificate"),
			BadgeModule:       getOr("SUI_BADGE_MODULE", "badge"),
			TokenModule:       getOr("SUI_TOKEN_MODULE", "token"),
			CoinType:          getOr("SUI_COIN_TYPE", "0x2::sui::SUI"),
		},
	}

	var err error
	if cfg.AccessTokenTTL, err = durationOr("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = durationOr("REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BalanceSyncInterval, err = durationOr("BALANCE_SYNC_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Sui.GasBudget, err = uintOr("SUI_GAS_BUDGET", 50_000_000); err != nil {
		return nil, err
	}
	rps, err := strconv.ParseFloat(getOr("AUTH_RATE_LIMIT", "5"), 64)
	if err != nil || rps <= 0 {
		return nil, fmt.Errorf("AUTH_RATE_LIMIT must be a positive number")
	}
	cfg.AuthRateLimit = rps
	burst, err := strconv.Atoi(getOr("AUTH_RATE_BURST", "10"))
	if err != nil || burst <= 0 {
		return nil, fmt.Errorf("AUTH_RATE_BURST must be a positive integer")
	}
	cfg.AuthRateBurst = burst

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.Sui.PrivateKey == "" {
		missing = append(missing, "SUI_PRIVATE_KEY")
	}
	if c.Sui.PackageID == "" {
		missing = append(missing, "SUI_PACKAGE_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	return nil
}

func getOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

func uintOr(key string, def uint64) (uint64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an unsigned integer, got %q", key, raw)
	}
	return v, nil
}

// normalizeOrigins trims each comma-separated origin for fiber's cors config.
func normalizeOrigins(raw string) string {
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ",")
}

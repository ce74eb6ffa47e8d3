package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Access token
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	// Clock
	// 日付の妥当性判定とストリーク計算に使う基準タイムゾーン
	Location *time.Location

	// Rate Limit（req/min/user）
	RateLimitGeneral int
	RateLimitSync    int

	// Reconcile
	ReconcileInterval  time.Duration
	ReconcileGrace     time.Duration
	ReconcileBatchSize int

	// Server
	ServerPort string
	BaseURL    string

	// Worker
	// ワーカーが/metricsを公開するポート
	WorkerMetricsPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	if cfg.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}

	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	if cfg.GoogleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}

	cfg.GoogleRedirectURL = os.Getenv("GOOGLE_REDIRECT_URL")
	if cfg.GoogleRedirectURL == "" {
		missing = append(missing, "GOOGLE_REDIRECT_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	loc, err := time.LoadLocation(getEnvString("APP_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	// Optional fields with defaults
	cfg.JWTIssuer = getEnvString("JWT_ISSUER", "stepclub")
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSync = getEnvInt("RATE_LIMIT_SYNC", 30)
	cfg.ReconcileInterval = getEnvDuration("RECONCILE_INTERVAL", 5*time.Minute)
	cfg.ReconcileGrace = getEnvDuration("RECONCILE_GRACE", 2*time.Minute)
	cfg.ReconcileBatchSize = getEnvInt("RECONCILE_BATCH_SIZE", 100)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.WorkerMetricsPort = getEnvString("WORKER_METRICS_PORT", "9090")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate は値の範囲を検証する。
// 0以下の間隔はティッカーを、0以下のレートはすべてのリクエストを止めてしまう。
func (c *Config) validate() error {
	var invalid []string

	if c.TokenTTL <= 0 {
		invalid = append(invalid, fmt.Sprintf("TOKEN_TTL must be positive (got %s)", c.TokenTTL))
	}
	if c.RateLimitGeneral <= 0 {
		invalid = append(invalid, fmt.Sprintf("RATE_LIMIT_GENERAL must be positive (got %d)", c.RateLimitGeneral))
	}
	if c.RateLimitSync <= 0 {
		invalid = append(invalid, fmt.Sprintf("RATE_LIMIT_SYNC must be positive (got %d)", c.RateLimitSync))
	}
	if c.ReconcileInterval <= 0 {
		invalid = append(invalid, fmt.Sprintf("RECONCILE_INTERVAL must be positive (got %s)", c.ReconcileInterval))
	}
	if c.ReconcileGrace < 0 {
		invalid = append(invalid, fmt.Sprintf("RECONCILE_GRACE must not be negative (got %s)", c.ReconcileGrace))
	}
	if c.ReconcileBatchSize <= 0 {
		invalid = append(invalid, fmt.Sprintf("RECONCILE_BATCH_SIZE must be positive (got %d)", c.ReconcileBatchSize))
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, "; "))
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

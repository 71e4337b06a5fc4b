package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	BrandPrefix      string
	DefaultLocale    string
	AllowedOrigins   []string
	GeminiAPIKey     string
	GeminiBaseURL    string
	GeminiImageModel string
	GeminiTextModel  string
	GenerationPacing time.Duration
	MaxProductBytes  int64
	MaxLogoBytes     int64
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. A missing Gemini API key is deliberately not an
// error: the service still starts and generation calls fail later, so the
// caller should log a warning instead.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		BrandPrefix:      getEnv("BRAND_PREFIX", "latiefads"),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "id"),
		AllowedOrigins:   splitList(os.Getenv("ALLOWED_ORIGINS")),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiImageModel: getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiTextModel:  getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GenerationPacing: time.Millisecond * time.Duration(getEnvInt("GENERATION_PACING_MS", 1500)),
		MaxProductBytes:  int64(getEnvInt("MAX_PRODUCT_UPLOAD_MB", 10)) << 20,
		MaxLogoBytes:     int64(getEnvInt("MAX_LOGO_UPLOAD_MB", 5)) << 20,
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

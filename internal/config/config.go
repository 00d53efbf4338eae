package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string // ENV: production, development, etc.

	LogLevel  string
	LogFormat string
	AppName   string

	// memory | postgres | mongo
	StorageDriver string
	DatabaseDSN   string
	MongoURI      string
	MongoDatabase string

	// Vacío => sesiones, idempotencia y feed en memoria.
	RedisURL string

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	BlobFolder          string

	// local | remote
	AuthProvider       string
	AuthBaseURL        string
	AuthAPIKey         string
	AuthDebugHeader    bool // acepta X-Debug-User-ID (solo dev)
	SessionTTL         time.Duration
	LoginMaxFailures   int
	LoginFailureWindow time.Duration

	AllowedOrigins []string

	// keep | cascade
	OrphanRequestPolicy string
	IdempotencyTTL      time.Duration
	MaxUploadBytes      int64
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		AppName:   getEnv("APP_NAME", "petmatch"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "")),
		DatabaseDSN:   getEnv("DB_DSN", ""),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DB", "petmatch"),

		RedisURL: getEnv("REDIS_URL", ""),

		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		BlobFolder:          getEnv("BLOB_FOLDER", "petmatch"),

		AuthProvider:       strings.ToLower(getEnv("AUTH_PROVIDER", "local")),
		AuthBaseURL:        getEnv("AUTH_BASE_URL", ""),
		AuthAPIKey:         getEnv("AUTH_API_KEY", ""),
		AuthDebugHeader:    getBool("AUTH_DEBUG_HEADER", env != "production"),
		SessionTTL:         getDuration("SESSION_TTL", 7*24*time.Hour),
		LoginMaxFailures:   getInt("LOGIN_MAX_FAILURES", 5),
		LoginFailureWindow: getDuration("LOGIN_FAILURE_WINDOW", 15*time.Minute),

		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),

		OrphanRequestPolicy: strings.ToLower(getEnv("ORPHAN_REQUEST_POLICY", "keep")),
		IdempotencyTTL:      getDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		MaxUploadBytes:      int64(getInt("MAX_UPLOAD_MB", 10)) << 20,
	}
}

// Storage resuelve el driver efectivo: si no viene explícito se infiere
// de DB_DSN / MONGO_URI (igual que el router hacía con DB_DSN).
func (c *Config) Storage() string {
	switch c.StorageDriver {
	case "memory", "postgres", "mongo":
		return c.StorageDriver
	}
	if strings.TrimSpace(c.DatabaseDSN) != "" {
		return "postgres"
	}
	if strings.TrimSpace(c.MongoURI) != "" {
		return "mongo"
	}
	return "memory"
}

// CloudinaryConfigured indica si hay credenciales completas.
func (c *Config) CloudinaryConfigured() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

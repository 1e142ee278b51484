package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds environment driven configuration values.
type Config struct {
	Port          string
	GinMode       string
	SessionSecret string

	DBDriver    string // postgres, mysql or sqlite
	DatabaseURL string

	PostsPerPage    int
	CommentsPerPage int

	UploadsDir  string
	MaxUploadMB int
	AdminEmail  string

	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	RateLimitPerMinute int
	SSL                bool
}

var (
	cfg  *Config
	mu   sync.RWMutex
	once sync.Once
)

// Load reads .env (if any) and the environment. Only the first call does work.
func Load() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, finding env vars from system")
		}
		c := FromEnv()
		Set(c)
	})
	return Get()
}

// FromEnv builds a Config from defaults overridden by environment variables.
func FromEnv() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		GinMode:       getEnv("GIN_MODE", "release"),
		SessionSecret: getEnv("SESSION_SECRET", "secret_key_change_me"),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		PostsPerPage:    getInt("DARKWEB_POSTS_PER_PAGE", 20),
		CommentsPerPage: getInt("DARKWEB_COMMENTS_PER_PAGE", 30),

		UploadsDir:  getEnv("UPLOADS_DIR", "./uploads"),
		MaxUploadMB: getInt("MAX_UPLOAD_MB", 16),
		AdminEmail:  strings.ToLower(os.Getenv("DARKWEB_ADMIN")),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogPath:       os.Getenv("LOG_PATH"),
		LogMaxSizeMB:  getInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getInt("LOG_MAX_AGE_DAYS", 7),
		LogCompress:   getBool("LOG_COMPRESS", false),

		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 60),
		SSL:                getBool("SSL", false),
	}
}

// Get returns the active configuration. Handlers call it per request so page
// sizes follow whatever was last Set.
func Get() *Config {
	mu.RLock()
	c := cfg
	mu.RUnlock()
	if c == nil {
		return Load()
	}
	return c
}

// Set replaces the active configuration.
func Set(c *Config) {
	mu.Lock()
	cfg = c
	mu.Unlock()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

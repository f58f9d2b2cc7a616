package configs

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the form service. Everything comes
// from the environment (optionally seeded from a .env file) with defaults
// that work for local development against a local Eventownik API.
type Config struct {
	Env        string // "development" | "production"
	ListenAddr string

	// APIBaseURL is the base URL of the Eventownik backend API, without a
	// trailing slash, e.g. "https://api.eventownik.solvro.pl/api/v1".
	APIBaseURL string

	// APITimeout bounds every single backend request.
	APITimeout time.Duration

	// BlockPollInterval is the pause between two consecutive occupancy
	// fetches for one block attribute.
	BlockPollInterval time.Duration

	// DrawingDebounce is how long the drawing exporter waits after the last
	// stroke update before rasterizing the canvas.
	DrawingDebounce time.Duration

	// AttachmentTTL is the sliding expiration of a form session's pending
	// attachments. Attachments are never persisted; an abandoned session
	// simply ages out.
	AttachmentTTL time.Duration
}

var (
	cfg  *Config
	once sync.Once
)

// Get loads the configuration on first use and returns the cached instance
// afterwards.
func Get() *Config {
	once.Do(func() {
		_ = godotenv.Load() // .env is optional

		cfg = &Config{
			Env:               getEnv("APP_ENV", "development"),
			ListenAddr:        getEnv("LISTEN_ADDR", ":3000"),
			APIBaseURL:        getEnv("EVENTOWNIK_API_URL", "http://localhost:3333/api/v1"),
			APITimeout:        getDuration("EVENTOWNIK_API_TIMEOUT", 10*time.Second),
			BlockPollInterval: getDuration("BLOCK_POLL_INTERVAL", time.Second),
			DrawingDebounce:   getDuration("DRAWING_DEBOUNCE", 250*time.Millisecond),
			AttachmentTTL:     getDuration("ATTACHMENT_TTL", 2*time.Hour),
		}
	})
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	// Plain integers are read as milliseconds (the convention the old
	// frontend used for its timing constants).
	if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}

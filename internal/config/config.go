package config

import (
	"os"
	"strconv"
	"time"
)

// iOS Safari UA; mobile clients trip upstream bot detection far less often.
const defaultUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"

type Config struct {
	BotToken string
	AdminID  int64

	RedisAddr   string
	DownloadDir string
	HealthAddr  string
	Concurrency int

	// Delivery policy
	MaxDuration time.Duration
	MaxFileSize int64
	RateWindow  time.Duration
	RateBurst   int

	// Extraction knobs
	YtDlpPath        string
	SocketTimeout    time.Duration
	TransportRetries int
	UserAgent        string
	ExtractTimeout   time.Duration

	// Janitor
	JanitorMaxAge   time.Duration
	JanitorSchedule string
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func mustInt64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

// Load builds the configuration from the environment with sane defaults.
func Load() Config {
	mb := mustInt("TG_UPLOAD_LIMIT_MB", 50)
	return Config{
		BotToken: os.Getenv("BOT_TOKEN"),
		AdminID:  mustInt64("ADMIN_ID", 0),

		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),
		DownloadDir: getenv("DOWNLOAD_DIR", "downloads"),
		HealthAddr:  getenv("HEALTH_ADDR", ":8080"),
		Concurrency: mustInt("CONCURRENCY", 2),

		MaxDuration: time.Duration(mustInt("MAX_DURATION_SEC", 180)) * time.Second,
		MaxFileSize: int64(mb) * 1024 * 1024,
		RateWindow:  time.Duration(mustInt("RATE_WINDOW_SEC", 60)) * time.Second,
		RateBurst:   mustInt("RATE_BURST", 5),

		YtDlpPath:        getenv("YTDLP_PATH", "yt-dlp"),
		SocketTimeout:    time.Duration(mustInt("YTDLP_SOCKET_TIMEOUT_SEC", 90)) * time.Second,
		TransportRetries: mustInt("YTDLP_RETRIES", 5),
		UserAgent:        getenv("YTDLP_USER_AGENT", defaultUserAgent),
		ExtractTimeout:   time.Duration(mustInt("YTDLP_TIMEOUT_SEC", 300)) * time.Second,

		JanitorMaxAge:   time.Duration(mustInt("JANITOR_MAX_AGE_MIN", 30)) * time.Minute,
		JanitorSchedule: getenv("JANITOR_SCHEDULE", "*/10 * * * *"),
	}
}

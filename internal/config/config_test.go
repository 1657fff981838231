package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	c := Load()

	assert.Equal(t, "localhost:6379", c.RedisAddr)
	assert.Equal(t, "downloads", c.DownloadDir)
	assert.Equal(t, 180*time.Second, c.MaxDuration)
	assert.Equal(t, int64(50*1024*1024), c.MaxFileSize)
	assert.Equal(t, 60*time.Second, c.RateWindow)
	assert.Equal(t, 5, c.RateBurst)
	assert.Equal(t, "yt-dlp", c.YtDlpPath)
	assert.Equal(t, 5, c.TransportRetries)
	assert.Equal(t, 30*time.Minute, c.JanitorMaxAge)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAX_DURATION_SEC", "90")
	t.Setenv("TG_UPLOAD_LIMIT_MB", "20")
	t.Setenv("RATE_BURST", "3")
	t.Setenv("ADMIN_ID", "123456")
	t.Setenv("YTDLP_PATH", "/usr/local/bin/yt-dlp")

	c := Load()
	assert.Equal(t, 90*time.Second, c.MaxDuration)
	assert.Equal(t, int64(20*1024*1024), c.MaxFileSize)
	assert.Equal(t, 3, c.RateBurst)
	assert.Equal(t, int64(123456), c.AdminID)
	assert.Equal(t, "/usr/local/bin/yt-dlp", c.YtDlpPath)
}

func TestLoadIgnoresGarbage(t *testing.T) {
	t.Setenv("RATE_BURST", "lots")
	c := Load()
	assert.Equal(t, 5, c.RateBurst)
}

package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeYtDlp writes an executable shell script standing in for the real binary.
func fakeYtDlp(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestExtractClassifiesFinalStderrLine(t *testing.T) {
	// The typed error depends on stderr being drained to EOF even when the
	// process exits immediately after its last write.
	c := NewClient(fakeYtDlp(t, `echo "ERROR: [youtube] abc: Video unavailable" >&2
exit 1
`))
	_, err := c.Extract(context.Background(), "https://youtube.com/shorts/abc", Options{
		Selector:       "best",
		OutputTemplate: "out.%(ext)s",
		SocketTimeout:  time.Second,
		Retries:        1,
		UserAgent:      "test-agent",
	})
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestExtractParsesMetadata(t *testing.T) {
	c := NewClient(fakeYtDlp(t, `printf '%s\n' '{"id":"abc","title":"cats","ext":"mp4","width":640,"height":360,"duration":12.5,"_filename":"downloads/1_x_abc.mp4"}'
`))
	meta, err := c.Extract(context.Background(), "https://youtube.com/shorts/abc", Options{
		Selector:       "best",
		OutputTemplate: "out.%(ext)s",
		SocketTimeout:  time.Second,
		Retries:        1,
		UserAgent:      "test-agent",
	})
	require.NoError(t, err)
	assert.Equal(t, "cats", meta.Title)
	assert.Equal(t, "downloads/1_x_abc.mp4", meta.Filename)
}

func TestClassifyStderr(t *testing.T) {
	tests := []struct {
		stderr string
		want   error
	}{
		{"ERROR: [youtube] abc: Video unavailable", ErrUnavailable},
		{"ERROR: Private video. Sign in if you've been granted access", ErrPrivate},
		{"ERROR: Sign in to confirm your age", ErrAgeRestricted},
		{"ERROR: The uploader has not made this video available in your country", ErrGeoBlocked},
		{"ERROR: Requested format is not available", ErrNoFormat},
		{"WARNING: File is larger than max-filesize", ErrTooLarge},
		{"ERROR: Unable to extract video data", ErrUnavailable},
		{"something completely different", nil},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyStderr(tt.stderr), "stderr: %q", tt.stderr)
	}
}

func TestParseInfoJSON(t *testing.T) {
	out := []byte(`[download] noise
{"id":"abc123","title":"cats","ext":"mp4","width":1080,"height":1920,"duration":27.5,"_filename":"downloads/1_x_abc123.mp4"}
`)
	meta, err := parseInfoJSON(out)
	require.NoError(t, err)
	assert.Equal(t, "abc123", meta.ID)
	assert.Equal(t, "cats", meta.Title)
	assert.Equal(t, 1920, meta.Height)
	assert.Equal(t, 27.5, meta.Duration)
	assert.Equal(t, "downloads/1_x_abc123.mp4", meta.Filename)
}

func TestParseInfoJSONEmpty(t *testing.T) {
	_, err := parseInfoJSON([]byte("no json here\n"))
	assert.Error(t, err)
}

func TestExpandTemplate(t *testing.T) {
	got := expandTemplate("downloads/42_01HX_%(id)s.%(ext)s", "abc", "webm")
	assert.Equal(t, "downloads/42_01HX_abc.webm", got)

	got = expandTemplate("downloads/42_01HX_%(id)s.%(ext)s", "abc", "")
	assert.Equal(t, "downloads/42_01HX_abc.mp4", got)
}

func TestArgsCarryResilienceOptions(t *testing.T) {
	c := NewClient("yt-dlp")
	args := c.args("https://youtube.com/shorts/x", Options{
		Selector:       "best[height<=720]",
		OutputTemplate: "downloads/out.%(ext)s",
		SocketTimeout:  90 * time.Second,
		Retries:        5,
		UserAgent:      "test-agent",
	})

	joined := " " + strings.Join(args, " ") + " "
	assert.Contains(t, joined, " --socket-timeout 90 ")
	assert.Contains(t, joined, " --retries 5 ")
	assert.Contains(t, joined, " --user-agent test-agent ")
	assert.Contains(t, joined, " -f best[height<=720] ")
	assert.NotContains(t, joined, "--max-filesize", "no size cap unless configured")
	assert.Equal(t, "https://youtube.com/shorts/x", args[len(args)-1])
}

func TestArgsCarrySizeCap(t *testing.T) {
	c := NewClient("yt-dlp")
	args := c.args("https://youtube.com/shorts/x", Options{
		Selector:       "best",
		OutputTemplate: "out.%(ext)s",
		MaxFileSize:    50 * 1024 * 1024,
	})

	joined := " " + strings.Join(args, " ") + " "
	assert.Contains(t, joined, " --max-filesize 52428800 ")
	assert.Equal(t, "https://youtube.com/shorts/x", args[len(args)-1])
}

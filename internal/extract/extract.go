package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/logx"
)

// Options configures a single yt-dlp invocation. All network-resilience knobs
// come from config; nothing here is hardcoded beyond the subprocess protocol.
type Options struct {
	Selector       string
	OutputTemplate string
	SocketTimeout  time.Duration
	Retries        int
	UserAgent      string
	MaxFileSize    int64 // bytes; 0 = unlimited
}

// Metadata is the info JSON subset the pipeline needs.
type Metadata struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Ext      string  `json:"ext"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Duration float64 `json:"duration"`
	Filename string  `json:"_filename"`
}

// Client runs yt-dlp as a subprocess and parses its info JSON.
type Client struct {
	Path string // yt-dlp binary, e.g. "yt-dlp"
}

func NewClient(path string) *Client {
	return &Client{Path: path}
}

func (c *Client) args(url string, opts Options) []string {
	args := []string{
		"--quiet",
		"--no-warnings",
		"--no-playlist",
		"--print-json",
		"--force-overwrites",
		"--merge-output-format", "mp4",
		"--socket-timeout", strconv.Itoa(int(opts.SocketTimeout.Seconds())),
		"--retries", strconv.Itoa(opts.Retries),
		"--fragment-retries", strconv.Itoa(opts.Retries),
		"--user-agent", opts.UserAgent,
		"-f", opts.Selector,
		"-o", opts.OutputTemplate,
	}
	if opts.MaxFileSize > 0 {
		// Aborts oversized downloads upstream instead of fetching a file
		// the delivery limit would reject anyway.
		args = append(args, "--max-filesize", strconv.FormatInt(opts.MaxFileSize, 10))
	}
	return append(args, url)
}

// Extract downloads the media described by url into opts.OutputTemplate and
// returns its metadata. On failure the stderr output is classified into the
// typed errors of this package where a known signature matches.
func (c *Client) Extract(ctx context.Context, url string, opts Options) (*Metadata, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.args(url, opts)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout

	pipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	lw := logx.NewLineWriter(map[string]string{"cmd": "yt-dlp"}, zerolog.DebugLevel)
	piped := make(chan struct{})
	go func() {
		defer close(piped)
		lw.Pipe(io.TeeReader(pipe, &stderr))
	}()

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start yt-dlp: %w", err)
	}

	// Wait closes the stderr pipe, so the drain goroutine must reach EOF
	// first or yt-dlp's final ERROR line can be lost mid-buffer.
	<-piped
	waitErr := cmd.Wait()

	if waitErr != nil {
		if typed := classifyStderr(stderr.String()); typed != nil {
			return nil, typed
		}
		return nil, fmt.Errorf("yt-dlp: %w: %s", waitErr, firstLine(stderr.String()))
	}

	meta, err := parseInfoJSON(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	if meta.Filename == "" {
		meta.Filename = expandTemplate(opts.OutputTemplate, meta.ID, meta.Ext)
	}
	return meta, nil
}

func parseInfoJSON(out []byte) (*Metadata, error) {
	// yt-dlp prints one JSON object per downloaded entry; with --no-playlist
	// that is a single line, but be tolerant of stray output around it.
	for _, line := range bytes.Split(out, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var meta Metadata
		if err := json.Unmarshal(line, &meta); err != nil {
			continue
		}
		return &meta, nil
	}
	return nil, fmt.Errorf("yt-dlp produced no info JSON")
}

func expandTemplate(tmpl, id, ext string) string {
	if ext == "" {
		ext = "mp4"
	}
	out := strings.ReplaceAll(tmpl, "%(id)s", id)
	return strings.ReplaceAll(out, "%(ext)s", ext)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

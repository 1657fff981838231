package download

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/classify"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/extract"
)

const maxAttempts = 3

// Extractor is the slice of the yt-dlp client the orchestrator needs.
type Extractor interface {
	Extract(ctx context.Context, url string, opts extract.Options) (*extract.Metadata, error)
}

// Result describes a completed download. Ownership of Path transfers to the
// caller the moment Fetch returns, success or failure.
type Result struct {
	Path     string
	Title    string
	Width    int
	Height   int
	Duration time.Duration
}

// Orchestrator drives the extraction collaborator with bounded retries.
type Orchestrator struct {
	ex      Extractor
	dir     string
	opts    ExtractConfig
	sleep   func(time.Duration)
	newULID func() string
}

// ExtractConfig carries the network-resilience knobs passed through to yt-dlp.
type ExtractConfig struct {
	SocketTimeout time.Duration
	Retries       int
	UserAgent     string
	MaxFileSize   int64
}

func NewOrchestrator(ex Extractor, dir string, opts ExtractConfig) *Orchestrator {
	return &Orchestrator{
		ex:      ex,
		dir:     dir,
		opts:    opts,
		sleep:   time.Sleep,
		newULID: newULID,
	}
}

func newULID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Fetch downloads url with the given format selector. It retries up to 3
// attempts total with exponential backoff (1s, 2s) and surfaces the last
// error after exhaustion.
func (o *Orchestrator) Fetch(ctx context.Context, url, selector string, user int64, platform classify.Platform) (*Result, error) {
	// Filenames keyed by user + ULID so concurrent downloads never collide,
	// neither across users nor for repeats by the same user.
	tmpl := filepath.Join(o.dir, fmt.Sprintf("%d_%s_%%(id)s.%%(ext)s", user, o.newULID()))

	opts := extract.Options{
		Selector:       selector,
		OutputTemplate: tmpl,
		SocketTimeout:  o.opts.SocketTimeout,
		Retries:        o.opts.Retries,
		UserAgent:      o.opts.UserAgent,
		MaxFileSize:    o.opts.MaxFileSize,
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			o.sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}

		meta, err := o.ex.Extract(ctx, url, opts)
		if err == nil {
			return &Result{
				Path:     meta.Filename,
				Title:    SanitizeTitle(meta.Title),
				Width:    meta.Width,
				Height:   meta.Height,
				Duration: time.Duration(meta.Duration * float64(time.Second)),
			}, nil
		}

		lastErr = err
		log.Warn().Err(err).
			Int64("user_id", user).
			Str("platform", string(platform)).
			Int("attempt", attempt+1).
			Msg("download attempt failed")

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("download failed after %d attempts: %w", maxAttempts, lastErr)
}

var illegalFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeTitle strips characters illegal in filenames and caps the length so
// the title is safe to embed in captions and paths.
func SanitizeTitle(title string) string {
	clean := illegalFilenameChars.ReplaceAllString(title, "_")
	runes := []rune(clean)
	if len(runes) > 100 {
		runes = runes[:100]
	}
	return string(runes)
}

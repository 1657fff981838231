package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/classify"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/download"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/extract"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/jobs"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/quality"
)

const uploadAttempts = 2

// Transport is the slice of the chat collaborator the pipeline needs.
type Transport interface {
	SendText(chatID int64, text string) (messageID int, err error)
	SendVideo(chatID int64, v Video) error
	DeleteMessage(chatID int64, messageID int) error
}

// Video is an outbound media upload.
type Video struct {
	Path     string
	Caption  string
	Width    int
	Height   int
	Duration time.Duration
}

// Recorder is the slice of the stats store the pipeline needs.
type Recorder interface {
	RecordDownload(ctx context.Context, user int64, platform, quality string, size int64) error
	LogError(ctx context.Context, user int64, message string) error
}

// Fetcher is the download orchestrator.
type Fetcher interface {
	Fetch(ctx context.Context, url, selector string, user int64, platform classify.Platform) (*download.Result, error)
}

// Pipeline relays one download request end to end: placeholder, fetch,
// policy checks, upload, stats, cleanup. Whatever the outcome, the local
// file is gone and exactly one status message remains when Run returns.
type Pipeline struct {
	tr          Transport
	rec         Recorder
	fetch       Fetcher
	maxDuration time.Duration
	maxSize     int64
	sleep       func(time.Duration)
}

func New(tr Transport, rec Recorder, fetch Fetcher, maxDuration time.Duration, maxSize int64) *Pipeline {
	return &Pipeline{
		tr:          tr,
		rec:         rec,
		fetch:       fetch,
		maxDuration: maxDuration,
		maxSize:     maxSize,
		sleep:       time.Sleep,
	}
}

// Run processes one download task. Domain failures are reported to the user
// and logged; the returned error is for the caller's log only and never
// triggers a re-run.
func (p *Pipeline) Run(ctx context.Context, job jobs.DownloadPayload) error {
	label := quality.Label(job.Quality)
	placeholder, err := p.tr.SendText(job.ChatID, fmt.Sprintf("⏳ Downloading %s…", label))
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", job.ChatID).Msg("placeholder send failed")
		placeholder = 0
	}
	dropPlaceholder := func() {
		if placeholder != 0 {
			_ = p.tr.DeleteMessage(job.ChatID, placeholder)
			placeholder = 0
		}
	}

	platform := classify.Platform(job.Platform)
	preset := quality.Resolve(platform, job.Quality)

	res, err := p.fetch.Fetch(ctx, job.URL, preset.Selector, job.UserID, platform)
	if err != nil {
		dropPlaceholder()
		_ = p.rec.LogError(ctx, job.UserID, err.Error())
		_, _ = p.tr.SendText(job.ChatID, failureText(err))
		return fmt.Errorf("fetch %s: %w", job.URL, err)
	}

	// The file is ours from here on. Remove it on every exit path; the
	// explicit removes below just do it before the user-facing message.
	defer removeFile(res.Path)

	info, err := os.Stat(res.Path)
	if err != nil {
		dropPlaceholder()
		_ = p.rec.LogError(ctx, job.UserID, fmt.Sprintf("stat downloaded file: %v", err))
		_, _ = p.tr.SendText(job.ChatID, "❌ Something went wrong, please try again.")
		return fmt.Errorf("stat %s: %w", res.Path, err)
	}
	size := info.Size()

	if p.maxDuration > 0 && res.Duration > p.maxDuration {
		removeFile(res.Path)
		dropPlaceholder()
		_, _ = p.tr.SendText(job.ChatID, fmt.Sprintf(
			"❌ Video too long: %ds (limit %ds). Only short clips are supported.",
			int(res.Duration.Seconds()), int(p.maxDuration.Seconds())))
		return nil
	}

	if p.maxSize > 0 && size > p.maxSize {
		removeFile(res.Path)
		dropPlaceholder()
		_, _ = p.tr.SendText(job.ChatID, fmt.Sprintf(
			"❌ File too large: %s (limit %s). Pick a lower quality and try again.",
			FormatSize(size), FormatSize(p.maxSize)))
		return nil
	}

	video := Video{
		Path:     res.Path,
		Caption:  fmt.Sprintf("📹 %s\n📊 %dx%d | %s", res.Title, res.Width, res.Height, FormatSize(size)),
		Width:    res.Width,
		Height:   res.Height,
		Duration: res.Duration,
	}

	var uploadErr error
	for attempt := 0; attempt < uploadAttempts; attempt++ {
		if attempt > 0 {
			p.sleep(2 * time.Second)
		}
		if uploadErr = p.tr.SendVideo(job.ChatID, video); uploadErr == nil {
			break
		}
		log.Warn().Err(uploadErr).Int64("chat_id", job.ChatID).Int("attempt", attempt+1).Msg("upload failed")
	}
	if uploadErr != nil {
		removeFile(res.Path)
		dropPlaceholder()
		_ = p.rec.LogError(ctx, job.UserID, fmt.Sprintf("upload: %v", uploadErr))
		_, _ = p.tr.SendText(job.ChatID, "❌ Could not deliver the video, please try again.")
		return fmt.Errorf("upload: %w", uploadErr)
	}

	if err := p.rec.RecordDownload(ctx, job.UserID, job.Platform, job.Quality, size); err != nil {
		log.Error().Err(err).Int64("user_id", job.UserID).Msg("record download failed")
	}

	removeFile(res.Path)
	dropPlaceholder()
	_, _ = p.tr.SendText(job.ChatID, fmt.Sprintf("✅ %s → %dx%d | %s", label, res.Width, res.Height, FormatSize(size)))

	log.Info().
		Int64("user_id", job.UserID).
		Str("platform", job.Platform).
		Str("quality", job.Quality).
		Int64("bytes", size).
		Msg("download delivered")
	return nil
}

// removeFile deletes best-effort and treats "already gone" as success.
func removeFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", path).Msg("could not remove download")
	}
}

func failureText(err error) string {
	switch {
	case errors.Is(err, extract.ErrPrivate):
		return "❌ This video is private."
	case errors.Is(err, extract.ErrAgeRestricted):
		return "❌ This video is age-restricted and cannot be downloaded."
	case errors.Is(err, extract.ErrGeoBlocked):
		return "❌ This video is not available in this region."
	case errors.Is(err, extract.ErrNoFormat):
		return "❌ That quality is not available for this video. Try another one."
	case errors.Is(err, extract.ErrTooLarge):
		return "❌ File too large for delivery. Pick a lower quality and try again."
	case errors.Is(err, extract.ErrUnavailable):
		return "❌ Video unavailable. It may have been removed or made private."
	default:
		return fmt.Sprintf("❌ Download failed: %s\n\nTry again or send another link.", truncate(err.Error(), 200))
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

// FormatSize renders a byte count the way the bot displays it to users.
func FormatSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f%s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1fTB", size)
}

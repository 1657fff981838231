package download

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/classify"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/extract"
)

type stubExtractor struct {
	failures int
	calls    int
	lastOpts extract.Options
	meta     extract.Metadata
	err      error
}

func (s *stubExtractor) Extract(_ context.Context, _ string, opts extract.Options) (*extract.Metadata, error) {
	s.calls++
	s.lastOpts = opts
	if s.calls <= s.failures {
		if s.err != nil {
			return nil, s.err
		}
		return nil, errors.New("upstream timeout")
	}
	meta := s.meta
	if meta.Filename == "" {
		meta.Filename = "/tmp/out.mp4"
	}
	return &meta, nil
}

func newTestOrchestrator(ex Extractor) (*Orchestrator, *[]time.Duration) {
	o := NewOrchestrator(ex, "downloads", ExtractConfig{
		SocketTimeout: 90 * time.Second,
		Retries:       5,
		UserAgent:     "ua",
	})
	var slept []time.Duration
	o.sleep = func(d time.Duration) { slept = append(slept, d) }
	o.newULID = func() string { return "01TESTULID" }
	return o, &slept
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	stub := &stubExtractor{
		failures: 2,
		meta: extract.Metadata{
			Title:    "some video",
			Width:    720,
			Height:   1280,
			Duration: 30,
			Filename: "downloads/1_01TESTULID_abc.mp4",
		},
	}
	o, slept := newTestOrchestrator(stub)

	res, err := o.Fetch(context.Background(), "https://youtube.com/shorts/abc", "best", 1, classify.PlatformYouTube)
	require.NoError(t, err)
	assert.Equal(t, 3, stub.calls, "exactly 3 attempts")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept, "exponential backoff between attempts")
	assert.Equal(t, "downloads/1_01TESTULID_abc.mp4", res.Path)
	assert.Equal(t, 30*time.Second, res.Duration)
}

func TestFetchExhaustsRetries(t *testing.T) {
	stub := &stubExtractor{failures: 10, err: extract.ErrUnavailable}
	o, slept := newTestOrchestrator(stub)

	_, err := o.Fetch(context.Background(), "u", "best", 1, classify.PlatformTikTok)
	require.Error(t, err)
	assert.ErrorIs(t, err, extract.ErrUnavailable, "last error is surfaced")
	assert.Equal(t, 3, stub.calls)
	assert.Len(t, *slept, 2)
}

func TestFetchPassesOptionsThrough(t *testing.T) {
	stub := &stubExtractor{}
	o, _ := newTestOrchestrator(stub)

	_, err := o.Fetch(context.Background(), "u", "best[height<=480]", 42, classify.PlatformInstagram)
	require.NoError(t, err)
	assert.Equal(t, "best[height<=480]", stub.lastOpts.Selector)
	assert.Equal(t, 90*time.Second, stub.lastOpts.SocketTimeout)
	assert.Equal(t, 5, stub.lastOpts.Retries)
	assert.True(t, strings.HasPrefix(stub.lastOpts.OutputTemplate, "downloads/42_01TESTULID_"),
		"template keyed by user and ULID, got %s", stub.lastOpts.OutputTemplate)
}

func TestFetchStopsOnCancelledContext(t *testing.T) {
	stub := &stubExtractor{failures: 10}
	o, _ := newTestOrchestrator(stub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Fetch(ctx, "u", "best", 1, classify.PlatformYouTube)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, stub.calls, "no retry after cancellation")
}

func TestSanitizeTitle(t *testing.T) {
	assert.Equal(t, "a_b_c_d", SanitizeTitle(`a/b\c:d`))
	assert.Equal(t, "plain title", SanitizeTitle("plain title"))

	long := strings.Repeat("x", 150)
	assert.Len(t, []rune(SanitizeTitle(long)), 100)
}

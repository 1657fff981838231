package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/classify"
)

func TestResolveAllMenuTags(t *testing.T) {
	platforms := []classify.Platform{
		classify.PlatformYouTube,
		classify.PlatformInstagram,
		classify.PlatformTikTok,
	}
	for _, platform := range platforms {
		for _, tag := range Tags() {
			p := Resolve(platform, tag)
			assert.NotEmpty(t, p.Selector, "%s/%s must resolve to a selector", platform, tag)
			assert.Equal(t, tag, p.Tag)
		}
	}
}

func TestInstagramLowestUsesWorstSentinel(t *testing.T) {
	p := Resolve(classify.PlatformInstagram, "144p")
	assert.Equal(t, "worst[ext=mp4]/worst", p.Selector)

	// Other platforms keep the explicit height ceiling.
	p = Resolve(classify.PlatformYouTube, "144p")
	assert.Contains(t, p.Selector, "height<=144")
	p = Resolve(classify.PlatformTikTok, "144p")
	assert.Contains(t, p.Selector, "height<=144")
}

func TestResolveUnknownTagFallsBack(t *testing.T) {
	p := Resolve(classify.PlatformYouTube, "4320p")
	assert.Equal(t, FallbackSelector, p.Selector)

	p = Resolve(classify.PlatformInstagram, "")
	assert.Equal(t, FallbackSelector, p.Selector)
}

func TestTagsOrderedLowToHigh(t *testing.T) {
	tags := Tags()
	require.Equal(t, []string{"144p", "360p", "480p", "720p", "1080p"}, tags)
	assert.Equal(t, "720p (HD)", Label("720p"))
	assert.Equal(t, "custom", Label("custom"))
}

package quality

import (
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/classify"
)

// Preset maps a quality tag to a yt-dlp format selector.
type Preset struct {
	Tag      string
	Label    string
	Height   int
	Selector string
}

// FallbackSelector requests the highest available video+audio combination.
// Unknown tags resolve here instead of failing.
const FallbackSelector = "bestvideo*+bestaudio/best"

// Instagram often exposes only a handful of renditions and rejects explicit
// height ceilings at the low end, so its lowest tier uses the extractor-level
// "worst" sentinel instead of height<=144.
var instagramLowest = Preset{
	Tag:      "144p",
	Label:    "144p",
	Height:   144,
	Selector: "worst[ext=mp4]/worst",
}

var ladder = []Preset{
	{Tag: "144p", Label: "144p", Height: 144, Selector: "best[height<=144][ext=mp4]/best[height<=144]/best"},
	{Tag: "360p", Label: "360p", Height: 360, Selector: "best[height<=360][ext=mp4]/best[height<=360]/best"},
	{Tag: "480p", Label: "480p (SD)", Height: 480, Selector: "best[height<=480][ext=mp4]/best[height<=480]/best"},
	{Tag: "720p", Label: "720p (HD)", Height: 720, Selector: "best[height<=720][ext=mp4]/best[height<=720]/best"},
	{Tag: "1080p", Label: "1080p (Full HD)", Height: 1080, Selector: "best[height<=1080][ext=mp4]/best[height<=1080]/best"},
}

func catalogFor(platform classify.Platform) []Preset {
	if platform != classify.PlatformInstagram {
		return ladder
	}
	presets := make([]Preset, len(ladder))
	copy(presets, ladder)
	presets[0] = instagramLowest
	return presets
}

// Resolve returns the preset for a (platform, tag) pair. Unrecognized tags
// resolve to a best-available preset rather than an error.
func Resolve(platform classify.Platform, tag string) Preset {
	for _, p := range catalogFor(platform) {
		if p.Tag == tag {
			return p
		}
	}
	return Preset{Tag: tag, Label: "Best", Selector: FallbackSelector}
}

// Tags lists the quality tags shown on the selection keyboard, low to high.
func Tags() []string {
	tags := make([]string, len(ladder))
	for i, p := range ladder {
		tags[i] = p.Tag
	}
	return tags
}

// Label returns the display label for a tag as shown on the keyboard.
func Label(tag string) string {
	for _, p := range ladder {
		if p.Tag == tag {
			return p.Label
		}
	}
	return tag
}

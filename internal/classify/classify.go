package classify

import "regexp"

// Platform identifies the video service a URL belongs to.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformOther     Platform = "other"
)

type pattern struct {
	platform  Platform
	re        *regexp.Regexp
	shortForm bool
}

// Patterns are tried in order; the first match wins. Short-form patterns for
// a platform must come before its catch-all so a Shorts link is never
// classified as a plain watch link.
var patterns = []pattern{
	{PlatformYouTube, regexp.MustCompile(`(?i)youtube\.com/shorts/`), true},
	{PlatformYouTube, regexp.MustCompile(`(?i)youtu\.be/`), true},
	{PlatformYouTube, regexp.MustCompile(`(?i)youtube\.com/`), false},
	{PlatformInstagram, regexp.MustCompile(`(?i)instagram\.com/reel/`), true},
	{PlatformInstagram, regexp.MustCompile(`(?i)instagram\.com/`), false},
	{PlatformTikTok, regexp.MustCompile(`(?i)tiktok\.com/@[\w.]+/video/`), true},
	{PlatformTikTok, regexp.MustCompile(`(?i)vm\.tiktok\.com/`), true},
	{PlatformTikTok, regexp.MustCompile(`(?i)vt\.tiktok\.com/`), true},
	{PlatformTikTok, regexp.MustCompile(`(?i)tiktok\.com/`), true},
}

// Classify reports which platform a URL belongs to and whether it points at a
// short-form video. It is total: any input, valid URL or not, yields a result.
func Classify(text string) (Platform, bool) {
	for _, p := range patterns {
		if p.re.MatchString(text) {
			return p.platform, p.shortForm
		}
	}
	return PlatformOther, false
}

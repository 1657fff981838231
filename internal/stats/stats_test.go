package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopQualitiesSortedAndCapped(t *testing.T) {
	counters := map[string]int64{
		"144p":  2,
		"360p":  7,
		"480p":  7,
		"720p":  40,
		"1080p": 12,
		"other": 1,
	}
	top := topQualities(counters)

	assert.Len(t, top, 5)
	assert.Equal(t, QualityCount{"720p", 40}, top[0])
	assert.Equal(t, QualityCount{"1080p", 12}, top[1])
	// Equal counts break ties by name for a stable report.
	assert.Equal(t, QualityCount{"360p", 7}, top[2])
	assert.Equal(t, QualityCount{"480p", 7}, top[3])
}

func TestTopQualitiesEmpty(t *testing.T) {
	assert.Empty(t, topQualities(nil))
	assert.Empty(t, topQualities(map[string]int64{}))
}

func TestUserKeys(t *testing.T) {
	assert.Equal(t, "user:42", keyUser(42))
	assert.Equal(t, "user:42:platform", keyUserPlatform(42))
	assert.Equal(t, "user:42:quality", keyUserQuality(42))
	assert.Equal(t, "user:42:total", keyUserTotal(42))
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/quality"
)

func TestQualityRowsFullLadder(t *testing.T) {
	rows := qualityRows(quality.Tags())

	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 3)
	assert.Len(t, rows[1], 2)
	require.NotNil(t, rows[0][0].CallbackData)
	assert.Equal(t, "quality:144p", *rows[0][0].CallbackData)
}

func TestQualityRowsShortLadders(t *testing.T) {
	rows := qualityRows([]string{"720p"})
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 1)

	rows = qualityRows([]string{"360p", "480p", "720p"})
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 3)

	assert.Empty(t, qualityRows(nil))
}

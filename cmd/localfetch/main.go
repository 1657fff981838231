package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/classify"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/config"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/download"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/extract"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/quality"
)

// Fetches one URL through the real orchestrator without Telegram or Redis.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/localfetch <url> [quality]")
		return
	}
	url := os.Args[1]
	tag := "720p"
	if len(os.Args) > 2 {
		tag = os.Args[2]
	}

	_ = godotenv.Load()
	c := config.Load()

	platform, short := classify.Classify(url)
	fmt.Printf("platform=%s short=%v\n", platform, short)

	if err := os.MkdirAll(c.DownloadDir, 0o755); err != nil {
		panic(err)
	}

	orch := download.NewOrchestrator(
		extract.NewClient(c.YtDlpPath),
		c.DownloadDir,
		download.ExtractConfig{
			SocketTimeout: c.SocketTimeout,
			Retries:       c.TransportRetries,
			UserAgent:     c.UserAgent,
			MaxFileSize:   c.MaxFileSize,
		},
	)

	preset := quality.Resolve(platform, tag)
	res, err := orch.Fetch(context.Background(), url, preset.Selector, 0, platform)
	if err != nil {
		panic(err)
	}
	fmt.Printf("saved: %s\ntitle: %s\nres: %dx%d dur: %s\n", res.Path, res.Title, res.Width, res.Height, res.Duration)
}

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/config"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/download"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/extract"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/janitor"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/jobs"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/logx"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/pipeline"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/stats"
)

func main() {
	_ = godotenv.Load()
	c := config.Load()

	logx.Setup(logx.FromEnv("worker"))

	if c.BotToken == "" {
		log.Fatal().Msg("BOT_TOKEN is required")
	}
	if err := os.MkdirAll(c.DownloadDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", c.DownloadDir).Msg("could not create download dir")
	}

	go serveHealth(c.HealthAddr)

	bot, err := tgbotapi.NewBotAPI(c.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram auth failed")
	}
	log.Info().Str("username", bot.Self.UserName).Msg("worker authorized")

	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})

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
	pipe := pipeline.New(
		pipeline.NewTelegramTransport(bot),
		stats.NewStore(rdb),
		orch,
		c.MaxDuration,
		c.MaxFileSize,
	)

	jan := janitor.New(afero.NewOsFs(), c.DownloadDir, c.JanitorMaxAge)
	cronJan, err := jan.Schedule(c.JanitorSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("could not schedule janitor")
	}
	defer cronJan.Stop()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: c.RedisAddr},
		asynq.Config{
			Concurrency: c.Concurrency,
			Queues:      map[string]int{jobs.QueueDownloads: 1},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TaskDownload, func(ctx context.Context, t *asynq.Task) error {
		var p jobs.DownloadPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			log.Error().Err(err).Msg("bad download payload")
			return nil
		}
		// The pipeline reported any failure to the user already; returning
		// it to asynq would only re-run a task enqueued with MaxRetry(0).
		if err := pipe.Run(ctx, p); err != nil {
			log.Error().Err(err).Int64("user_id", p.UserID).Str("url", p.URL).Msg("download task failed")
		}
		return nil
	})

	log.Info().Int("concurrency", c.Concurrency).Msg("worker starting")
	if err := srv.Run(mux); err != nil {
		log.Fatal().Err(err).Msg("worker stopped")
	}
}

func serveHealth(addr string) {
	mux := http.NewServeMux()
	ok := func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"ok":true}`)) }
	mux.HandleFunc("/", ok)
	mux.HandleFunc("/health", ok)
	log.Info().Str("addr", addr).Msg("health endpoint up")
	log.Error().Err(http.ListenAndServe(addr, mux)).Msg("health endpoint down")
}

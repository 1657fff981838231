package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/classify"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/config"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/jobs"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/logx"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/quality"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/ratelimit"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/session"
	"github.com/DilshodJumanazarov/shorts-video-downloader-bot/internal/stats"
)

var rctx = context.Background()

const helpText = `Send me a link to a short video and pick a quality.

Supported:
• YouTube Shorts (youtube.com/shorts/…, youtu.be/…)
• Instagram Reels (instagram.com/reel/…)
• TikTok (tiktok.com/…, vm.tiktok.com/…)

Commands:
/start – welcome message
/help – this text
/mystat – your download stats`

type server struct {
	cfg      config.Config
	bot      *tgbotapi.BotAPI
	asynq    *asynq.Client
	stats    *stats.Store
	sessions *session.Store
	limiter  *ratelimit.Limiter
}

func main() {
	_ = godotenv.Load()
	c := config.Load()

	logx.Setup(logx.FromEnv("bot"))

	if c.BotToken == "" {
		log.Fatal().Msg("BOT_TOKEN is required")
	}

	go serveHealth(c.HealthAddr)

	bot, err := tgbotapi.NewBotAPI(c.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram auth failed")
	}
	bot.Debug = false
	log.Info().Str("username", bot.Self.UserName).Msg("bot authorized")

	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	asClient := asynq.NewClient(asynq.RedisClientOpt{Addr: c.RedisAddr})

	s := &server{
		cfg:      c,
		bot:      bot,
		asynq:    asClient,
		stats:    stats.NewStore(rdb),
		sessions: session.NewStore(),
		limiter:  ratelimit.New(c.RateWindow, c.RateBurst),
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	for upd := range updates {
		switch {
		case upd.Message != nil:
			s.safely(func() { s.onMessage(upd.Message) })
		case upd.CallbackQuery != nil:
			s.safely(func() { s.onCallback(upd.CallbackQuery) })
		}
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

// safely keeps a panicking handler from taking the update loop with it.
func (s *server) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("handler panicked")
		}
	}()
	fn()
}

/* ---------------------- handlers ---------------------- */

func (s *server) onMessage(m *tgbotapi.Message) {
	if m.From == nil {
		return
	}
	if err := s.stats.UpsertUser(rctx, m.From.ID, m.From.UserName, m.From.FirstName); err != nil {
		log.Warn().Err(err).Int64("user_id", m.From.ID).Msg("upsert user failed")
	}

	if m.IsCommand() {
		s.onCommand(m)
		return
	}
	if m.Text == "" {
		return
	}
	s.onLink(m)
}

func (s *server) onCommand(m *tgbotapi.Message) {
	switch m.Command() {
	case "start":
		s.sessions.Clear(m.From.ID)
		s.reply(m.Chat.ID, "👋 Hi! I download short videos from YouTube Shorts, Instagram Reels and TikTok.\n\nJust send me a link.")
	case "help":
		s.reply(m.Chat.ID, helpText)
	case "mystat":
		s.sendUserStats(m.Chat.ID, m.From.ID)
	case "stats":
		if !s.isAdmin(m.From.ID) {
			s.reply(m.Chat.ID, "This command is for the operator only.")
			return
		}
		s.sendGlobalStats(m.Chat.ID)
	case "errors":
		if !s.isAdmin(m.From.ID) {
			s.reply(m.Chat.ID, "This command is for the operator only.")
			return
		}
		s.sendRecentErrors(m.Chat.ID)
	default:
		s.reply(m.Chat.ID, "Unknown command. Send /help for usage.")
	}
}

func (s *server) onLink(m *tgbotapi.Message) {
	text := strings.TrimSpace(m.Text)
	platform, short := classify.Classify(text)

	if platform == classify.PlatformOther {
		s.reply(m.Chat.ID, "🤔 I don't recognize that link. Send a YouTube Shorts, Instagram Reels or TikTok URL.")
		return
	}
	if !short {
		s.reply(m.Chat.ID, fmt.Sprintf("❌ That looks like a regular %s link. I only download short-form videos.", platform))
		return
	}

	if !s.limiter.Admit(m.From.ID) {
		s.reply(m.Chat.ID, fmt.Sprintf("⏳ Slow down! At most %d downloads per minute. Try again shortly.", s.cfg.RateBurst))
		return
	}

	s.sessions.Put(m.From.ID, session.PendingRequest{URL: text, Platform: platform})

	log.Info().
		Int64("user_id", m.From.ID).
		Str("platform", string(platform)).
		Msg("link accepted; asking for quality")

	s.askQuality(m.Chat.ID)
}

func (s *server) askQuality(chatID int64) {
	markup := tgbotapi.NewInlineKeyboardMarkup(qualityRows(quality.Tags())...)
	msg := tgbotapi.NewMessage(chatID, "🎬 Choose a quality:")
	msg.ReplyMarkup = markup
	_, _ = s.bot.Send(msg)
}

// qualityRows lays quality buttons out three per row so the labels stay
// readable on phones, whatever the catalog size.
func qualityRows(tags []string) [][]tgbotapi.InlineKeyboardButton {
	const perRow = 3
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, (len(tags)+perRow-1)/perRow)
	var row []tgbotapi.InlineKeyboardButton
	for _, tag := range tags {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(quality.Label(tag), "quality:"+tag))
		if len(row) == perRow {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(row...))
	}
	return rows
}

func (s *server) onCallback(cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || !strings.HasPrefix(cq.Data, "quality:") {
		_ = s.answerCB(cq, "")
		return
	}
	tag := strings.TrimPrefix(cq.Data, "quality:")
	chatID := cq.Message.Chat.ID

	req, ok := s.sessions.Take(cq.From.ID)
	if !ok {
		_ = s.answerCB(cq, "Send a video link first.")
		return
	}
	_ = s.answerCB(cq, quality.Label(tag))

	payload := jobs.DownloadPayload{
		ChatID:    chatID,
		UserID:    cq.From.ID,
		Username:  cq.From.UserName,
		FirstName: cq.From.FirstName,
		URL:       req.URL,
		Platform:  string(req.Platform),
		Quality:   tag,
	}
	b, _ := json.Marshal(payload)

	// Retries live inside the worker's pipeline; a re-delivered task would
	// double-send the video, so asynq must never re-run it.
	_, err := s.asynq.EnqueueContext(rctx,
		asynq.NewTask(jobs.TaskDownload, b),
		asynq.Queue(jobs.QueueDownloads),
		asynq.MaxRetry(0),
		asynq.Timeout(s.cfg.ExtractTimeout+2*time.Minute),
	)
	if err != nil {
		log.Error().Err(err).Int64("user_id", cq.From.ID).Msg("enqueue download failed")
		s.reply(chatID, "❌ Could not queue your download, please try again.")
		return
	}

	log.Info().
		Int64("user_id", cq.From.ID).
		Str("platform", payload.Platform).
		Str("quality", tag).
		Msg("download queued")
}

/* ---------------------- stats replies ---------------------- */

func (s *server) sendUserStats(chatID, userID int64) {
	st, err := s.stats.UserStats(rctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("user stats failed")
		s.reply(chatID, "❌ Could not load your stats right now.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Your stats\n\nDownloads: %d\n", st.Downloads)
	if len(st.Platforms) > 0 {
		b.WriteString("\nBy platform:\n")
		for _, p := range []string{"youtube", "instagram", "tiktok"} {
			if n := st.Platforms[p]; n > 0 {
				fmt.Fprintf(&b, "• %s: %d\n", p, n)
			}
		}
	}
	if len(st.TopQualities) > 0 {
		b.WriteString("\nFavourite qualities:\n")
		for _, q := range st.TopQualities {
			fmt.Fprintf(&b, "• %s: %d\n", q.Quality, q.Count)
		}
	}
	fmt.Fprintf(&b, "\nLast download: %s", st.LastDownload)
	s.reply(chatID, b.String())
}

func (s *server) sendGlobalStats(chatID int64) {
	st, err := s.stats.GlobalStats(rctx)
	if err != nil {
		log.Error().Err(err).Msg("global stats failed")
		s.reply(chatID, "❌ Could not load stats right now.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📈 Bot stats\n\nUsers: %d\nDownloads: %d\n", st.TotalUsers, st.TotalDownloads)
	if len(st.Platforms) > 0 {
		b.WriteString("\nBy platform:\n")
		for _, p := range []string{"youtube", "instagram", "tiktok"} {
			if n := st.Platforms[p]; n > 0 {
				fmt.Fprintf(&b, "• %s: %d\n", p, n)
			}
		}
	}
	fmt.Fprintf(&b, "\nMost used quality: %s", st.MostUsed)
	s.reply(chatID, b.String())
}

func (s *server) sendRecentErrors(chatID int64) {
	entries, err := s.stats.RecentErrors(rctx, 10)
	if err != nil {
		log.Error().Err(err).Msg("recent errors failed")
		s.reply(chatID, "❌ Could not load the error log right now.")
		return
	}
	if len(entries) == 0 {
		s.reply(chatID, "No recent errors. 🎉")
		return
	}

	var b strings.Builder
	b.WriteString("🧯 Recent errors:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "\n[%s] user %d:\n%s\n", e.Timestamp, e.UserID, e.Message)
	}
	s.reply(chatID, b.String())
}

/* ---------------------- helpers ---------------------- */

func (s *server) isAdmin(userID int64) bool {
	return s.cfg.AdminID != 0 && userID == s.cfg.AdminID
}

func (s *server) reply(chatID int64, text string) {
	if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (s *server) answerCB(cq *tgbotapi.CallbackQuery, text string) error {
	_, err := s.bot.Request(tgbotapi.NewCallback(cq.ID, text))
	return err
}

package pipeline

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramTransport adapts *tgbotapi.BotAPI to the Transport interface.
type TelegramTransport struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramTransport(bot *tgbotapi.BotAPI) *TelegramTransport {
	return &TelegramTransport{bot: bot}
}

func (t *TelegramTransport) SendText(chatID int64, text string) (int, error) {
	sent, err := t.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (t *TelegramTransport) SendVideo(chatID int64, v Video) error {
	msg := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(v.Path))
	msg.Caption = v.Caption
	msg.Width = v.Width
	msg.Height = v.Height
	msg.Duration = int(v.Duration.Seconds())
	msg.SupportsStreaming = true
	_, err := t.bot.Send(msg)
	return err
}

func (t *TelegramTransport) DeleteMessage(chatID int64, messageID int) error {
	_, err := t.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

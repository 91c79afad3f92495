// Package bot sends operational alerts to a fixed Telegram chat. It is
// outbound only: the slog Telegram handler mirrors Error-level records here,
// and the signup manager reports new clinic registrations.
package bot

import (
	"fmt"
	"log/slog"
	"strings"
	"vetgate/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

type TgBot struct {
	log      *slog.Logger
	api      *tgbotapi.Bot
	chatId   int64
	minLevel slog.Level
}

func NewTgBot(apiKey string, chatId int64, log *slog.Logger) (*TgBot, error) {
	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	return &TgBot{
		log:      log.With(sl.Module("tgbot")),
		api:      api,
		chatId:   chatId,
		minLevel: slog.LevelInfo,
	}, nil
}

func (t *TgBot) SendMessage(msg string) {
	t.SendMessageWithLevel(msg, t.minLevel)
}

// SendMessageWithLevel delivers a message to the ops chat when the level
// clears the configured minimum.
func (t *TgBot) SendMessageWithLevel(msg string, level slog.Level) {
	if level < t.minLevel {
		return
	}
	_, err := t.api.SendMessage(t.chatId, msg, &tgbotapi.SendMessageOpts{
		ParseMode: "Markdown",
	})
	if err != nil {
		t.log.Error("send telegram message", sl.Err(err))
	}
}

// Sanitize escapes Telegram markdown control characters in free text.
func Sanitize(input string) string {
	reservedChars := "\\_{}#+-.!|()[]=*"
	var b strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

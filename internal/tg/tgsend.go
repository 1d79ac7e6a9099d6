package tg

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/class-points-bot/internal/observability"
)

// Sender: то, что нужно от *tgbotapi.BotAPI обработчикам.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// isSystemErr: 5xx, 429 и таймауты уходят в Sentry, валидационные 400-ки нет.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	for _, mark := range []string{"429", "500", "502", "503", "504", "timeout"} {
		if strings.Contains(s, mark) {
			return true
		}
	}
	return false
}

func Send(bot Sender, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := bot.Send(msg)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return m, err
}

func Request(bot Sender, req tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	r, err := bot.Request(req)
	if isSystemErr(err) {
		observability.CaptureErr(err)
	}
	return r, err
}

// Text: короткий путь для простого ответа в чат.
func Text(bot Sender, chatID int64, text string) {
	_, _ = Send(bot, tgbotapi.NewMessage(chatID, text))
}

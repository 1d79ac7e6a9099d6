package fsmutil

import (
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/class-points-bot/internal/metrics"
	"github.com/Spok95/class-points-bot/internal/tg"
)

// pending: защита от повторного запуска тяжёлых действий (экспорт, одобрить всё).
// Ключ chatID, значение имя действия.
var pending = struct {
	mu sync.Mutex
	m  map[int64]string
}{
	m: make(map[int64]string),
}

// SetPending возвращает false, если в чате уже что-то выполняется.
func SetPending(chatID int64, key string) bool {
	pending.mu.Lock()
	defer pending.mu.Unlock()

	if _, ok := pending.m[chatID]; ok {
		return false
	}
	pending.m[chatID] = key
	return true
}

// ClearPending снимает флаг, если ключ совпал.
func ClearPending(chatID int64, key string) {
	pending.mu.Lock()
	defer pending.mu.Unlock()

	if cur, ok := pending.m[chatID]; ok && cur == key {
		delete(pending.m, chatID)
	}
}

// DisableMarkup гасит inline-клавиатуру после обработки нажатия.
func DisableMarkup(bot tg.Sender, chatID int64, messageID int) {
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: make([][]tgbotapi.InlineKeyboardButton, 0)}
	if _, err := tg.Send(bot, tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty)); err != nil {
		metrics.HandlerErrors.Inc()
	}
}

// CancelRow: строка с одной кнопкой отмены.
func CancelRow(cancelData string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", cancelData))
}

// IsCancelText: текстовая отмена на шагах ввода. "Отмена", "/cancel", "cancel" без учёта регистра.
func IsCancelText(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "отмена" || s == "/cancel" || s == "cancel"
}

// Store хранит состояние диалога по чатам. Чаты обрабатываются параллельно.
type Store[T any] struct {
	mu sync.Mutex
	m  map[int64]*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{m: make(map[int64]*T)}
}

func (s *Store[T]) Get(chatID int64) *T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[chatID]
}

func (s *Store[T]) Set(chatID int64, v *T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[chatID] = v
}

func (s *Store[T]) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, chatID)
}

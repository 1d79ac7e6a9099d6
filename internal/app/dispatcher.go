package app

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/class-points-bot/internal/ctxutil"
	"github.com/Spok95/class-points-bot/internal/metrics"
	"github.com/Spok95/class-points-bot/internal/observability"
	"github.com/Spok95/class-points-bot/internal/tg"
)

// UpdateHandler: обработчики команд и inline-кнопок.
type UpdateHandler interface {
	HandleMessage(ctx context.Context, msg *tgbotapi.Message)
	HandleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery)
}

// Dispatcher раздаёт апдейты обработчикам: только проверяющим, по одному на чат.
type Dispatcher struct {
	h       UpdateHandler
	bot     tg.Sender
	isAdmin func(chatID int64) bool
	log     *zap.Logger
	limiter *ChatLimiter
	wg      sync.WaitGroup
}

func NewDispatcher(h UpdateHandler, bot tg.Sender, isAdmin func(int64) bool, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{h: h, bot: bot, isAdmin: isAdmin, log: log, limiter: NewChatLimiter()}
}

// Run читает апдейты до закрытия канала или отмены ctx и ждёт начатые обработчики.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer d.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				d.Dispatch(ctx, upd)
			}()
		}
	}
}

// Dispatch обрабатывает один апдейт синхронно.
func (d *Dispatcher) Dispatch(ctx context.Context, upd tgbotapi.Update) {
	chatID, fromID, ok := origin(upd)
	if !ok {
		return
	}
	metrics.BotUpdates.Inc()

	if !d.isAdmin(fromID) {
		d.log.Info("update from non-reviewer ignored", zap.Int64("chat_id", chatID), zap.Int64("from_id", fromID))
		if upd.CallbackQuery != nil {
			_, _ = tg.Request(d.bot, tgbotapi.NewCallback(upd.CallbackQuery.ID, "Нет доступа"))
		}
		tg.Text(d.bot, chatID, "🚫 Бот доступен только проверяющим.")
		return
	}

	d.limiter.Do(chatID, func() {
		ctx, cancel := ctxutil.WithTimeout(ctxutil.WithChatID(ctx, chatID), ctxutil.DefaultBotTimeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				metrics.HandlerErrors.Inc()
				err := fmt.Errorf("panic in bot handler: %v", r)
				observability.CaptureErr(err)
				d.log.Error("handler panic", zap.Int64("chat_id", chatID), zap.Error(err))
				tg.Text(d.bot, chatID, "❌ Внутренняя ошибка, попробуйте ещё раз.")
			}
		}()

		if upd.CallbackQuery != nil {
			d.h.HandleCallback(ctx, upd.CallbackQuery)
			return
		}
		d.h.HandleMessage(ctx, upd.Message)
	})
}

// origin: чат и отправитель апдейта; false для апдейтов, которые бот не обрабатывает.
func origin(upd tgbotapi.Update) (chatID, fromID int64, ok bool) {
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil && upd.CallbackQuery.From != nil:
		return upd.CallbackQuery.Message.Chat.ID, upd.CallbackQuery.From.ID, true
	case upd.Message != nil && upd.Message.Chat != nil:
		from := upd.Message.Chat.ID
		if upd.Message.From != nil {
			from = upd.Message.From.ID
		}
		return upd.Message.Chat.ID, from, true
	}
	return 0, 0, false
}

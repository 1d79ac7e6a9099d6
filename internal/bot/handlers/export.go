package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/class-points-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/class-points-bot/internal/export"
	"github.com/Spok95/class-points-bot/internal/models"
)

const exportAction = "export"

// Export собирает рейтинг и сводку дня в xlsx и отправляет документом.
func (h *Handler) Export(ctx context.Context, chatID int64) {
	if !fsmutil.SetPending(chatID, exportAction) {
		h.reply(chatID, "⏳ Отчёт уже готовится.")
		return
	}
	defer fsmutil.ClearPending(chatID, exportAction)

	students, err := h.svc.Ranking(ctx, models.ScopeStudent, nil, models.MetricSum)
	if err != nil {
		h.fail(chatID, "export", err)
		return
	}
	groups, err := h.svc.Ranking(ctx, models.ScopeGroup, nil, models.MetricSum)
	if err != nil {
		h.fail(chatID, "export", err)
		return
	}
	st, err := h.svc.Stats(ctx, nil)
	if err != nil {
		h.fail(chatID, "export", err)
		return
	}

	loc := h.svc.Location()
	f, err := export.RankingReport(students, groups, st, loc)
	if err != nil {
		h.log.Error("build report", zap.Error(err))
		h.reply(chatID, "❌ Не удалось сформировать отчёт.")
		return
	}
	buf, err := export.WriteBuffer(f)
	if err != nil {
		h.log.Error("write report", zap.Error(err))
		h.reply(chatID, "❌ Не удалось сформировать отчёт.")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  export.ReportFilename("Рейтинг класса", h.now(), loc),
		Bytes: buf.Bytes(),
	})
	doc.Caption = "📤 Рейтинг и сводка дня"
	h.send(doc)
}

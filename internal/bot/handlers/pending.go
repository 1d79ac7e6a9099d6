package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/class-points-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/class-points-bot/internal/models"
)

const (
	auditPrefix      = "audit_"
	auditApproveAll  = "audit_approve_all"
	maxPendingShown  = 20
	pendingAllAction = "approve_all"
)

// ParseAuditCallback: audit_approve_<id>, audit_reject_<id>, audit_approve_all.
func ParseAuditCallback(data string) (action models.AuditAction, id int64, all bool, ok bool) {
	if data == auditApproveAll {
		return models.ActionApprove, 0, true, true
	}
	rest, found := strings.CutPrefix(data, auditPrefix)
	if !found {
		return "", 0, false, false
	}
	act, idStr, found := strings.Cut(rest, "_")
	if !found {
		return "", 0, false, false
	}
	switch models.AuditAction(act) {
	case models.ActionApprove, models.ActionReject:
	default:
		return "", 0, false, false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false, false
	}
	return models.AuditAction(act), id, false, true
}

func auditData(action models.AuditAction, id int64) string {
	return fmt.Sprintf("%s%s_%d", auditPrefix, action, id)
}

func FormatPendingEntry(e models.HistoryWithStudent) string {
	return fmt.Sprintf("📝 Заявка #%d\n👤 %s\n💯 %+d\n📚 %s\n✍️ %s", e.ID, e.StudentName, e.Amount, e.Reason, e.Teacher)
}

// ShowPending показывает очередь: старые заявки первыми.
func (h *Handler) ShowPending(ctx context.Context, chatID int64) {
	entries, err := h.svc.ListPending(ctx)
	if err != nil {
		h.fail(chatID, "pending", err)
		return
	}
	if len(entries) == 0 {
		h.reply(chatID, "✅ Нет заявок на проверке.")
		return
	}

	shown := entries
	if len(shown) > maxPendingShown {
		shown = shown[:maxPendingShown]
	}
	for _, e := range shown {
		msg := tgbotapi.NewMessage(chatID, FormatPendingEntry(e))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Одобрить", auditData(models.ActionApprove, e.ID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", auditData(models.ActionReject, e.ID)),
		))
		h.send(msg)
	}

	text := fmt.Sprintf("Всего на проверке: %d", len(entries))
	if len(entries) > len(shown) {
		text += fmt.Sprintf(" (показаны первые %d)", len(shown))
	}
	summary := tgbotapi.NewMessage(chatID, text)
	summary.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Одобрить все", auditApproveAll),
	))
	h.send(summary)
}

func (h *Handler) HandleAuditCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID

	action, id, all, ok := ParseAuditCallback(cq.Data)
	if !ok {
		h.reply(chatID, "⚠️ Некорректная кнопка.")
		return
	}
	fsmutil.DisableMarkup(h.bot, chatID, msgID)

	if all {
		if !fsmutil.SetPending(chatID, pendingAllAction) {
			h.reply(chatID, "⏳ Уже выполняется, подождите.")
			return
		}
		defer fsmutil.ClearPending(chatID, pendingAllAction)

		results, err := h.svc.ApproveAll(ctx)
		if err != nil {
			h.fail(chatID, "approve_all", err)
			return
		}
		h.reply(chatID, FormatBatchResult(results))
		return
	}

	results, err := h.svc.ProcessPending(ctx, []int64{id}, action)
	if err != nil {
		h.fail(chatID, "audit", err)
		return
	}
	text := cq.Message.Text + "\n\n"
	switch r := results[0]; {
	case r.OK && action == models.ActionApprove:
		text += "✅ Одобрено"
	case r.OK:
		text += "❌ Отклонено"
	default:
		text += ErrorText(r.Err)
	}
	if cq.From != nil && cq.From.UserName != "" {
		text += " @" + cq.From.UserName
	}
	h.send(tgbotapi.NewEditMessageText(chatID, msgID, text))
}

func FormatBatchResult(results []models.ProcessResult) string {
	if len(results) == 0 {
		return "✅ Очередь пуста."
	}
	ok := 0
	for _, r := range results {
		if r.OK {
			ok++
		}
	}
	text := fmt.Sprintf("✅ Одобрено: %d из %d", ok, len(results))
	if failed := len(results) - ok; failed > 0 {
		text += fmt.Sprintf("\n⚠️ Пропущено: %d (уже обработаны или ошибка)", failed)
	}
	return text
}

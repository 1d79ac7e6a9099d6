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
	addStepStudents = iota + 1
	addStepAmount
)

const (
	addPrefix     = "add_"
	addStudentPfx = "add_st_"
	addAllData    = "add_all"
	addNextData   = "add_next"
	addCancelData = "add_cancel"
)

type addStudent struct {
	ID   int64
	Name string
}

// addState: диалог /add. Сначала выбор учеников, потом ввод баллов и причины.
type addState struct {
	Step     int
	Students []addStudent
	Selected map[int64]bool
}

func (s *addState) selectedIDs() []int64 {
	ids := make([]int64, 0, len(s.Selected))
	for _, st := range s.Students {
		if s.Selected[st.ID] {
			ids = append(ids, st.ID)
		}
	}
	return ids
}

func addStudentRows(s *addState) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, st := range s.Students {
		label := st.Name
		if s.Selected[st.ID] {
			label = "✅ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", addStudentPfx, st.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Выбрать всех", addAllData),
	))
	if len(s.Selected) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("➡️ Далее (%d)", len(s.Selected)), addNextData),
		))
	}
	return append(rows, fsmutil.CancelRow(addCancelData))
}

func (h *Handler) editMenu(chatID int64, msgID int, text string, rows [][]tgbotapi.InlineKeyboardButton) {
	cfg := tgbotapi.NewEditMessageText(chatID, msgID, text)
	mk := tgbotapi.NewInlineKeyboardMarkup(rows...)
	cfg.ReplyMarkup = &mk
	h.send(cfg)
}

// StartAdd открывает выбор учеников.
func (h *Handler) StartAdd(ctx context.Context, chatID int64) {
	h.add.Delete(chatID)
	students, err := h.svc.ListStudents(ctx)
	if err != nil {
		h.fail(chatID, "add", err)
		return
	}
	if len(students) == 0 {
		h.reply(chatID, "❌ Учеников пока нет.")
		return
	}
	st := &addState{Step: addStepStudents, Selected: map[int64]bool{}}
	for _, s := range students {
		st.Students = append(st.Students, addStudent{ID: s.ID, Name: s.Name})
	}
	h.add.Set(chatID, st)

	out := tgbotapi.NewMessage(chatID, "Выберите ученика или учеников:")
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(addStudentRows(st)...)
	h.send(out)
}

func (h *Handler) HandleAddCallback(_ context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID
	st := h.add.Get(chatID)
	if st == nil {
		fsmutil.DisableMarkup(h.bot, chatID, msgID)
		return
	}

	switch data := cq.Data; {
	case data == addCancelData:
		h.add.Delete(chatID)
		fsmutil.DisableMarkup(h.bot, chatID, msgID)
		h.send(tgbotapi.NewEditMessageText(chatID, msgID, "🚫 Начисление отменено."))
	case data == addAllData:
		for _, s := range st.Students {
			st.Selected[s.ID] = true
		}
		h.editMenu(chatID, msgID, "Выберите ученика или учеников:", addStudentRows(st))
	case data == addNextData:
		if len(st.Selected) == 0 {
			return
		}
		st.Step = addStepAmount
		h.editMenu(chatID, msgID, fmt.Sprintf("Выбрано учеников: %d.\n"+
			"Введите баллы и причину, например:\n"+
			"-2 [Academic-Math] Homework missing\n"+
			"+3 Helped a classmate", len(st.Selected)),
			[][]tgbotapi.InlineKeyboardButton{fsmutil.CancelRow(addCancelData)})
	case strings.HasPrefix(data, addStudentPfx):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, addStudentPfx), 10, 64)
		if err != nil || st.Step != addStepStudents {
			return
		}
		if st.Selected[id] {
			delete(st.Selected, id)
		} else {
			st.Selected[id] = true
		}
		h.editMenu(chatID, msgID, "Выберите ученика или учеников:", addStudentRows(st))
	}
}

// ParseAmountReason: "+3 Helped a classmate" -> (3, "Helped a classmate"). Причина может быть пустой.
func ParseAmountReason(text string) (int, string, error) {
	amountStr, reason, _ := strings.Cut(strings.TrimSpace(text), " ")
	amount, err := strconv.Atoi(amountStr)
	if err != nil {
		return 0, "", fmt.Errorf("первым должно идти число баллов, например +3 или -2")
	}
	if amount == 0 {
		return 0, "", fmt.Errorf("баллы не могут быть нулём")
	}
	return amount, strings.TrimSpace(reason), nil
}

func (h *Handler) handleAddText(ctx context.Context, msg *tgbotapi.Message, st *addState) {
	chatID := msg.Chat.ID
	amount, reason, err := ParseAmountReason(msg.Text)
	if err != nil {
		h.reply(chatID, "⚠️ "+err.Error())
		return
	}

	key := fmt.Sprintf("add:%d", chatID)
	if !fsmutil.SetPending(chatID, key) {
		h.reply(chatID, "⏳ Запрос уже обрабатывается…")
		return
	}
	defer fsmutil.ClearPending(chatID, key)

	res, err := h.svc.SubmitChange(ctx, models.ChangeRequest{
		Amount:     amount,
		Reason:     reason,
		Submitter:  senderName(msg.From),
		StudentIDs: st.selectedIDs(),
	})
	if err != nil {
		h.fail(chatID, "submit", err)
		return
	}
	h.add.Delete(chatID)
	h.reply(chatID, FormatSubmitResult(res))
}

func FormatSubmitResult(res models.SubmitResult) string {
	if res.Kind == models.KindBenchmark {
		return fmt.Sprintf("📏 Базовое правило применено: списано у %d, бонус получили %d.", res.Approved, res.Bonused)
	}
	return fmt.Sprintf("📝 Заявок на проверку: %d.", res.Pending)
}

// ParseAdjustArgs: student|group <id> <±баллы> <причина>.
func ParseAdjustArgs(args string) (group bool, id int64, amount int, reason string, err error) {
	f := strings.Fields(args)
	if len(f) < 4 {
		return false, 0, 0, "", fmt.Errorf("формат: /adjust student|group <id> <±баллы> <причина>")
	}
	switch strings.ToLower(f[0]) {
	case "student", "ученик":
	case "group", "группа":
		group = true
	default:
		return false, 0, 0, "", fmt.Errorf("первым аргументом student или group")
	}
	if id, err = strconv.ParseInt(f[1], 10, 64); err != nil || id <= 0 {
		return false, 0, 0, "", fmt.Errorf("неверный id %q", f[1])
	}
	if amount, err = strconv.Atoi(f[2]); err != nil {
		return false, 0, 0, "", fmt.Errorf("неверные баллы %q", f[2])
	}
	return group, id, amount, strings.Join(f[3:], " "), nil
}

// Adjust: прямая корректировка без очереди.
func (h *Handler) Adjust(ctx context.Context, chatID int64, args, teacher string) {
	group, id, amount, reason, err := ParseAdjustArgs(args)
	if err != nil {
		h.reply(chatID, "⚠️ "+err.Error())
		return
	}
	if !group {
		if err := h.svc.AdjustStudent(ctx, id, amount, reason, teacher); err != nil {
			h.fail(chatID, "adjust_student", err)
			return
		}
		h.reply(chatID, fmt.Sprintf("✅ Ученику #%d: %+d", id, amount))
		return
	}
	n, err := h.svc.AdjustGroup(ctx, id, amount, reason, teacher)
	if err != nil {
		h.fail(chatID, "adjust_group", err)
		return
	}
	h.reply(chatID, fmt.Sprintf("✅ Группе #%d: %+d каждому из %d", id, amount, n))
}

package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/class-points-bot/internal/models"
)

const maxHistoryShown = 10

func FormatStudents(ss []models.Student) string {
	if len(ss) == 0 {
		return "Учеников пока нет."
	}
	var b strings.Builder
	b.WriteString("🧑‍🎓 Ученики")
	for _, s := range ss {
		group := "без группы"
		if s.GroupName != nil {
			group = *s.GroupName
		}
		fmt.Fprintf(&b, "\n#%d %s (%s): %d", s.ID, s.Name, group, s.Points)
	}
	return b.String()
}

func (h *Handler) ShowStudents(ctx context.Context, chatID int64) {
	ss, err := h.svc.ListStudents(ctx)
	if err != nil {
		h.fail(chatID, "students", err)
		return
	}
	h.reply(chatID, FormatStudents(ss))
}

func FormatStudentHistory(sh *models.StudentHistory, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s: %d баллов, место %d", sh.Name, sh.Points, sh.Rank)
	shown := sh.History
	if len(shown) > maxHistoryShown {
		shown = shown[:maxHistoryShown]
	}
	for _, e := range shown {
		mark := ""
		if e.Status == models.StatusPending {
			mark = " ⏳"
		}
		fmt.Fprintf(&b, "\n%s %+d %s%s", e.CreatedAt.In(loc).Format("01-02 15:04"), e.Amount, e.Reason, mark)
	}
	return b.String()
}

func (h *Handler) ShowStudent(ctx context.Context, chatID int64, args string) {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || id <= 0 {
		h.reply(chatID, "⚠️ Формат: /student <id>")
		return
	}
	sh, err := h.svc.StudentHistory(ctx, id)
	if err != nil {
		h.fail(chatID, "student_history", err)
		return
	}
	h.reply(chatID, FormatStudentHistory(sh, h.svc.Location()))
}

func FormatRewards(rs []models.Reward) string {
	if len(rs) == 0 {
		return "Наград пока нет."
	}
	var b strings.Builder
	b.WriteString("🎁 Награды")
	for _, r := range rs {
		fmt.Fprintf(&b, "\n#%d %s: %d баллов, осталось %d", r.ID, r.Name, r.PointsCost, r.Stock)
		if r.IsGroupReward {
			b.WriteString(", групповая")
		}
	}
	return b.String()
}

func (h *Handler) ShowRewards(ctx context.Context, chatID int64) {
	rs, err := h.svc.ListRewards(ctx, false)
	if err != nil {
		h.fail(chatID, "rewards", err)
		return
	}
	h.reply(chatID, FormatRewards(rs))
}

// Redeem: "<ученик> <награда>" или "group <группа> <награда>".
func (h *Handler) Redeem(ctx context.Context, chatID int64, args string) {
	f := strings.Fields(args)
	group := len(f) > 0 && (strings.ToLower(f[0]) == "group" || strings.ToLower(f[0]) == "группа")
	if group {
		f = f[1:]
	}
	ids, err := parseInts(f)
	if err != nil || len(ids) != 2 {
		h.reply(chatID, "⚠️ Формат: /redeem <id ученика> <id награды> или /redeem group <id группы> <id награды>")
		return
	}

	if !group {
		if err := h.svc.RedeemReward(ctx, ids[0], ids[1]); err != nil {
			h.fail(chatID, "redeem", err)
			return
		}
		h.reply(chatID, fmt.Sprintf("🎁 Награда #%d выдана ученику #%d.", ids[1], ids[0]))
		return
	}
	res, err := h.svc.RedeemGroupReward(ctx, ids[0], ids[1])
	if err != nil {
		h.fail(chatID, "redeem_group", err)
		return
	}
	h.reply(chatID, fmt.Sprintf("🎁 Награда #%d выдана группе #%d: списано %d, по %d с каждого из %d.",
		ids[1], ids[0], res.Total, res.PerStudent, res.Members))
}

package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/class-points-bot/internal/models"
)

const (
	dateLayout    = "2006-01-02"
	maxRankShown  = 30
	maxFeedShown  = 10
	maxEventShown = 5
)

// RankingQuery: разобранные аргументы /ranking.
type RankingQuery struct {
	Scope  models.RankScope
	Metric models.GroupMetric
	Range  *models.DateRange
}

// ParseRankingArgs: [groups] [avg|sum] [дата [дата]]. Одна дата: рейтинг за день.
func ParseRankingArgs(args string, loc *time.Location) (RankingQuery, error) {
	q := RankingQuery{Scope: models.ScopeStudent, Metric: models.MetricSum}
	var dates []time.Time
	for _, tok := range strings.Fields(strings.ToLower(args)) {
		switch tok {
		case "groups", "группы":
			q.Scope = models.ScopeGroup
		case "students", "ученики":
			q.Scope = models.ScopeStudent
		case "avg", "среднее":
			q.Metric = models.MetricAvg
		case "sum", "сумма":
			q.Metric = models.MetricSum
		default:
			d, err := time.ParseInLocation(dateLayout, tok, loc)
			if err != nil {
				return q, fmt.Errorf("не понял аргумент %q", tok)
			}
			dates = append(dates, d)
		}
	}
	switch len(dates) {
	case 0:
	case 1:
		q.Range = &models.DateRange{Start: dates[0], End: dates[0]}
	case 2:
		q.Range = &models.DateRange{Start: dates[0], End: dates[1]}
	default:
		return q, fmt.Errorf("нужно не больше двух дат")
	}
	return q, nil
}

// ParseDay: пустая строка даёт nil (сегодня), иначе ГГГГ-ММ-ДД.
func ParseDay(args string, loc *time.Location) (*time.Time, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(dateLayout, args, loc)
	if err != nil {
		return nil, fmt.Errorf("дата в формате ГГГГ-ММ-ДД, получено %q", args)
	}
	return &d, nil
}

func fmtPoints(p float64) string {
	if p == float64(int64(p)) {
		return strconv.FormatInt(int64(p), 10)
	}
	return strconv.FormatFloat(p, 'f', 1, 64)
}

func FormatRanking(rows []models.RankRow, q RankingQuery, loc *time.Location) string {
	var b strings.Builder
	if q.Scope == models.ScopeGroup {
		b.WriteString("🏆 Рейтинг групп")
		if q.Range == nil && q.Metric == models.MetricAvg {
			b.WriteString(" (средний балл)")
		}
	} else {
		b.WriteString("🏆 Рейтинг учеников")
	}
	if q.Range != nil {
		fmt.Fprintf(&b, " за %s..%s", q.Range.Start.In(loc).Format(dateLayout), q.Range.End.In(loc).Format(dateLayout))
	}
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString("\nПока пусто.")
		return b.String()
	}
	for i, r := range rows {
		if i == maxRankShown {
			fmt.Fprintf(&b, "\n… и ещё %d", len(rows)-maxRankShown)
			break
		}
		fmt.Fprintf(&b, "\n%d. %s", r.Rank, r.Name)
		if r.Group != "" {
			fmt.Fprintf(&b, " (%s)", r.Group)
		}
		fmt.Fprintf(&b, ": %s", fmtPoints(r.Points))
	}
	return b.String()
}

func (h *Handler) ShowRanking(ctx context.Context, chatID int64, args string) {
	loc := h.svc.Location()
	q, err := ParseRankingArgs(args, loc)
	if err != nil {
		h.reply(chatID, "⚠️ "+err.Error())
		return
	}
	rows, err := h.svc.Ranking(ctx, q.Scope, q.Range, q.Metric)
	if err != nil {
		h.fail(chatID, "ranking", err)
		return
	}
	h.reply(chatID, FormatRanking(rows, q, loc))
}

func FormatGroups(gs []models.GroupSummary) string {
	if len(gs) == 0 {
		return "👥 Групп пока нет."
	}
	var b strings.Builder
	b.WriteString("👥 Группы")
	for _, g := range gs {
		fmt.Fprintf(&b, "\n• %s: %d уч., всего %d, в среднем %s", g.Name, g.StudentCount, g.TotalPoints, fmtPoints(g.AvgPoints))
	}
	return b.String()
}

func (h *Handler) ShowGroups(ctx context.Context, chatID int64) {
	gs, err := h.svc.ListGroups(ctx)
	if err != nil {
		h.fail(chatID, "groups", err)
		return
	}
	h.reply(chatID, FormatGroups(gs))
}

func FormatStats(st *models.Stats, events []models.Event, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Сводка за %s\n", st.Day.In(loc).Format(dateLayout))
	fmt.Fprintf(&b, "Учеников: %d, средний балл: %.1f, мин: %d, макс: %d\n", st.Students, st.AvgPoints, st.MinPoints, st.MaxPoints)
	writeFeed(&b, "\n➕ Плюсы", st.Plus, loc)
	writeFeed(&b, "\n➖ Минусы", st.Minus, loc)
	if len(events) > 0 {
		b.WriteString("\n🎁 События")
		for i, e := range events {
			if i == maxEventShown {
				break
			}
			fmt.Fprintf(&b, "\n• %s %s: %s", e.At.In(loc).Format("15:04"), e.WinnerName, eventLabel(e))
		}
	}
	return b.String()
}

func writeFeed(b *strings.Builder, title string, items []models.FeedItem, loc *time.Location) {
	b.WriteString(title)
	if len(items) == 0 {
		b.WriteString("\nпусто\n")
		return
	}
	for i, it := range items {
		if i == maxFeedShown {
			fmt.Fprintf(b, "\n… и ещё %d", len(items)-maxFeedShown)
			break
		}
		who := it.StudentName
		if it.Collapsed {
			who = fmt.Sprintf("%d учеников", it.Count)
		}
		fmt.Fprintf(b, "\n• %s %s: %+d %s", it.CreatedAt.In(loc).Format("15:04"), who, it.Amount, it.Reason)
	}
	b.WriteString("\n")
}

func eventLabel(e models.Event) string {
	switch e.Type {
	case models.EventAuction:
		return "выиграл аукцион «" + e.RewardName + "»"
	case models.EventBounty:
		return "закрыл испытание «" + e.RewardName + "»"
	default:
		return "получил награду «" + e.RewardName + "»"
	}
}

func (h *Handler) ShowStats(ctx context.Context, chatID int64, args string) {
	day, err := ParseDay(args, h.svc.Location())
	if err != nil {
		h.reply(chatID, "⚠️ "+err.Error())
		return
	}
	st, err := h.svc.Stats(ctx, day)
	if err != nil {
		h.fail(chatID, "stats", err)
		return
	}
	events, err := h.svc.RecentEvents(ctx, day)
	if err != nil {
		h.fail(chatID, "recent_events", err)
		return
	}
	h.reply(chatID, FormatStats(st, events, h.svc.Location()))
}

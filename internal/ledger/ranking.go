package ledger

import (
	"context"
	"time"

	"github.com/Spok95/class-points-bot/internal/db"
	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/Spok95/class-points-bot/internal/points"
)

// Ranking: рейтинг учеников или групп; rng ограничивает подсчёт историей за дни.
func (s *Service) Ranking(ctx context.Context, scope models.RankScope, rng *models.DateRange, metric models.GroupMetric) ([]models.RankRow, error) {
	const op = "ranking"
	if metric == "" {
		metric = models.MetricSum
	}
	if metric != models.MetricSum && metric != models.MetricAvg {
		return nil, s.reject(op, models.Validation(models.CodeInvalid, "unknown group metric %q", metric))
	}
	var w *db.Window
	if rng != nil {
		from, to, err := points.RangeBounds(*rng, s.loc)
		if err != nil {
			return nil, s.reject(op, err)
		}
		w = &db.Window{From: from, To: to}
	}

	var fetch func(ctx context.Context) ([]models.RankRow, error)
	switch scope {
	case models.ScopeStudent, "":
		fetch = func(ctx context.Context) ([]models.RankRow, error) { return db.StudentRanking(ctx, s.db, w) }
	case models.ScopeGroup:
		fetch = func(ctx context.Context) ([]models.RankRow, error) { return db.GroupRanking(ctx, s.db, w, metric) }
	default:
		return nil, s.reject(op, models.Validation(models.CodeInvalid, "unknown ranking scope %q", scope))
	}

	rows, err := call(ctx, s, op, fetch)
	if err != nil {
		return nil, err
	}
	points.SortRanking(rows)
	return rows, nil
}

// Stats: сводка класса и ленты дня. Без day сводка по текущим балансам, ленты за сегодня.
func (s *Service) Stats(ctx context.Context, day *time.Time) (*models.Stats, error) {
	const op = "stats"
	d := s.now()
	if day != nil {
		d = *day
	}
	from, to := points.DayBounds(d, s.loc)
	w := db.Window{From: from, To: to}

	var balanceWindow *db.Window
	if day != nil {
		balanceWindow = &w
	}
	balances, err := call(ctx, s, op, func(ctx context.Context) ([]int, error) {
		return db.Balances(ctx, s.db, balanceWindow)
	})
	if err != nil {
		return nil, err
	}
	entries, err := call(ctx, s, op, func(ctx context.Context) ([]models.HistoryWithStudent, error) {
		return db.ApprovedInWindow(ctx, s.db, w)
	})
	if err != nil {
		return nil, err
	}

	st := &models.Stats{Day: from}
	st.Students, st.AvgPoints, st.MinPoints, st.MaxPoints = points.Summary(balances)
	st.Plus, st.Minus = points.CurateFeeds(entries)
	return st, nil
}

var eventPrefixes = []string{
	points.ReasonAuctionPrefix,
	points.ReasonBountyPrefix,
	points.ReasonRedeemPrefix,
	points.ReasonGroupRedeemPrefix,
}

// RecentEvents: последние обмены, выигрыши аукционов и закрытые испытания.
func (s *Service) RecentEvents(ctx context.Context, day *time.Time) ([]models.Event, error) {
	var w *db.Window
	if day != nil {
		from, to := points.DayBounds(*day, s.loc)
		w = &db.Window{From: from, To: to}
	}
	entries, err := call(ctx, s, "recent_events", func(ctx context.Context) ([]models.HistoryWithStudent, error) {
		return db.SettlementEntries(ctx, s.db, w, eventPrefixes)
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Event, 0, len(entries))
	for _, e := range entries {
		typ, reward, ok := points.ClassifyEvent(e.Reason)
		if !ok {
			continue
		}
		out = append(out, models.Event{Type: typ, RewardName: reward, WinnerName: e.StudentName, At: e.CreatedAt})
	}
	return out, nil
}

func (s *Service) StudentHistory(ctx context.Context, studentID int64) (*models.StudentHistory, error) {
	return call(ctx, s, "student_history", func(ctx context.Context) (*models.StudentHistory, error) {
		return db.StudentHistory(ctx, s.db, studentID)
	})
}

package ledger

import (
	"context"

	"go.uber.org/zap"

	"github.com/Spok95/class-points-bot/internal/db"
	"github.com/Spok95/class-points-bot/internal/metrics"
	"github.com/Spok95/class-points-bot/internal/models"
)

func (s *Service) ListPending(ctx context.Context) ([]models.HistoryWithStudent, error) {
	return call(ctx, s, "list_pending", func(ctx context.Context) ([]models.HistoryWithStudent, error) {
		return db.ListPending(ctx, s.db)
	})
}

// ProcessPending обрабатывает каждую заявку в своей транзакции и возвращает итог по каждой.
func (s *Service) ProcessPending(ctx context.Context, ids []int64, action models.AuditAction) ([]models.ProcessResult, error) {
	const op = "process_pending"
	if action != models.ActionApprove && action != models.ActionReject {
		return nil, s.reject(op, models.Validation(models.CodeInvalid, "unknown audit action %q", action))
	}

	out := make([]models.ProcessResult, 0, len(ids))
	for _, id := range ids {
		err := run(ctx, s, op, func(ctx context.Context) error {
			return db.ProcessEntry(ctx, s.db, id, action, s.now())
		})
		outcome := "ok"
		if err != nil {
			outcome = models.KindOf(err).String()
		}
		metrics.Audit.WithLabelValues(string(action), outcome).Inc()
		out = append(out, models.ProcessResult{EntryID: id, OK: err == nil, Err: err})
	}
	s.log.Info("pending processed", zap.String("action", string(action)), zap.Int("count", len(ids)))
	return out, nil
}

// ApproveAll одобряет всю текущую очередь.
func (s *Service) ApproveAll(ctx context.Context) ([]models.ProcessResult, error) {
	pending, err := s.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(pending))
	for _, p := range pending {
		ids = append(ids, p.ID)
	}
	return s.ProcessPending(ctx, ids, models.ActionApprove)
}

// CheckBalances сверяет кэш баланса с историей и обновляет метрику расхождений.
func (s *Service) CheckBalances(ctx context.Context) ([]models.BalanceMismatch, error) {
	mm, err := call(ctx, s, "check_balances", func(ctx context.Context) ([]models.BalanceMismatch, error) {
		return db.CheckBalances(ctx, s.db)
	})
	if err != nil {
		return nil, err
	}
	metrics.BalanceMismatches.Set(float64(len(mm)))
	for _, m := range mm {
		s.log.Warn("balance mismatch",
			zap.Int64("student_id", m.StudentID),
			zap.Int("cached", m.Cached),
			zap.Int("computed", m.Computed),
		)
	}
	return mm, nil
}

package ledger

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Spok95/class-points-bot/internal/db"
	"github.com/Spok95/class-points-bot/internal/metrics"
	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/Spok95/class-points-bot/internal/points"
)

// SubmitChange классифицирует заявку и записывает её. Базовое правило применяется
// сразу вместе с бонусами, обычная заявка уходит в очередь проверки.
func (s *Service) SubmitChange(ctx context.Context, req models.ChangeRequest) (models.SubmitResult, error) {
	const op = "submit_change"
	if err := validateStruct(req); err != nil {
		return models.SubmitResult{}, s.reject(op, err)
	}
	reason := points.SubmitReason(req.Reason)
	kind, err := points.Classify(req.Amount, reason, req.Kind)
	if err != nil {
		return models.SubmitResult{}, s.reject(op, err)
	}
	ids := points.UniqueIDs(req.StudentIDs)
	if kind == models.KindOrdinary && len(ids) == 0 {
		return models.SubmitResult{}, s.reject(op, models.Validation(models.CodeNoTargets, "ordinary change needs at least one student"))
	}

	submitter := strings.TrimSpace(req.Submitter)
	if submitter == "" {
		submitter = points.DefaultSubmitter
	}
	sub := db.Submission{
		Kind:       kind,
		Amount:     req.Amount,
		Reason:     reason,
		Submitter:  submitter,
		StudentIDs: ids,
		At:         s.now(),
	}
	if kind == models.KindBenchmark {
		sub.BonusReason = points.BonusReason(reason)
		sub.BonusTeacher = points.BonusTeacher(submitter)
		sub.BonusAmount = points.BenchmarkBonus
	}

	res, err := call(ctx, s, op, func(ctx context.Context) (models.SubmitResult, error) {
		return db.SubmitChange(ctx, s.db, sub)
	})
	if err != nil {
		return models.SubmitResult{}, err
	}
	metrics.Submissions.WithLabelValues(string(kind)).Inc()
	s.log.Info("change submitted",
		zap.String("kind", string(kind)),
		zap.Int("amount", req.Amount),
		zap.Int("approved", res.Approved),
		zap.Int("pending", res.Pending),
		zap.Int("bonused", res.Bonused),
	)
	return res, nil
}

// AdjustStudent: прямое начисление ученику без очереди.
func (s *Service) AdjustStudent(ctx context.Context, studentID int64, amount int, reason, teacher string) error {
	const op = "adjust_student"
	if err := checkAdjust(amount, reason); err != nil {
		return s.reject(op, err)
	}
	err := run(ctx, s, op, func(ctx context.Context) error {
		return db.AdjustStudent(ctx, s.db, studentID, amount, strings.TrimSpace(reason), teacher, s.now())
	})
	if err == nil {
		s.log.Info("student adjusted", zap.Int64("student_id", studentID), zap.Int("amount", amount))
	}
	return err
}

// AdjustGroup начисляет amount каждому участнику группы. Возвращает число участников.
func (s *Service) AdjustGroup(ctx context.Context, groupID int64, amount int, reason, teacher string) (int, error) {
	const op = "adjust_group"
	if err := checkAdjust(amount, reason); err != nil {
		return 0, s.reject(op, err)
	}
	n, err := call(ctx, s, op, func(ctx context.Context) (int, error) {
		return db.AdjustGroup(ctx, s.db, groupID, amount, strings.TrimSpace(reason), teacher, s.now())
	})
	if err == nil {
		s.log.Info("group adjusted", zap.Int64("group_id", groupID), zap.Int("amount", amount), zap.Int("members", n))
	}
	return n, err
}

func checkAdjust(amount int, reason string) error {
	if amount == 0 {
		return models.Validation(models.CodeZeroAmount, "change amount must not be zero")
	}
	if err := checkBound("change amount", amount); err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		return models.Validation(models.CodeInvalid, "reason must not be blank")
	}
	return nil
}

// checkBound: |v| не больше models.MaxPoints.
func checkBound(what string, v int) error {
	if v > models.MaxPoints || v < -models.MaxPoints {
		return models.Validation(models.CodeInvalid, "%s must be within ±%d, got %d", what, models.MaxPoints, v)
	}
	return nil
}

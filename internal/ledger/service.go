// Package ledger: операции над журналом баллов: заявки, проверка, рейтинги,
// аукционы, испытания и обмены. Проверяет вход, ставит таймауты БД,
// пишет логи и метрики, отправляет сбои хранилища в Sentry.
package ledger

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/class-points-bot/internal/ctxutil"
	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/Spok95/class-points-bot/internal/observability"
)

type Service struct {
	db  *sql.DB
	log *zap.Logger
	loc *time.Location
	now func() time.Time
}

type Option func(*Service)

// WithClock подменяет часы (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(database *sql.DB, log *zap.Logger, loc *time.Location, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	s := &Service{db: database, log: log, loc: loc, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Location() *time.Location { return s.loc }

// call выполняет операцию хранилища под таймаутом БД и фиксирует ошибку.
func call[T any](ctx context.Context, s *Service, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctxutil.WithOp(ctx, op))
	defer cancel()
	v, err := fn(ctx)
	if err != nil {
		s.report(op, err)
	}
	return v, err
}

func run(ctx context.Context, s *Service, op string, fn func(ctx context.Context) error) error {
	_, err := call(ctx, s, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// reject логирует отказ, который случился до обращения к БД.
func (s *Service) reject(op string, err error) error {
	s.report(op, err)
	return err
}

func (s *Service) report(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.String("code", models.CodeOf(err)), zap.Error(err))
	if models.KindOf(err) == models.KindStorage {
		s.log.Error("ledger operation failed", fields...)
		observability.CaptureOp(err, op, models.CodeOf(err))
		return
	}
	s.log.Info("ledger operation rejected", fields...)
}

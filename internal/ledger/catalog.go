package ledger

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Spok95/class-points-bot/internal/db"
	"github.com/Spok95/class-points-bot/internal/models"
)

func (s *Service) CreateStudent(ctx context.Context, in models.NewStudent) (int64, error) {
	const op = "create_student"
	if err := validateStruct(in); err != nil {
		return 0, s.reject(op, err)
	}
	return call(ctx, s, op, func(ctx context.Context) (int64, error) {
		return db.CreateStudent(ctx, s.db, in.Name, in.Code, in.GroupID)
	})
}

func (s *Service) ListStudents(ctx context.Context) ([]models.Student, error) {
	return call(ctx, s, "list_students", func(ctx context.Context) ([]models.Student, error) {
		return db.ListStudents(ctx, s.db)
	})
}

func (s *Service) UpdateStudent(ctx context.Context, id int64, in models.NewStudent) error {
	const op = "update_student"
	if err := validateStruct(in); err != nil {
		return s.reject(op, err)
	}
	return run(ctx, s, op, func(ctx context.Context) error {
		return db.UpdateStudent(ctx, s.db, id, in.Name, in.Code, in.GroupID)
	})
}

func (s *Service) DeleteStudent(ctx context.Context, id int64) error {
	err := run(ctx, s, "delete_student", func(ctx context.Context) error {
		return db.DeleteStudent(ctx, s.db, id)
	})
	if err == nil {
		s.log.Info("student deleted", zap.Int64("student_id", id))
	}
	return err
}

func (s *Service) CreateGroup(ctx context.Context, in models.NewGroup) (int64, error) {
	const op = "create_group"
	if err := validateStruct(in); err != nil {
		return 0, s.reject(op, err)
	}
	return call(ctx, s, op, func(ctx context.Context) (int64, error) {
		return db.CreateGroup(ctx, s.db, in.Name, in.Color)
	})
}

func (s *Service) ListGroups(ctx context.Context) ([]models.GroupSummary, error) {
	return call(ctx, s, "list_groups", func(ctx context.Context) ([]models.GroupSummary, error) {
		return db.ListGroups(ctx, s.db)
	})
}

func (s *Service) DeleteGroup(ctx context.Context, id int64) error {
	return run(ctx, s, "delete_group", func(ctx context.Context) error {
		return db.DeleteGroup(ctx, s.db, id)
	})
}

func (s *Service) CreateStandard(ctx context.Context, st models.PointStandard) (int64, error) {
	const op = "create_standard"
	if err := validateStruct(st); err != nil {
		return 0, s.reject(op, err)
	}
	return call(ctx, s, op, func(ctx context.Context) (int64, error) {
		return db.CreateStandard(ctx, s.db, st)
	})
}

func (s *Service) ListStandards(ctx context.Context, area string) ([]models.PointStandard, error) {
	return call(ctx, s, "list_standards", func(ctx context.Context) ([]models.PointStandard, error) {
		return db.ListStandards(ctx, s.db, area)
	})
}

func (s *Service) UpdateStandard(ctx context.Context, st models.PointStandard) error {
	const op = "update_standard"
	if err := validateStruct(st); err != nil {
		return s.reject(op, err)
	}
	return run(ctx, s, op, func(ctx context.Context) error {
		return db.UpdateStandard(ctx, s.db, st)
	})
}

func (s *Service) DeleteStandard(ctx context.Context, id int64) error {
	return run(ctx, s, "delete_standard", func(ctx context.Context) error {
		return db.DeleteStandard(ctx, s.db, id)
	})
}

func (s *Service) RenameCategory(ctx context.Context, area, oldName, newName string) (int, error) {
	const op = "rename_category"
	if strings.TrimSpace(newName) == "" {
		return 0, s.reject(op, models.Validation(models.CodeInvalid, "new category name must not be blank"))
	}
	return call(ctx, s, op, func(ctx context.Context) (int, error) {
		return db.RenameCategory(ctx, s.db, area, oldName, newName)
	})
}

// ResetStandards восстанавливает каталог по умолчанию.
func (s *Service) ResetStandards(ctx context.Context) (int, error) {
	n, err := call(ctx, s, "reset_standards", func(ctx context.Context) (int, error) {
		return db.ResetStandards(ctx, s.db)
	})
	if err == nil {
		s.log.Info("point standards reset", zap.Int("count", n))
	}
	return n, err
}

func (s *Service) CreateReward(ctx context.Context, r models.Reward) (int64, error) {
	const op = "create_reward"
	if err := validateStruct(r); err != nil {
		return 0, s.reject(op, err)
	}
	return call(ctx, s, op, func(ctx context.Context) (int64, error) {
		return db.CreateReward(ctx, s.db, r)
	})
}

func (s *Service) ListRewards(ctx context.Context, shopOnly bool) ([]models.Reward, error) {
	return call(ctx, s, "list_rewards", func(ctx context.Context) ([]models.Reward, error) {
		return db.ListRewards(ctx, s.db, shopOnly)
	})
}

func (s *Service) DeleteReward(ctx context.Context, id int64) error {
	return run(ctx, s, "delete_reward", func(ctx context.Context) error {
		return db.DeleteReward(ctx, s.db, id)
	})
}

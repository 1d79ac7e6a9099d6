package jobs

import (
	"context"
	"fmt"

	"github.com/Spok95/class-points-bot/internal/models"
)

// BalanceChecker сверяет кэш балансов с историей.
type BalanceChecker interface {
	CheckBalances(ctx context.Context) ([]models.BalanceMismatch, error)
}

// BalanceCheck: задача сверки; расхождения считаются ошибкой прогона.
func BalanceCheck(c BalanceChecker) Job {
	return func(ctx context.Context) error {
		mm, err := c.CheckBalances(ctx)
		if err != nil {
			return err
		}
		if len(mm) > 0 {
			return fmt.Errorf("balance check: %d students out of sync, first %d (cached %d, history %d)",
				len(mm), mm[0].StudentID, mm[0].Cached, mm[0].Computed)
		}
		return nil
	}
}

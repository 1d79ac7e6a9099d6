package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/Spok95/class-points-bot/internal/points"
)

const rewardCols = `id, name, description, points_cost, image_path, stock, is_special, is_group_reward, is_shop, created_at`

func scanReward(sc scanner) (models.Reward, error) {
	var r models.Reward
	err := sc.Scan(&r.ID, &r.Name, &r.Description, &r.PointsCost, &r.ImagePath, &r.Stock,
		&r.IsSpecial, &r.IsGroupReward, &r.IsShop, &r.CreatedAt)
	return r, err
}

func CreateReward(ctx context.Context, database *sql.DB, r models.Reward) (int64, error) {
	if r.Stock == 0 {
		r.Stock = models.DefaultRewardStock
	}
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO rewards (name, description, points_cost, image_path, stock, is_special, is_group_reward, is_shop)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		r.Name, r.Description, r.PointsCost, r.ImagePath, r.Stock, r.IsSpecial, r.IsGroupReward, r.IsShop).Scan(&id)
	if err != nil {
		return 0, mapErr("create reward", err)
	}
	return id, nil
}

// ListRewards: все награды или только витрина магазина.
func ListRewards(ctx context.Context, database *sql.DB, shopOnly bool) ([]models.Reward, error) {
	q := `SELECT ` + rewardCols + ` FROM rewards`
	if shopOnly {
		q += ` WHERE is_shop`
	}
	q += ` ORDER BY points_cost, id`

	rows, err := database.QueryContext(ctx, q)
	if err != nil {
		return nil, mapErr("list rewards", err)
	}
	defer rows.Close()

	var out []models.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, mapErr("scan reward", err)
		}
		out = append(out, r)
	}
	return out, mapErr("list rewards", rows.Err())
}

func GetReward(ctx context.Context, q Querier, id int64) (*models.Reward, error) {
	return getReward(ctx, q, id, false)
}

func getReward(ctx context.Context, q Querier, id int64, forUpdate bool) (*models.Reward, error) {
	query := `SELECT ` + rewardCols + ` FROM rewards WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	r, err := scanReward(q.QueryRowContext(ctx, query, id))
	if isNoRows(err) {
		return nil, models.NotFound("reward", id)
	}
	if err != nil {
		return nil, mapErr("get reward", err)
	}
	return &r, nil
}

func DeleteReward(ctx context.Context, database *sql.DB, id int64) error {
	res, err := database.ExecContext(ctx, `DELETE FROM rewards WHERE id = $1`, id)
	if err != nil {
		return mapErr("delete reward", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("reward", id)
	}
	return nil
}

// takeStock списывает одну единицу со склада.
func takeStock(ctx context.Context, tx *sql.Tx, rewardID int64) error {
	res, err := tx.ExecContext(ctx, `UPDATE rewards SET stock = stock - 1 WHERE id = $1 AND stock > 0`, rewardID)
	if err != nil {
		return mapErr("take stock", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return models.Conflict(models.CodeOutOfStock, "reward %d is out of stock", rewardID)
	}
	return nil
}

// RedeemReward: обмен баллов ученика на награду.
func RedeemReward(ctx context.Context, database *sql.DB, studentID, rewardID int64, at time.Time) error {
	return WithTx(ctx, database, func(tx *sql.Tx) error {
		rw, err := getReward(ctx, tx, rewardID, true)
		if err != nil {
			return err
		}
		if rw.Stock <= 0 {
			return models.Conflict(models.CodeOutOfStock, "reward %q is out of stock", rw.Name)
		}
		var balance int
		err = tx.QueryRowContext(ctx, `SELECT points FROM students WHERE id = $1 FOR UPDATE`, studentID).Scan(&balance)
		if isNoRows(err) {
			return models.NotFound("student", studentID)
		}
		if err != nil {
			return mapErr("student balance", err)
		}
		var dup bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM redemptions WHERE student_id = $1 AND reward_id = $2)`,
			studentID, rewardID).Scan(&dup)
		if err != nil {
			return mapErr("check redemption", err)
		}
		if dup {
			return models.Conflict(models.CodeAlreadyRedeemed, "student %d already redeemed %q", studentID, rw.Name)
		}
		if balance < rw.PointsCost {
			return models.Conflict(models.CodeInsufficientPoints, "balance %d is below cost %d", balance, rw.PointsCost)
		}

		if err := applyDelta(ctx, tx, studentID, -rw.PointsCost); err != nil {
			return err
		}
		if err := takeStock(ctx, tx, rewardID); err != nil {
			return err
		}
		if rw.PointsCost != 0 {
			if err := insertHistory(ctx, tx, studentID, -rw.PointsCost, points.ReasonRedeemPrefix+rw.Name,
				points.TeacherSystem, models.StatusApproved, &rw.ID, at); err != nil {
				return err
			}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO redemptions (student_id, reward_id, redeemed_at) VALUES ($1, $2, $3)`,
			studentID, rewardID, at)
		if sqlState(err) == pgUniqueViolation {
			return models.Conflict(models.CodeAlreadyRedeemed, "student %d already redeemed %q", studentID, rw.Name)
		}
		return mapErr("insert redemption", err)
	})
}

// RedeemGroupReward списывает с каждого участника max(1, cost/n).
func RedeemGroupReward(ctx context.Context, database *sql.DB, groupID, rewardID int64, at time.Time) (models.GroupRedeemResult, error) {
	var out models.GroupRedeemResult
	err := WithTx(ctx, database, func(tx *sql.Tx) error {
		if _, err := GetGroup(ctx, tx, groupID); err != nil {
			return err
		}
		rw, err := getReward(ctx, tx, rewardID, true)
		if err != nil {
			return err
		}
		if rw.Stock <= 0 {
			return models.Conflict(models.CodeOutOfStock, "reward %q is out of stock", rw.Name)
		}
		ms, err := groupMembers(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if len(ms) == 0 {
			return models.Validation(models.CodeNoTargets, "group %d has no members", groupID)
		}
		per := points.GroupRedeemCost(rw.PointsCost, len(ms))
		for _, m := range ms {
			if m.Points < per {
				return models.Conflict(models.CodeInsufficientPoints, "%s has %d, needs %d", m.Name, m.Points, per)
			}
		}
		reason := points.ReasonGroupRedeemPrefix + rw.Name
		for _, m := range ms {
			if err := applyDelta(ctx, tx, m.ID, -per); err != nil {
				return err
			}
			if err := insertHistory(ctx, tx, m.ID, -per, reason, points.TeacherSystem, models.StatusApproved, &rw.ID, at); err != nil {
				return err
			}
		}
		if err := takeStock(ctx, tx, rewardID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO group_redemptions (group_id, reward_id, redeemed_at) VALUES ($1, $2, $3)`,
			groupID, rewardID, at); err != nil {
			return mapErr("insert group redemption", err)
		}
		out = models.GroupRedeemResult{Members: len(ms), PerStudent: per, Total: per * len(ms)}
		return insertGroupHistory(ctx, tx, groupID, -out.Total, reason, points.TeacherSystem, at)
	})
	return out, err
}

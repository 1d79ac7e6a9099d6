package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/Spok95/class-points-bot/internal/points"
	"github.com/lib/pq"
)

const bountySelect = `
	SELECT b.id, b.reward_id, r.name, r.points_cost, r.stock, b.target_points, b.allowed_reasons,
	       b.start_date, b.end_date, b.type, b.description, b.status, b.winner_id, b.created_at, b.finished_at
	FROM bounties b
	JOIN rewards r ON r.id = b.reward_id`

func scanBounty(sc scanner) (models.Bounty, error) {
	var (
		b       models.Bounty
		allowed string
	)
	err := sc.Scan(&b.ID, &b.RewardID, &b.RewardName, &b.RewardCost, &b.RewardStock, &b.TargetPoints, &allowed,
		&b.StartDate, &b.EndDate, &b.Type, &b.Description, &b.Status, &b.WinnerID, &b.CreatedAt, &b.FinishedAt)
	b.AllowedReasons = points.ParseAllowedReasons(allowed)
	return b, err
}

// dateArg: календарная дата как текст, чтобы драйвер не сдвигал её по часовому поясу.
func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func StartBounty(ctx context.Context, database *sql.DB, nb models.NewBounty, at time.Time) (int64, error) {
	if _, err := GetReward(ctx, database, nb.RewardID); err != nil {
		return 0, err
	}
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO bounties (reward_id, target_points, allowed_reasons, start_date, end_date, type, description, status, created_at)
		VALUES ($1, $2, $3, $4::date, $5::date, $6, $7, 'active', $8)
		RETURNING id`,
		nb.RewardID, nb.TargetPoints, points.JoinAllowedReasons(nb.AllowedReasons),
		dateArg(nb.StartDate), dateArg(nb.EndDate), string(nb.Type), nb.Description, at).Scan(&id)
	if err != nil {
		return 0, mapErr("insert bounty", err)
	}
	return id, nil
}

// ActiveBounties: активные испытания, срок которых не истёк к today.
func ActiveBounties(ctx context.Context, database *sql.DB, today time.Time) ([]models.Bounty, error) {
	rows, err := database.QueryContext(ctx, bountySelect+`
		WHERE b.status = 'active' AND (b.end_date IS NULL OR b.end_date >= $1::date)
		ORDER BY b.created_at, b.id`, dateArg(&today))
	if err != nil {
		return nil, mapErr("active bounties", err)
	}
	defer rows.Close()

	var out []models.Bounty
	for rows.Next() {
		b, err := scanBounty(rows)
		if err != nil {
			return nil, mapErr("scan bounty", err)
		}
		out = append(out, b)
	}
	return out, mapErr("active bounties", rows.Err())
}

func GetBounty(ctx context.Context, q Querier, id int64) (*models.Bounty, error) {
	b, err := scanBounty(q.QueryRowContext(ctx, bountySelect+` WHERE b.id = $1`, id))
	if isNoRows(err) {
		return nil, models.NotFound("bounty", id)
	}
	if err != nil {
		return nil, mapErr("get bounty", err)
	}
	return &b, nil
}

// BountyLeaders суммирует одобренные плюсы по правилам испытания, без сортировки.
// Окно w, если задано, ограничивает записи по времени создания.
func BountyLeaders(ctx context.Context, database *sql.DB, b models.Bounty, w *Window) ([]models.Leader, error) {
	var q string
	if b.Type == models.BountyGroup {
		q = `
		SELECT g.id, g.name, SUM(h.change_amount)
		FROM groups g
		JOIN students s ON s.group_id = g.id
		JOIN points_history h ON h.student_id = s.id
		WHERE h.status = 'approved' AND h.change_amount > 0`
	} else {
		q = `
		SELECT s.id, s.name, SUM(h.change_amount)
		FROM students s
		JOIN points_history h ON h.student_id = s.id
		WHERE h.status = 'approved' AND h.change_amount > 0`
	}
	var args []any
	if len(b.AllowedReasons) > 0 {
		args = append(args, pq.Array(b.AllowedReasons))
		q += fmt.Sprintf(` AND h.reason = ANY($%d)`, len(args))
	}
	if w.active() {
		args = append(args, w.From, w.To)
		q += fmt.Sprintf(` AND h.created_at >= $%d AND h.created_at < $%d`, len(args)-1, len(args))
	}
	if b.Type == models.BountyGroup {
		q += ` GROUP BY g.id, g.name`
	} else {
		q += ` GROUP BY s.id, s.name`
	}

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapErr("bounty leaders", err)
	}
	defer rows.Close()

	var out []models.Leader
	for rows.Next() {
		var l models.Leader
		if err := rows.Scan(&l.ID, &l.Name, &l.Points); err != nil {
			return nil, mapErr("scan leader", err)
		}
		out = append(out, l)
	}
	return out, mapErr("bounty leaders", rows.Err())
}

// CommitBountySettlement применяет утверждённый план и закрывает испытание.
func CommitBountySettlement(ctx context.Context, database *sql.DB, bountyID, winnerID int64, plan []models.PlanItem, at time.Time) error {
	return WithTx(ctx, database, func(tx *sql.Tx) error {
		var (
			status   string
			typ      string
			rewardID int64
			cost     int
			name     string
		)
		err := tx.QueryRowContext(ctx, `
			SELECT b.status, b.type, b.reward_id, r.points_cost, r.name
			FROM bounties b
			JOIN rewards r ON r.id = b.reward_id
			WHERE b.id = $1
			FOR UPDATE OF b`, bountyID).Scan(&status, &typ, &rewardID, &cost, &name)
		if isNoRows(err) {
			return models.NotFound("bounty", bountyID)
		}
		if err != nil {
			return mapErr("lock bounty", err)
		}
		if models.BountyStatus(status) != models.BountyActive {
			return models.Conflict(models.CodeNotActive, "bounty %d is %s", bountyID, status)
		}
		if err := points.ValidatePlan(plan, cost); err != nil {
			return err
		}

		ids := make([]int64, 0, len(plan))
		for _, it := range plan {
			ids = append(ids, it.StudentID)
		}
		if err := lockStudents(ctx, tx, ids); err != nil {
			return err
		}

		group := models.BountyType(typ) == models.BountyGroup
		if group {
			if _, err := GetGroup(ctx, tx, winnerID); err != nil {
				return err
			}
			var outsiders int
			err := tx.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM students
				WHERE id = ANY($1) AND group_id IS DISTINCT FROM $2`, pq.Array(ids), winnerID).Scan(&outsiders)
			if err != nil {
				return mapErr("check plan members", err)
			}
			if outsiders > 0 {
				return models.Validation(models.CodeInvalid, "plan has %d students outside group %d", outsiders, winnerID)
			}
		} else if len(plan) != 1 || plan[0].StudentID != winnerID {
			return models.Validation(models.CodeInvalid, "individual plan must charge only the winner %d", winnerID)
		}

		reason := points.ReasonBountyPrefix + name
		for _, it := range plan {
			if it.Deduct == 0 {
				continue
			}
			if err := applyDelta(ctx, tx, it.StudentID, -it.Deduct); err != nil {
				return err
			}
			if err := insertHistory(ctx, tx, it.StudentID, -it.Deduct, reason, points.TeacherBounty,
				models.StatusApproved, &rewardID, at); err != nil {
				return err
			}
		}
		if group {
			if err := insertGroupHistory(ctx, tx, winnerID, -cost, reason, points.TeacherBounty, at); err != nil {
				return err
			}
		}
		if err := takeStock(ctx, tx, rewardID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE bounties SET status = 'finished', winner_id = $2, finished_at = $3
			WHERE id = $1`, bountyID, winnerID, at)
		return mapErr("finish bounty", err)
	})
}

package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/lib/pq"
)

const historyCols = `h.id, h.student_id, h.change_amount, h.reason, h.teacher, h.status, h.reward_id, h.created_at, h.reviewed_at`

func scanHistory(sc scanner, extra ...any) (models.HistoryEntry, error) {
	var e models.HistoryEntry
	dest := append([]any{&e.ID, &e.StudentID, &e.Amount, &e.Reason, &e.Teacher, &e.Status, &e.RewardID, &e.CreatedAt, &e.ReviewedAt}, extra...)
	err := sc.Scan(dest...)
	return e, err
}

func insertHistory(ctx context.Context, tx *sql.Tx, studentID int64, amount int, reason, teacher string, status models.Status, rewardID *int64, at time.Time) error {
	var reviewed *time.Time
	if status != models.StatusPending {
		reviewed = &at
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO points_history (student_id, change_amount, reason, teacher, status, reward_id, created_at, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		studentID, amount, reason, teacher, string(status), rewardID, at, reviewed)
	return mapErr("insert history", err)
}

func insertGroupHistory(ctx context.Context, tx *sql.Tx, groupID int64, amount int, reason, teacher string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO group_points_history (group_id, change_amount, reason, teacher, created_at)
		VALUES ($1, $2, $3, $4, $5)`, groupID, amount, reason, teacher, at)
	return mapErr("insert group history", err)
}

// applyDelta меняет кэшированный баланс ученика.
func applyDelta(ctx context.Context, tx *sql.Tx, studentID int64, delta int) error {
	res, err := tx.ExecContext(ctx, `UPDATE students SET points = points + $1 WHERE id = $2`, delta, studentID)
	if err != nil {
		return mapErr("apply delta", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return models.NotFound("student", studentID)
	}
	return nil
}

// Submission: уже классифицированная заявка.
type Submission struct {
	Kind       models.ChangeKind
	Amount     int
	Reason     string
	Submitter  string
	StudentIDs []int64
	// BonusReason и BonusTeacher заполняются только для базового правила.
	BonusReason  string
	BonusTeacher string
	BonusAmount  int
	At           time.Time
}

// SubmitChange записывает заявку одной транзакцией. Для базового правила
// цели получают штраф, все остальные ученики получают бонус. Обычная заявка уходит на проверку.
func SubmitChange(ctx context.Context, database *sql.DB, sub Submission) (models.SubmitResult, error) {
	res := models.SubmitResult{Kind: sub.Kind}
	ids := sub.StudentIDs
	if ids == nil {
		ids = []int64{}
	}

	err := WithTx(ctx, database, func(tx *sql.Tx) error {
		if err := lockStudents(ctx, tx, ids); err != nil {
			return err
		}

		if sub.Kind != models.KindBenchmark {
			for _, id := range ids {
				if err := insertHistory(ctx, tx, id, sub.Amount, sub.Reason, sub.Submitter, models.StatusPending, nil, sub.At); err != nil {
					return err
				}
			}
			res.Pending = len(ids)
			return nil
		}

		for _, id := range ids {
			if err := insertHistory(ctx, tx, id, sub.Amount, sub.Reason, sub.Submitter, models.StatusApproved, nil, sub.At); err != nil {
				return err
			}
			if err := applyDelta(ctx, tx, id, sub.Amount); err != nil {
				return err
			}
		}
		res.Approved = len(ids)

		// баланс и история остальных меняются одним оператором
		r, err := tx.ExecContext(ctx, `
			WITH bumped AS (
				UPDATE students SET points = points + $2
				WHERE id <> ALL($1)
				RETURNING id
			)
			INSERT INTO points_history (student_id, change_amount, reason, teacher, status, created_at, reviewed_at)
			SELECT id, $2, $3, $4, 'approved', $5, $5 FROM bumped`,
			pq.Array(ids), sub.BonusAmount, sub.BonusReason, sub.BonusTeacher, sub.At)
		if err != nil {
			return mapErr("benchmark bonus", err)
		}
		n, _ := r.RowsAffected()
		res.Bonused = int(n)
		return nil
	})
	if err != nil {
		return models.SubmitResult{}, err
	}
	return res, nil
}

// ListPending: заявки на проверке, старые первыми.
func ListPending(ctx context.Context, database *sql.DB) ([]models.HistoryWithStudent, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT `+historyCols+`, s.name
		FROM points_history h
		JOIN students s ON s.id = h.student_id
		WHERE h.status = 'pending'
		ORDER BY h.created_at, h.id`)
	if err != nil {
		return nil, mapErr("list pending", err)
	}
	defer rows.Close()

	var out []models.HistoryWithStudent
	for rows.Next() {
		var name string
		e, err := scanHistory(rows, &name)
		if err != nil {
			return nil, mapErr("scan pending", err)
		}
		out = append(out, models.HistoryWithStudent{HistoryEntry: e, StudentName: name})
	}
	return out, mapErr("list pending", rows.Err())
}

// ProcessEntry переводит заявку из pending ровно один раз. Одобрение меняет баланс.
func ProcessEntry(ctx context.Context, database *sql.DB, id int64, action models.AuditAction, at time.Time) error {
	status := models.StatusApproved
	if action == models.ActionReject {
		status = models.StatusRejected
	}
	return WithTx(ctx, database, func(tx *sql.Tx) error {
		var studentID int64
		var amount int
		err := tx.QueryRowContext(ctx, `
			UPDATE points_history
			SET status = $1, reviewed_at = $2
			WHERE id = $3 AND status = 'pending'
			RETURNING student_id, change_amount`, string(status), at, id).Scan(&studentID, &amount)
		if isNoRows(err) {
			var cur string
			err := tx.QueryRowContext(ctx, `SELECT status FROM points_history WHERE id = $1`, id).Scan(&cur)
			if isNoRows(err) {
				return models.NotFound("history entry", id)
			}
			if err != nil {
				return mapErr("entry status", err)
			}
			return models.Conflict(models.CodeNotPending, "entry %d is already %s", id, cur)
		}
		if err != nil {
			return mapErr("process entry", err)
		}
		if status == models.StatusApproved {
			return applyDelta(ctx, tx, studentID, amount)
		}
		return nil
	})
}

// AdjustStudent: прямое начисление, сразу одобрено.
func AdjustStudent(ctx context.Context, database *sql.DB, studentID int64, amount int, reason, teacher string, at time.Time) error {
	return WithTx(ctx, database, func(tx *sql.Tx) error {
		if err := lockStudents(ctx, tx, []int64{studentID}); err != nil {
			return err
		}
		if err := insertHistory(ctx, tx, studentID, amount, reason, teacher, models.StatusApproved, nil, at); err != nil {
			return err
		}
		return applyDelta(ctx, tx, studentID, amount)
	})
}

// AdjustGroup начисляет каждому участнику и пишет итог в историю группы.
func AdjustGroup(ctx context.Context, database *sql.DB, groupID int64, amount int, reason, teacher string, at time.Time) (int, error) {
	var members int
	err := WithTx(ctx, database, func(tx *sql.Tx) error {
		if _, err := GetGroup(ctx, tx, groupID); err != nil {
			return err
		}
		ms, err := groupMembers(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if len(ms) == 0 {
			return models.Validation(models.CodeNoTargets, "group %d has no members", groupID)
		}
		for _, m := range ms {
			if err := insertHistory(ctx, tx, m.ID, amount, reason, teacher, models.StatusApproved, nil, at); err != nil {
				return err
			}
			if err := applyDelta(ctx, tx, m.ID, amount); err != nil {
				return err
			}
		}
		members = len(ms)
		return insertGroupHistory(ctx, tx, groupID, amount*members, reason, teacher, at)
	})
	return members, err
}

// StudentHistory: последние 20 одобренных записей и текущее место в рейтинге.
func StudentHistory(ctx context.Context, database *sql.DB, studentID int64) (*models.StudentHistory, error) {
	st, err := GetStudent(ctx, database, studentID)
	if err != nil {
		return nil, err
	}

	var better int
	err = database.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM students
		WHERE points > $1 OR (points = $1 AND (name < $2 OR (name = $2 AND id < $3)))`,
		st.Points, st.Name, st.ID).Scan(&better)
	if err != nil {
		return nil, mapErr("student rank", err)
	}

	rows, err := database.QueryContext(ctx, `
		SELECT `+historyCols+`
		FROM points_history h
		WHERE h.student_id = $1 AND h.status = 'approved'
		ORDER BY h.created_at DESC, h.id DESC
		LIMIT 20`, studentID)
	if err != nil {
		return nil, mapErr("student history", err)
	}
	defer rows.Close()

	out := &models.StudentHistory{StudentID: st.ID, Name: st.Name, Points: st.Points, Rank: better + 1}
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, mapErr("scan history", err)
		}
		out.History = append(out.History, e)
	}
	return out, mapErr("student history", rows.Err())
}

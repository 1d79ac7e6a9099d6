package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/lib/pq"
)

// Window: полуоткрытый интервал [From, To). Нулевой Window означает «без окна».
type Window struct {
	From time.Time
	To   time.Time
}

func (w *Window) active() bool { return w != nil && !w.From.IsZero() }

// StudentRanking возвращает строки рейтинга учеников без сортировки.
func StudentRanking(ctx context.Context, database *sql.DB, w *Window) ([]models.RankRow, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if w.active() {
		rows, err = database.QueryContext(ctx, `
			SELECT s.id, s.name, s.student_code, COALESCE(g.name, ''), COALESCE(SUM(h.change_amount), 0)::float8
			FROM students s
			LEFT JOIN groups g ON g.id = s.group_id
			LEFT JOIN points_history h
			       ON h.student_id = s.id
			      AND h.status = 'approved'
			      AND h.created_at >= $1 AND h.created_at < $2
			GROUP BY s.id, s.name, s.student_code, g.name`, w.From, w.To)
	} else {
		rows, err = database.QueryContext(ctx, `
			SELECT s.id, s.name, s.student_code, COALESCE(g.name, ''), s.points::float8
			FROM students s
			LEFT JOIN groups g ON g.id = s.group_id`)
	}
	if err != nil {
		return nil, mapErr("student ranking", err)
	}
	defer rows.Close()

	var out []models.RankRow
	for rows.Next() {
		var r models.RankRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Code, &r.Group, &r.Points); err != nil {
			return nil, mapErr("scan ranking", err)
		}
		out = append(out, r)
	}
	return out, mapErr("student ranking", rows.Err())
}

// GroupRanking: сумма или средний балл участников; в окне, по истории.
func GroupRanking(ctx context.Context, database *sql.DB, w *Window, metric models.GroupMetric) ([]models.RankRow, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if w.active() {
		rows, err = database.QueryContext(ctx, `
			SELECT g.id, g.name, g.color,
			       COALESCE(SUM(h.change_amount), 0)::float8,
			       COUNT(DISTINCT s.id)
			FROM groups g
			LEFT JOIN students s ON s.group_id = g.id
			LEFT JOIN points_history h
			       ON h.student_id = s.id
			      AND h.status = 'approved'
			      AND h.created_at >= $1 AND h.created_at < $2
			GROUP BY g.id, g.name, g.color`, w.From, w.To)
	} else {
		rows, err = database.QueryContext(ctx, `
			SELECT g.id, g.name, g.color,
			       COALESCE(SUM(s.points), 0)::float8,
			       COUNT(s.id)
			FROM groups g
			LEFT JOIN students s ON s.group_id = g.id
			GROUP BY g.id, g.name, g.color`)
	}
	if err != nil {
		return nil, mapErr("group ranking", err)
	}
	defer rows.Close()

	var out []models.RankRow
	for rows.Next() {
		var (
			r       models.RankRow
			members int
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Color, &r.Points, &members); err != nil {
			return nil, mapErr("scan group ranking", err)
		}
		if metric == models.MetricAvg {
			if members > 0 {
				r.Points /= float64(members)
			} else {
				r.Points = 0
			}
		}
		out = append(out, r)
	}
	return out, mapErr("group ranking", rows.Err())
}

// Balances: кэшированные балансы либо суммы одобренных записей в окне по всем ученикам.
func Balances(ctx context.Context, database *sql.DB, w *Window) ([]int, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if w.active() {
		rows, err = database.QueryContext(ctx, `
			SELECT COALESCE(SUM(h.change_amount), 0)
			FROM students s
			LEFT JOIN points_history h
			       ON h.student_id = s.id
			      AND h.status = 'approved'
			      AND h.created_at >= $1 AND h.created_at < $2
			GROUP BY s.id`, w.From, w.To)
	} else {
		rows, err = database.QueryContext(ctx, `SELECT points FROM students`)
	}
	if err != nil {
		return nil, mapErr("balances", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var b int
		if err := rows.Scan(&b); err != nil {
			return nil, mapErr("scan balance", err)
		}
		out = append(out, b)
	}
	return out, mapErr("balances", rows.Err())
}

// ApprovedInWindow: одобренные записи окна с именами, новые первыми.
func ApprovedInWindow(ctx context.Context, database *sql.DB, w Window) ([]models.HistoryWithStudent, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT `+historyCols+`, s.name
		FROM points_history h
		JOIN students s ON s.id = h.student_id
		WHERE h.status = 'approved'
		  AND h.created_at >= $1 AND h.created_at < $2
		ORDER BY h.created_at DESC, h.id DESC`, w.From, w.To)
	if err != nil {
		return nil, mapErr("approved in window", err)
	}
	defer rows.Close()

	var out []models.HistoryWithStudent
	for rows.Next() {
		var name string
		e, err := scanHistory(rows, &name)
		if err != nil {
			return nil, mapErr("scan history", err)
		}
		out = append(out, models.HistoryWithStudent{HistoryEntry: e, StudentName: name})
	}
	return out, mapErr("approved in window", rows.Err())
}

// SettlementEntries: последние 20 списаний за обмены, аукционы и испытания.
func SettlementEntries(ctx context.Context, database *sql.DB, w *Window, prefixes []string) ([]models.HistoryWithStudent, error) {
	q := `
		SELECT ` + historyCols + `, s.name
		FROM points_history h
		JOIN students s ON s.id = h.student_id
		WHERE h.change_amount < 0
		  AND h.status = 'approved'
		  AND h.reason LIKE ANY($1)`
	patterns := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		patterns = append(patterns, escapeLike(p)+"%")
	}
	args := []any{pq.Array(patterns)}
	if w.active() {
		q += ` AND h.created_at >= $2 AND h.created_at < $3`
		args = append(args, w.From, w.To)
	}
	q += ` ORDER BY h.created_at DESC, h.id DESC LIMIT 20`

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapErr("settlement entries", err)
	}
	defer rows.Close()

	var out []models.HistoryWithStudent
	for rows.Next() {
		var name string
		e, err := scanHistory(rows, &name)
		if err != nil {
			return nil, mapErr("scan history", err)
		}
		out = append(out, models.HistoryWithStudent{HistoryEntry: e, StudentName: name})
	}
	return out, mapErr("settlement entries", rows.Err())
}

// CheckBalances: ученики, у которых кэш не равен сумме одобренной истории.
func CheckBalances(ctx context.Context, database *sql.DB) ([]models.BalanceMismatch, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT s.id, s.name, s.points, COALESCE(SUM(h.change_amount), 0)
		FROM students s
		LEFT JOIN points_history h ON h.student_id = s.id AND h.status = 'approved'
		GROUP BY s.id, s.name, s.points
		HAVING s.points <> COALESCE(SUM(h.change_amount), 0)
		ORDER BY s.id`)
	if err != nil {
		return nil, mapErr("check balances", err)
	}
	defer rows.Close()

	var out []models.BalanceMismatch
	for rows.Next() {
		var m models.BalanceMismatch
		if err := rows.Scan(&m.StudentID, &m.Name, &m.Cached, &m.Computed); err != nil {
			return nil, mapErr("scan mismatch", err)
		}
		out = append(out, m)
	}
	return out, mapErr("check balances", rows.Err())
}

package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/Spok95/class-points-bot/internal/points"
	"github.com/lib/pq"
)

const studentCols = `s.id, s.name, s.student_code, s.group_id, g.name, s.points, s.created_at`

func scanStudent(sc scanner) (models.Student, error) {
	var st models.Student
	err := sc.Scan(&st.ID, &st.Name, &st.Code, &st.GroupID, &st.GroupName, &st.Points, &st.CreatedAt)
	return st, err
}

func CreateStudent(ctx context.Context, database *sql.DB, name, code string, groupID *int64) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO students (name, student_code, group_id)
		VALUES ($1, $2, $3)
		RETURNING id`, strings.TrimSpace(name), strings.TrimSpace(code), groupID).Scan(&id)
	if err != nil {
		return 0, mapErr("create student", err)
	}
	return id, nil
}

// ListStudents: все ученики с названием группы, по имени.
func ListStudents(ctx context.Context, database *sql.DB) ([]models.Student, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT `+studentCols+`
		FROM students s
		LEFT JOIN groups g ON g.id = s.group_id
		ORDER BY s.name, s.id`)
	if err != nil {
		return nil, mapErr("list students", err)
	}
	defer rows.Close()

	var out []models.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, mapErr("scan student", err)
		}
		out = append(out, st)
	}
	return out, mapErr("list students", rows.Err())
}

func GetStudent(ctx context.Context, q Querier, id int64) (*models.Student, error) {
	st, err := scanStudent(q.QueryRowContext(ctx, `
		SELECT `+studentCols+`
		FROM students s
		LEFT JOIN groups g ON g.id = s.group_id
		WHERE s.id = $1`, id))
	if isNoRows(err) {
		return nil, models.NotFound("student", id)
	}
	if err != nil {
		return nil, mapErr("get student", err)
	}
	return &st, nil
}

func UpdateStudent(ctx context.Context, database *sql.DB, id int64, name, code string, groupID *int64) error {
	res, err := database.ExecContext(ctx, `
		UPDATE students SET name = $1, student_code = $2, group_id = $3
		WHERE id = $4`, strings.TrimSpace(name), strings.TrimSpace(code), groupID, id)
	if err != nil {
		return mapErr("update student", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("student", id)
	}
	return nil
}

// DeleteStudent удаляет ученика вместе с историей и обменами (каскад).
func DeleteStudent(ctx context.Context, database *sql.DB, id int64) error {
	res, err := database.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return mapErr("delete student", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("student", id)
	}
	return nil
}

// lockStudents блокирует строки учеников и проверяет, что все существуют.
func lockStudents(ctx context.Context, tx *sql.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := tx.QueryContext(ctx, `SELECT id FROM students WHERE id = ANY($1) FOR UPDATE`, pq.Array(ids))
	if err != nil {
		return mapErr("lock students", err)
	}
	defer rows.Close()

	found := make(map[int64]struct{}, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return mapErr("scan student id", err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return mapErr("lock students", err)
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return models.NotFound("student", id)
		}
	}
	return nil
}

func CreateGroup(ctx context.Context, database *sql.DB, name, color string) (int64, error) {
	if strings.TrimSpace(color) == "" {
		color = models.DefaultGroupColor
	}
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO groups (name, color) VALUES ($1, $2) RETURNING id`,
		strings.TrimSpace(name), color).Scan(&id)
	if err != nil {
		return 0, mapErr("create group", err)
	}
	return id, nil
}

// ListGroups: группы с числом участников и средним баллом.
func ListGroups(ctx context.Context, database *sql.DB) ([]models.GroupSummary, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT g.id, g.name, g.color,
		       COUNT(s.id),
		       COALESCE(AVG(s.points), 0)::float8,
		       COALESCE(SUM(s.points), 0)
		FROM groups g
		LEFT JOIN students s ON s.group_id = g.id
		GROUP BY g.id, g.name, g.color
		ORDER BY g.name`)
	if err != nil {
		return nil, mapErr("list groups", err)
	}
	defer rows.Close()

	var out []models.GroupSummary
	for rows.Next() {
		var gs models.GroupSummary
		if err := rows.Scan(&gs.ID, &gs.Name, &gs.Color, &gs.StudentCount, &gs.AvgPoints, &gs.TotalPoints); err != nil {
			return nil, mapErr("scan group", err)
		}
		out = append(out, gs)
	}
	return out, mapErr("list groups", rows.Err())
}

func GetGroup(ctx context.Context, q Querier, id int64) (*models.Group, error) {
	var g models.Group
	err := q.QueryRowContext(ctx, `SELECT id, name, color FROM groups WHERE id = $1`, id).
		Scan(&g.ID, &g.Name, &g.Color)
	if isNoRows(err) {
		return nil, models.NotFound("group", id)
	}
	if err != nil {
		return nil, mapErr("get group", err)
	}
	return &g, nil
}

// DeleteGroup удаляет группу; участники остаются без группы.
func DeleteGroup(ctx context.Context, database *sql.DB, id int64) error {
	res, err := database.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return mapErr("delete group", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("group", id)
	}
	return nil
}

// groupMembers возвращает участников группы под блокировкой строк.
func groupMembers(ctx context.Context, tx *sql.Tx, groupID int64) ([]points.Member, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, points FROM students
		WHERE group_id = $1
		ORDER BY id
		FOR UPDATE`, groupID)
	if err != nil {
		return nil, mapErr("group members", err)
	}
	defer rows.Close()

	var out []points.Member
	for rows.Next() {
		var m points.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Points); err != nil {
			return nil, mapErr("scan member", err)
		}
		out = append(out, m)
	}
	return out, mapErr("group members", rows.Err())
}

// GroupMembers: участники группы без блокировки, для предпросмотра.
func GroupMembers(ctx context.Context, q Querier, groupID int64) ([]points.Member, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, points FROM students WHERE group_id = $1 ORDER BY id`, groupID)
	if err != nil {
		return nil, mapErr("group members", err)
	}
	defer rows.Close()

	var out []points.Member
	for rows.Next() {
		var m points.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Points); err != nil {
			return nil, mapErr("scan member", err)
		}
		out = append(out, m)
	}
	return out, mapErr("group members", rows.Err())
}

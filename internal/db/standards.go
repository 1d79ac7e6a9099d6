package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Spok95/class-points-bot/internal/models"
)

// DefaultStandards: каталог причин по умолчанию.
func DefaultStandards() []models.PointStandard {
	var out []models.PointStandard
	add := func(area, cat, name string, pts int) {
		out = append(out, models.PointStandard{Area: area, Category: cat, Name: name, DefaultPoints: pts})
	}

	for _, sub := range []string{"Literature", "Math", "English", "Physics", "Chemistry", "Biology", "Civics", "History", "Geography"} {
		add(models.AreaAcademic, sub, "Homework missing or copied", -10)
		add(models.AreaAcademic, sub, "Failed quiz or unit test", -10)
		add(models.AreaAcademic, sub, "Off-task in class", -5)
		add(models.AreaAcademic, sub, "No notes or textbook", -2)
	}
	for _, cat := range []string{"Morning study", "Noon rest", "Evening study", "Attendance", "Group activity"} {
		add(models.AreaClass, cat, "Late or left early", -5)
		add(models.AreaClass, cat, "Truancy", -20)
		add(models.AreaClass, cat, "Noise or horseplay", -10)
	}
	for _, cat := range []string{"School contest", "Sports", "Arts", "Community service"} {
		add(models.AreaActivity, cat, "Represented the class", 5)
		add(models.AreaActivity, cat, "School-level award", 15)
		add(models.AreaActivity, cat, "City-level honor or higher", 50)
	}
	for _, cat := range []string{"Role model", "Class duty", "Peer help"} {
		add(models.AreaCustom, cat, "Returned lost property", 20)
		add(models.AreaCustom, cat, "Extra cleaning", 5)
		add(models.AreaCustom, cat, "Tutored a classmate", 10)
	}
	add(models.AreaCustom, "Conduct", "Damaged property", -10)
	add(models.AreaCustom, "Conduct", "Wasted food or utilities", -5)
	add(models.AreaCustom, "Conduct", "Untidy appearance", -2)
	return out
}

// ResetStandards заменяет каталог значениями по умолчанию.
func ResetStandards(ctx context.Context, database *sql.DB) (int, error) {
	defaults := DefaultStandards()
	err := WithTx(ctx, database, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM point_standards`); err != nil {
			return mapErr("clear standards", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO point_standards (area, category, name, default_points)
			VALUES ($1, $2, $3, $4)`)
		if err != nil {
			return mapErr("prepare standards", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, s := range defaults {
			if _, err := stmt.ExecContext(ctx, s.Area, s.Category, s.Name, s.DefaultPoints); err != nil {
				return mapErr("insert standard", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(defaults), nil
}

func CreateStandard(ctx context.Context, database *sql.DB, s models.PointStandard) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO point_standards (area, category, name, default_points)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		strings.TrimSpace(s.Area), strings.TrimSpace(s.Category), strings.TrimSpace(s.Name), s.DefaultPoints).Scan(&id)
	if err != nil {
		return 0, mapErr("create standard", err)
	}
	return id, nil
}

// ListStandards: каталог; area фильтрует по подстроке области.
func ListStandards(ctx context.Context, database *sql.DB, area string) ([]models.PointStandard, error) {
	q := `SELECT id, area, category, name, default_points FROM point_standards`
	var args []any
	if area = strings.TrimSpace(area); area != "" {
		q += ` WHERE area ILIKE $1`
		args = append(args, "%"+escapeLike(area)+"%")
	}
	q += ` ORDER BY area, category, id`

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapErr("list standards", err)
	}
	defer rows.Close()

	var out []models.PointStandard
	for rows.Next() {
		var s models.PointStandard
		if err := rows.Scan(&s.ID, &s.Area, &s.Category, &s.Name, &s.DefaultPoints); err != nil {
			return nil, mapErr("scan standard", err)
		}
		out = append(out, s)
	}
	return out, mapErr("list standards", rows.Err())
}

func UpdateStandard(ctx context.Context, database *sql.DB, s models.PointStandard) error {
	res, err := database.ExecContext(ctx, `
		UPDATE point_standards SET area = $1, category = $2, name = $3, default_points = $4
		WHERE id = $5`, s.Area, s.Category, s.Name, s.DefaultPoints, s.ID)
	if err != nil {
		return mapErr("update standard", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("point standard", s.ID)
	}
	return nil
}

func DeleteStandard(ctx context.Context, database *sql.DB, id int64) error {
	res, err := database.ExecContext(ctx, `DELETE FROM point_standards WHERE id = $1`, id)
	if err != nil {
		return mapErr("delete standard", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFound("point standard", id)
	}
	return nil
}

// RenameCategory переименовывает категорию внутри области. Возвращает число изменённых пунктов.
func RenameCategory(ctx context.Context, database *sql.DB, area, oldName, newName string) (int, error) {
	res, err := database.ExecContext(ctx, `
		UPDATE point_standards SET category = $1 WHERE area = $2 AND category = $3`,
		strings.TrimSpace(newName), area, oldName)
	if err != nil {
		return 0, mapErr("rename category", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

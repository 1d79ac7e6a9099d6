package models

import "time"

type Student struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Code      string    `db:"student_code"`
	GroupID   *int64    `db:"group_id"`
	GroupName *string   `db:"group_name"`
	Points    int       `db:"points"`
	CreatedAt time.Time `db:"created_at"`
}

type Group struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Color string `db:"color"`
}

// GroupSummary: группа со сводкой по участникам.
type GroupSummary struct {
	Group
	StudentCount int     `db:"student_count"`
	AvgPoints    float64 `db:"avg_points"`
	TotalPoints  int     `db:"total_points"`
}

const DefaultGroupColor = "#667eea"

// NewStudent: данные для создания или изменения ученика.
type NewStudent struct {
	Name    string `validate:"notblank,max=100"`
	Code    string `validate:"notblank,max=50"`
	GroupID *int64 `validate:"omitempty,gt=0"`
}

type NewGroup struct {
	Name  string `validate:"notblank,max=100"`
	Color string `validate:"omitempty,hexcolor"`
}

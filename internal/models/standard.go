package models

type PointStandard struct {
	ID            int64  `db:"id"`
	Area          string `db:"area" validate:"notblank,max=50"`
	Category      string `db:"category" validate:"notblank,max=50"`
	Name          string `db:"name" validate:"notblank,max=200"`
	DefaultPoints int    `db:"default_points"`
}

// Области каталога. Academic и Class: теги «базовых правил».
const (
	AreaAcademic = "Academic"
	AreaClass    = "Class"
	AreaActivity = "Activity"
	AreaCustom   = "Custom"
)

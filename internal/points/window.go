package points

import (
	"time"

	"github.com/Spok95/class-points-bot/internal/models"
)

// DayStart: полночь дня t в зоне loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayBounds: полуоткрытый интервал [00:00 day, 00:00 day+1).
func DayBounds(day time.Time, loc *time.Location) (from, to time.Time) {
	from = DayStart(day, loc)
	return from, from.AddDate(0, 0, 1)
}

// RangeBounds переводит закрытый интервал дней в полуоткрытый интервал времени.
func RangeBounds(r models.DateRange, loc *time.Location) (from, to time.Time, err error) {
	from = DayStart(r.Start, loc)
	end := DayStart(r.End, loc)
	if end.Before(from) {
		return time.Time{}, time.Time{}, models.Validation(models.CodeInvalid, "range end %s is before start %s",
			end.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	return from, end.AddDate(0, 0, 1), nil
}

// DateIn переносит календарную дату (как её вернул драйвер для DATE) в зону loc.
func DateIn(d time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

package points

import (
	"math"
	"sort"

	"github.com/Spok95/class-points-bot/internal/models"
)

// SortRanking сортирует по баллам (убыв.), затем по имени и проставляет места.
func SortRanking(rows []models.RankRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
}

// Summary: количество, среднее (1 знак), минимум и максимум.
func Summary(balances []int) (count int, avg float64, lo, hi int) {
	if len(balances) == 0 {
		return 0, 0, 0, 0
	}
	lo, hi = balances[0], balances[0]
	sum := 0
	for _, b := range balances {
		sum += b
		if b < lo {
			lo = b
		}
		if b > hi {
			hi = b
		}
	}
	count = len(balances)
	avg = math.Round(float64(sum)/float64(count)*10) / 10
	return count, avg, lo, hi
}

// TopLeaders оставляет n лучших по баллам, при равенстве: по имени.
func TopLeaders(leaders []models.Leader, n int) []models.Leader {
	out := append([]models.Leader(nil), leaders...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func Reached(leaders []models.Leader, target int) bool {
	return len(leaders) > 0 && leaders[0].Points >= target
}

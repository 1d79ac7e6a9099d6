package points

import (
	"sort"

	"github.com/Spok95/class-points-bot/internal/models"
)

// Member: участник группы на момент расчёта.
type Member struct {
	ID     int64
	Name   string
	Points int
}

// SortMembers: по убыванию баланса, затем по имени.
func SortMembers(members []Member) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

// SplitCost делит стоимость между участниками без потерь: каждый платит cost/n,
// первые cost%n (в порядке SortMembers) платят на один балл больше.
func SplitCost(cost int, members []Member) []models.PlanItem {
	if len(members) == 0 {
		return nil
	}
	sorted := append([]Member(nil), members...)
	SortMembers(sorted)

	n := len(sorted)
	base, extra := cost/n, cost%n
	plan := make([]models.PlanItem, 0, n)
	for i, m := range sorted {
		d := base
		if i < extra {
			d++
		}
		plan = append(plan, models.PlanItem{StudentID: m.ID, Name: m.Name, Current: m.Points, Deduct: d})
	}
	return plan
}

func IndividualPlan(cost int, m Member) []models.PlanItem {
	return []models.PlanItem{{StudentID: m.ID, Name: m.Name, Current: m.Points, Deduct: cost}}
}

func PlanTotal(plan []models.PlanItem) int {
	total := 0
	for _, it := range plan {
		total += it.Deduct
	}
	return total
}

// ValidatePlan проверяет план перед применением.
func ValidatePlan(plan []models.PlanItem, cost int) error {
	if len(plan) == 0 {
		return models.Validation(models.CodeInvalid, "settlement plan is empty")
	}
	seen := make(map[int64]struct{}, len(plan))
	for _, it := range plan {
		if it.Deduct < 0 {
			return models.Validation(models.CodeInvalid, "negative deduction for student %d", it.StudentID)
		}
		if _, dup := seen[it.StudentID]; dup {
			return models.Validation(models.CodeInvalid, "student %d appears twice in plan", it.StudentID)
		}
		seen[it.StudentID] = struct{}{}
	}
	if total := PlanTotal(plan); total != cost {
		return models.Validation(models.CodeInvalid, "plan deducts %d, reward costs %d", total, cost)
	}
	return nil
}

// GroupRedeemCost: сколько платит каждый участник при групповом обмене, минимум 1.
func GroupRedeemCost(cost, members int) int {
	if members <= 0 {
		return 0
	}
	per := cost / members
	if per == 0 {
		per = 1
	}
	return per
}

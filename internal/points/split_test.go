package points

import (
	"testing"

	"github.com/Spok95/class-points-bot/internal/models"
)

func TestSplitCost_RemainderGoesToRichest(t *testing.T) {
	members := []Member{
		{ID: 1, Name: "Cara", Points: 10},
		{ID: 2, Name: "Abe", Points: 50},
		{ID: 3, Name: "Bea", Points: 50},
	}
	plan := SplitCost(100, members)
	if len(plan) != 3 {
		t.Fatalf("len=%d", len(plan))
	}
	wantOrder := []int64{2, 3, 1}
	wantDeduct := []int{34, 33, 33}
	for i, it := range plan {
		if it.StudentID != wantOrder[i] || it.Deduct != wantDeduct[i] {
			t.Fatalf("item %d = %+v", i, it)
		}
	}
	if PlanTotal(plan) != 100 {
		t.Fatalf("total=%d", PlanTotal(plan))
	}
	if err := ValidatePlan(plan, 100); err != nil {
		t.Fatalf("validate: %v", err)
	}
	// входной срез не переупорядочен
	if members[0].ID != 1 {
		t.Fatal("input was mutated")
	}
}

func TestSplitCost_Exact(t *testing.T) {
	plan := SplitCost(90, []Member{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}})
	for _, it := range plan {
		if it.Deduct != 30 {
			t.Fatalf("deduct=%d", it.Deduct)
		}
	}
}

func TestSplitCost_Empty(t *testing.T) {
	if plan := SplitCost(10, nil); plan != nil {
		t.Fatalf("plan=%v", plan)
	}
	if err := ValidatePlan(nil, 10); !models.IsKind(err, models.KindValidation) {
		t.Fatalf("err=%v", err)
	}
}

func TestValidatePlan(t *testing.T) {
	if err := ValidatePlan([]models.PlanItem{{StudentID: 1, Deduct: 5}}, 6); !models.IsKind(err, models.KindValidation) {
		t.Fatalf("sum mismatch must fail: %v", err)
	}
	if err := ValidatePlan([]models.PlanItem{{StudentID: 1, Deduct: -1}, {StudentID: 2, Deduct: 7}}, 6); err == nil {
		t.Fatal("negative deduct must fail")
	}
	if err := ValidatePlan([]models.PlanItem{{StudentID: 1, Deduct: 3}, {StudentID: 1, Deduct: 3}}, 6); err == nil {
		t.Fatal("duplicate student must fail")
	}
}

func TestGroupRedeemCost(t *testing.T) {
	cases := []struct{ cost, n, want int }{
		{100, 3, 33},
		{2, 5, 1},
		{0, 3, 1},
		{10, 0, 0},
	}
	for _, c := range cases {
		if got := GroupRedeemCost(c.cost, c.n); got != c.want {
			t.Errorf("GroupRedeemCost(%d,%d)=%d, want %d", c.cost, c.n, got, c.want)
		}
	}
}

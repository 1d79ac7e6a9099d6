//go:build testutil
// +build testutil

package db_test

import (
	"testing"
	"time"

	"github.com/Spok95/class-points-bot/internal/db"
	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/Spok95/class-points-bot/internal/points"
)

func TestBounty_GroupSettlement(t *testing.T) {
	ctx, database := startDB(t)
	g := mustGroup(t, database, "Green")
	a := mustStudent(t, database, "Ann", "S1", ptrInt64(g))
	b := mustStudent(t, database, "Bob", "S2", ptrInt64(g))
	c := mustStudent(t, database, "Cid", "S3", ptrInt64(g))
	outsider := mustStudent(t, database, "Dan", "S4", nil)
	rw := mustReward(t, database, "Pizza party", 100, 1)

	for _, id := range []int64{a, b, c, outsider} {
		if err := db.AdjustStudent(ctx, database, id, 50, "Reading", "T", time.Now()); err != nil {
			t.Fatal(err)
		}
	}

	id, err := db.StartBounty(ctx, database, models.NewBounty{
		RewardID: rw, TargetPoints: 100, Type: models.BountyGroup, AllowedReasons: []string{"Reading"},
	}, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	bounties, err := db.ActiveBounties(ctx, database, time.Now())
	if err != nil || len(bounties) != 1 {
		t.Fatalf("bounties=%v err=%v", bounties, err)
	}
	leaders, err := db.BountyLeaders(ctx, database, bounties[0], nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(leaders) != 1 || leaders[0].ID != g || leaders[0].Points != 150 {
		t.Fatalf("leaders=%+v", leaders)
	}

	members, err := db.GroupMembers(ctx, database, g)
	if err != nil {
		t.Fatal(err)
	}
	plan := points.SplitCost(100, members)

	bad := append([]models.PlanItem(nil), plan...)
	bad[0].StudentID = outsider
	wantKind(t, db.CommitBountySettlement(ctx, database, id, g, bad, time.Now()), models.KindValidation, "")

	if err := db.CommitBountySettlement(ctx, database, id, g, plan, time.Now()); err != nil {
		t.Fatal(err)
	}
	// 100 / 3: первый по имени при равных балансах платит 34
	if balance(t, database, a) != 16 || balance(t, database, b) != 17 || balance(t, database, c) != 17 {
		t.Fatalf("балансы: %d %d %d", balance(t, database, a), balance(t, database, b), balance(t, database, c))
	}
	if stock(t, database, rw) != 0 {
		t.Fatal("склад должен уменьшиться")
	}
	var groupTotal int
	if err := database.QueryRow(`SELECT change_amount FROM group_points_history WHERE group_id = $1`, g).Scan(&groupTotal); err != nil {
		t.Fatal(err)
	}
	if groupTotal != -100 {
		t.Fatalf("group history=%d", groupTotal)
	}

	wantKind(t, db.CommitBountySettlement(ctx, database, id, g, plan, time.Now()), models.KindConflict, models.CodeNotActive)

	got, err := db.GetBounty(ctx, database, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.BountyFinished || got.WinnerID == nil || *got.WinnerID != g {
		t.Fatalf("bounty=%+v", got)
	}
	assertConsistent(t, database)
}

func TestBounty_IndividualWindow(t *testing.T) {
	ctx, database := startDB(t)
	a := mustStudent(t, database, "Ann", "S1", nil)
	rw := mustReward(t, database, "Cup", 10, 1)
	now := time.Now()

	if err := db.AdjustStudent(ctx, database, a, 30, "Old", "T", now.AddDate(0, 0, -30)); err != nil {
		t.Fatal(err)
	}
	if err := db.AdjustStudent(ctx, database, a, 4, "New", "T", now); err != nil {
		t.Fatal(err)
	}
	start := now.AddDate(0, 0, -1)
	end := now.AddDate(0, 0, 1)
	id, err := db.StartBounty(ctx, database, models.NewBounty{
		RewardID: rw, TargetPoints: 5, Type: models.BountyIndividual, StartDate: &start, EndDate: &end,
	}, now)
	if err != nil {
		t.Fatal(err)
	}
	b, err := db.GetBounty(ctx, database, id)
	if err != nil {
		t.Fatal(err)
	}
	leaders, err := db.BountyLeaders(ctx, database, *b, &db.Window{From: now.Add(-24 * time.Hour), To: now.Add(24 * time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if len(leaders) != 1 || leaders[0].Points != 4 {
		t.Fatalf("leaders=%+v", leaders)
	}

	wrong := []models.PlanItem{{StudentID: a, Deduct: 9}}
	wantKind(t, db.CommitBountySettlement(ctx, database, id, a, wrong, now), models.KindValidation, "")
	if err := db.CommitBountySettlement(ctx, database, id, a, []models.PlanItem{{StudentID: a, Deduct: 10}}, now); err != nil {
		t.Fatal(err)
	}
	if balance(t, database, a) != 24 {
		t.Fatalf("balance=%d", balance(t, database, a))
	}
}

//go:build testutil
// +build testutil

package ledger_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/class-points-bot/internal/ledger"
	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/Spok95/class-points-bot/internal/testutil/testdb"
)

func TestLedger_SubmitAuditStats(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	loc := time.FixedZone("MSK", 3*3600)
	s := ledger.New(h.DB, zap.NewNop(), loc)

	red, err := s.CreateGroup(ctx, models.NewGroup{Name: "Red"})
	if err != nil {
		t.Fatal(err)
	}
	var ids []int64
	for _, st := range []models.NewStudent{
		{Name: "Ann", Code: "S1", GroupID: &red},
		{Name: "Bob", Code: "S2", GroupID: &red},
		{Name: "Cid", Code: "S3"},
	} {
		id, err := s.CreateStudent(ctx, st)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	ann, cid := ids[0], ids[2]

	res, err := s.SubmitChange(ctx, models.ChangeRequest{
		Amount: -5, Reason: "[Academic-Math] Homework missing", Submitter: "Ms. Lee", StudentIDs: []int64{ann, ann},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != models.KindBenchmark || res.Approved != 1 || res.Bonused != 2 {
		t.Fatalf("res=%+v", res)
	}

	res, err = s.SubmitChange(ctx, models.ChangeRequest{Amount: 7, Reason: "Science fair", StudentIDs: []int64{cid}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pending != 1 {
		t.Fatalf("res=%+v", res)
	}
	results, err := s.ApproveAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || !results[0].OK {
		t.Fatalf("results=%+v", results)
	}
	again, err := s.ProcessPending(ctx, []int64{results[0].EntryID}, models.ActionReject)
	if err != nil {
		t.Fatal(err)
	}
	if again[0].OK || !models.IsKind(again[0].Err, models.KindConflict) {
		t.Fatalf("повторная обработка должна дать конфликт: %+v", again[0])
	}

	st, err := s.Stats(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	// балансы: Ann -5, Bob 2, Cid 9
	if st.Students != 3 || st.MinPoints != -5 || st.MaxPoints != 9 || st.AvgPoints != 2 {
		t.Fatalf("stats=%+v", st)
	}
	if len(st.Minus) != 1 || len(st.Plus) != 2 {
		t.Fatalf("plus=%+v minus=%+v", st.Plus, st.Minus)
	}
	var collapsed *models.FeedItem
	for i := range st.Plus {
		if st.Plus[i].Collapsed {
			collapsed = &st.Plus[i]
		}
	}
	if collapsed == nil || collapsed.Count != 2 {
		t.Fatalf("бонусы должны свернуться в одну строку: %+v", st.Plus)
	}

	rows, err := s.Ranking(ctx, models.ScopeStudent, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].ID != cid || rows[0].Rank != 1 || rows[2].ID != ann {
		t.Fatalf("ranking=%+v", rows)
	}
	groups, err := s.Ranking(ctx, models.ScopeGroup, nil, models.MetricSum)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || groups[0].Points != -3 {
		t.Fatalf("groups=%+v", groups)
	}

	pen, err := s.CreateReward(ctx, models.Reward{Name: "Pen", PointsCost: 3, Stock: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RedeemReward(ctx, cid, pen); err != nil {
		t.Fatal(err)
	}
	events, err := s.RecentEvents(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != models.EventReward || events[0].RewardName != "Pen" || events[0].WinnerName != "Cid" {
		t.Fatalf("events=%+v", events)
	}

	mm, err := s.CheckBalances(ctx)
	if err != nil || len(mm) != 0 {
		t.Fatalf("mismatches=%+v err=%v", mm, err)
	}
}

func TestLedger_BountyPreviewAndCommit(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	s := ledger.New(h.DB, zap.NewNop(), time.UTC)

	g, err := s.CreateGroup(ctx, models.NewGroup{Name: "Blue", Color: "#123456"})
	if err != nil {
		t.Fatal(err)
	}
	for i, name := range []string{"Ann", "Bob", "Cid"} {
		id, err := s.CreateStudent(ctx, models.NewStudent{Name: name, Code: name, GroupID: &g})
		if err != nil {
			t.Fatal(err)
		}
		if err := s.AdjustStudent(ctx, id, 10*(i+1), "Reading", "T"); err != nil {
			t.Fatal(err)
		}
	}
	cup, err := s.CreateReward(ctx, models.Reward{Name: "Cup", PointsCost: 10, Stock: 1})
	if err != nil {
		t.Fatal(err)
	}
	bid, err := s.StartBounty(ctx, models.NewBounty{RewardID: cup, TargetPoints: 50, Type: models.BountyGroup})
	if err != nil {
		t.Fatal(err)
	}

	progress, err := s.BountyProgress(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(progress) != 1 || !progress[0].Reached || progress[0].Leaders[0].Points != 60 {
		t.Fatalf("progress=%+v", progress)
	}

	plan, err := s.PreviewBountySettlement(ctx, bid, g)
	if err != nil {
		t.Fatal(err)
	}
	// 10 / 3: самый богатый (Cid, 30) платит 4
	if len(plan.Items) != 3 || plan.Items[0].Name != "Cid" || plan.Items[0].Deduct != 4 || plan.Total != 10 {
		t.Fatalf("plan=%+v", plan)
	}
	if err := s.CommitBountySettlement(ctx, bid, g, plan.Items); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PreviewBountySettlement(ctx, bid, g); !models.IsKind(err, models.KindConflict) {
		t.Fatalf("закрытое испытание: %v", err)
	}
	progress, err = s.BountyProgress(ctx)
	if err != nil || len(progress) != 0 {
		t.Fatalf("progress=%+v err=%v", progress, err)
	}
}

func TestLedger_BlankReasonDefaults(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	s := ledger.New(h.DB, zap.NewNop(), time.UTC)
	id, err := s.CreateStudent(ctx, models.NewStudent{Name: "Ann", Code: "S1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SubmitChange(ctx, models.ChangeRequest{Amount: 2, Reason: "  ", StudentIDs: []int64{id}}); err != nil {
		t.Fatal(err)
	}
	pending, err := s.ListPending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Reason != "Self-report" || pending[0].Teacher != "self-service" {
		t.Fatalf("pending=%+v", pending)
	}
}

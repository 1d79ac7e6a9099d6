//go:build testutil
// +build testutil

package db_test

import (
	"sync"
	"testing"
	"time"

	"github.com/Spok95/class-points-bot/internal/db"
	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/Spok95/class-points-bot/internal/points"
)

func benchmarkSub(amount int, reason string, ids ...int64) db.Submission {
	return db.Submission{
		Kind:         models.KindBenchmark,
		Amount:       amount,
		Reason:       reason,
		Submitter:    "Ms. Lee",
		StudentIDs:   ids,
		BonusReason:  points.BonusReason(reason),
		BonusTeacher: points.BonusTeacher("Ms. Lee"),
		BonusAmount:  points.BenchmarkBonus,
		At:           time.Now(),
	}
}

func TestSubmitChange_Benchmark(t *testing.T) {
	ctx, database := startDB(t)
	a := mustStudent(t, database, "Ann", "S1", nil)
	b := mustStudent(t, database, "Bob", "S2", nil)
	c := mustStudent(t, database, "Cid", "S3", nil)

	res, err := db.SubmitChange(ctx, database, benchmarkSub(-5, "[Academic-Math] Homework missing", a))
	if err != nil {
		t.Fatal(err)
	}
	if res.Approved != 1 || res.Bonused != 2 || res.Pending != 0 {
		t.Fatalf("res=%+v", res)
	}
	if balance(t, database, a) != -5 || balance(t, database, b) != 2 || balance(t, database, c) != 2 {
		t.Fatal("неверные балансы после базового правила")
	}

	var stamps int
	if err := database.QueryRow(`SELECT COUNT(DISTINCT created_at) FROM points_history`).Scan(&stamps); err != nil {
		t.Fatal(err)
	}
	if stamps != 1 {
		t.Fatalf("все записи одной заявки должны иметь одно время, получили %d", stamps)
	}
	var reason, teacher string
	if err := database.QueryRow(`SELECT reason, teacher FROM points_history WHERE student_id = $1`, b).Scan(&reason, &teacher); err != nil {
		t.Fatal(err)
	}
	if reason != "[Benchmark] Homework missing - compliance bonus" || teacher != "system(Ms. Lee)" {
		t.Fatalf("reason=%q teacher=%q", reason, teacher)
	}
	assertConsistent(t, database)
}

func TestSubmitChange_BenchmarkNoTargetsRewardsEveryone(t *testing.T) {
	ctx, database := startDB(t)
	a := mustStudent(t, database, "Ann", "S1", nil)
	b := mustStudent(t, database, "Bob", "S2", nil)

	res, err := db.SubmitChange(ctx, database, benchmarkSub(-1, "[Class-Noon rest] Noise"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Bonused != 2 || balance(t, database, a) != 2 || balance(t, database, b) != 2 {
		t.Fatalf("res=%+v", res)
	}
}

func TestSubmitChange_UnknownTargetRollsBack(t *testing.T) {
	ctx, database := startDB(t)
	a := mustStudent(t, database, "Ann", "S1", nil)
	mustStudent(t, database, "Bob", "S2", nil)

	_, err := db.SubmitChange(ctx, database, benchmarkSub(-5, "[Academic] x", a, 9999))
	wantKind(t, err, models.KindNotFound, "")

	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM points_history`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 || balance(t, database, a) != 0 {
		t.Fatalf("заявка должна откатиться целиком: history=%d", n)
	}
}

func TestProcessEntry_ApproveRejectOnce(t *testing.T) {
	ctx, database := startDB(t)
	a := mustStudent(t, database, "Ann", "S1", nil)
	b := mustStudent(t, database, "Bob", "S2", nil)

	res, err := db.SubmitChange(ctx, database, db.Submission{
		Kind: models.KindOrdinary, Amount: 3, Reason: "Helped", Submitter: "T", StudentIDs: []int64{a, b}, At: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pending != 2 || balance(t, database, a) != 0 {
		t.Fatalf("обычная заявка не меняет баланс: %+v", res)
	}

	pending, err := db.ListPending(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0].StudentName != "Ann" {
		t.Fatalf("pending=%+v", pending)
	}

	if err := db.ProcessEntry(ctx, database, pending[0].ID, models.ActionApprove, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := db.ProcessEntry(ctx, database, pending[1].ID, models.ActionReject, time.Now()); err != nil {
		t.Fatal(err)
	}
	if balance(t, database, a) != 3 || balance(t, database, b) != 0 {
		t.Fatal("одобрение должно менять баланс, отклонение нет")
	}

	err = db.ProcessEntry(ctx, database, pending[0].ID, models.ActionApprove, time.Now())
	wantKind(t, err, models.KindConflict, models.CodeNotPending)
	err = db.ProcessEntry(ctx, database, 424242, models.ActionApprove, time.Now())
	wantKind(t, err, models.KindNotFound, "")

	if balance(t, database, a) != 3 {
		t.Fatal("повторное одобрение не должно менять баланс")
	}
	assertConsistent(t, database)
}

func TestProcessEntry_ParallelApproveAppliesOnce(t *testing.T) {
	ctx, database := startDB(t)
	a := mustStudent(t, database, "Ann", "S1", nil)

	if _, err := db.SubmitChange(ctx, database, db.Submission{
		Kind: models.KindOrdinary, Amount: 10, Reason: "Contest", Submitter: "T", StudentIDs: []int64{a}, At: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}
	pending, err := db.ListPending(ctx, database)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending=%v err=%v", pending, err)
	}
	id := pending[0].ID

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		oks int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := db.ProcessEntry(ctx, database, id, models.ActionApprove, time.Now()); err == nil {
				mu.Lock()
				oks++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if oks != 1 {
		t.Fatalf("ожидали ровно одно успешное одобрение, получили %d", oks)
	}
	if balance(t, database, a) != 10 {
		t.Fatalf("баланс=%d, ожидали 10", balance(t, database, a))
	}
	assertConsistent(t, database)
}

func TestAdjustGroup(t *testing.T) {
	ctx, database := startDB(t)
	g := mustGroup(t, database, "Red")
	a := mustStudent(t, database, "Ann", "S1", ptrInt64(g))
	b := mustStudent(t, database, "Bob", "S2", ptrInt64(g))
	empty := mustGroup(t, database, "Empty")

	n, err := db.AdjustGroup(ctx, database, g, 4, "Clean classroom", "T", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || balance(t, database, a) != 4 || balance(t, database, b) != 4 {
		t.Fatalf("n=%d", n)
	}
	var total int
	if err := database.QueryRow(`SELECT change_amount FROM group_points_history WHERE group_id = $1`, g).Scan(&total); err != nil {
		t.Fatal(err)
	}
	if total != 8 {
		t.Fatalf("group history=%d", total)
	}

	_, err = db.AdjustGroup(ctx, database, empty, 4, "x", "T", time.Now())
	wantKind(t, err, models.KindValidation, "")

	if err := db.AdjustStudent(ctx, database, a, -1, "Late", "T", time.Now()); err != nil {
		t.Fatal(err)
	}
	h, err := db.StudentHistory(ctx, database, a)
	if err != nil {
		t.Fatal(err)
	}
	if h.Points != 3 || h.Rank != 2 || len(h.History) != 2 || h.History[0].Amount != -1 {
		t.Fatalf("history=%+v", h)
	}
	assertConsistent(t, database)
}

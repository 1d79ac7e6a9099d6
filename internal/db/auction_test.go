//go:build testutil
// +build testutil

package db_test

import (
	"testing"
	"time"

	"github.com/Spok95/class-points-bot/internal/db"
	"github.com/Spok95/class-points-bot/internal/models"
)

func TestAuction_Lifecycle(t *testing.T) {
	ctx, database := startDB(t)
	a := mustStudent(t, database, "Ann", "S1", nil)
	b := mustStudent(t, database, "Bob", "S2", nil)
	book := mustReward(t, database, "Book", 50, 2)
	pen := mustReward(t, database, "Pen", 5, 1)

	first, err := db.StartAuction(ctx, database, pen, 0, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.StartAuction(ctx, database, book, 5, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	prev, err := db.GetAuction(ctx, database, first)
	if err != nil {
		t.Fatal(err)
	}
	if prev.Status != models.AuctionCancelled {
		t.Fatalf("предыдущий аукцион должен быть отменён, status=%s", prev.Status)
	}

	cur, err := db.CurrentAuction(ctx, database)
	if err != nil || cur == nil || cur.ID != second || cur.RewardName != "Book" {
		t.Fatalf("cur=%+v err=%v", cur, err)
	}

	wantKind(t, db.PlaceBid(ctx, database, second, a, 5), models.KindConflict, models.CodeStaleOrLowBid)
	if err := db.PlaceBid(ctx, database, second, a, 12); err != nil {
		t.Fatal(err)
	}
	wantKind(t, db.PlaceBid(ctx, database, second, b, 12), models.KindConflict, models.CodeStaleOrLowBid)
	if err := db.PlaceBid(ctx, database, second, b, 20); err != nil {
		t.Fatal(err)
	}
	wantKind(t, db.PlaceBid(ctx, database, 9999, b, 30), models.KindNotFound, "")
	wantKind(t, db.PlaceBid(ctx, database, second, 9999, 30), models.KindNotFound, "")
	wantKind(t, db.PlaceBid(ctx, database, first, b, 30), models.KindConflict, models.CodeStaleOrLowBid)

	done, err := db.FinishAuction(ctx, database, second, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != models.AuctionFinished || done.HighestBidderID == nil || *done.HighestBidderID != b {
		t.Fatalf("done=%+v", done)
	}
	if balance(t, database, b) != -20 || balance(t, database, a) != 0 {
		t.Fatal("победитель платит цену, остальные нет")
	}
	if stock(t, database, book) != 1 {
		t.Fatal("склад должен уменьшиться")
	}

	_, err = db.FinishAuction(ctx, database, second, time.Now())
	wantKind(t, err, models.KindConflict, models.CodeNotActive)

	if cur, _ := db.CurrentAuction(ctx, database); cur != nil {
		t.Fatalf("активных аукционов не должно остаться: %+v", cur)
	}
	assertConsistent(t, database)
}

func TestAuction_FinishWithoutBidder(t *testing.T) {
	ctx, database := startDB(t)
	rw := mustReward(t, database, "Sticker", 1, 1)
	id, err := db.StartAuction(ctx, database, rw, 0, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.FinishAuction(ctx, database, id, time.Now()); err != nil {
		t.Fatal(err)
	}
	if stock(t, database, rw) != 1 {
		t.Fatal("без победителя склад не меняется")
	}
}

func TestAuction_OutOfStockCannotStart(t *testing.T) {
	ctx, database := startDB(t)
	rw := mustReward(t, database, "Gone", 1, 1)
	if _, err := database.Exec(`UPDATE rewards SET stock = 0 WHERE id = $1`, rw); err != nil {
		t.Fatal(err)
	}
	_, err := db.StartAuction(ctx, database, rw, 0, time.Now())
	wantKind(t, err, models.KindConflict, models.CodeOutOfStock)
}

//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Spok95/class-points-bot/internal/db"
	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/Spok95/class-points-bot/internal/testutil/testdb"
)

func startDB(t *testing.T) (context.Context, *sql.DB) {
	t.Helper()
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)
	return ctx, h.DB
}

func mustStudent(t *testing.T, database *sql.DB, name, code string, groupID *int64) int64 {
	t.Helper()
	id, err := db.CreateStudent(context.Background(), database, name, code, groupID)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func mustGroup(t *testing.T, database *sql.DB, name string) int64 {
	t.Helper()
	id, err := db.CreateGroup(context.Background(), database, name, "")
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func mustReward(t *testing.T, database *sql.DB, name string, cost, stock int) int64 {
	t.Helper()
	id, err := db.CreateReward(context.Background(), database, models.Reward{Name: name, PointsCost: cost, Stock: stock})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func balance(t *testing.T, database *sql.DB, studentID int64) int {
	t.Helper()
	var p int
	if err := database.QueryRow(`SELECT points FROM students WHERE id = $1`, studentID).Scan(&p); err != nil {
		t.Fatal(err)
	}
	return p
}

func stock(t *testing.T, database *sql.DB, rewardID int64) int {
	t.Helper()
	var s int
	if err := database.QueryRow(`SELECT stock FROM rewards WHERE id = $1`, rewardID).Scan(&s); err != nil {
		t.Fatal(err)
	}
	return s
}

func assertConsistent(t *testing.T, database *sql.DB) {
	t.Helper()
	mm, err := db.CheckBalances(context.Background(), database)
	if err != nil {
		t.Fatal(err)
	}
	if len(mm) != 0 {
		t.Fatalf("баланс расходится с историей: %+v", mm)
	}
}

func wantKind(t *testing.T, err error, kind models.ErrorKind, code string) {
	t.Helper()
	if !models.IsKind(err, kind) {
		t.Fatalf("ожидали %s, получили %v", kind, err)
	}
	if code != "" && models.CodeOf(err) != code {
		t.Fatalf("ожидали код %s, получили %s (%v)", code, models.CodeOf(err), err)
	}
}

func ptrInt64(v int64) *int64 { return &v }

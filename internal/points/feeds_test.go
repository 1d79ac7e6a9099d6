package points

import (
	"testing"
	"time"

	"github.com/Spok95/class-points-bot/internal/models"
)

func entry(id int64, name string, amount int, reason string, at time.Time) models.HistoryWithStudent {
	return models.HistoryWithStudent{
		HistoryEntry: models.HistoryEntry{
			ID: id, Amount: amount, Reason: reason,
			Status: models.StatusApproved, CreatedAt: at,
		},
		StudentName: name,
	}
}

func TestCurateFeeds(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	bonus := "[Benchmark] Homework - compliance bonus"

	entries := []models.HistoryWithStudent{
		entry(1, "Ann", -1, "[Academic] Homework", t0),
		entry(2, "Bob", 2, bonus, t0),
		entry(3, "Cid", 2, bonus, t0),
		entry(4, "Dan", 2, bonus, t0),
		entry(5, "Ann", 5, "Helped a classmate", t1),
		entry(6, "Bob", -10, "Redeemed: Pen", t1),
		entry(7, "Cid", -20, "Auction won: Book", t1),
		entry(8, "Dan", 2, bonus, t1),
	}
	pending := entry(9, "Eve", 3, "pending thing", t1)
	pending.Status = models.StatusPending
	entries = append(entries, pending)

	plus, minus := CurateFeeds(entries)

	if len(minus) != 1 || minus[0].EntryID != 1 {
		t.Fatalf("minus=%+v", minus)
	}
	if len(plus) != 3 {
		t.Fatalf("plus len=%d: %+v", len(plus), plus)
	}
	// новые сверху; при равном времени больший id выше
	if plus[0].EntryID != 8 || !plus[0].Collapsed || plus[0].Count != 1 {
		t.Fatalf("plus[0]=%+v", plus[0])
	}
	if plus[1].EntryID != 5 || plus[1].Collapsed || plus[1].StudentName != "Ann" {
		t.Fatalf("plus[1]=%+v", plus[1])
	}
	if plus[2].EntryID != 2 || !plus[2].Collapsed || plus[2].Count != 3 || plus[2].StudentName != "" {
		t.Fatalf("plus[2]=%+v", plus[2])
	}
}

func TestCurateFeeds_EmptyIsNotNil(t *testing.T) {
	plus, minus := CurateFeeds(nil)
	if plus == nil || minus == nil {
		t.Fatal("feeds must be empty slices")
	}
}

func TestClassifyEvent(t *testing.T) {
	cases := []struct {
		reason string
		typ    models.EventType
		reward string
		ok     bool
	}{
		{"Auction won: Book", models.EventAuction, "Book", true},
		{"Bounty achieved: Cup", models.EventBounty, "Cup", true},
		{"Redeemed: Pen", models.EventReward, "Pen", true},
		{"Group redeem: Party", models.EventReward, "Party", true},
		{"[Academic] Homework", "", "", false},
	}
	for _, c := range cases {
		typ, reward, ok := ClassifyEvent(c.reason)
		if typ != c.typ || reward != c.reward || ok != c.ok {
			t.Errorf("ClassifyEvent(%q)=(%q,%q,%v)", c.reason, typ, reward, ok)
		}
	}
}

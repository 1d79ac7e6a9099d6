package export

import (
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/class-points-bot/internal/models"
)

func TestRankingReport_ReadBack(t *testing.T) {
	loc := time.UTC
	at := time.Date(2026, 3, 2, 9, 30, 0, 0, loc)
	students := []models.RankRow{
		{ID: 1, Name: "Ann", Code: "S1", Group: "Red", Points: 12, Rank: 1},
		{ID: 2, Name: "Bob", Code: "S2", Points: -3, Rank: 2},
	}
	groups := []models.RankRow{{ID: 1, Name: "Red", Points: 12, Rank: 1}}
	st := &models.Stats{
		Day: at, Students: 2, AvgPoints: 4.5, MinPoints: -3, MaxPoints: 12,
		Plus:  []models.FeedItem{{Reason: "[Benchmark] Homework - compliance bonus", Amount: 2, CreatedAt: at, Count: 5, Collapsed: true}},
		Minus: []models.FeedItem{{StudentName: "Bob", Reason: "Late", Amount: -3, CreatedAt: at}},
	}

	f, err := RankingReport(students, groups, st, loc)
	if err != nil {
		t.Fatal(err)
	}
	buf, err := WriteBuffer(f)
	if err != nil {
		t.Fatal(err)
	}

	rf, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = rf.Close() }()

	want := []string{"Ученики", "Группы", "Сводка", "Плюсы", "Минусы"}
	got := rf.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("листы: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("лист %d: %q, ожидали %q", i, got[i], want[i])
		}
	}

	rows, err := rf.GetRows("Ученики")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[1][1] != "Ann" || rows[2][4] != "-3" {
		t.Fatalf("ученики: %v", rows)
	}

	plus, err := rf.GetRows("Плюсы")
	if err != nil {
		t.Fatal(err)
	}
	if plus[1][1] != "5 учеников" || plus[1][4] != "5" || plus[1][0] != "09:30" {
		t.Fatalf("плюсы: %v", plus)
	}
	minus, _ := rf.GetRows("Минусы")
	if minus[1][1] != "Bob" || minus[1][4] != "1" {
		t.Fatalf("минусы: %v", minus)
	}
}

func TestStandardsReport(t *testing.T) {
	f, err := StandardsReport([]models.PointStandard{{Area: "Academic", Category: "Math", Name: "Homework", DefaultPoints: 2}})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Стандарты")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][0] != "Область" || rows[1][3] != "2" {
		t.Fatalf("rows=%v", rows)
	}
}

func TestNewWorkbook_Empty(t *testing.T) {
	if _, err := NewWorkbook(nil); err == nil {
		t.Fatal("пустая книга должна давать ошибку")
	}
}

func TestReportFilename(t *testing.T) {
	at := time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC)
	msk := time.FixedZone("MSK", 3*3600)
	if got := ReportFilename("Рейтинг: класс", at, msk); got != "Рейтинг_ класс 2026-03-03.xlsx" {
		t.Fatalf("got %q", got)
	}
	if got := ReportFilename("  ", at, time.UTC); got != "report 2026-03-02.xlsx" {
		t.Fatalf("got %q", got)
	}
}

func TestColumnName(t *testing.T) {
	for n, want := range map[int]string{1: "A", 26: "Z", 27: "AA", 52: "AZ", 703: "AAA"} {
		if got := columnName(n); got != want {
			t.Fatalf("columnName(%d)=%q want %q", n, got, want)
		}
	}
}

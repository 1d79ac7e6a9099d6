package ledger

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Spok95/class-points-bot/internal/models"
)

// Все проверки ниже отклоняются до обращения к БД, поэтому db = nil.
func newTestService(t *testing.T) (*Service, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	return New(nil, zap.New(core), time.UTC), logs
}

func wantValidation(t *testing.T, err error, code string) {
	t.Helper()
	if !models.IsKind(err, models.KindValidation) {
		t.Fatalf("ожидали validation, получили %v", err)
	}
	if code != "" && models.CodeOf(err) != code {
		t.Fatalf("код %s, ожидали %s", models.CodeOf(err), code)
	}
}

func TestSubmitChange_Rejections(t *testing.T) {
	s, logs := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  models.ChangeRequest
		code string
	}{
		{"zero amount", models.ChangeRequest{Amount: 0, Reason: "x", StudentIDs: []int64{1}}, models.CodeZeroAmount},
		{"ordinary without targets", models.ChangeRequest{Amount: 3, Reason: "Helped"}, models.CodeNoTargets},
		{"empty targets", models.ChangeRequest{Amount: -1, Reason: "Late", StudentIDs: []int64{}}, models.CodeNoTargets},
		{"explicit benchmark positive", models.ChangeRequest{Amount: 2, Reason: "x", Kind: models.KindBenchmark}, models.CodeInvalid},
		{"amount above int column", models.ChangeRequest{Amount: 3_000_000_000, Reason: "x", StudentIDs: []int64{1}}, models.CodeInvalid},
		{"amount below bound", models.ChangeRequest{Amount: -models.MaxPoints - 1, Reason: "x", StudentIDs: []int64{1}}, models.CodeInvalid},
		{"bad student id", models.ChangeRequest{Amount: -1, Reason: "x", StudentIDs: []int64{0}}, models.CodeInvalid},
		{"bad kind", models.ChangeRequest{Amount: -1, Reason: "x", StudentIDs: []int64{1}, Kind: "other"}, models.CodeInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.SubmitChange(ctx, tc.req)
			wantValidation(t, err, tc.code)
		})
	}

	rejected := logs.FilterMessage("ledger operation rejected").All()
	if len(rejected) != len(cases) {
		t.Fatalf("ожидали %d записей об отказе, получили %d", len(cases), len(rejected))
	}
	if rejected[0].Level != zapcore.InfoLevel || rejected[0].ContextMap()["op"] != "submit_change" {
		t.Fatalf("entry=%+v", rejected[0])
	}
}

func TestValidationMessagesAreTranslated(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.CreateReward(context.Background(), models.Reward{Name: "", PointsCost: -1})
	wantValidation(t, err, models.CodeInvalid)
	msg := err.Error()
	for _, want := range []string{"Name must not be blank", "PointsCost must be 0 or greater"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("сообщение %q не содержит %q", msg, want)
		}
	}
}

func TestServiceRejectsBeforeStorage(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.ProcessPending(ctx, []int64{1}, "maybe")
	wantValidation(t, err, models.CodeInvalid)

	_, err = s.StartAuction(ctx, 1, -5)
	wantValidation(t, err, models.CodeInvalid)
	_, err = s.StartAuction(ctx, 1, models.MaxPoints+1)
	wantValidation(t, err, models.CodeInvalid)
	wantValidation(t, s.PlaceBid(ctx, 1, 1, 1<<31), models.CodeInvalid)
	wantValidation(t, s.AdjustStudent(ctx, 1, -(1 << 31), "x", "T"), models.CodeInvalid)
	_, err = s.StartBounty(ctx, models.NewBounty{RewardID: 1, TargetPoints: models.MaxPoints + 1, Type: models.BountyGroup})
	wantValidation(t, err, models.CodeInvalid)
	_, err = s.CreateReward(ctx, models.Reward{Name: "Pen", PointsCost: 1 << 31})
	wantValidation(t, err, models.CodeInvalid)

	_, err = s.Ranking(ctx, "teachers", nil, "")
	wantValidation(t, err, models.CodeInvalid)
	_, err = s.Ranking(ctx, models.ScopeGroup, nil, "median")
	wantValidation(t, err, models.CodeInvalid)
	rng := models.DateRange{Start: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	_, err = s.Ranking(ctx, models.ScopeStudent, &rng, "")
	wantValidation(t, err, models.CodeInvalid)

	start := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	_, err = s.StartBounty(ctx, models.NewBounty{RewardID: 1, TargetPoints: 10, Type: models.BountyIndividual, StartDate: &start, EndDate: &end})
	wantValidation(t, err, models.CodeInvalid)
	_, err = s.StartBounty(ctx, models.NewBounty{RewardID: 1, TargetPoints: 10, Type: "team"})
	wantValidation(t, err, models.CodeInvalid)
	_, err = s.StartBounty(ctx, models.NewBounty{RewardID: 1, TargetPoints: 0, Type: models.BountyGroup})
	wantValidation(t, err, models.CodeInvalid)

	wantValidation(t, s.CommitBountySettlement(ctx, 1, 1, nil), models.CodeInvalid)
	wantValidation(t, s.AdjustStudent(ctx, 1, 0, "x", "T"), models.CodeZeroAmount)
	_, err = s.AdjustGroup(ctx, 1, 5, " ", "T")
	wantValidation(t, err, models.CodeInvalid)

	_, err = s.CreateStudent(ctx, models.NewStudent{Name: "Ann", Code: ""})
	wantValidation(t, err, models.CodeInvalid)
	_, err = s.CreateGroup(ctx, models.NewGroup{Name: "Red", Color: "red"})
	wantValidation(t, err, models.CodeInvalid)
	_, err = s.RenameCategory(ctx, models.AreaAcademic, "Math", "")
	wantValidation(t, err, models.CodeInvalid)
}

func TestBountyWindow(t *testing.T) {
	loc := time.FixedZone("MSK", 3*3600)
	if bountyWindow(models.Bounty{}, loc) != nil {
		t.Fatal("без дат окна нет")
	}
	// DATE из драйвера приходит полуночью UTC
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	w := bountyWindow(models.Bounty{StartDate: &start, EndDate: &end}, loc)
	if !w.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, loc)) || !w.To.Equal(time.Date(2026, 3, 8, 0, 0, 0, 0, loc)) {
		t.Fatalf("window=%+v", w)
	}
	open := bountyWindow(models.Bounty{StartDate: &start}, loc)
	if open.To.Year() != 9999 {
		t.Fatalf("открытый конец: %+v", open)
	}
}

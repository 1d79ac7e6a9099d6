package points

import (
	"testing"

	"github.com/Spok95/class-points-bot/internal/models"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		amount   int
		reason   string
		kind     models.ChangeKind
		want     models.ChangeKind
		wantCode string
	}{
		{"inferred academic", -1, "[Academic-Homework] Missing homework", models.KindInfer, models.KindBenchmark, ""},
		{"inferred class", -2, "[Class-Discipline] Talking", models.KindInfer, models.KindBenchmark, ""},
		{"positive with tag is ordinary", 3, "[Academic-Homework] Great work", models.KindInfer, models.KindOrdinary, ""},
		{"untagged negative is ordinary", -1, "Late", models.KindInfer, models.KindOrdinary, ""},
		{"activity tag is ordinary", -1, "[Activity] Skipped", models.KindInfer, models.KindOrdinary, ""},
		{"explicit benchmark", -1, "anything", models.KindBenchmark, models.KindBenchmark, ""},
		{"explicit ordinary overrides tag", -1, "[Academic] x", models.KindOrdinary, models.KindOrdinary, ""},
		{"explicit benchmark positive", 1, "[Academic] x", models.KindBenchmark, "", models.CodeInvalid},
		{"zero amount", 0, "x", models.KindInfer, "", models.CodeZeroAmount},
		{"unknown kind", -1, "x", models.ChangeKind("weird"), "", models.CodeInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(tc.amount, tc.reason, tc.kind)
			if tc.wantCode != "" {
				if !models.IsKind(err, models.KindValidation) || models.CodeOf(err) != tc.wantCode {
					t.Fatalf("want validation %s, got %v", tc.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got != tc.want {
				t.Fatalf("kind=%q, want %q", got, tc.want)
			}
		})
	}
}

func TestBonusReason(t *testing.T) {
	cases := map[string]string{
		"[Academic-Homework] Missing homework": "[Benchmark] Missing homework - compliance bonus",
		"[Class] [Discipline] Talking":         "[Benchmark] Talking - compliance bonus",
		"  Untagged reason  ":                  "[Benchmark] Untagged reason - compliance bonus",
		"[Academic] ":                          "[Benchmark] Daily conduct - compliance bonus",
		"":                                     "[Benchmark] Daily conduct - compliance bonus",
	}
	for in, want := range cases {
		if got := BonusReason(in); got != want {
			t.Errorf("BonusReason(%q)=%q, want %q", in, got, want)
		}
	}
	if got := BonusTeacher("Ms. Lee"); got != "system(Ms. Lee)" {
		t.Errorf("BonusTeacher=%q", got)
	}
}

func TestUniqueIDs(t *testing.T) {
	got := UniqueIDs([]int64{3, 1, 3, 2, 1})
	want := []int64{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestIsSettlementReason(t *testing.T) {
	for _, r := range []string{"Redeemed: Pen", "Group redeem: Party", "Auction won: Book", "Bounty achieved: Cup", "manual SETTLE"} {
		if !IsSettlementReason(r) {
			t.Errorf("%q must be a settlement reason", r)
		}
	}
	if IsSettlementReason("[Academic] Homework") {
		t.Error("homework is not a settlement reason")
	}
}

func TestAllowedReasonsRoundTrip(t *testing.T) {
	got := ParseAllowedReasons(" Homework , ,Reading")
	if len(got) != 2 || got[0] != "Homework" || got[1] != "Reading" {
		t.Fatalf("parse: %v", got)
	}
	if ParseAllowedReasons("  ") != nil {
		t.Fatal("blank must mean unrestricted")
	}
	if s := JoinAllowedReasons([]string{"a", " ", "b "}); s != "a,b" {
		t.Fatalf("join: %q", s)
	}
}

func TestSubmitReason(t *testing.T) {
	if got := SubmitReason("  "); got != DefaultReason {
		t.Fatalf("пустая причина: %q", got)
	}
	if got := SubmitReason(" Helped a classmate "); got != "Helped a classmate" {
		t.Fatalf("got %q", got)
	}
	if k, _ := Classify(3, SubmitReason(""), models.KindInfer); k != models.KindOrdinary {
		t.Fatalf("заявка без причины должна идти в очередь, got %q", k)
	}
}

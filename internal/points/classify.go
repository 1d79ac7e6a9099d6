// Package points содержит чистые правила начисления: классификацию заявок,
// бонусы за соблюдение, разбиение стоимости, ленты и сортировку рейтинга.
package points

import (
	"strings"

	"github.com/Spok95/class-points-bot/internal/models"
)

// BenchmarkBonus: сколько получает каждый, кого не наказали по базовому правилу.
const BenchmarkBonus = 2

// BenchmarkMarker: префикс причины системного бонуса.
const BenchmarkMarker = "[Benchmark]"

const defaultConductLabel = "Daily conduct"

// Префиксы причин, по которым заявка считается базовым правилом.
var benchmarkTags = []string{
	"[" + models.AreaAcademic,
	"[" + models.AreaClass,
}

// IsBenchmarkReason: причина начинается с тега Academic или Class.
func IsBenchmarkReason(reason string) bool {
	for _, tag := range benchmarkTags {
		if strings.HasPrefix(reason, tag) {
			return true
		}
	}
	return false
}

// Classify определяет вид заявки. Явный вид имеет приоритет, иначе
// вид выводится по знаку и тексту причины, как для старых записей.
func Classify(amount int, reason string, explicit models.ChangeKind) (models.ChangeKind, error) {
	if amount == 0 {
		return "", models.Validation(models.CodeZeroAmount, "change amount must not be zero")
	}
	switch explicit {
	case models.KindBenchmark:
		if amount > 0 {
			return "", models.Validation(models.CodeInvalid, "benchmark change must be negative, got %d", amount)
		}
		return models.KindBenchmark, nil
	case models.KindOrdinary:
		return models.KindOrdinary, nil
	case models.KindInfer:
		if amount < 0 && IsBenchmarkReason(reason) {
			return models.KindBenchmark, nil
		}
		return models.KindOrdinary, nil
	default:
		return "", models.Validation(models.CodeInvalid, "unknown change kind %q", explicit)
	}
}

// BonusReason строит причину бонуса из хвоста исходной причины после последнего "] ".
func BonusReason(reason string) string {
	tail := strings.TrimSpace(reason)
	if i := strings.LastIndex(reason, "] "); i >= 0 {
		tail = strings.TrimSpace(reason[i+2:])
	}
	if tail == "" {
		tail = defaultConductLabel
	}
	return BenchmarkMarker + " " + tail + " - compliance bonus"
}

func BonusTeacher(submitter string) string {
	return TeacherSystem + "(" + submitter + ")"
}

// UniqueIDs убирает повторы, сохраняя порядок.
func UniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package points

import (
	"sort"
	"strings"

	"github.com/Spok95/class-points-bot/internal/models"
)

type collapseKey struct {
	reason string
	at     int64
}

// CurateFeeds раскладывает одобренные записи дня на ленты плюсов и минусов.
// События расчёта отбрасываются, бонусы за соблюдение сворачиваются
// в одну строку на пару (причина, время).
func CurateFeeds(entries []models.HistoryWithStudent) (plus, minus []models.FeedItem) {
	plus = []models.FeedItem{}
	minus = []models.FeedItem{}
	collapsed := map[collapseKey]int{} // индекс в plus

	for _, e := range entries {
		if e.Status != models.StatusApproved || IsSettlementReason(e.Reason) {
			continue
		}
		item := models.FeedItem{
			EntryID:     e.ID,
			StudentName: e.StudentName,
			Reason:      e.Reason,
			Amount:      e.Amount,
			CreatedAt:   e.CreatedAt,
			Count:       1,
		}
		switch {
		case e.Amount > 0 && strings.HasPrefix(e.Reason, BenchmarkMarker):
			k := collapseKey{reason: e.Reason, at: e.CreatedAt.UnixMicro()}
			if idx, ok := collapsed[k]; ok {
				plus[idx].Count++
				continue
			}
			item.StudentName = ""
			item.Collapsed = true
			collapsed[k] = len(plus)
			plus = append(plus, item)
		case e.Amount > 0:
			plus = append(plus, item)
		case e.Amount < 0:
			minus = append(minus, item)
		}
	}
	sortNewestFirst(plus)
	sortNewestFirst(minus)
	return plus, minus
}

func sortNewestFirst(items []models.FeedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].EntryID > items[j].EntryID
	})
}

// ClassifyEvent относит отрицательную запись к обмену, аукциону или испытанию.
func ClassifyEvent(reason string) (models.EventType, string, bool) {
	switch {
	case strings.HasPrefix(reason, ReasonAuctionPrefix):
		return models.EventAuction, strings.TrimPrefix(reason, ReasonAuctionPrefix), true
	case strings.HasPrefix(reason, ReasonBountyPrefix):
		return models.EventBounty, strings.TrimPrefix(reason, ReasonBountyPrefix), true
	case strings.HasPrefix(reason, ReasonRedeemPrefix):
		return models.EventReward, strings.TrimPrefix(reason, ReasonRedeemPrefix), true
	case strings.HasPrefix(reason, ReasonGroupRedeemPrefix):
		return models.EventReward, strings.TrimPrefix(reason, ReasonGroupRedeemPrefix), true
	}
	return "", "", false
}

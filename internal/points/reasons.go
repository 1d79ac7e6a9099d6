package points

import "strings"

// Причины и авторы системных записей.
const (
	ReasonAuctionPrefix     = "Auction won: "
	ReasonBountyPrefix      = "Bounty achieved: "
	ReasonRedeemPrefix      = "Redeemed: "
	ReasonGroupRedeemPrefix = "Group redeem: "

	TeacherSystem  = "system"
	TeacherAuction = "Auction system"
	TeacherBounty  = "Bounty settlement"

	DefaultSubmitter = "self-service"
	DefaultReason    = "Self-report"
)

// Ключевые слова событий расчёта: такие записи не попадают в ленты поведения.
var settlementKeywords = []string{"redeem", "auction", "bounty", "settle"}

func IsSettlementReason(reason string) bool {
	r := strings.ToLower(reason)
	for _, kw := range settlementKeywords {
		if strings.Contains(r, kw) {
			return true
		}
	}
	return false
}

// ParseAllowedReasons разбирает список причин через запятую. Пустая строка: без ограничений.
func ParseAllowedReasons(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func JoinAllowedReasons(reasons []string) string {
	clean := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r = strings.TrimSpace(r); r != "" {
			clean = append(clean, r)
		}
	}
	return strings.Join(clean, ",")
}

// StandardReason: текст причины для пункта каталога, например "[Academic-Math] Missing homework".
func StandardReason(area, category, name string) string {
	return "[" + area + "-" + category + "] " + name
}

// SubmitReason: причина заявки без пробелов по краям, для пустой DefaultReason.
func SubmitReason(reason string) string {
	if r := strings.TrimSpace(reason); r != "" {
		return r
	}
	return DefaultReason
}

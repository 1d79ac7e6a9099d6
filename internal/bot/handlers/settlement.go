package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/class-points-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/Spok95/class-points-bot/internal/points"
)

const (
	auctionFinishPrefix = "auction_finish_"

	bountyPrefix        = "bounty_"
	bountyPreviewPrefix = "bounty_preview_"
	bountyCommitPrefix  = "bounty_commit_"
	bountyCancelData    = "bounty_cancel"
)

func auctionFinishData(id int64) string {
	return fmt.Sprintf("%s%d", auctionFinishPrefix, id)
}

// ParseAuctionCallback: auction_finish_<id>.
func ParseAuctionCallback(data string) (int64, bool) {
	rest, found := strings.CutPrefix(data, auctionFinishPrefix)
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func FormatAuction(a *models.Auction) string {
	if a == nil {
		return "🎯 Активного аукциона нет."
	}
	leader := "ставок пока нет"
	if a.BidderName != nil {
		leader = "лидер " + *a.BidderName
	}
	return fmt.Sprintf("🎯 Аукцион #%d: %s\n💰 Текущая цена: %d\n👤 %s", a.ID, a.RewardName, a.CurrentPrice, leader)
}

// ShowAuction: без аргументов показывает аукцион и кнопку завершения,
// "start <награда> <цена>" запускает новый, "bid <аукцион> <ученик> <ставка>" ставит.
func (h *Handler) ShowAuction(ctx context.Context, chatID int64, args string) {
	f := strings.Fields(args)
	if len(f) > 0 {
		h.auctionCommand(ctx, chatID, f)
		return
	}
	a, err := h.svc.CurrentAuction(ctx)
	if err != nil {
		h.fail(chatID, "auction", err)
		return
	}
	msg := tgbotapi.NewMessage(chatID, FormatAuction(a))
	if a != nil {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏁 Завершить", auctionFinishData(a.ID)),
		))
	}
	h.send(msg)
}

func (h *Handler) auctionCommand(ctx context.Context, chatID int64, f []string) {
	nums, err := parseInts(f[1:])
	switch {
	case strings.ToLower(f[0]) == "start" && err == nil && len(nums) == 2:
		id, err := h.svc.StartAuction(ctx, nums[0], int(nums[1]))
		if err != nil {
			h.fail(chatID, "start_auction", err)
			return
		}
		h.reply(chatID, fmt.Sprintf("🎯 Аукцион #%d запущен, стартовая цена %d.", id, nums[1]))
	case strings.ToLower(f[0]) == "bid" && err == nil && len(nums) == 3:
		if err := h.svc.PlaceBid(ctx, nums[0], nums[1], int(nums[2])); err != nil {
			h.fail(chatID, "place_bid", err)
			return
		}
		h.reply(chatID, fmt.Sprintf("💰 Ставка %d принята.", nums[2]))
	default:
		h.reply(chatID, "⚠️ Формат: /auction start <id награды> <цена> или /auction bid <id аукциона> <id ученика> <ставка>")
	}
}

// parseInts разбирает все токены как целые.
func parseInts(tokens []string) ([]int64, error) {
	out := make([]int64, 0, len(tokens))
	for _, t := range tokens {
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("не число: %q", t)
		}
		out = append(out, n)
	}
	return out, nil
}

func (h *Handler) HandleAuctionCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	id, ok := ParseAuctionCallback(cq.Data)
	if !ok {
		h.reply(chatID, "⚠️ Некорректная кнопка.")
		return
	}
	fsmutil.DisableMarkup(h.bot, chatID, cq.Message.MessageID)

	done, err := h.svc.FinishAuction(ctx, id)
	if err != nil {
		h.fail(chatID, "finish_auction", err)
		return
	}
	if done.BidderName == nil {
		h.reply(chatID, fmt.Sprintf("🏁 Аукцион «%s» завершён без ставок.", done.RewardName))
		return
	}
	h.reply(chatID, fmt.Sprintf("🏁 Аукцион «%s» выиграл %s за %d.", done.RewardName, *done.BidderName, done.CurrentPrice))
}

func FormatBounties(ps []models.BountyProgress, loc *time.Location) string {
	if len(ps) == 0 {
		return "🏁 Активных испытаний нет."
	}
	var b strings.Builder
	for i, p := range ps {
		if i > 0 {
			b.WriteString("\n\n")
		}
		kind := "индивидуальное"
		if p.Bounty.Type == models.BountyGroup {
			kind = "групповое"
		}
		fmt.Fprintf(&b, "🏁 #%d %s (%s), цель %d", p.Bounty.ID, p.Bounty.RewardName, kind, p.Bounty.TargetPoints)
		if p.Bounty.StartDate != nil || p.Bounty.EndDate != nil {
			fmt.Fprintf(&b, "\n📅 %s..%s", fmtDate(p.Bounty.StartDate, loc), fmtDate(p.Bounty.EndDate, loc))
		}
		if len(p.Bounty.AllowedReasons) > 0 {
			fmt.Fprintf(&b, "\n📚 %s", strings.Join(p.Bounty.AllowedReasons, ", "))
		}
		if len(p.Leaders) == 0 {
			b.WriteString("\nЛидеров пока нет")
		}
		for n, l := range p.Leaders {
			fmt.Fprintf(&b, "\n%d. %s: %d", n+1, l.Name, l.Points)
		}
		if p.Reached {
			b.WriteString("\n✅ Цель достигнута")
		}
	}
	return b.String()
}

func fmtDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "…"
	}
	return t.In(loc).Format(dateLayout)
}

// ShowBounties: сводка испытаний и кнопки выбора победителя для достигнутых целей.
func (h *Handler) ShowBounties(ctx context.Context, chatID int64) {
	ps, err := h.svc.BountyProgress(ctx)
	if err != nil {
		h.fail(chatID, "bounties", err)
		return
	}
	h.reply(chatID, FormatBounties(ps, h.svc.Location()))
	for _, p := range ps {
		if rows := winnerRows(p); len(rows) > 0 {
			msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🏆 #%d %s: кого наградить?", p.Bounty.ID, p.Bounty.RewardName))
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
			h.send(msg)
		}
	}
}

// winnerRows: кнопки для лидеров, набравших цель.
func winnerRows(p models.BountyProgress) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, l := range p.Leaders {
		if l.Points < p.Bounty.TargetPoints {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%s (%d)", l.Name, l.Points), bountyData(bountyPreviewPrefix, p.Bounty.ID, l.ID),
		)))
	}
	return rows
}

func bountyData(prefix string, bountyID, winnerID int64) string {
	return fmt.Sprintf("%s%d_%d", prefix, bountyID, winnerID)
}

// ParseBountyCallback: bounty_preview_<испытание>_<победитель>, bounty_commit_<...>_<...>, bounty_cancel.
func ParseBountyCallback(data string) (action string, bountyID, winnerID int64, ok bool) {
	if data == bountyCancelData {
		return "cancel", 0, 0, true
	}
	var rest string
	switch {
	case strings.HasPrefix(data, bountyPreviewPrefix):
		action, rest = "preview", strings.TrimPrefix(data, bountyPreviewPrefix)
	case strings.HasPrefix(data, bountyCommitPrefix):
		action, rest = "commit", strings.TrimPrefix(data, bountyCommitPrefix)
	default:
		return "", 0, 0, false
	}
	bStr, wStr, found := strings.Cut(rest, "_")
	if !found {
		return "", 0, 0, false
	}
	b, err1 := strconv.ParseInt(bStr, 10, 64)
	w, err2 := strconv.ParseInt(wStr, 10, 64)
	if err1 != nil || err2 != nil || b <= 0 || w <= 0 {
		return "", 0, 0, false
	}
	return action, b, w, true
}

func FormatPlan(p *models.SettlementPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 Испытание #%d: «%s», списать %d", p.BountyID, p.RewardName, p.Total)
	for _, it := range p.Items {
		fmt.Fprintf(&b, "\n👤 %s: %d → %d (−%d)", it.Name, it.Current, it.Current-it.Deduct, it.Deduct)
	}
	return b.String()
}

func (h *Handler) HandleBountyCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID
	action, bountyID, winnerID, ok := ParseBountyCallback(cq.Data)
	if !ok {
		h.reply(chatID, "⚠️ Некорректная кнопка.")
		return
	}
	fsmutil.DisableMarkup(h.bot, chatID, msgID)

	switch action {
	case "cancel":
		h.settle.Delete(chatID)
		h.send(tgbotapi.NewEditMessageText(chatID, msgID, "🚫 Закрытие испытания отменено."))
	case "preview":
		plan, err := h.svc.PreviewBountySettlement(ctx, bountyID, winnerID)
		if err != nil {
			h.fail(chatID, "preview_bounty", err)
			return
		}
		h.settle.Set(chatID, plan)
		msg := tgbotapi.NewMessage(chatID, FormatPlan(plan))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Списать", bountyData(bountyCommitPrefix, bountyID, winnerID)),
			),
			fsmutil.CancelRow(bountyCancelData),
		)
		h.send(msg)
	case "commit":
		plan := h.settle.Get(chatID)
		if plan == nil || plan.BountyID != bountyID || plan.WinnerID != winnerID {
			h.reply(chatID, "⚠️ План устарел, откройте /bounties заново.")
			return
		}
		key := fmt.Sprintf("bounty:%d", bountyID)
		if !fsmutil.SetPending(chatID, key) {
			h.reply(chatID, "⏳ Уже выполняется, подождите.")
			return
		}
		defer fsmutil.ClearPending(chatID, key)

		if err := h.svc.CommitBountySettlement(ctx, bountyID, winnerID, plan.Items); err != nil {
			h.fail(chatID, "commit_bounty", err)
			return
		}
		h.settle.Delete(chatID)
		h.reply(chatID, fmt.Sprintf("✅ Испытание #%d закрыто, списано %d.", bountyID, plan.Total))
	}
}

// ParseBountyArgs: start <награда> <цель> individual|group [дата [дата]] [причина, причина].
func ParseBountyArgs(args string, loc *time.Location) (models.NewBounty, error) {
	f := strings.Fields(args)
	if len(f) < 4 || strings.ToLower(f[0]) != "start" {
		return models.NewBounty{}, fmt.Errorf("формат: /bounty start <id награды> <цель> individual|group [ГГГГ-ММ-ДД [ГГГГ-ММ-ДД]] [причина, причина]")
	}
	rewardID, err := strconv.ParseInt(f[1], 10, 64)
	if err != nil {
		return models.NewBounty{}, fmt.Errorf("неверный id награды %q", f[1])
	}
	target, err := strconv.Atoi(f[2])
	if err != nil {
		return models.NewBounty{}, fmt.Errorf("неверная цель %q", f[2])
	}
	nb := models.NewBounty{RewardID: rewardID, TargetPoints: target, Type: models.BountyType(strings.ToLower(f[3]))}

	rest := f[4:]
	for _, dst := range []**time.Time{&nb.StartDate, &nb.EndDate} {
		if len(rest) == 0 {
			break
		}
		d, err := time.ParseInLocation(dateLayout, rest[0], loc)
		if err != nil {
			break
		}
		*dst = &d
		rest = rest[1:]
	}
	nb.AllowedReasons = points.ParseAllowedReasons(strings.Join(rest, " "))
	return nb, nil
}

func (h *Handler) StartBounty(ctx context.Context, chatID int64, args string) {
	nb, err := ParseBountyArgs(args, h.svc.Location())
	if err != nil {
		h.reply(chatID, "⚠️ "+err.Error())
		return
	}
	id, err := h.svc.StartBounty(ctx, nb)
	if err != nil {
		h.fail(chatID, "start_bounty", err)
		return
	}
	h.reply(chatID, fmt.Sprintf("🏁 Испытание #%d запущено, цель %d.", id, nb.TargetPoints))
}

package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/class-points-bot/internal/bot/menu"
	"github.com/Spok95/class-points-bot/internal/bot/shared/fsmutil"
	"github.com/Spok95/class-points-bot/internal/metrics"
	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/Spok95/class-points-bot/internal/tg"
)

// Ledger: операции ядра, доступные проверяющему из бота.
type Ledger interface {
	SubmitChange(ctx context.Context, req models.ChangeRequest) (models.SubmitResult, error)
	AdjustStudent(ctx context.Context, studentID int64, amount int, reason, teacher string) error
	AdjustGroup(ctx context.Context, groupID int64, amount int, reason, teacher string) (int, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
	StudentHistory(ctx context.Context, studentID int64) (*models.StudentHistory, error)
	ListRewards(ctx context.Context, shopOnly bool) ([]models.Reward, error)
	ListPending(ctx context.Context) ([]models.HistoryWithStudent, error)
	ProcessPending(ctx context.Context, ids []int64, action models.AuditAction) ([]models.ProcessResult, error)
	ApproveAll(ctx context.Context) ([]models.ProcessResult, error)
	Ranking(ctx context.Context, scope models.RankScope, rng *models.DateRange, metric models.GroupMetric) ([]models.RankRow, error)
	ListGroups(ctx context.Context) ([]models.GroupSummary, error)
	Stats(ctx context.Context, day *time.Time) (*models.Stats, error)
	RecentEvents(ctx context.Context, day *time.Time) ([]models.Event, error)
	StartAuction(ctx context.Context, rewardID int64, startPrice int) (int64, error)
	CurrentAuction(ctx context.Context) (*models.Auction, error)
	PlaceBid(ctx context.Context, auctionID, studentID int64, amount int) error
	FinishAuction(ctx context.Context, auctionID int64) (*models.Auction, error)
	StartBounty(ctx context.Context, nb models.NewBounty) (int64, error)
	BountyProgress(ctx context.Context) ([]models.BountyProgress, error)
	PreviewBountySettlement(ctx context.Context, bountyID, winnerID int64) (*models.SettlementPlan, error)
	CommitBountySettlement(ctx context.Context, bountyID, winnerID int64, plan []models.PlanItem) error
	RedeemReward(ctx context.Context, studentID, rewardID int64) error
	RedeemGroupReward(ctx context.Context, groupID, rewardID int64) (models.GroupRedeemResult, error)
	Location() *time.Location
}

type Handler struct {
	svc Ledger
	bot tg.Sender
	log *zap.Logger
	now func() time.Time

	add    *fsmutil.Store[addState]
	settle *fsmutil.Store[models.SettlementPlan]
}

func New(svc Ledger, bot tg.Sender, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		svc:    svc,
		bot:    bot,
		log:    log,
		now:    time.Now,
		add:    fsmutil.NewStore[addState](),
		settle: fsmutil.NewStore[models.SettlementPlan](),
	}
}

// HandleMessage разбирает команду или кнопку меню.
func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	if fsmutil.IsCancelText(text) {
		h.cancelDialogs(chatID)
		return
	}
	if st := h.add.Get(chatID); st != nil && st.Step == addStepAmount && !strings.HasPrefix(text, "/") {
		h.handleAddText(ctx, msg, st)
		return
	}
	cmd, args := splitCommand(menu.Command(text))

	switch cmd {
	case "/start", "/help":
		out := tgbotapi.NewMessage(chatID, helpText)
		out.ReplyMarkup = menu.ReviewerMenu()
		h.send(out)
	case "/add":
		h.StartAdd(ctx, chatID)
	case "/adjust":
		h.Adjust(ctx, chatID, args, senderName(msg.From))
	case "/students":
		h.ShowStudents(ctx, chatID)
	case "/student":
		h.ShowStudent(ctx, chatID, args)
	case "/rewards":
		h.ShowRewards(ctx, chatID)
	case "/redeem":
		h.Redeem(ctx, chatID, args)
	case "/pending":
		h.ShowPending(ctx, chatID)
	case "/ranking":
		h.ShowRanking(ctx, chatID, args)
	case "/groups":
		h.ShowGroups(ctx, chatID)
	case "/stats":
		h.ShowStats(ctx, chatID, args)
	case "/auction":
		h.ShowAuction(ctx, chatID, args)
	case "/bounties":
		h.ShowBounties(ctx, chatID)
	case "/bounty":
		h.StartBounty(ctx, chatID, args)
	case "/export":
		h.Export(ctx, chatID)
	default:
		h.reply(chatID, "⚠️ Неизвестная команда. Список команд: /help")
	}
}

// HandleCallback: нажатия inline-кнопок.
func (h *Handler) HandleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := tg.Request(h.bot, tgbotapi.NewCallback(cq.ID, "")); err != nil {
		metrics.HandlerErrors.Inc()
	}
	if cq.Message == nil {
		return
	}
	switch {
	case strings.HasPrefix(cq.Data, auditPrefix):
		h.HandleAuditCallback(ctx, cq)
	case strings.HasPrefix(cq.Data, addPrefix):
		h.HandleAddCallback(ctx, cq)
	case strings.HasPrefix(cq.Data, auctionFinishPrefix):
		h.HandleAuctionCallback(ctx, cq)
	case strings.HasPrefix(cq.Data, bountyPrefix):
		h.HandleBountyCallback(ctx, cq)
	}
}

// cancelDialogs сбрасывает незавершённые диалоги чата.
func (h *Handler) cancelDialogs(chatID int64) {
	h.add.Delete(chatID)
	h.settle.Delete(chatID)
	h.reply(chatID, "🚫 Отменено.")
}

// senderName: подпись автора записи. Пустая строка, если отправитель неизвестен.
func senderName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

const helpText = `Команды проверяющего:
/add: начислить или списать баллы ученикам
/adjust student|group <id> <±баллы> <причина>: прямая корректировка
/students: ученики и балансы
/student <id>: история ученика
/rewards: награды
/redeem <id ученика> <id награды>, /redeem group <id группы> <id награды>: выдать награду
/pending: заявки на проверке
/ranking [groups] [avg|sum] [ГГГГ-ММ-ДД [ГГГГ-ММ-ДД]]: рейтинг
/groups: группы
/stats [ГГГГ-ММ-ДД]: сводка и ленты дня
/auction: текущий аукцион
/auction start <id награды> <цена>, /auction bid <id аукциона> <id ученика> <ставка>
/bounties: активные испытания и закрытие
/bounty start <id награды> <цель> individual|group [ГГГГ-ММ-ДД [ГГГГ-ММ-ДД]] [причина, причина]
/export: рейтинг в Excel
/cancel: отменить ввод`

// splitCommand: "/stats@bot 2026-03-02" -> ("/stats", "2026-03-02").
func splitCommand(text string) (string, string) {
	cmd, args, _ := strings.Cut(text, " ")
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), strings.TrimSpace(args)
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := tg.Send(h.bot, c); err != nil {
		metrics.HandlerErrors.Inc()
		h.log.Warn("telegram send failed", zap.Error(err))
	}
}

func (h *Handler) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

// fail отвечает коротким текстом по виду ошибки.
func (h *Handler) fail(chatID int64, op string, err error) {
	h.log.Info("bot command failed", zap.String("op", op), zap.Int64("chat_id", chatID), zap.Error(err))
	h.reply(chatID, ErrorText(err))
}

// ErrorText: сообщение пользователю по ошибке ядра.
func ErrorText(err error) string {
	switch models.CodeOf(err) {
	case models.CodeNotPending:
		return "ℹ️ Заявка уже обработана."
	case models.CodeNotActive:
		return "ℹ️ Уже завершено."
	case models.CodeNotFound:
		return "⚠️ Не найдено."
	case models.CodeOutOfStock:
		return "⚠️ Награда закончилась."
	case models.CodeInsufficientPoints:
		return "⚠️ Недостаточно баллов."
	case models.CodeStaleOrLowBid:
		return "⚠️ Ставка не выше текущей цены или аукцион уже закрыт."
	case models.CodeAlreadyRedeemed:
		return "ℹ️ Награда уже выдана."
	case models.CodeStorage:
		return "❌ Ошибка базы данных, попробуйте позже."
	}
	var e *models.Error
	if errors.As(err, &e) && e.Kind == models.KindValidation {
		return "⚠️ Неверные данные: " + e.Msg
	}
	return "⚠️ Операция отклонена: " + models.CodeOf(err)
}

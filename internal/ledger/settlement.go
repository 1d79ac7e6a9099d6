package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/class-points-bot/internal/db"
	"github.com/Spok95/class-points-bot/internal/metrics"
	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/Spok95/class-points-bot/internal/points"
)

const leaderboardSize = 3

func (s *Service) StartAuction(ctx context.Context, rewardID int64, startPrice int) (int64, error) {
	const op = "start_auction"
	if startPrice < 0 {
		return 0, s.reject(op, models.Validation(models.CodeInvalid, "start price must be >= 0, got %d", startPrice))
	}
	if err := checkBound("start price", startPrice); err != nil {
		return 0, s.reject(op, err)
	}
	id, err := call(ctx, s, op, func(ctx context.Context) (int64, error) {
		return db.StartAuction(ctx, s.db, rewardID, startPrice, s.now())
	})
	if err == nil {
		s.log.Info("auction started", zap.Int64("auction_id", id), zap.Int64("reward_id", rewardID), zap.Int("start_price", startPrice))
	}
	return id, err
}

// CurrentAuction: активный аукцион или nil.
func (s *Service) CurrentAuction(ctx context.Context) (*models.Auction, error) {
	return call(ctx, s, "current_auction", func(ctx context.Context) (*models.Auction, error) {
		return db.CurrentAuction(ctx, s.db)
	})
}

func (s *Service) PlaceBid(ctx context.Context, auctionID, studentID int64, amount int) error {
	const op = "place_bid"
	if err := checkBound("bid", amount); err != nil {
		return s.reject(op, err)
	}
	err := run(ctx, s, op, func(ctx context.Context) error {
		return db.PlaceBid(ctx, s.db, auctionID, studentID, amount)
	})
	if err == nil {
		s.log.Info("bid accepted", zap.Int64("auction_id", auctionID), zap.Int64("student_id", studentID), zap.Int("amount", amount))
	}
	return err
}

func (s *Service) FinishAuction(ctx context.Context, auctionID int64) (*models.Auction, error) {
	a, err := call(ctx, s, "finish_auction", func(ctx context.Context) (*models.Auction, error) {
		return db.FinishAuction(ctx, s.db, auctionID, s.now())
	})
	if err != nil {
		return nil, err
	}
	if a.HighestBidderID != nil {
		metrics.Settlements.WithLabelValues("auction").Inc()
	}
	s.log.Info("auction finished", zap.Int64("auction_id", a.ID), zap.Int("price", a.CurrentPrice))
	return a, nil
}

func (s *Service) StartBounty(ctx context.Context, nb models.NewBounty) (int64, error) {
	const op = "start_bounty"
	if err := validateStruct(nb); err != nil {
		return 0, s.reject(op, err)
	}
	if nb.StartDate != nil {
		d := points.DayStart(*nb.StartDate, s.loc)
		nb.StartDate = &d
	}
	if nb.EndDate != nil {
		d := points.DayStart(*nb.EndDate, s.loc)
		nb.EndDate = &d
	}
	if nb.StartDate != nil && nb.EndDate != nil && nb.EndDate.Before(*nb.StartDate) {
		return 0, s.reject(op, models.Validation(models.CodeInvalid, "bounty window ends before it starts"))
	}
	id, err := call(ctx, s, op, func(ctx context.Context) (int64, error) {
		return db.StartBounty(ctx, s.db, nb, s.now())
	})
	if err == nil {
		s.log.Info("bounty started", zap.Int64("bounty_id", id), zap.String("type", string(nb.Type)), zap.Int("target", nb.TargetPoints))
	}
	return id, err
}

// bountyWindow: окно испытания в зоне loc или nil, если даты не заданы.
func bountyWindow(b models.Bounty, loc *time.Location) *db.Window {
	if b.StartDate == nil && b.EndDate == nil {
		return nil
	}
	w := &db.Window{
		From: time.Unix(0, 0).UTC(),
		To:   time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if b.StartDate != nil {
		w.From = points.DateIn(*b.StartDate, loc)
	}
	if b.EndDate != nil {
		w.To = points.DateIn(*b.EndDate, loc).AddDate(0, 0, 1)
	}
	return w
}

// BountyProgress: активные испытания с тремя лидерами каждое.
func (s *Service) BountyProgress(ctx context.Context) ([]models.BountyProgress, error) {
	const op = "bounty_progress"
	today := points.DayStart(s.now(), s.loc)
	bounties, err := call(ctx, s, op, func(ctx context.Context) ([]models.Bounty, error) {
		return db.ActiveBounties(ctx, s.db, today)
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.BountyProgress, 0, len(bounties))
	for _, b := range bounties {
		leaders, err := call(ctx, s, op, func(ctx context.Context) ([]models.Leader, error) {
			return db.BountyLeaders(ctx, s.db, b, bountyWindow(b, s.loc))
		})
		if err != nil {
			return nil, err
		}
		top := points.TopLeaders(leaders, leaderboardSize)
		out = append(out, models.BountyProgress{Bounty: b, Leaders: top, Reached: points.Reached(top, b.TargetPoints)})
	}
	return out, nil
}

// PreviewBountySettlement строит план списания, ничего не меняя.
func (s *Service) PreviewBountySettlement(ctx context.Context, bountyID, winnerID int64) (*models.SettlementPlan, error) {
	return call(ctx, s, "preview_bounty", func(ctx context.Context) (*models.SettlementPlan, error) {
		b, err := db.GetBounty(ctx, s.db, bountyID)
		if err != nil {
			return nil, err
		}
		if b.Status != models.BountyActive {
			return nil, models.Conflict(models.CodeNotActive, "bounty %d is %s", bountyID, b.Status)
		}

		plan := &models.SettlementPlan{BountyID: b.ID, WinnerID: winnerID, RewardName: b.RewardName, Total: b.RewardCost}
		if b.Type == models.BountyGroup {
			if _, err := db.GetGroup(ctx, s.db, winnerID); err != nil {
				return nil, err
			}
			members, err := db.GroupMembers(ctx, s.db, winnerID)
			if err != nil {
				return nil, err
			}
			if len(members) == 0 {
				return nil, models.Validation(models.CodeNoTargets, "group %d has no members", winnerID)
			}
			plan.Items = points.SplitCost(b.RewardCost, members)
			return plan, nil
		}

		st, err := db.GetStudent(ctx, s.db, winnerID)
		if err != nil {
			return nil, err
		}
		plan.Items = points.IndividualPlan(b.RewardCost, points.Member{ID: st.ID, Name: st.Name, Points: st.Points})
		return plan, nil
	})
}

// CommitBountySettlement применяет утверждённый план.
func (s *Service) CommitBountySettlement(ctx context.Context, bountyID, winnerID int64, plan []models.PlanItem) error {
	const op = "commit_bounty"
	if len(plan) == 0 {
		return s.reject(op, models.Validation(models.CodeInvalid, "settlement plan is empty"))
	}
	err := run(ctx, s, op, func(ctx context.Context) error {
		return db.CommitBountySettlement(ctx, s.db, bountyID, winnerID, plan, s.now())
	})
	if err != nil {
		return err
	}
	metrics.Settlements.WithLabelValues("bounty").Inc()
	s.log.Info("bounty settled", zap.Int64("bounty_id", bountyID), zap.Int64("winner_id", winnerID), zap.Int("total", points.PlanTotal(plan)))
	return nil
}

func (s *Service) RedeemReward(ctx context.Context, studentID, rewardID int64) error {
	err := run(ctx, s, "redeem_reward", func(ctx context.Context) error {
		return db.RedeemReward(ctx, s.db, studentID, rewardID, s.now())
	})
	if err == nil {
		metrics.Settlements.WithLabelValues("redeem").Inc()
		s.log.Info("reward redeemed", zap.Int64("student_id", studentID), zap.Int64("reward_id", rewardID))
	}
	return err
}

func (s *Service) RedeemGroupReward(ctx context.Context, groupID, rewardID int64) (models.GroupRedeemResult, error) {
	res, err := call(ctx, s, "redeem_group_reward", func(ctx context.Context) (models.GroupRedeemResult, error) {
		return db.RedeemGroupReward(ctx, s.db, groupID, rewardID, s.now())
	})
	if err == nil {
		metrics.Settlements.WithLabelValues("group_redeem").Inc()
		s.log.Info("group reward redeemed", zap.Int64("group_id", groupID), zap.Int64("reward_id", rewardID), zap.Int("total", res.Total))
	}
	return res, err
}

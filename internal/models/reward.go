package models

import "time"

type Reward struct {
	ID            int64     `db:"id"`
	Name          string    `db:"name" validate:"notblank,max=100"`
	Description   string    `db:"description" validate:"max=500"`
	PointsCost    int       `db:"points_cost" validate:"gte=0,max=1000000"`
	ImagePath     string    `db:"image_path"`
	Stock         int       `db:"stock" validate:"gte=0,max=1000000"`
	IsSpecial     bool      `db:"is_special"`
	IsGroupReward bool      `db:"is_group_reward"`
	IsShop        bool      `db:"is_shop"`
	CreatedAt     time.Time `db:"created_at"`
}

const DefaultRewardStock = 10

type Redemption struct {
	ID         int64     `db:"id"`
	StudentID  int64     `db:"student_id"`
	RewardID   int64     `db:"reward_id"`
	RedeemedAt time.Time `db:"redeemed_at"`
}

// GroupRedeemResult: сколько списано с каждого участника группы.
type GroupRedeemResult struct {
	Members    int
	PerStudent int
	Total      int
}

type AuctionStatus string

const (
	AuctionActive    AuctionStatus = "active"
	AuctionCancelled AuctionStatus = "cancelled"
	AuctionFinished  AuctionStatus = "finished"
)

type Auction struct {
	ID              int64         `db:"id"`
	RewardID        int64         `db:"reward_id"`
	RewardName      string        `db:"reward_name"`
	Status          AuctionStatus `db:"status"`
	CurrentPrice    int           `db:"current_price"`
	HighestBidderID *int64        `db:"highest_bidder_id"`
	BidderName      *string       `db:"bidder_name"`
	CreatedAt       time.Time     `db:"created_at"`
	FinishedAt      *time.Time    `db:"finished_at"`
}

type BountyType string

const (
	BountyIndividual BountyType = "individual"
	BountyGroup      BountyType = "group"
)

type BountyStatus string

const (
	BountyActive   BountyStatus = "active"
	BountyFinished BountyStatus = "finished"
)

type Bounty struct {
	ID             int64        `db:"id"`
	RewardID       int64        `db:"reward_id"`
	RewardName     string       `db:"reward_name"`
	RewardCost     int          `db:"points_cost"`
	RewardStock    int          `db:"stock"`
	TargetPoints   int          `db:"target_points"`
	AllowedReasons []string     `db:"allowed_reasons"`
	StartDate      *time.Time   `db:"start_date"`
	EndDate        *time.Time   `db:"end_date"`
	Type           BountyType   `db:"type"`
	Description    string       `db:"description"`
	Status         BountyStatus `db:"status"`
	WinnerID       *int64       `db:"winner_id"`
	CreatedAt      time.Time    `db:"created_at"`
	FinishedAt     *time.Time   `db:"finished_at"`
}

// NewBounty: параметры запуска испытания.
type NewBounty struct {
	RewardID       int64      `validate:"gt=0"`
	TargetPoints   int        `validate:"gt=0,max=1000000"`
	Type           BountyType `validate:"oneof=individual group"`
	AllowedReasons []string   `validate:"dive,required"`
	StartDate      *time.Time
	EndDate        *time.Time
	Description    string `validate:"max=500"`
}

// Leader: участник (ученик или группа) в таблице лидеров испытания.
type Leader struct {
	ID     int64
	Name   string
	Points int
}

type BountyProgress struct {
	Bounty  Bounty
	Leaders []Leader
	Reached bool
}

// PlanItem: строка плана списания при закрытии испытания.
type PlanItem struct {
	StudentID int64
	Name      string
	Current   int
	Deduct    int
}

type SettlementPlan struct {
	BountyID   int64
	WinnerID   int64
	RewardName string
	Items      []PlanItem
	Total      int
}

package models

import "time"

type RankScope string

const (
	ScopeStudent RankScope = "student"
	ScopeGroup   RankScope = "group"
)

// GroupMetric: как сводить баланс группы без окна дат.
type GroupMetric string

const (
	MetricSum GroupMetric = "sum"
	MetricAvg GroupMetric = "avg"
)

// DateRange: закрытый интервал по календарным дням.
type DateRange struct {
	Start time.Time
	End   time.Time
}

type RankRow struct {
	ID     int64
	Name   string
	Code   string // только для учеников
	Group  string
	Color  string // только для групп
	Points float64
	Rank   int
}

// FeedItem: строка ленты. Count > 1 у свёрнутых строк бонусов.
type FeedItem struct {
	EntryID     int64
	StudentName string
	Reason      string
	Amount      int
	CreatedAt   time.Time
	Count       int
	Collapsed   bool
}

type Stats struct {
	Day       time.Time
	Students  int
	AvgPoints float64
	MinPoints int
	MaxPoints int
	Plus      []FeedItem
	Minus     []FeedItem
}

type EventType string

const (
	EventReward  EventType = "reward"
	EventAuction EventType = "auction"
	EventBounty  EventType = "bounty"
)

type Event struct {
	Type       EventType
	RewardName string
	WinnerName string
	At         time.Time
}

// BalanceMismatch: кэшированный баланс не совпал с историей.
type BalanceMismatch struct {
	StudentID int64
	Name      string
	Cached    int
	Computed  int
}

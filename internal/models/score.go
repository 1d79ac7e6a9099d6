package models

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// MaxPoints: предел для сумм, цен и целей; совпадает с max в тегах validate.
const MaxPoints = 1_000_000

// ChangeKind: явная классификация заявки. Пустое значение значит вывести по тексту причины.
type ChangeKind string

const (
	KindInfer     ChangeKind = ""
	KindBenchmark ChangeKind = "benchmark"
	KindOrdinary  ChangeKind = "ordinary"
)

// HistoryEntry: строка points_history.
type HistoryEntry struct {
	ID         int64      `db:"id"`
	StudentID  int64      `db:"student_id"`
	Amount     int        `db:"change_amount"`
	Reason     string     `db:"reason"`
	Teacher    string     `db:"teacher"`
	Status     Status     `db:"status"`
	RewardID   *int64     `db:"reward_id"`
	CreatedAt  time.Time  `db:"created_at"`
	ReviewedAt *time.Time `db:"reviewed_at"`
}

// HistoryWithStudent: запись истории вместе с именем ученика.
type HistoryWithStudent struct {
	HistoryEntry
	StudentName string `db:"student_name"`
}

type GroupHistoryEntry struct {
	ID        int64     `db:"id"`
	GroupID   int64     `db:"group_id"`
	Amount    int       `db:"change_amount"`
	Reason    string    `db:"reason"`
	Teacher   string    `db:"teacher"`
	CreatedAt time.Time `db:"created_at"`
}

// ChangeRequest: заявка на изменение баллов.
type ChangeRequest struct {
	Amount     int        `validate:"min=-1000000,max=1000000"`
	StudentIDs []int64    `validate:"dive,gt=0"`
	Reason     string     `validate:"max=500"` // пустая причина заменяется на points.DefaultReason
	Submitter  string     `validate:"max=100"`
	Kind       ChangeKind `validate:"omitempty,oneof=benchmark ordinary"`
}

type SubmitResult struct {
	Kind     ChangeKind
	Approved int // применено сразу
	Pending  int // ушло на проверку
	Bonused  int // получили бонус за соблюдение
}

type AuditAction string

const (
	ActionApprove AuditAction = "approve"
	ActionReject  AuditAction = "reject"
)

// ProcessResult: итог обработки одной заявки из очереди.
type ProcessResult struct {
	EntryID int64
	OK      bool
	Err     error
}

// StudentHistory: карточка ученика с балансом, местом и последними записями.
type StudentHistory struct {
	StudentID int64
	Name      string
	Points    int
	Rank      int
	History   []HistoryEntry
}

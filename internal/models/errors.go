package models

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Коды ошибок, которые видит вызывающая сторона.
const (
	CodeNoTargets          = "no_targets"
	CodeZeroAmount         = "zero_amount"
	CodeInvalid            = "invalid"
	CodeStaleOrLowBid      = "stale_or_low_bid"
	CodeOutOfStock         = "out_of_stock"
	CodeAlreadyRedeemed    = "already_redeemed"
	CodeInsufficientPoints = "insufficient_points"
	CodeNotPending         = "not_pending"
	CodeNotActive          = "not_active"
	CodeDuplicate          = "duplicate"
	CodeNotFound           = "not_found"
	CodeStorage            = "storage"
)

// Error: структурированная ошибка ядра.
type Error struct {
	Kind ErrorKind
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(code, format string, args ...any) error {
	return &Error{Kind: KindValidation, Code: code, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(what string, id int64) error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Msg: fmt.Sprintf("%s %d not found", what, id)}
}

func Conflict(code, format string, args ...any) error {
	return &Error{Kind: KindConflict, Code: code, Msg: fmt.Sprintf(format, args...)}
}

func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Code: CodeStorage, Msg: op, Err: err}
}

// KindOf возвращает вид ошибки; всё нераспознанное считаем ошибкой хранилища.
func KindOf(err error) ErrorKind {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// CodeOf возвращает код ошибки или CodeStorage для чужих ошибок.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStorage
}

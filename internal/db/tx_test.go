package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/Spok95/class-points-bot/internal/models"
)

func TestMapErr(t *testing.T) {
	cases := []struct {
		err  error
		kind models.ErrorKind
		code string
	}{
		{&pgconn.PgError{Code: pgUniqueViolation}, models.KindConflict, models.CodeDuplicate},
		{&pq.Error{Code: pgForeignKeyViolation}, models.KindNotFound, models.CodeNotFound},
		{&pgconn.PgError{Code: pgCheckViolation}, models.KindValidation, models.CodeInvalid},
		{&pgconn.PgError{Code: pgNumericOutOfRange}, models.KindValidation, models.CodeInvalid},
		{&pq.Error{Code: pgNumericOutOfRange}, models.KindValidation, models.CodeInvalid},
		{errors.New("connection reset"), models.KindStorage, models.CodeStorage},
	}
	for _, c := range cases {
		err := mapErr("op", c.err)
		if models.KindOf(err) != c.kind || models.CodeOf(err) != c.code {
			t.Fatalf("%v: got %v/%s", c.err, models.KindOf(err), models.CodeOf(err))
		}
		if !errors.Is(err, c.err) {
			t.Fatalf("%v: исходная ошибка потеряна", c.err)
		}
	}

	typed := models.Conflict(models.CodeNotPending, "x")
	if mapErr("op", typed) != typed {
		t.Fatal("типизированная ошибка должна проходить как есть")
	}
	if mapErr("op", nil) != nil {
		t.Fatal("nil")
	}
}

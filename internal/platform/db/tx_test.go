package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestTxFromContext_Nil(t *testing.T) {
	tx := TxFromContext(context.Background())
	if tx != nil {
		t.Error("expected nil tx from empty context")
	}
}

func TestTxFromContext_WithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBTxKey, "not-a-tx")
	tx := TxFromContext(ctx)
	if tx != nil {
		t.Error("expected nil when context value is wrong type")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if IsUniqueViolation(nil) {
		t.Error("nil error must not classify as unique violation")
	}
	if IsUniqueViolation(errors.New("plain")) {
		t.Error("plain error must not classify as unique violation")
	}
	pgErr := &pgconn.PgError{Code: "23505"}
	if !IsUniqueViolation(pgErr) {
		t.Error("expected 23505 to classify as unique violation")
	}
	wrapped := errors.Join(errors.New("outer"), pgErr)
	if !IsUniqueViolation(wrapped) {
		t.Error("expected wrapped 23505 to classify as unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23514"}) {
		t.Error("check violation must not classify as unique violation")
	}
}

func TestIsCheckViolation(t *testing.T) {
	if !IsCheckViolation(&pgconn.PgError{Code: "23514"}) {
		t.Error("expected 23514 to classify as check violation")
	}
	if IsCheckViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("unique violation must not classify as check violation")
	}
}

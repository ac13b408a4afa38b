package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	KindDeposit  TransactionKind = "DEPOSIT"
	KindWithdraw TransactionKind = "WITHDRAW"
	KindTransfer TransactionKind = "TRANSFER"
)

// Transaction is the immutable record of one completed money movement. It is
// produced by a Wallet operation, validated against its kind, persisted once
// and never touched again. For deposits and withdrawals both sides reference
// the same wallet; for transfers they reference two distinct wallets.
type Transaction struct {
	ID           uuid.UUID
	FromWalletID uuid.UUID
	FromAmount   decimal.Decimal
	FromCurrency Currency
	ToWalletID   uuid.UUID
	ToAmount     decimal.Decimal
	ToCurrency   Currency
	Kind         TransactionKind
	CreatedAt    time.Time
}

// ValidFor dispatches on the expected kind so that a transaction built for one
// kind cannot slip through another kind's predicate.
func (t *Transaction) ValidFor(kind TransactionKind) bool {
	switch kind {
	case KindDeposit:
		return t.IsValidDeposit()
	case KindWithdraw:
		return t.IsValidWithdraw()
	case KindTransfer:
		return t.IsValidTransfer()
	default:
		return false
	}
}

func (t *Transaction) IsValidTransfer() bool {
	return t.FromWalletID != uuid.Nil &&
		t.FromAmount.IsPositive() &&
		t.FromCurrency.IsValid() &&
		t.ToWalletID != uuid.Nil &&
		t.ToAmount.IsPositive() &&
		t.ToCurrency.IsValid() &&
		t.FromWalletID != t.ToWalletID &&
		t.Kind == KindTransfer &&
		!t.CreatedAt.IsZero()
}

func (t *Transaction) IsValidDeposit() bool {
	return t.isValidSameWalletMovement() && t.Kind == KindDeposit
}

func (t *Transaction) IsValidWithdraw() bool {
	return t.isValidSameWalletMovement() && t.Kind == KindWithdraw
}

// Deposits and withdrawals share one shape: both sides are the same wallet,
// same amount, same currency.
func (t *Transaction) isValidSameWalletMovement() bool {
	return t.FromWalletID != uuid.Nil &&
		t.FromAmount.IsPositive() &&
		t.FromCurrency.IsValid() &&
		t.FromWalletID == t.ToWalletID &&
		t.FromAmount.Equal(t.ToAmount) &&
		t.FromCurrency == t.ToCurrency &&
		!t.CreatedAt.IsZero()
}

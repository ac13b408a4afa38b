package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds one user's balance in a single currency. A wallet is created
// unactivated alongside its user and transitions to activated exactly once;
// after that only deposit, withdraw and transfer mutate it, and only via the
// methods below. Currency is nil until activation and immutable afterwards.
type Wallet struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Balance   decimal.Decimal
	Currency  *Currency
	Activated bool
	CreatedAt time.Time
}

func NewWallet(userID uuid.UUID) *Wallet {
	return &Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   decimal.Zero,
		CreatedAt: time.Now().UTC(),
	}
}

// Activate assigns the wallet its currency and starts it at zero balance.
// Irreversible.
func (w *Wallet) Activate(currency Currency) error {
	if w.Activated {
		return fmt.Errorf("Activate: %w", ErrAlreadyActivated)
	}
	if !currency.IsValid() {
		return fmt.Errorf("Activate: %q: %w", currency, ErrInvalidCurrency)
	}

	w.Activated = true
	w.Balance = decimal.Zero
	w.Currency = &currency
	return nil
}

func (w *Wallet) Deposit(amount decimal.Decimal) (*Transaction, error) {
	if !w.Activated {
		return nil, fmt.Errorf("Deposit: %w", ErrNotActivated)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("Deposit: %w", ErrInvalidAmount)
	}

	w.Balance = w.Balance.Add(amount)

	return &Transaction{
		FromWalletID: w.ID,
		FromAmount:   amount,
		FromCurrency: *w.Currency,
		ToWalletID:   w.ID,
		ToAmount:     amount,
		ToCurrency:   *w.Currency,
		Kind:         KindDeposit,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (w *Wallet) Withdraw(amount decimal.Decimal) (*Transaction, error) {
	if !w.Activated {
		return nil, fmt.Errorf("Withdraw: %w", ErrNotActivated)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("Withdraw: %w", ErrInvalidAmount)
	}
	// Withdrawing the full balance is allowed; only strictly more is not.
	if amount.GreaterThan(w.Balance) {
		return nil, fmt.Errorf("Withdraw: %w", ErrInsufficientBalance)
	}

	w.Balance = w.Balance.Sub(amount)

	return &Transaction{
		FromWalletID: w.ID,
		FromAmount:   amount,
		FromCurrency: *w.Currency,
		ToWalletID:   w.ID,
		ToAmount:     amount,
		ToCurrency:   *w.Currency,
		Kind:         KindWithdraw,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// TransferTo debits amount from w in its own currency and credits the
// converted amount to the target wallet. Precondition checks run in a fixed
// order before either balance moves, so a failed transfer leaves both
// wallets untouched.
func (w *Wallet) TransferTo(amount decimal.Decimal, to *Wallet) (*Transaction, error) {
	if !w.Activated {
		return nil, fmt.Errorf("TransferTo: %w", ErrNotActivated)
	}
	if !to.Activated {
		return nil, fmt.Errorf("TransferTo: target wallet: %w", ErrNotActivated)
	}
	if w.ID == to.ID {
		return nil, fmt.Errorf("TransferTo: %w", ErrSelfTransfer)
	}
	if amount.GreaterThan(w.Balance) {
		return nil, fmt.Errorf("TransferTo: %w", ErrInsufficientBalance)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("TransferTo: %w", ErrInvalidAmount)
	}

	converted := w.Currency.ConvertTo(*to.Currency, amount)

	w.Balance = w.Balance.Sub(amount)
	to.Balance = to.Balance.Add(converted)

	return &Transaction{
		FromWalletID: w.ID,
		FromAmount:   amount,
		FromCurrency: *w.Currency,
		ToWalletID:   to.ID,
		ToAmount:     converted,
		ToCurrency:   *to.Currency,
		Kind:         KindTransfer,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

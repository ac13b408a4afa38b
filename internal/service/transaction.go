package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"wallet/internal/domain"
)

// TransactionService is the sole gate between a Transaction produced by a
// wallet operation and durable storage: nothing is recorded without passing
// its kind's validity predicate.
type TransactionService struct {
	transactions transactionRepository
	wallets      walletRepository
}

func NewTransactionService(transactions transactionRepository, wallets walletRepository) *TransactionService {
	return &TransactionService{transactions: transactions, wallets: wallets}
}

// Record validates txn against the expected kind and persists it inside the
// caller's database transaction. A predicate failure here means a wallet
// operation produced a malformed record, which is a bug, not user input.
func (s *TransactionService) Record(ctx context.Context, tx *sql.Tx, txn *domain.Transaction, kind domain.TransactionKind) error {
	if !txn.ValidFor(kind) {
		return fmt.Errorf("Record: %s: %w", kind, domain.ErrInvalidTransaction)
	}

	txn.ID = uuid.New()
	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return fmt.Errorf("Record: %w", err)
	}
	return nil
}

// ListForUser returns every transaction touching the user's wallet, source or
// destination side, in recorded order.
func (s *TransactionService) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListForUser: %w", walletLookupErr(err))
	}

	if !wallet.Activated {
		return nil, fmt.Errorf("ListForUser: %w", domain.ErrNotActivated)
	}

	txns, err := s.transactions.GetByWalletID(ctx, wallet.ID)
	if err != nil {
		return nil, fmt.Errorf("ListForUser: %w", err)
	}
	return txns, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wallet/internal/domain"
	"wallet/internal/logging"
	"wallet/internal/repository"
)

// WalletService coordinates a wallet mutation with its transaction record as
// one atomic unit: the balance write and the wallet_transactions insert
// commit together or not at all. Per-wallet serialization comes from the row
// lock taken by GetForUpdate.
type WalletService struct {
	db           *repository.DB
	wallets      walletRepository
	transactions *TransactionService
}

func NewWalletService(db *repository.DB, wallets walletRepository, transactions *TransactionService) *WalletService {
	return &WalletService{db: db, wallets: wallets, transactions: transactions}
}

func (s *WalletService) GetUserWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetUserWallet: %w", walletLookupErr(err))
	}
	return wallet, nil
}

// Activate performs the one-time unactivated -> activated transition,
// assigning the wallet its currency. The transition runs under the same row
// lock as balance movements, so concurrent activations serialize and only the
// first can write a currency.
func (s *WalletService) Activate(ctx context.Context, userID uuid.UUID, currency domain.Currency) (*domain.Wallet, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Activate: %w", walletLookupErr(err))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Activate: begin tx: %w", err)
	}
	defer tx.Rollback()

	wallet, err = s.wallets.GetForUpdate(ctx, tx, wallet.ID)
	if err != nil {
		return nil, fmt.Errorf("Activate: %w", walletLookupErr(err))
	}

	if err := wallet.Activate(currency); err != nil {
		return nil, fmt.Errorf("Activate: %w", err)
	}

	if err := s.wallets.Update(ctx, tx, wallet); err != nil {
		return nil, fmt.Errorf("Activate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Activate: commit: %w", err)
	}

	logging.FromContext(ctx).Info("wallet activated",
		"wallet_id", wallet.ID,
		"currency", currency,
	)

	return wallet, nil
}

func (s *WalletService) Deposit(ctx context.Context, amount decimal.Decimal, userID uuid.UUID) (*domain.Wallet, *domain.Transaction, error) {
	wallet, txn, err := s.applyMovement(ctx, userID, domain.KindDeposit, func(w *domain.Wallet) (*domain.Transaction, error) {
		return w.Deposit(amount)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("Deposit: %w", err)
	}

	logging.FromContext(ctx).Info("deposit completed",
		"wallet_id", wallet.ID,
		"amount", amount,
		"balance", wallet.Balance,
	)

	return wallet, txn, nil
}

func (s *WalletService) Withdraw(ctx context.Context, amount decimal.Decimal, userID uuid.UUID) (*domain.Wallet, *domain.Transaction, error) {
	wallet, txn, err := s.applyMovement(ctx, userID, domain.KindWithdraw, func(w *domain.Wallet) (*domain.Transaction, error) {
		return w.Withdraw(amount)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("Withdraw: %w", err)
	}

	logging.FromContext(ctx).Info("withdrawal completed",
		"wallet_id", wallet.ID,
		"amount", amount,
		"balance", wallet.Balance,
	)

	return wallet, txn, nil
}

// applyMovement resolves the user's wallet, then runs a single-wallet balance
// mutation and its transaction record under one row lock and one database
// transaction.
func (s *WalletService) applyMovement(ctx context.Context, userID uuid.UUID, kind domain.TransactionKind, move func(*domain.Wallet) (*domain.Transaction, error)) (*domain.Wallet, *domain.Transaction, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("applyMovement: %w", walletLookupErr(err))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("applyMovement: begin tx: %w", err)
	}
	defer tx.Rollback()

	wallet, err = s.wallets.GetForUpdate(ctx, tx, wallet.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("applyMovement: %w", walletLookupErr(err))
	}

	txn, err := move(wallet)
	if err != nil {
		return nil, nil, err
	}

	if err := s.transactions.Record(ctx, tx, txn, kind); err != nil {
		return nil, nil, fmt.Errorf("applyMovement: %w", err)
	}

	if err := s.wallets.UpdateBalance(ctx, tx, wallet.ID, wallet.Balance); err != nil {
		return nil, nil, fmt.Errorf("applyMovement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("applyMovement: commit: %w", err)
	}

	return wallet, txn, nil
}

// Transfer moves amount from the caller's wallet to the target wallet,
// converting into the target's currency. Both balance updates and the single
// transfer record commit as one unit.
func (s *WalletService) Transfer(ctx context.Context, amount decimal.Decimal, userID uuid.UUID, toWalletID uuid.UUID) (*domain.Wallet, *domain.Transaction, error) {
	source, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("Transfer: %w", walletLookupErr(err))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("Transfer: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := s.lockWalletsInOrder(ctx, tx, source.ID, toWalletID)
	if err != nil {
		return nil, nil, fmt.Errorf("Transfer: %w", err)
	}
	from, to := locked[source.ID], locked[toWalletID]

	txn, err := from.TransferTo(amount, to)
	if err != nil {
		return nil, nil, fmt.Errorf("Transfer: %w", err)
	}

	if err := s.transactions.Record(ctx, tx, txn, domain.KindTransfer); err != nil {
		return nil, nil, fmt.Errorf("Transfer: %w", err)
	}

	if err := s.wallets.UpdateBalance(ctx, tx, from.ID, from.Balance); err != nil {
		return nil, nil, fmt.Errorf("Transfer: update source: %w", err)
	}
	if err := s.wallets.UpdateBalance(ctx, tx, to.ID, to.Balance); err != nil {
		return nil, nil, fmt.Errorf("Transfer: update target: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("Transfer: commit: %w", err)
	}

	logging.FromContext(ctx).Info("transfer completed",
		"from_wallet", txn.FromWalletID,
		"to_wallet", txn.ToWalletID,
		"from_amount", txn.FromAmount,
		"from_currency", txn.FromCurrency,
		"to_amount", txn.ToAmount,
		"to_currency", txn.ToCurrency,
	)

	return from, txn, nil
}

// lockWalletsInOrder acquires row locks in ascending id order so two
// concurrent transfers touching the same pair cannot deadlock. A duplicate id
// is locked once and mapped to the same wallet.
func (s *WalletService) lockWalletsInOrder(ctx context.Context, tx *sql.Tx, ids ...uuid.UUID) (map[uuid.UUID]*domain.Wallet, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})

	locked := make(map[uuid.UUID]*domain.Wallet, len(unique))
	for _, id := range unique {
		w, err := s.wallets.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockWalletsInOrder: wallet %s: %w", id, walletLookupErr(err))
		}
		locked[id] = w
	}
	return locked, nil
}

func walletLookupErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrWalletNotFound
	}
	return err
}

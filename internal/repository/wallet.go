package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wallet/internal/domain"
)

const walletColumns = `id, user_id, balance, currency, activated, created_at`

type WalletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id,
	)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return w, nil
}

func (r *WalletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID,
	)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByUserID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	return w, nil
}

// Create inserts a wallet row. New wallets are unactivated; the tx argument
// lets registration create the user and its wallet atomically.
func (r *WalletRepository) Create(ctx context.Context, tx *sql.Tx, wallet *domain.Wallet) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO wallets (id, user_id, balance, currency, activated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		wallet.ID, wallet.UserID, wallet.Balance, currencyOrNull(wallet.Currency),
		wallet.Activated, wallet.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// Update persists activation state, currency and balance in one statement,
// inside the caller's transaction.
func (r *WalletRepository) Update(ctx context.Context, tx *sql.Tx, wallet *domain.Wallet) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance = $1, currency = $2, activated = $3 WHERE id = $4`,
		wallet.Balance, currencyOrNull(wallet.Currency), wallet.Activated, wallet.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Update: %w", domain.ErrNotFound)
	}
	return nil
}

// GetForUpdate locks the wallet row for the duration of tx. Concurrent
// movements against the same wallet serialize on this lock.
func (r *WalletRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Wallet, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id,
	)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return w, nil
}

func (r *WalletRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, balance decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance = $1 WHERE id = $2`, balance, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrNotFound)
	}
	return nil
}

func currencyOrNull(c *domain.Currency) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*c), Valid: true}
}

func scanWallet(s scanner) (*domain.Wallet, error) {
	var (
		w        domain.Wallet
		currency sql.NullString
	)
	err := s.Scan(&w.ID, &w.UserID, &w.Balance, &currency, &w.Activated, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	if currency.Valid {
		c := domain.Currency(currency.String)
		w.Currency = &c
	}
	return &w, nil
}

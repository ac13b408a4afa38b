package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"wallet/internal/domain"
)

const transactionColumns = `id, from_wallet_id, from_amount, from_currency,
	to_wallet_id, to_amount, to_currency, kind, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts the record inside the caller's transaction so it commits or
// rolls back together with the wallet balance write.
func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, txn *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_transactions (
			id, from_wallet_id, from_amount, from_currency,
			to_wallet_id, to_amount, to_currency, kind, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		txn.ID, txn.FromWalletID, txn.FromAmount, txn.FromCurrency,
		txn.ToWalletID, txn.ToAmount, txn.ToCurrency, txn.Kind, txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetByWalletID returns every transaction where the wallet is source or
// destination, in the order the rows were recorded.
func (r *TransactionRepository) GetByWalletID(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM wallet_transactions
		WHERE from_wallet_id = $1 OR to_wallet_id = $1 ORDER BY seq`,
		walletID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByWalletID: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByWalletID: scan: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByWalletID: rows: %w", err)
	}
	return txns, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(
		&t.ID, &t.FromWalletID, &t.FromAmount, &t.FromCurrency,
		&t.ToWalletID, &t.ToAmount, &t.ToCurrency, &t.Kind, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

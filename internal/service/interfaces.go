package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wallet/internal/domain"
)

type walletRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	Create(ctx context.Context, tx *sql.Tx, wallet *domain.Wallet) error
	Update(ctx context.Context, tx *sql.Tx, wallet *domain.Wallet) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, balance decimal.Decimal) error
}

type transactionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, txn *domain.Transaction) error
	GetByWalletID(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error)
}

type userRepository interface {
	Create(ctx context.Context, tx *sql.Tx, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"wallet/internal/domain"
)

const TestPassword = "password123"

func SeedTestUser(t *testing.T, db *sql.DB, email, firstName, lastName string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, first_name, last_name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

// SeedTestWallet inserts a wallet row. An empty currency seeds an unactivated
// wallet regardless of balance.
func SeedTestWallet(t *testing.T, db *sql.DB, userID uuid.UUID, currency string, balance string) *domain.Wallet {
	t.Helper()

	w := &domain.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: time.Now().UTC(),
	}
	var dbCurrency sql.NullString
	if currency != "" {
		c := domain.Currency(currency)
		w.Currency = &c
		w.Activated = true
		dbCurrency = sql.NullString{String: currency, Valid: true}
	}

	_, err := db.Exec(
		`INSERT INTO wallets (id, user_id, balance, currency, activated, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, w.UserID, w.Balance, dbCurrency, w.Activated, w.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test wallet %s/%s: %v", userID, currency, err)
	}
	return w
}

func GetWalletBalance(t *testing.T, db *sql.DB, walletID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM wallets WHERE id = $1`, walletID).Scan(&balance)
	if err != nil {
		t.Fatalf("get wallet balance %s: %v", walletID, err)
	}
	return balance
}

func CountTransactions(t *testing.T, db *sql.DB, walletID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM wallet_transactions WHERE from_wallet_id = $1 OR to_wallet_id = $1`,
		walletID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for wallet %s: %v", walletID, err)
	}
	return count
}

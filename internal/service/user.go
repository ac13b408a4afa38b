package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"wallet/internal/domain"
	"wallet/internal/logging"
	"wallet/internal/repository"
)

type UserService struct {
	db      *repository.DB
	users   userRepository
	wallets walletRepository
}

func NewUserService(db *repository.DB, users userRepository, wallets walletRepository) *UserService {
	return &UserService{db: db, users: users, wallets: wallets}
}

type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// Register creates the user and its unactivated wallet in one transaction;
// every user owns exactly one wallet from the moment the account exists.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("Register: hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	wallet := domain.NewWallet(user.ID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Register: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.users.Create(ctx, tx, user); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}
	if err := s.wallets.Create(ctx, tx, wallet); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Register: commit: %w", err)
	}

	logging.FromContext(ctx).Info("user registered",
		"user_id", user.ID,
		"wallet_id", wallet.ID,
	)

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("GetByEmail: %w", err)
	}
	return user, nil
}

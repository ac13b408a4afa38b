package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wallet/internal/auth"
	"wallet/internal/domain"
	"wallet/internal/logging"
)

type walletService interface {
	GetUserWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	Activate(ctx context.Context, userID uuid.UUID, currency domain.Currency) (*domain.Wallet, error)
	Deposit(ctx context.Context, amount decimal.Decimal, userID uuid.UUID) (*domain.Wallet, *domain.Transaction, error)
	Withdraw(ctx context.Context, amount decimal.Decimal, userID uuid.UUID) (*domain.Wallet, *domain.Transaction, error)
	Transfer(ctx context.Context, amount decimal.Decimal, userID uuid.UUID, toWalletID uuid.UUID) (*domain.Wallet, *domain.Transaction, error)
}

type WalletHandler struct {
	wallets walletService
}

func NewWalletHandler(wallets walletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

type walletDTO struct {
	ID        uuid.UUID       `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  *string         `json:"currency"`
	Activated bool            `json:"activated"`
	CreatedAt time.Time       `json:"created_at"`
}

func toWalletDTO(w *domain.Wallet) walletDTO {
	dto := walletDTO{
		ID:        w.ID,
		Balance:   w.Balance,
		Activated: w.Activated,
		CreatedAt: w.CreatedAt,
	}
	if w.Currency != nil {
		c := string(*w.Currency)
		dto.Currency = &c
	}
	return dto
}

type transactionDTO struct {
	ID           uuid.UUID       `json:"id"`
	FromWalletID uuid.UUID       `json:"from_wallet_id"`
	FromAmount   decimal.Decimal `json:"from_amount"`
	FromCurrency string          `json:"from_currency"`
	ToWalletID   uuid.UUID       `json:"to_wallet_id"`
	ToAmount     decimal.Decimal `json:"to_amount"`
	ToCurrency   string          `json:"to_currency"`
	Kind         string          `json:"kind"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:           t.ID,
		FromWalletID: t.FromWalletID,
		FromAmount:   t.FromAmount,
		FromCurrency: string(t.FromCurrency),
		ToWalletID:   t.ToWalletID,
		ToAmount:     t.ToAmount,
		ToCurrency:   string(t.ToCurrency),
		Kind:         string(t.Kind),
		CreatedAt:    t.CreatedAt,
	}
}

type movementResponse struct {
	Wallet      walletDTO      `json:"wallet"`
	Transaction transactionDTO `json:"transaction"`
}

func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	wallet, err := h.wallets.GetUserWallet(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toWalletDTO(wallet))
}

type activateRequest struct {
	Currency string `json:"currency"`
}

func (req activateRequest) Validate() []FieldError {
	var errs []FieldError
	if req.Currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	}
	return errs
}

func (h *WalletHandler) Activate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	wallet, err := h.wallets.Activate(r.Context(), userID, domain.Currency(req.Currency))
	if err != nil {
		logging.FromContext(r.Context()).Error("wallet activation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toWalletDTO(wallet))
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.applyMovement(w, r, h.wallets.Deposit)
}

func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.applyMovement(w, r, h.wallets.Withdraw)
}

func (h *WalletHandler) applyMovement(w http.ResponseWriter, r *http.Request, move func(ctx context.Context, amount decimal.Decimal, userID uuid.UUID) (*domain.Wallet, *domain.Transaction, error)) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	updated, txn, err := move(r.Context(), req.Amount, userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("wallet movement failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, movementResponse{
		Wallet:      toWalletDTO(updated),
		Transaction: toTransactionDTO(txn),
	})
}

type transferRequest struct {
	WalletID uuid.UUID       `json:"wallet_id"`
	Amount   decimal.Decimal `json:"amount"`
}

func (req transferRequest) Validate() []FieldError {
	var errs []FieldError
	if req.WalletID == uuid.Nil {
		errs = append(errs, FieldError{Field: "wallet_id", Message: "required"})
	}
	return errs
}

func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	wallet, txn, err := h.wallets.Transfer(r.Context(), req.Amount, userID, req.WalletID)
	if err != nil {
		logging.FromContext(r.Context()).Error("transfer failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, movementResponse{
		Wallet:      toWalletDTO(wallet),
		Transaction: toTransactionDTO(txn),
	})
}

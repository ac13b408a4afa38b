package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"wallet/internal/auth"
	"wallet/internal/domain"
)

type transactionLister interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error)
}

type TransactionHandler struct {
	transactions transactionLister
}

func NewTransactionHandler(transactions transactionLister) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	txns, err := h.transactions.ListForUser(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, 0, len(txns))
	for i := range txns {
		dtos = append(dtos, toTransactionDTO(&txns[i]))
	}

	RespondSuccess(w, http.StatusOK, dtos)
}

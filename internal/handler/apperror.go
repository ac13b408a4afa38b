package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrWalletNotFound      = &AppError{http.StatusNotFound, "WALLET_NOT_FOUND", "Wallet not found"}
	ErrWalletNotActivated  = &AppError{http.StatusUnprocessableEntity, "WALLET_NOT_ACTIVATED", "Wallet is not activated yet"}
	ErrAlreadyActivated    = &AppError{http.StatusConflict, "WALLET_ALREADY_ACTIVATED", "Wallet is already activated"}
	ErrInsufficientBalance = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", "Amount exceeds current balance"}
	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrInvalidCurrency     = &AppError{http.StatusBadRequest, "INVALID_CURRENCY", "Invalid currency"}
	ErrSelfTransfer        = &AppError{http.StatusUnprocessableEntity, "SELF_TRANSFER_NOT_ALLOWED", "Cannot transfer money to oneself"}
	ErrEmailTaken          = &AppError{http.StatusConflict, "EMAIL_TAKEN", "Email is already registered"}
)

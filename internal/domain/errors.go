package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrNotActivated        = errors.New("wallet is not activated yet")
	ErrAlreadyActivated    = errors.New("wallet is already activated")
	ErrInsufficientBalance = errors.New("amount exceeds current balance")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidCurrency     = errors.New("invalid currency")
	ErrSelfTransfer        = errors.New("cannot transfer money to oneself")
	ErrInvalidTransaction  = errors.New("transaction failed validity check")
	ErrEmailTaken          = errors.New("email already registered")
)

package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("invalid input")
	ErrConflict          = errors.New("conflicting update")
	ErrProviderTransient = errors.New("provider temporarily unavailable")
	ErrProviderTerminal  = errors.New("provider rejected the request")
	ErrRetryExhausted    = errors.New("retry attempts exhausted")
	ErrExpired           = errors.New("job expired")
)

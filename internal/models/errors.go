package models

import "errors"

// Custom errors
var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateKey        = errors.New("duplicate key violation")
	ErrInvalidID           = errors.New("invalid ID format")
	ErrUnknownBetType      = errors.New("unknown bet type")
	ErrWagerAlreadySettled = errors.New("wager already settled")
	ErrEventAlreadyHandled = errors.New("event already reconciled")
)

package models

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotMember         = errors.New("user is not a member of this pool")
)

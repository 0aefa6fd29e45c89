package repository

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("record already exists")
	ErrCapacityExhausted = errors.New("promo capacity exhausted")
	ErrNotOwner          = errors.New("record belongs to another owner")
)

package service

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUserNotFound    = errors.New("user not found")
	ErrPromoNotFound   = errors.New("promo not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotOwner        = errors.New("resource belongs to another owner")

	ErrPromoExpired   = errors.New("promo is outside its active window")
	ErrNoCodesLeft    = errors.New("promo has no codes left")
	ErrNotPromoTarget = errors.New("user does not match promo target")
	ErrFraudDetected  = errors.New("redemption denied by fraud check")
)

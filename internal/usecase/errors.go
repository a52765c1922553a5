package usecase

import "errors"

var (
	ErrSelfLikeNotAllowed = errors.New("you cannot like your own listing")
	ErrInvalidInput       = errors.New("invalid input")
	ErrReconcileConflict  = errors.New("likes counter kept changing during reconcile")
)

package service

import "errors"

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCallbackRejected    = errors.New("callback rejected")
)

package momo

import "errors"

var (
	// ErrInvalidRequest is returned when the request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrPaymentFailed is returned when the collection request fails
	ErrPaymentFailed = errors.New("payment failed")

	// ErrNetworkError is returned when there's a network communication error
	ErrNetworkError = errors.New("network error")

	// ErrUnauthorized is returned when the subscription key or token is invalid
	ErrUnauthorized = errors.New("unauthorized: invalid credentials")

	// ErrReferenceNotFound is returned when the reference ID is unknown upstream
	ErrReferenceNotFound = errors.New("payment reference not found")
)

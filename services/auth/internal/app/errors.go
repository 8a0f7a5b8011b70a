package app

import "errors"

var (
	// ErrInvalidInput indicates a malformed request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRateLimited indicates a code was requested again too soon.
	ErrRateLimited = errors.New("too many verification code requests")
	// ErrCodeInvalid indicates the submitted code does not match.
	ErrCodeInvalid = errors.New("incorrect verification code")
	// ErrCodeExpired indicates no live code exists for the phone number.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrGatewayUnavailable indicates the messaging gateway is not logged in
	// or could not deliver the code.
	ErrGatewayUnavailable = errors.New("messaging gateway unavailable")
)

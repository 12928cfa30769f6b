package application

import "errors"

var (
	ErrUserExists         = errors.New("User already exists")
	ErrUsernameTaken      = errors.New("Username already taken")
	ErrInvalidOTP         = errors.New("Invalid or expired OTP")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrAccountInactive    = errors.New("account is not active")
	ErrUserNotFound       = errors.New("user not found")
	ErrServiceNotFound    = errors.New("service not found")
	ErrForbidden          = errors.New("forbidden")
	ErrNotProvider        = errors.New("only providers can list services")
	ErrStorageUnavailable = errors.New("storage not configured")
	ErrInvalidImage       = errors.New("unsupported image")
	ErrInvalidQuery       = errors.New("invalid query")
)

package entity

import "errors"

var (
	ErrAdminTypeWithoutAdmin = errors.New("adminType requires isAdmin")
	ErrAgeRange              = errors.New("preferences.age.min must not exceed preferences.age.max")
)

var ErrServiceWithoutProvider = errors.New("service requires a provider")

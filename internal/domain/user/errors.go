package user

import "errors"

var (
	ErrUserEmailExists = errors.New("email already registered")
)

package services

import "errors"

var (
	// ErrBadCredentials covers an unknown email, an ambiguous email and a
	// wrong password alike.
	ErrBadCredentials = errors.New("invalid email/password combination")
	ErrStore          = errors.New("store unavailable")
)

package service

import "errors"

var (
	// ErrInvalidURL is returned when the input cannot be parsed as an
	// absolute URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrShortIDExhausted is returned when every generated candidate was
	// already taken, including the longer fallback.
	ErrShortIDExhausted = errors.New("exhausted attempts to generate unique short id")
	// ErrMissingCredentials is returned when the identifier or password is
	// empty. No store call is made in that case.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrInvalidCredentials is returned for both unknown users and wrong
	// passwords so responses carry no enumeration signal.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

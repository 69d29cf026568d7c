package service

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// shortIDAlphabet has 64 characters so each byte of randomness maps evenly
// onto one character. Codes are public, so the source must be unguessable;
// gonanoid reads from crypto/rand.
const shortIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz-"

const (
	shortIDLength         = 6
	shortIDFallbackLength = 8
)

func newShortID(length int) (string, error) {
	const op = "service.newShortID"

	id, err := gonanoid.Generate(shortIDAlphabet, length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate short id: %w", op, err)
	}

	return id, nil
}

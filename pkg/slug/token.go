package slug

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"math/big"

	"github.com/google/uuid"
)

const (
	// TokenLength is the length of public tokens.
	TokenLength = 16
	// MaxTokenAttempts bounds the collision checks before FallbackToken.
	MaxTokenAttempts = 10

	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ExistsFunc reports whether a token is already taken.
type ExistsFunc func(ctx context.Context, token string) (bool, error)

// RandomToken returns n characters drawn uniformly from [a-zA-Z0-9].
func RandomToken(n int) (string, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = tokenAlphabet[idx.Int64()]
	}
	return string(buf), nil
}

// FallbackToken returns 32 hex characters from a random UUID.
func FallbackToken() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// UniqueToken tries MaxTokenAttempts random tokens against exists and then
// gives up on the short form, returning FallbackToken.
func UniqueToken(ctx context.Context, exists ExistsFunc) (string, error) {
	for i := 0; i < MaxTokenAttempts; i++ {
		token, err := RandomToken(TokenLength)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, token)
		if err != nil {
			return "", err
		}
		if !taken {
			return token, nil
		}
	}
	return FallbackToken(), nil
}

package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	ErrTokenMissing   = errors.New("admin token: missing")
	ErrTokenAlgorithm = errors.New("admin token: algorithm rejected")
	ErrTokenSubject   = errors.New("admin token: no subject")
)

// TokenValidator checks the claims of an admin session token after its
// signature has been verified.
type TokenValidator struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	// Algorithm pins the signing algorithm; empty accepts any.
	Algorithm jwa.SignatureAlgorithm
}

// Validate checks algorithm, subject and time window, then issuer and audience
// when configured.
func (v TokenValidator) Validate(tok jwt.Token, alg jwa.SignatureAlgorithm, now time.Time) error {
	if tok == nil {
		return ErrTokenMissing
	}
	switch {
	case alg == "":
		return fmt.Errorf("%w: none declared", ErrTokenAlgorithm)
	case v.Algorithm != "" && alg != v.Algorithm:
		return fmt.Errorf("%w: got %s, want %s", ErrTokenAlgorithm, alg, v.Algorithm)
	}
	if strings.TrimSpace(tok.Subject()) == "" {
		return ErrTokenSubject
	}

	opts := []jwt.ValidateOption{jwt.WithClock(jwt.ClockFunc(func() time.Time { return now }))}
	if v.ClockSkew > 0 {
		opts = append(opts, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	if err := jwt.Validate(tok, opts...); err != nil {
		return fmt.Errorf("admin token: %w", err)
	}
	return nil
}

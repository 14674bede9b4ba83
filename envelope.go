package goToken

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goToken/jwt"
	gjwt "github.com/golang-jwt/jwt/v5"
)

// DefaultClockSkew is the tolerance applied to both temporal bounds.
const DefaultClockSkew = 60 * time.Second

// Envelope is the claims set carried by every token.
//
// NotBefore is the issuance instant and ExpiresAt is NotBefore plus the
// requested validity. Inner holds the caller's payload and is never inspected.
type Envelope[T any] struct {
	Inner T `json:"inner"`
	gjwt.RegisteredClaims
}

// sessionPolicy is built once and shared read-only by every Decode call.
var sessionPolicy = newSessionPolicy(DefaultClockSkew)

func newSessionPolicy(skew time.Duration) jwt.Policy {
	return jwt.Policy{
		RequiredClaims:    []string{jwt.ClaimNotBefore, jwt.ClaimExpiresAt},
		ValidateExpiry:    true,
		ValidateNotBefore: true,
		Leeway:            skew,
	}
}

// Encode issues a token carrying payload that is valid from now for validity.
//
// Verifying the result immediately with the matching key returns payload
// unchanged.
func Encode[T any](payload T, validity time.Duration, key jwt.SigningKey) (string, error) {
	return encodeAt(payload, validity, key, time.Now())
}

// Decode verifies token against key and returns its payload.
//
// Errors are ErrMalformedToken, ErrInvalidSignature, ErrExpired,
// ErrNotYetValid or ErrKeyInvalid. Decode never panics on untrusted input.
func Decode[T any](token string, key jwt.VerificationKey) (T, error) {
	return decodeAt[T](token, key, sessionPolicy, time.Now())
}

func encodeAt[T any](payload T, validity time.Duration, key jwt.SigningKey, now time.Time) (string, error) {
	if validity < 0 {
		return "", ErrInvalidValidity
	}

	claims := Envelope[T]{
		Inner: payload,
		RegisteredClaims: gjwt.RegisteredClaims{
			NotBefore: gjwt.NewNumericDate(now),
			ExpiresAt: gjwt.NewNumericDate(now.Add(validity)),
		},
	}

	token, err := jwt.Sign(claims, key)
	if err != nil {
		return "", mapSignError(err)
	}
	return token, nil
}

func decodeAt[T any](token string, key jwt.VerificationKey, policy jwt.Policy, now time.Time) (T, error) {
	var claims Envelope[T]
	if err := jwt.Verify(token, key, &claims, policy, now); err != nil {
		var zero T
		return zero, mapVerifyError(err)
	}
	return claims.Inner, nil
}

func mapSignError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrEncoding):
		return fmt.Errorf("%w: %w", ErrPayloadEncoding, err)
	case errors.Is(err, jwt.ErrKeyUnavailable):
		return fmt.Errorf("%w: %w", ErrKeyInvalid, err)
	default:
		return err
	}
}

func mapVerifyError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrNotYetValid):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrSignature):
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrKeyUnavailable):
		return fmt.Errorf("%w: %w", ErrKeyInvalid, err)
	case errors.Is(err, jwt.ErrPolicy):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
}

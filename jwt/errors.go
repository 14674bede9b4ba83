package jwt

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed reports a token that is not a well-formed signed envelope.
	ErrMalformed = errors.New("jwt: malformed token")
	// ErrMissingClaim reports a token lacking a claim the policy requires.
	ErrMissingClaim = fmt.Errorf("%w: missing required claim", ErrMalformed)
	// ErrSignature reports a signature, algorithm or key id mismatch.
	ErrSignature = errors.New("jwt: signature invalid")
	// ErrExpired reports a token whose exp, extended by leeway, has passed.
	ErrExpired = errors.New("jwt: token expired")
	// ErrNotYetValid reports a token whose nbf, pulled back by leeway, is still ahead.
	ErrNotYetValid = errors.New("jwt: token not yet valid")
	// ErrKeyUnavailable reports an unset or unusable key.
	ErrKeyUnavailable = errors.New("jwt: key unavailable")
	// ErrPolicy reports a Policy that fails Validate.
	ErrPolicy = errors.New("jwt: invalid policy")
	// ErrEncoding reports claims that could not be serialized.
	ErrEncoding = errors.New("jwt: claims encoding failed")
)

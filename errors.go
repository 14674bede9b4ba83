package goToken

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenInvalid is the class of structural and signature failures.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrMalformedToken reports a string that is not a well-formed signed
	// envelope, or one lacking nbf or exp.
	ErrMalformedToken = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	// ErrInvalidSignature reports a signature that does not verify against the
	// supplied key, including algorithm and key id mismatches.
	ErrInvalidSignature = fmt.Errorf("%w: signature mismatch", ErrTokenInvalid)

	// ErrTemporallyInvalid is the class of validity-window failures. Test for
	// it when expired and not-yet-valid need no distinction.
	ErrTemporallyInvalid = errors.New("token outside validity window")
	// ErrExpired reports now - skew past exp.
	ErrExpired = fmt.Errorf("%w: expired", ErrTemporallyInvalid)
	// ErrNotYetValid reports now + skew before nbf.
	ErrNotYetValid = fmt.Errorf("%w: not yet valid", ErrTemporallyInvalid)

	// ErrInvalidValidity reports a negative validity duration.
	ErrInvalidValidity = errors.New("invalid token validity")
	// ErrPayloadEncoding reports a payload that cannot be serialized.
	ErrPayloadEncoding = errors.New("payload encoding failed")
	// ErrKeyInvalid reports an unset or unusable signing or verification key.
	ErrKeyInvalid = errors.New("invalid token key")
	// ErrCodecNotReady reports use of a nil or unbuilt Codec.
	ErrCodecNotReady = errors.New("codec not initialized")
)

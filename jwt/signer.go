package jwt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// Sign serializes claims into a compact JWS and signs it with key.
//
// The key's kid, when set, is written to the token header.
func Sign(claims gjwt.Claims, key SigningKey) (string, error) {
	method := key.method.jwtMethod()
	if method == nil || key.key == nil {
		return "", ErrKeyUnavailable
	}

	token := gjwt.NewWithClaims(method, claims)
	if key.id != "" {
		token.Header["kid"] = key.id
	}

	signingString, err := token.SigningString()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	sig, err := method.Sign(signingString, key.key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrKeyUnavailable, err)
	}

	return signingString + "." + token.EncodeSegment(sig), nil
}

// Verify checks the signature of tokenStr against key, decodes it into claims
// and enforces policy as of now.
//
// The signature is verified over the raw header and claims segments before
// the claims are decoded, so any altered claims byte reports ErrSignature.
// Verify never panics on untrusted input; every failure is one of
// ErrMalformed, ErrMissingClaim, ErrSignature, ErrExpired or ErrNotYetValid
// (or ErrKeyUnavailable for an unset key and ErrPolicy for a bad policy).
func Verify(tokenStr string, key VerificationKey, claims gjwt.Claims, policy Policy, now time.Time) error {
	method := key.method.jwtMethod()
	if method == nil || key.key == nil {
		return ErrKeyUnavailable
	}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrPolicy, err)
	}

	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return fmt.Errorf("%w: token contains an invalid number of segments", ErrMalformed)
	}

	parser := gjwt.NewParser(gjwt.WithStrictDecoding())
	if err := checkHeader(parser, parts[0], method, key.id); err != nil {
		return err
	}

	sig, err := parser.DecodeSegment(parts[2])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignature, err)
	}
	if err := method.Verify(parts[0]+"."+parts[1], sig, key.key); err != nil {
		return fmt.Errorf("%w: %w", ErrSignature, err)
	}

	// Temporal claims are checked below so that leeway is inclusive and each
	// bound can be toggled on its own.
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if err := requireClaims(claims, policy.RequiredClaims); err != nil {
		return err
	}
	return checkTemporal(claims, policy, now)
}

// checkHeader pins the algorithm to the key's method and enforces the kid
// when the key carries one.
func checkHeader(parser *gjwt.Parser, segment string, method gjwt.SigningMethod, kid string) error {
	raw, err := parser.DecodeSegment(segment)
	if err != nil {
		return fmt.Errorf("%w: header: %w", ErrMalformed, err)
	}
	var header map[string]interface{}
	if err := json.Unmarshal(raw, &header); err != nil {
		return fmt.Errorf("%w: header: %w", ErrMalformed, err)
	}

	alg, _ := header["alg"].(string)
	if alg != method.Alg() {
		return fmt.Errorf("%w: unexpected signing algorithm: %q", ErrSignature, alg)
	}
	if kid != "" {
		got, _ := header["kid"].(string)
		if got == "" {
			return fmt.Errorf("%w: missing kid", ErrSignature)
		}
		if got != kid {
			return fmt.Errorf("%w: unknown kid", ErrSignature)
		}
	}
	return nil
}

func requireClaims(claims gjwt.Claims, required []string) error {
	for _, name := range required {
		present, err := hasClaim(claims, name)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if !present {
			return fmt.Errorf("%w: %s", ErrMissingClaim, name)
		}
	}
	return nil
}

func hasClaim(claims gjwt.Claims, name string) (bool, error) {
	switch name {
	case ClaimExpiresAt:
		v, err := claims.GetExpirationTime()
		return v != nil, err
	case ClaimNotBefore:
		v, err := claims.GetNotBefore()
		return v != nil, err
	case ClaimIssuedAt:
		v, err := claims.GetIssuedAt()
		return v != nil, err
	case ClaimIssuer:
		v, err := claims.GetIssuer()
		return v != "", err
	case ClaimSubject:
		v, err := claims.GetSubject()
		return v != "", err
	case ClaimAudience:
		v, err := claims.GetAudience()
		return len(v) > 0, err
	default:
		return false, fmt.Errorf("unknown claim %q", name)
	}
}

// checkTemporal compares at whole-second precision, the resolution of
// NumericDate, so a token verified exactly at exp+leeway is still accepted.
func checkTemporal(claims gjwt.Claims, policy Policy, now time.Time) error {
	at := time.Unix(now.Unix(), 0)

	if policy.ValidateExpiry {
		exp, err := claims.GetExpirationTime()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if exp != nil && at.Add(-policy.Leeway).After(exp.Time) {
			return ErrExpired
		}
	}
	if policy.ValidateNotBefore {
		nbf, err := claims.GetNotBefore()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if nbf != nil && at.Add(policy.Leeway).Before(nbf.Time) {
			return ErrNotYetValid
		}
	}
	return nil
}

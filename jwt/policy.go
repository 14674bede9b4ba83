package jwt

import (
	"errors"
	"fmt"
	"time"
)

// Registered claim names understood by [Policy.RequiredClaims].
const (
	ClaimExpiresAt = "exp"
	ClaimNotBefore = "nbf"
	ClaimIssuedAt  = "iat"
	ClaimIssuer    = "iss"
	ClaimSubject   = "sub"
	ClaimAudience  = "aud"
)

// MaxLeeway caps the skew tolerance a Policy may carry.
const MaxLeeway = 5 * time.Minute

// Policy controls which claims [Verify] requires and which temporal bounds it
// enforces. A Policy is plain configuration; build it once and share it.
type Policy struct {
	RequiredClaims    []string
	ValidateExpiry    bool
	ValidateNotBefore bool
	// Leeway is applied symmetrically: exp is extended by Leeway and nbf is
	// pulled back by Leeway. Both comparisons are inclusive at whole seconds.
	Leeway time.Duration
}

// Validate reports configuration errors in p.
func (p Policy) Validate() error {
	if p.Leeway < 0 || p.Leeway > MaxLeeway {
		return errors.New("invalid leeway configuration")
	}
	for _, name := range p.RequiredClaims {
		switch name {
		case ClaimExpiresAt, ClaimNotBefore, ClaimIssuedAt, ClaimIssuer, ClaimSubject, ClaimAudience:
		default:
			return fmt.Errorf("unknown required claim %q", name)
		}
	}
	return nil
}

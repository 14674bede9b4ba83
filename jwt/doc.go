// Package jwt signs and verifies compact JWS tokens on top of golang-jwt.
//
// It owns the signature algorithm, key material and wire encoding. Callers
// hand it a claims value and a [Policy]; it reports structural, signature and
// temporal failures as distinct sentinel errors.
//
// # What this package must NOT do
//
//   - Read the clock. The caller passes the instant to verify against.
//   - Store tokens or keys beyond the immutable key values it returns.
package jwt

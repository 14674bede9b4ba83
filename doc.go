// Package goToken issues and verifies time-bounded signed session tokens.
//
// Every token is a compact JWS whose claims carry a not-before (nbf) instant,
// an expiry (exp) instant and one opaque caller payload. Verification checks
// the signature and then both temporal bounds, each widened by a fixed clock
// skew tolerance (60 seconds by default). Both bounds are mandatory: a token
// missing either claim is malformed.
//
// # Entry points
//
// [Encode] and [Decode] are the stateless core: they take explicit keys and
// have no side effects beyond reading the clock. [Codec], assembled with
// [Builder], bundles keys, skew, metrics, audit and logging for services;
// use the generic [Issue], [IssueFor] and [Verify] functions with it.
//
// # Errors
//
// Structural and signature failures wrap [ErrTokenInvalid]
// ([ErrMalformedToken], [ErrInvalidSignature]). Validity-window failures wrap
// [ErrTemporallyInvalid] ([ErrExpired], [ErrNotYetValid]). Map them to
// user-facing behavior such as "please log in again" at the call site.
//
// # What this package must NOT do
//
//   - Persist tokens or keep per-token state. A token is valid purely by
//     construction.
//   - Parse HTTP headers or cookies.
//   - Rotate, fetch or derive keys.
package goToken

package jwt

import (
	"crypto/ed25519"
	"errors"
	"strings"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// SigningMethod names the signature algorithm bound to a key.
type SigningMethod string

const (
	// MethodHS256 signs with HMAC-SHA256 over a shared secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an ed25519 private key and verifies with its public key.
	MethodEd25519 SigningMethod = "ed25519"
)

// KeyConfig describes key material for one signing method.
//
// For MethodHS256 PrivateKey is the shared secret and PublicKey is ignored.
// For MethodEd25519 keys may be raw (ed25519.PrivateKeySize / PublicKeySize
// bytes) or PEM encoded; an empty PublicKey is derived from PrivateKey.
type KeyConfig struct {
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	KeyID         string
}

// SigningKey is immutable key material used by [Sign].
type SigningKey struct {
	method SigningMethod
	id     string
	key    interface{}
}

// VerificationKey is immutable key material used by [Verify].
type VerificationKey struct {
	method SigningMethod
	id     string
	key    interface{}
}

// Method reports the signing method bound to the key.
func (k SigningKey) Method() SigningMethod { return k.method }

// KeyID reports the kid written into token headers, if any.
func (k SigningKey) KeyID() string { return k.id }

// Method reports the signing method bound to the key.
func (k VerificationKey) Method() SigningMethod { return k.method }

// KeyID reports the kid required in token headers, if any.
func (k VerificationKey) KeyID() string { return k.id }

// NewHMACKey returns a signing and verification key sharing secret.
func NewHMACKey(secret []byte) (SigningKey, VerificationKey, error) {
	cfg := KeyConfig{SigningMethod: MethodHS256, PrivateKey: secret}
	sk, err := NewSigningKey(cfg)
	if err != nil {
		return SigningKey{}, VerificationKey{}, err
	}
	vk, err := NewVerificationKey(cfg)
	if err != nil {
		return SigningKey{}, VerificationKey{}, err
	}
	return sk, vk, nil
}

// NewSigningKey validates cfg and returns the key used to sign tokens.
func NewSigningKey(cfg KeyConfig) (SigningKey, error) {
	kid := strings.TrimSpace(cfg.KeyID)
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return SigningKey{}, errors.New("hs256 requires secret")
		}
		return SigningKey{method: MethodHS256, id: kid, key: cloneBytes(cfg.PrivateKey)}, nil
	case MethodEd25519:
		if len(cfg.PrivateKey) == 0 {
			return SigningKey{}, errors.New("ed25519 signing requires private key")
		}
		priv, err := parseEdPrivateKey(cfg.PrivateKey)
		if err != nil {
			return SigningKey{}, err
		}
		return SigningKey{method: MethodEd25519, id: kid, key: priv}, nil
	default:
		return SigningKey{}, errors.New("unsupported signing method")
	}
}

// NewVerificationKey validates cfg and returns the key used to verify tokens.
func NewVerificationKey(cfg KeyConfig) (VerificationKey, error) {
	kid := strings.TrimSpace(cfg.KeyID)
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return VerificationKey{}, errors.New("hs256 requires secret")
		}
		return VerificationKey{method: MethodHS256, id: kid, key: cloneBytes(cfg.PrivateKey)}, nil
	case MethodEd25519:
		if len(cfg.PublicKey) > 0 {
			pub, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return VerificationKey{}, err
			}
			return VerificationKey{method: MethodEd25519, id: kid, key: pub}, nil
		}
		if len(cfg.PrivateKey) == 0 {
			return VerificationKey{}, errors.New("ed25519 verification requires public or private key")
		}
		priv, err := parseEdPrivateKey(cfg.PrivateKey)
		if err != nil {
			return VerificationKey{}, err
		}
		return VerificationKey{method: MethodEd25519, id: kid, key: priv.Public().(ed25519.PublicKey)}, nil
	default:
		return VerificationKey{}, errors.New("unsupported signing method")
	}
}

func (m SigningMethod) jwtMethod() gjwt.SigningMethod {
	switch m {
	case MethodHS256:
		return gjwt.SigningMethodHS256
	case MethodEd25519:
		return gjwt.SigningMethodEdDSA
	default:
		return nil
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(cloneBytes(key)), nil
	}
	parsed, err := gjwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(cloneBytes(key)), nil
	}
	parsed, err := gjwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

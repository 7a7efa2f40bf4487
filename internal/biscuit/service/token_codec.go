// Package service mints, caches and validates signed biscuit tokens.
//
// A token is the standard base64 encoding of a CBOR payload followed by a 64-byte Ed25519
// signature over the payload bytes:
//
//	base64( [CBOR payload] [64-byte Ed25519 signature] )
//
// The payload is encoded in Core Deterministic mode, so the same key and policy text
// always produce the same token.
//
// This envelope is not the Biscuit protobuf container, and the Space and Time gateway does
// not accept it. Minted tokens are for local use: validate-biscuit, saved biscuit files and
// tests. Tokens the gateway must accept are minted elsewhere and loaded with
// NewManualBiscuit, which never regenerates them. The policy text uses the same datalog
// lines a Biscuit authority block carries, so it can be handed to a Biscuit minter as is.
package service

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	biscuitDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/biscuit/domain"
	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"
)

// TokenVersion is the payload format version written by Mint.
const TokenVersion = 1

// TokenClaims is the signed payload of a biscuit token.
type TokenClaims struct {
	Version int    `cbor:"1,keyasint" json:"version"`
	Domain  string `cbor:"2,keyasint" json:"domain"`
	Policy  string `cbor:"3,keyasint" json:"policy"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("biscuit: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("biscuit: CBOR decoder initialization failed: " + err.Error())
	}
}

// Mint checks the policy grammar, signs the CBOR payload and returns the base64 token.
func Mint(privateKey ed25519.PrivateKey, domain, policy string) (string, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("mint biscuit: %w", keysDomain.ErrPrivateKeyNotSet)
	}
	if err := biscuitDomain.ValidatePolicyText(domain, policy); err != nil {
		return "", err
	}

	payload, err := encMode.Marshal(&TokenClaims{Version: TokenVersion, Domain: domain, Policy: policy})
	if err != nil {
		return "", fmt.Errorf("%w: encoding payload: %v", biscuitDomain.ErrInvalidToken, err)
	}

	signature := ed25519.Sign(privateKey, payload)

	raw := make([]byte, len(payload)+ed25519.SignatureSize)
	copy(raw, payload)
	copy(raw[len(payload):], signature)

	return base64.StdEncoding.EncodeToString(raw), nil
}

// Validate decodes a token, verifies its signature against publicKey and returns the
// claims. Any structural or signature problem yields ErrInvalidToken.
func Validate(token string, publicKey ed25519.PublicKey) (*TokenClaims, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes", biscuitDomain.ErrInvalidToken, ed25519.PublicKeySize)
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: not base64", biscuitDomain.ErrInvalidToken)
	}
	if len(raw) <= ed25519.SignatureSize {
		return nil, fmt.Errorf("%w: too short for signature", biscuitDomain.ErrInvalidToken)
	}

	split := len(raw) - ed25519.SignatureSize
	payload, signature := raw[:split], raw[split:]

	if !ed25519.Verify(publicKey, payload, signature) {
		return nil, fmt.Errorf("%w: signature not valid for public key", biscuitDomain.ErrInvalidToken)
	}

	var claims TokenClaims
	if err := decMode.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: decoding payload: %v", biscuitDomain.ErrInvalidToken, err)
	}
	if claims.Version != TokenVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", biscuitDomain.ErrInvalidToken, claims.Version)
	}
	return &claims, nil
}

// ValidateWithKey is Validate with the public key given in any supported encoding.
func ValidateWithKey(token string, publicKey []byte) (*TokenClaims, error) {
	enc, err := keysDomain.DetectEncoding(publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", biscuitDomain.ErrInvalidToken, err)
	}
	raw, err := keysDomain.DecodeKey(publicKey, enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", biscuitDomain.ErrInvalidToken, err)
	}
	return Validate(token, ed25519.PublicKey(raw))
}

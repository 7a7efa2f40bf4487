// Package domain defines the key material model: Ed25519 key sizes, the three
// supported key encodings and the change notifications emitted by a key manager.
package domain

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// KeySize is the length in bytes of an Ed25519 seed and of an Ed25519 public key.
	KeySize = 32

	// SignatureSize is the length in bytes of an Ed25519 signature.
	SignatureSize = 64

	hexKeyLength    = 2 * KeySize
	base64KeyLength = 44
)

// Encoding identifies how a key or signature is represented.
type Encoding int

const (
	// EncodingBytes is the raw byte representation.
	EncodingBytes Encoding = iota
	// EncodingHex is lowercase hexadecimal text.
	EncodingHex
	// EncodingBase64 is standard base64 text with padding.
	EncodingBase64
)

// String returns the lowercase name of the encoding.
func (e Encoding) String() string {
	switch e {
	case EncodingBytes:
		return "bytes"
	case EncodingHex:
		return "hex"
	case EncodingBase64:
		return "base64"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// ParseEncoding maps a name ("bytes", "hex", "base64") to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bytes":
		return EncodingBytes, nil
	case "hex":
		return EncodingHex, nil
	case "base64":
		return EncodingBase64, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
	}
}

// Encode converts raw bytes into the requested encoding. Text encodings are returned
// as their UTF-8 bytes.
func Encode(raw []byte, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingBytes:
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	case EncodingHex:
		out := make([]byte, hex.EncodedLen(len(raw)))
		hex.Encode(out, raw)
		return out, nil
	case EncodingBase64:
		out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
		base64.StdEncoding.Encode(out, raw)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
	}
}

// Decode converts an encoded value back to raw bytes without checking its length.
func Decode(value []byte, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingBytes:
		out := make([]byte, len(value))
		copy(out, value)
		return out, nil
	case EncodingHex:
		out := make([]byte, hex.DecodedLen(len(value)))
		n, err := hex.Decode(out, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
		}
		return out[:n], nil
	case EncodingBase64:
		out := make([]byte, base64.StdEncoding.DecodedLen(len(value)))
		n, err := base64.StdEncoding.Decode(out, value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
		}
		return out[:n], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
	}
}

// DecodeKey decodes a key value and requires the result to be exactly KeySize bytes.
func DecodeKey(value []byte, enc Encoding) ([]byte, error) {
	raw, err := Decode(value, enc)
	if err != nil {
		return nil, err
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeyLength, len(raw), KeySize)
	}
	return raw, nil
}

// DetectEncoding classifies a key value by its fixed expected length: 64 hex characters,
// 44 base64 characters decoding to KeySize bytes, or exactly KeySize raw bytes.
func DetectEncoding(value []byte) (Encoding, error) {
	switch len(value) {
	case hexKeyLength:
		if isHex(value) {
			return EncodingHex, nil
		}
	case base64KeyLength:
		raw, err := base64.StdEncoding.DecodeString(string(value))
		if err == nil && len(raw) == KeySize {
			return EncodingBase64, nil
		}
	case KeySize:
		return EncodingBytes, nil
	}
	return 0, fmt.Errorf("%w: %d byte value", ErrUnknownEncoding, len(value))
}

// ConvertKey decodes value from one encoding and re-encodes it into another.
func ConvertKey(value []byte, from, to Encoding) ([]byte, error) {
	raw, err := DecodeKey(value, from)
	if err != nil {
		return nil, err
	}
	defer Zero(raw)
	return Encode(raw, to)
}

func isHex(value []byte) bool {
	for _, c := range value {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

package domain

import (
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
)

// Key management error definitions.
//
// These wrap the shared error kinds from internal/errors so callers can classify
// any key failure with errors.Is(err, errors.ErrKeyEncoding) or errors.ErrArgument.
var (
	// ErrInvalidKeyLength indicates a decoded key is not exactly KeySize bytes.
	ErrInvalidKeyLength = errors.Wrap(errors.ErrKeyEncoding, "invalid key length")

	// ErrMalformedKey indicates the key text is not valid for its declared encoding.
	ErrMalformedKey = errors.Wrap(errors.ErrKeyEncoding, "malformed key")

	// ErrUnknownEncoding indicates the encoding of a key value could not be detected.
	ErrUnknownEncoding = errors.Wrap(errors.ErrKeyEncoding, "unknown key encoding")

	// ErrUnsupportedEncoding indicates an Encoding value outside the supported set.
	ErrUnsupportedEncoding = errors.Wrap(errors.ErrKeyEncoding, "unsupported encoding")

	// ErrPrivateKeyNotSet indicates an operation needed a private key but none is held.
	ErrPrivateKeyNotSet = errors.Wrap(errors.ErrArgument, "private key not set")

	// ErrPublicKeyNotSet indicates no public key is held or derivable.
	ErrPublicKeyNotSet = errors.Wrap(errors.ErrArgument, "public key not set")

	// ErrPublicKeyMismatch indicates a public key that does not belong to the held private key.
	ErrPublicKeyMismatch = errors.Wrap(errors.ErrArgument, "public key does not match private key")

	// ErrUnsupportedKeyURI indicates a KMS key URI with a scheme no keeper driver serves.
	ErrUnsupportedKeyURI = errors.Wrap(errors.ErrArgument, "unsupported KMS key URI")

	// ErrInvalidSignature indicates a signature did not verify against the public key.
	ErrInvalidSignature = errors.Wrap(errors.ErrKeyEncoding, "invalid signature")
)

// Package service implements Ed25519 key management and KMS access for sealing keys at rest.
package service

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"sync"

	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"
)

// KeyManager holds exactly one Ed25519 keypair. The public key is derived lazily from the
// private key and cached until the private key changes. A KeyManager may be shared by
// several biscuits or resources; observers let each holder react to key changes.
//
// All methods are safe for concurrent use. Observers run synchronously on the calling
// goroutine after the internal lock has been released, so they may call back into the
// KeyManager.
type KeyManager struct {
	mu         sync.RWMutex
	privateKey []byte
	publicKey  []byte
	observers  []keysDomain.Observer
	logger     *slog.Logger
}

// NewKeyManager creates an empty KeyManager. A nil logger discards log output.
func NewKeyManager(logger *slog.Logger) *KeyManager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &KeyManager{logger: logger}
}

// NewKeyManagerFromPrivateKey creates a KeyManager holding the given private key, whose
// encoding is detected automatically.
func NewKeyManagerFromPrivateKey(value string, logger *slog.Logger) (*KeyManager, error) {
	km := NewKeyManager(logger)
	if err := km.SetPrivateKeyAuto([]byte(value)); err != nil {
		return nil, err
	}
	return km, nil
}

// GenerateNewKeypair replaces the held keypair with a freshly generated one.
func (km *KeyManager) GenerateNewKeypair() {
	seed := make([]byte, keysDomain.KeySize)
	// crypto/rand.Read never returns an error.
	_, _ = rand.Read(seed)
	km.replacePrivateKey(seed)
	km.logger.Debug("generated new keypair")
}

// SetPrivateKey decodes value from enc and replaces the held private key.
func (km *KeyManager) SetPrivateKey(value []byte, enc keysDomain.Encoding) error {
	raw, err := keysDomain.DecodeKey(value, enc)
	if err != nil {
		return fmt.Errorf("set private key: %w", err)
	}
	km.replacePrivateKey(raw)
	return nil
}

// SetPrivateKeyAuto detects the encoding of value and replaces the held private key.
func (km *KeyManager) SetPrivateKeyAuto(value []byte) error {
	enc, err := keysDomain.DetectEncoding(value)
	if err != nil {
		return fmt.Errorf("set private key: %w", err)
	}
	return km.SetPrivateKey(value, enc)
}

// SetPublicKey stores a public key for verification when no private key is available.
// It is discarded the next time a private key is set. While a private key is held only
// the derived public key is accepted.
func (km *KeyManager) SetPublicKey(value []byte, enc keysDomain.Encoding) error {
	raw, err := keysDomain.DecodeKey(value, enc)
	if err != nil {
		return fmt.Errorf("set public key: %w", err)
	}

	km.mu.Lock()
	if len(km.privateKey) != 0 {
		derived := ed25519.NewKeyFromSeed(km.privateKey).Public().(ed25519.PublicKey)
		if !bytes.Equal(derived, raw) {
			km.mu.Unlock()
			return fmt.Errorf("set public key: %w", keysDomain.ErrPublicKeyMismatch)
		}
	}
	km.publicKey = raw
	observers := km.snapshotObservers()
	km.mu.Unlock()

	km.notify(observers, keysDomain.KeyChange{Field: keysDomain.FieldPublicKey, PublicKey: raw})
	return nil
}

// HasPrivateKey reports whether a private key is held.
func (km *KeyManager) HasPrivateKey() bool {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.privateKey) == keysDomain.KeySize
}

// PrivateKey returns the private key in the requested encoding.
func (km *KeyManager) PrivateKey(enc keysDomain.Encoding) ([]byte, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if len(km.privateKey) == 0 {
		return nil, keysDomain.ErrPrivateKeyNotSet
	}
	return keysDomain.Encode(km.privateKey, enc)
}

// PublicKey returns the public key in the requested encoding, deriving it from the
// private key on first use after a change.
func (km *KeyManager) PublicKey(enc keysDomain.Encoding) ([]byte, error) {
	raw, err := km.publicKeyRaw()
	if err != nil {
		return nil, err
	}
	return keysDomain.Encode(raw, enc)
}

// PrivateKeyString returns the private key in a text encoding, or "" when none is held.
func (km *KeyManager) PrivateKeyString(enc keysDomain.Encoding) string {
	out, err := km.PrivateKey(enc)
	if err != nil {
		return ""
	}
	return string(out)
}

// PublicKeyString returns the public key in a text encoding, or "" when none is held.
func (km *KeyManager) PublicKeyString(enc keysDomain.Encoding) string {
	out, err := km.PublicKey(enc)
	if err != nil {
		return ""
	}
	return string(out)
}

// Sign signs message with the private key and returns the signature in enc.
func (km *KeyManager) Sign(message []byte, enc keysDomain.Encoding) ([]byte, error) {
	km.mu.RLock()
	if len(km.privateKey) == 0 {
		km.mu.RUnlock()
		return nil, fmt.Errorf("sign message: %w", keysDomain.ErrPrivateKeyNotSet)
	}
	signature := ed25519.Sign(ed25519.NewKeyFromSeed(km.privateKey), message)
	km.mu.RUnlock()

	return keysDomain.Encode(signature, enc)
}

// Verify checks an encoded signature over message against the held public key.
func (km *KeyManager) Verify(message, signature []byte, enc keysDomain.Encoding) error {
	pub, err := km.publicKeyRaw()
	if err != nil {
		return err
	}

	sig, err := keysDomain.Decode(signature, enc)
	if err != nil {
		return err
	}
	if len(sig) != keysDomain.SignatureSize || !ed25519.Verify(ed25519.PublicKey(pub), message, sig) {
		return keysDomain.ErrInvalidSignature
	}
	return nil
}

// Ed25519PrivateKey returns the expanded private key for use with crypto APIs.
func (km *KeyManager) Ed25519PrivateKey() (ed25519.PrivateKey, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if len(km.privateKey) == 0 {
		return nil, keysDomain.ErrPrivateKeyNotSet
	}
	return ed25519.NewKeyFromSeed(km.privateKey), nil
}

// AddObserver registers an observer for key changes.
func (km *KeyManager) AddObserver(o keysDomain.Observer) {
	km.mu.Lock()
	defer km.mu.Unlock()
	km.observers = append(km.observers, o)
}

// ClearObservers removes every registered observer.
func (km *KeyManager) ClearObservers() {
	km.mu.Lock()
	defer km.mu.Unlock()
	km.observers = nil
}

// String describes the keypair with the private key truncated.
func (km *KeyManager) String() string {
	private := km.PrivateKeyString(keysDomain.EncodingHex)
	if len(private) > 6 {
		private = private[:6] + "..."
	}
	return fmt.Sprintf("private_key=%s public_key=%s", private, km.PublicKeyString(keysDomain.EncodingHex))
}

func (km *KeyManager) replacePrivateKey(raw []byte) {
	km.mu.Lock()
	keysDomain.Zero(km.privateKey)
	km.privateKey = raw
	km.publicKey = nil
	observers := km.snapshotObservers()
	km.mu.Unlock()

	km.notify(observers, keysDomain.KeyChange{Field: keysDomain.FieldPrivateKey})

	// Deriving immediately keeps the notification order private_key then public_key.
	_, _ = km.publicKeyRaw()
}

// publicKeyRaw returns the cached public key, deriving and caching it when missing.
func (km *KeyManager) publicKeyRaw() ([]byte, error) {
	km.mu.RLock()
	if len(km.publicKey) != 0 {
		pub := km.publicKey
		km.mu.RUnlock()
		return pub, nil
	}
	km.mu.RUnlock()

	km.mu.Lock()
	if len(km.publicKey) != 0 {
		pub := km.publicKey
		km.mu.Unlock()
		return pub, nil
	}
	if len(km.privateKey) == 0 {
		km.mu.Unlock()
		return nil, keysDomain.ErrPublicKeyNotSet
	}
	pub := ed25519.NewKeyFromSeed(km.privateKey).Public().(ed25519.PublicKey)
	km.publicKey = []byte(pub)
	observers := km.snapshotObservers()
	km.mu.Unlock()

	km.notify(observers, keysDomain.KeyChange{Field: keysDomain.FieldPublicKey, PublicKey: pub})
	return pub, nil
}

func (km *KeyManager) snapshotObservers() []keysDomain.Observer {
	if len(km.observers) == 0 {
		return nil
	}
	out := make([]keysDomain.Observer, len(km.observers))
	copy(out, km.observers)
	return out
}

func (km *KeyManager) notify(observers []keysDomain.Observer, change keysDomain.KeyChange) {
	for _, o := range observers {
		o.OnKeyChange(change)
	}
}

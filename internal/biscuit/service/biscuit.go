package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	biscuitDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/biscuit/domain"
	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"
	keysService "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/service"
)

// tokenCache holds the last minted token and the capability version it was minted from.
type tokenCache struct {
	value   string
	version uint64
	ok      bool
}

func (c *tokenCache) invalidate() {
	c.value = ""
	c.ok = false
}

// Biscuit pairs a capability model with a signing key and caches the resulting token.
// The cache is invalidated by every mutator, by any change to the key manager, and by
// direct changes to the model returned from Capabilities.
//
// A manual biscuit carries a token supplied by the caller. It is returned as-is and never
// regenerated, whatever happens to the model or the key.
type Biscuit struct {
	mu     sync.Mutex
	name   string
	domain string
	keys   *keysService.KeyManager
	caps   *biscuitDomain.Capabilities
	cache  tokenCache
	manual bool
	logger *slog.Logger
}

// NewBiscuit creates a biscuit signed by keys. A nil keys gets a fresh, empty key manager.
func NewBiscuit(name string, keys *keysService.KeyManager, logger *slog.Logger) *Biscuit {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if keys == nil {
		keys = keysService.NewKeyManager(logger)
	}

	b := &Biscuit{
		name:   name,
		domain: biscuitDomain.DefaultDomain,
		keys:   keys,
		caps:   biscuitDomain.NewCapabilities(logger),
		logger: logger,
	}
	keys.AddObserver(keysDomain.ObserverFunc(func(keysDomain.KeyChange) {
		b.invalidate()
	}))
	return b
}

// NewManualBiscuit wraps a token obtained elsewhere. It is not computed or verified.
func NewManualBiscuit(name, token string, logger *slog.Logger) *Biscuit {
	b := NewBiscuit(name, nil, logger)
	b.manual = true
	b.cache = tokenCache{value: token, ok: true}
	b.logger.Info("manual biscuit token accepted as-is", slog.String("biscuit", name))
	return b
}

// Name returns the biscuit name.
func (b *Biscuit) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}

// SetName renames the biscuit.
func (b *Biscuit) SetName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.name = name
}

// Domain returns the fact namespace used when rendering policy text.
func (b *Biscuit) Domain() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.domain
}

// SetDomain changes the fact namespace.
func (b *Biscuit) SetDomain(domain string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.domain = domain
	b.cache.invalidateUnlessManual(b.manual)
}

// IsManual reports whether the token was supplied by the caller.
func (b *Biscuit) IsManual() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.manual
}

// KeyManager returns the (possibly shared) key manager that signs this biscuit.
func (b *Biscuit) KeyManager() *keysService.KeyManager {
	return b.keys
}

// Capabilities returns the underlying model. Changes made through it are picked up by
// the next Token call.
func (b *Biscuit) Capabilities() *biscuitDomain.Capabilities {
	return b.caps
}

// AddCapability grants perms on resource; see Capabilities.AddCapability.
func (b *Biscuit) AddCapability(resource string, perms ...biscuitDomain.Permission) (int, error) {
	added, err := b.caps.AddCapability(resource, perms...)
	if err != nil {
		return 0, err
	}
	if added > 0 {
		b.invalidate()
	}
	return added, nil
}

// RemoveCapability revokes perms on resource; see Capabilities.RemoveCapability.
func (b *Biscuit) RemoveCapability(resource string, perms ...biscuitDomain.Permission) int {
	removed := b.caps.RemoveCapability(resource, perms...)
	if removed > 0 {
		b.invalidate()
	}
	return removed
}

// AddIdentityCheck restricts the token to the given identities.
func (b *Biscuit) AddIdentityCheck(identities ...string) int {
	added := b.caps.AddIdentityCheck(identities...)
	if added > 0 {
		b.invalidate()
	}
	return added
}

// AddTimeCheck restricts the token to [start, end).
func (b *Biscuit) AddTimeCheck(start, end time.Time) (int, error) {
	added, err := b.caps.AddTimeCheck(start, end)
	if err != nil {
		return 0, err
	}
	if added > 0 {
		b.invalidate()
	}
	return added, nil
}

// ParseText replaces the model with the statements found in policy text.
func (b *Biscuit) ParseText(text string) error {
	if err := b.caps.ParseText(b.Domain(), text); err != nil {
		return err
	}
	b.invalidate()
	return nil
}

// Clear removes every grant and constraint.
func (b *Biscuit) Clear() {
	b.caps.Clear()
	b.invalidate()
}

// Text renders the current policy text.
func (b *Biscuit) Text() string {
	return b.caps.Render(b.Domain())
}

// Token returns the signed token, minting a new one when the model or key has changed
// since the last call. A failed mint leaves the cache untouched.
func (b *Biscuit) Token() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.manual {
		return b.cache.value, nil
	}

	version := b.caps.Version()
	if b.cache.ok && b.cache.version == version {
		return b.cache.value, nil
	}

	privateKey, err := b.keys.Ed25519PrivateKey()
	if err != nil {
		return "", fmt.Errorf("biscuit %q: a private key is required to create a biscuit: %w", b.name, err)
	}

	text := b.caps.Render(b.domain)
	if text == "" {
		return "", fmt.Errorf("biscuit %q: %w", b.name, biscuitDomain.ErrEmptyPolicy)
	}

	token, err := Mint(privateKey, b.domain, text)
	if err != nil {
		return "", fmt.Errorf("biscuit %q: %w", b.name, err)
	}

	b.cache = tokenCache{value: token, version: version, ok: true}
	b.logger.Debug("minted biscuit token", slog.String("biscuit", b.name), slog.Int("length", len(token)))
	return token, nil
}

// Validate checks token against publicKey, given in any supported encoding. An empty
// publicKey validates against this biscuit's own key.
func (b *Biscuit) Validate(token string, publicKey []byte) (*TokenClaims, error) {
	if len(publicKey) == 0 {
		own, err := b.keys.PublicKey(keysDomain.EncodingBytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", biscuitDomain.ErrInvalidToken, err)
		}
		publicKey = own
	}

	claims, err := ValidateWithKey(token, publicKey)
	if err != nil {
		b.logger.Error("biscuit not validated with public key", slog.String("biscuit", b.Name()), slog.Any("error", err))
		return nil, err
	}
	return claims, nil
}

// Snapshot is a JSON-friendly view of a biscuit.
type Snapshot struct {
	Name         string              `json:"name"`
	PrivateKey   string              `json:"private_key"`
	PublicKey    string              `json:"public_key"`
	Capabilities map[string][]string `json:"biscuit_capabilities"`
	Text         string              `json:"biscuit_text"`
	Token        string              `json:"biscuit_token"`
	Manual       bool                `json:"manual,omitempty"`
}

// Snapshot captures the biscuit state. The private key is truncated when maskPrivateKey
// is set. Token errors leave Token empty.
func (b *Biscuit) Snapshot(maskPrivateKey bool) Snapshot {
	private := b.keys.PrivateKeyString(keysDomain.EncodingBase64)
	if maskPrivateKey && len(private) > 6 {
		private = private[:6] + "..."
	}
	token, _ := b.Token()

	return Snapshot{
		Name:         b.Name(),
		PrivateKey:   private,
		PublicKey:    b.keys.PublicKeyString(keysDomain.EncodingBase64),
		Capabilities: b.caps.Grants(),
		Text:         b.Text(),
		Token:        token,
		Manual:       b.IsManual(),
	}
}

// ToJSON encodes Snapshot(maskPrivateKey) as indented JSON.
func (b *Biscuit) ToJSON(maskPrivateKey bool) ([]byte, error) {
	return json.MarshalIndent(b.Snapshot(maskPrivateKey), "", "  ")
}

func (b *Biscuit) invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache.invalidateUnlessManual(b.manual)
}

func (c *tokenCache) invalidateUnlessManual(manual bool) {
	if !manual {
		c.invalidate()
	}
}

package persistence

import (
	"context"
	"fmt"

	biscuitService "github.com/spaceandtimelabs/sxt-go-sdk/internal/biscuit/service"
	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"
	keysService "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/service"
)

// DefaultBiscuitPath is used by SaveBiscuit when no path is given.
const DefaultBiscuitPath = "biscuits/biscuit_{resource}_{date}_{time}.env"

// SaveBiscuit writes b to path, after placeholder replacement, and returns the path used.
// {resource} is the last resource granted on the biscuit.
func (s *Store) SaveBiscuit(ctx context.Context, path string, b *biscuitService.Biscuit) (string, error) {
	if path == "" {
		path = DefaultBiscuitPath
	}
	path = s.ResolvePath(path, map[string]string{"resource": b.Capabilities().LastResource()})

	token, err := b.Token()
	if err != nil {
		return "", err
	}

	doc := &Document{}
	doc.Comment("-- Biscuit file for " + b.Name())
	doc.Set("NAME", b.Name())
	if b.IsManual() {
		doc.Set("MANUAL", "true")
	} else {
		err := s.putPrivateKey(ctx, doc, "PRIVATE_KEY", b.KeyManager().PrivateKeyString(keysDomain.EncodingBase64))
		if err != nil {
			return "", err
		}
		doc.Set("PUBLIC_KEY", b.KeyManager().PublicKeyString(keysDomain.EncodingBase64))
		doc.Set("DOMAIN", b.Domain())
		doc.Set("BISCUIT_TEXT", b.Text())
	}
	doc.Set("BISCUIT_TOKEN", token)

	if err := s.save(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

// LoadBiscuit reads a file written by SaveBiscuit. Signed biscuits are rebuilt from
// their key and policy text; manual biscuits keep the saved token.
func (s *Store) LoadBiscuit(ctx context.Context, path string) (*biscuitService.Biscuit, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := doc.Require("NAME", "BISCUIT_TOKEN"); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if doc.Value("MANUAL") == "true" {
		return biscuitService.NewManualBiscuit(doc.Value("NAME"), doc.Value("BISCUIT_TOKEN"), s.logger), nil
	}
	if err := doc.Require("BISCUIT_TEXT"); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	privateKey, err := s.privateKey(ctx, doc, "PRIVATE_KEY")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	keys, err := keysService.NewKeyManagerFromPrivateKey(privateKey, s.logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	b := biscuitService.NewBiscuit(doc.Value("NAME"), keys, s.logger)
	// Files written before DOMAIN was saved use the default domain.
	if domain := doc.Value("DOMAIN"); domain != "" {
		b.SetDomain(domain)
	}
	if err := b.ParseText(doc.Value("BISCUIT_TEXT")); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	biscuitDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/biscuit/domain"
	biscuitService "github.com/spaceandtimelabs/sxt-go-sdk/internal/biscuit/service"
	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"
	keysService "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/service"
)

// BiscuitSaver persists biscuits. *persistence.Store implements it.
type BiscuitSaver interface {
	SaveBiscuit(ctx context.Context, path string, b *biscuitService.Biscuit) (string, error)
}

// BiscuitOptions describes the biscuit built by RunBiscuit.
type BiscuitOptions struct {
	Name string
	// PrivateKey signs the biscuit. A new keypair is generated when empty.
	PrivateKey  string
	Resources   []string
	Permissions []string
	Identities  []string
	// ValidFor adds a time check from Now; zero adds none.
	ValidFor time.Duration
	Now      func() time.Time
	// SavePath writes the biscuit through the saver when set.
	SavePath string
	Format   string
}

// RunBiscuit builds, signs and prints a biscuit granting Permissions on every resource.
func RunBiscuit(ctx context.Context, saver BiscuitSaver, logger *slog.Logger, writer io.Writer, opts BiscuitOptions) error {
	if err := checkFormat(opts.Format); err != nil {
		return err
	}
	if len(opts.Resources) == 0 {
		return biscuitDomain.ErrNoResource
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	perms, err := biscuitDomain.ParsePermissions(opts.Permissions...)
	if err != nil {
		return err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var keys *keysService.KeyManager
	generated := opts.PrivateKey == ""
	if generated {
		keys = keysService.NewKeyManager(logger)
		keys.GenerateNewKeypair()
	} else {
		keys, err = keysService.NewKeyManagerFromPrivateKey(opts.PrivateKey, logger)
		if err != nil {
			return err
		}
	}

	b := biscuitService.NewBiscuit(opts.Name, keys, logger)
	for _, resource := range opts.Resources {
		if _, err := b.AddCapability(resource, perms...); err != nil {
			return fmt.Errorf("grant on %s: %w", resource, err)
		}
	}
	if len(opts.Identities) > 0 {
		b.AddIdentityCheck(opts.Identities...)
	}
	if opts.ValidFor > 0 {
		start := opts.Now().UTC()
		if _, err := b.AddTimeCheck(start, start.Add(opts.ValidFor)); err != nil {
			return err
		}
	}

	token, err := b.Token()
	if err != nil {
		return err
	}

	var savedPath string
	if opts.SavePath != "" {
		savedPath, err = saver.SaveBiscuit(ctx, opts.SavePath, b)
		if err != nil {
			return fmt.Errorf("failed to save biscuit: %w", err)
		}
	}

	logger.Info("biscuit created",
		slog.String("name", b.Name()),
		slog.Int("resources", len(opts.Resources)),
		slog.Bool("generated_key", generated),
	)

	if opts.Format == "json" {
		snapshot := b.Snapshot(!generated)
		return writeJSON(writer, map[string]any{
			"biscuit": snapshot,
			"path":    savedPath,
		})
	}

	if generated {
		fmt.Fprintf(writer, "PRIVATE_KEY=%s\n", keys.PrivateKeyString(keysDomain.EncodingBase64))
	}
	fmt.Fprintf(writer, "PUBLIC_KEY=%s\n", keys.PublicKeyString(keysDomain.EncodingHex))
	fmt.Fprintf(writer, "\n%s\n\n", b.Text())
	fmt.Fprintf(writer, "BISCUIT_TOKEN=%s\n", token)
	if savedPath != "" {
		fmt.Fprintf(writer, "saved to %s\n", savedPath)
	}
	return nil
}

// RunValidateBiscuit verifies token against publicKey and prints its policy.
func RunValidateBiscuit(logger *slog.Logger, writer io.Writer, token, publicKey, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	claims, err := biscuitService.ValidateWithKey(token, []byte(publicKey))
	if err != nil {
		logger.Warn("biscuit rejected", slog.Any("error", err))
		return err
	}

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"valid":   true,
			"version": claims.Version,
			"domain":  claims.Domain,
			"policy":  claims.Policy,
		})
	}
	_, err = fmt.Fprintf(writer, "valid biscuit (domain %s)\n\n%s\n", claims.Domain, claims.Policy)
	return err
}

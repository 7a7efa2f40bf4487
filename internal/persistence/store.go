package persistence

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"time"

	queryDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/query/domain"
)

// Sealer encrypts private keys before they are written. A gocloud.dev secrets keeper
// satisfies it.
type Sealer interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// Store saves and loads SDK objects. With a Sealer, private keys are stored in
// "<FIELD>_SEALED" fields instead of in clear text.
type Store struct {
	sealer Sealer
	now    func() time.Time
	logger *slog.Logger
}

// NewStore creates a Store. sealer may be nil.
func NewStore(sealer Sealer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{sealer: sealer, now: time.Now, logger: logger}
}

// ResolvePath replaces {resource}, {user_id}, {date} and {time} in path.
func (s *Store) ResolvePath(path string, values map[string]string) string {
	return queryDomain.ReplacePlaceholders(path, values, s.now())
}

// putPrivateKey stores key under field, or sealed under field+"_SEALED".
func (s *Store) putPrivateKey(ctx context.Context, doc *Document, field, key string) error {
	if s.sealer == nil || key == "" {
		doc.Set(field, key)
		return nil
	}
	sealed, err := s.sealer.Encrypt(ctx, []byte(key))
	if err != nil {
		return fmt.Errorf("seal %s: %w", field, err)
	}
	doc.Set(field+"_SEALED", base64.StdEncoding.EncodeToString(sealed))
	return nil
}

// privateKey reads field, unsealing field+"_SEALED" when that is what the file holds.
func (s *Store) privateKey(ctx context.Context, doc *Document, field string) (string, error) {
	if key, ok := doc.Get(field); ok {
		return key, nil
	}
	sealedText, ok := doc.Get(field + "_SEALED")
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	if s.sealer == nil {
		return "", ErrNoSealer
	}
	sealed, err := base64.StdEncoding.DecodeString(sealedText)
	if err != nil {
		return "", fmt.Errorf("%w: %s_SEALED is not base64", ErrMalformedFile, field)
	}
	key, err := s.sealer.Decrypt(ctx, sealed)
	if err != nil {
		return "", fmt.Errorf("unseal %s: %w", field, err)
	}
	return string(key), nil
}

func (s *Store) save(path string, doc *Document) error {
	if err := Save(path, doc); err != nil {
		s.logger.Error("file not saved", slog.String("path", path), slog.Any("error", err))
		return err
	}
	s.logger.Info("file saved", slog.String("path", path))
	s.logger.Warn("the saved file contains private keys", slog.String("path", path), slog.Bool("sealed", s.sealer != nil))
	return nil
}

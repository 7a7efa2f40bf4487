package commands

import (
	"fmt"
	"io"
	"log/slog"

	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"
	keysService "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/service"
)

// RunKeygen generates an Ed25519 keypair and prints both keys in the requested encoding.
func RunKeygen(logger *slog.Logger, writer io.Writer, encoding, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	enc, err := keysDomain.ParseEncoding(encoding)
	if err != nil {
		return err
	}
	if enc == keysDomain.EncodingBytes {
		return fmt.Errorf("%w: raw bytes cannot be printed, use hex or base64", keysDomain.ErrUnsupportedEncoding)
	}

	keys := keysService.NewKeyManager(logger)
	keys.GenerateNewKeypair()
	privateKey := keys.PrivateKeyString(enc)
	publicKey := keys.PublicKeyString(enc)

	logger.Info("generated keypair", slog.String("encoding", enc.String()))

	if format == "json" {
		return writeJSON(writer, map[string]string{
			"encoding":    enc.String(),
			"private_key": privateKey,
			"public_key":  publicKey,
		})
	}
	_, err = fmt.Fprintf(writer, "USER_PRIVATE_KEY=%s\nUSER_PUBLIC_KEY=%s\n", privateKey, publicKey)
	return err
}

package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"gocloud.dev/secrets"

	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"

	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KeyURISchemes lists the KMS_KEY_URI schemes a keeper can be opened for.
var KeyURISchemes = []string{"awskms", "azurekeyvault", "base64key", "gcpkms", "hashivault"}

// KMSService opens keepers used to seal private keys before they are written to disk.
type KMSService interface {
	OpenKeeper(ctx context.Context, keyURI string) (keysDomain.KMSKeeper, error)
}

type kmsService struct{}

// NewKMSService returns a KMSService backed by gocloud.dev/secrets.
func NewKMSService() KMSService {
	return &kmsService{}
}

// OpenKeeper opens the keeper named by keyURI. The scheme is checked first so a typo in
// KMS_KEY_URI reports the accepted schemes instead of a driver lookup failure.
func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (keysDomain.KMSKeeper, error) {
	scheme, _, found := strings.Cut(keyURI, "://")
	if !found || !slices.Contains(KeyURISchemes, strings.ToLower(scheme)) {
		return nil, fmt.Errorf("%w: %q, want one of %s://",
			keysDomain.ErrUnsupportedKeyURI, scheme, strings.Join(KeyURISchemes, "://, "))
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

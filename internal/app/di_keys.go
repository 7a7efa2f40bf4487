package app

import (
	"context"
	"fmt"

	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"
	keysService "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/service"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/persistence"
)

// KMSService returns the KMS service.
func (c *Container) KMSService() keysService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = keysService.NewKMSService()
	})
	return c.kmsService
}

// KMSKeeper returns the keeper for KMS_KEY_URI, or nil when no URI is configured.
func (c *Container) KMSKeeper() (keysDomain.KMSKeeper, error) {
	var err error
	c.keeperInit.Do(func() {
		c.keeper, err = c.initKMSKeeper()
		if err != nil {
			c.setInitError("keeper", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("keeper"); storedErr != nil {
		return nil, storedErr
	}
	return c.keeper, nil
}

// UserKeyManager returns the keys of the configured user. It is empty when
// USER_PRIVATE_KEY is not set.
func (c *Container) UserKeyManager() (*keysService.KeyManager, error) {
	var err error
	c.userKeysInit.Do(func() {
		c.userKeys, err = c.initUserKeyManager()
		if err != nil {
			c.setInitError("userKeys", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("userKeys"); storedErr != nil {
		return nil, storedErr
	}
	return c.userKeys, nil
}

// Store returns the file store, sealing private keys when a KMS key is configured.
func (c *Container) Store() (*persistence.Store, error) {
	var err error
	c.storeInit.Do(func() {
		c.store, err = c.initStore()
		if err != nil {
			c.setInitError("store", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("store"); storedErr != nil {
		return nil, storedErr
	}
	return c.store, nil
}

func (c *Container) initKMSKeeper() (keysDomain.KMSKeeper, error) {
	if c.config.KMSKeyURI == "" {
		return nil, nil
	}
	keeper, err := c.KMSService().OpenKeeper(context.Background(), c.config.KMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open kms keeper: %w", err)
	}
	return keeper, nil
}

func (c *Container) initUserKeyManager() (*keysService.KeyManager, error) {
	if c.config.UserPrivateKey == "" {
		return keysService.NewKeyManager(c.Logger()), nil
	}
	keys, err := keysService.NewKeyManagerFromPrivateKey(c.config.UserPrivateKey, c.Logger())
	if err != nil {
		return nil, fmt.Errorf("invalid USER_PRIVATE_KEY: %w", err)
	}
	return keys, nil
}

func (c *Container) initStore() (*persistence.Store, error) {
	keeper, err := c.KMSKeeper()
	if err != nil {
		return nil, fmt.Errorf("failed to get kms keeper for store: %w", err)
	}
	if keeper == nil {
		return persistence.NewStore(nil, c.Logger()), nil
	}
	return persistence.NewStore(keeper, c.Logger()), nil
}

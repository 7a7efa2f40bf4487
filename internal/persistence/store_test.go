package persistence_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	biscuitDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/biscuit/domain"
	biscuitService "github.com/spaceandtimelabs/sxt-go-sdk/internal/biscuit/service"
	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"
	keysService "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/service"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/persistence"
	resourceDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/resource/domain"
	resourceService "github.com/spaceandtimelabs/sxt-go-sdk/internal/resource/service"
)

const testPrivateKey = "4G7l7Zu4zTTMsV/p3i7qjNEqf2LV92LSXfntQXWkH+c="

var testStart = time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC)

func openSealer(t *testing.T) keysDomain.KMSKeeper {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	keeper, err := keysService.NewKMSService().OpenKeeper(context.Background(), "base64key://"+base64.URLEncoding.EncodeToString(key))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, keeper.Close())
	})
	return keeper
}

func newSignedBiscuit(t *testing.T) *biscuitService.Biscuit {
	t.Helper()
	keys, err := keysService.NewKeyManagerFromPrivateKey(testPrivateKey, nil)
	require.NoError(t, err)
	b := biscuitService.NewBiscuit("admin", keys, nil)
	_, err = b.AddCapability("SXTTEMP.Orders", biscuitDomain.PermissionSelect, biscuitDomain.PermissionInsert)
	require.NoError(t, err)
	return b
}

func TestStore_Biscuit(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_SignedRoundTrip", func(t *testing.T) {
		store := persistence.NewStore(nil, nil)
		b := newSignedBiscuit(t)
		want, err := b.Token()
		require.NoError(t, err)

		path, err := store.SaveBiscuit(ctx, filepath.Join(t.TempDir(), "biscuit_{resource}.env"), b)
		require.NoError(t, err)
		assert.Equal(t, "biscuit_SXTTEMP.Orders.env", filepath.Base(path))

		loaded, err := store.LoadBiscuit(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "admin", loaded.Name())
		assert.False(t, loaded.IsManual())
		assert.Equal(t, b.Text(), loaded.Text())

		got, err := loaded.Token()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Success_CustomDomainRoundTrip", func(t *testing.T) {
		store := persistence.NewStore(nil, nil)
		b := newSignedBiscuit(t)
		b.SetDomain("acme")
		want, err := b.Token()
		require.NoError(t, err)

		path, err := store.SaveBiscuit(ctx, filepath.Join(t.TempDir(), "acme.env"), b)
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "DOMAIN=\"acme\"\n")

		loaded, err := store.LoadBiscuit(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "acme", loaded.Domain())
		assert.Equal(t, b.Text(), loaded.Text())
		got, err := loaded.Token()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("Success_ManualRoundTrip", func(t *testing.T) {
		store := persistence.NewStore(nil, nil)
		b := biscuitService.NewManualBiscuit("reader", "EpABCiYKDnN4Ojpj", nil)

		path, err := store.SaveBiscuit(ctx, filepath.Join(t.TempDir(), "reader.env"), b)
		require.NoError(t, err)

		loaded, err := store.LoadBiscuit(ctx, path)
		require.NoError(t, err)
		assert.True(t, loaded.IsManual())
		got, err := loaded.Token()
		require.NoError(t, err)
		assert.Equal(t, "EpABCiYKDnN4Ojpj", got)
	})

	t.Run("Success_SealedPrivateKey", func(t *testing.T) {
		store := persistence.NewStore(openSealer(t), nil)
		b := newSignedBiscuit(t)

		path, err := store.SaveBiscuit(ctx, filepath.Join(t.TempDir(), "sealed.env"), b)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "PRIVATE_KEY_SEALED=")
		assert.NotContains(t, string(data), testPrivateKey)

		loaded, err := store.LoadBiscuit(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, testPrivateKey, loaded.KeyManager().PrivateKeyString(keysDomain.EncodingBase64))

		_, err = persistence.NewStore(nil, nil).LoadBiscuit(ctx, path)
		assert.ErrorIs(t, err, persistence.ErrNoSealer)
	})

	t.Run("Error_SecondSaveRefused", func(t *testing.T) {
		store := persistence.NewStore(nil, nil)
		path := filepath.Join(t.TempDir(), "admin.env")
		b := newSignedBiscuit(t)

		_, err := store.SaveBiscuit(ctx, path, b)
		require.NoError(t, err)
		_, err = store.SaveBiscuit(ctx, path, b)
		assert.ErrorIs(t, err, persistence.ErrFileExists)
	})

	t.Run("Error_MissingToken", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.env")
		require.NoError(t, os.WriteFile(path, []byte("NAME=\"admin\"\n"), 0o600))

		_, err := persistence.NewStore(nil, nil).LoadBiscuit(ctx, path)
		assert.ErrorIs(t, err, persistence.ErrMissingField)
	})
}

func TestStore_User(t *testing.T) {
	ctx := context.Background()
	user := persistence.User{
		APIURL:     "https://api.spaceandtime.app",
		UserID:     "alice",
		PrivateKey: testPrivateKey,
		PublicKey:  "public",
		JoinCode:   "join-123",
	}

	t.Run("Success_RoundTrip", func(t *testing.T) {
		store := persistence.NewStore(nil, nil)

		path, err := store.SaveUser(ctx, filepath.Join(t.TempDir(), "{user_id}.env"), user)
		require.NoError(t, err)
		assert.Equal(t, "alice.env", filepath.Base(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "# -------- Below was added by the SxT SDK\n"))
		assert.Contains(t, string(data), `USERID="alice"`)

		loaded, err := store.LoadUser(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, user, loaded)
	})

	t.Run("Success_Sealed", func(t *testing.T) {
		store := persistence.NewStore(openSealer(t), nil)

		path, err := store.SaveUser(ctx, filepath.Join(t.TempDir(), "alice.env"), user)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "USER_PRIVATE_KEY_SEALED=")
		assert.NotContains(t, string(data), testPrivateKey)

		loaded, err := store.LoadUser(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, testPrivateKey, loaded.PrivateKey)
	})

	t.Run("Error_SecondSaveRefused", func(t *testing.T) {
		store := persistence.NewStore(nil, nil)
		path := filepath.Join(t.TempDir(), "alice.env")

		_, err := store.SaveUser(ctx, path, user)
		require.NoError(t, err)
		_, err = store.SaveUser(ctx, path, user)
		assert.ErrorIs(t, err, persistence.ErrFileExists)
	})

	t.Run("Error_MissingUserID", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "anon.env")
		require.NoError(t, os.WriteFile(path, []byte("API_URL=https://api\n"), 0o600))

		_, err := persistence.NewStore(nil, nil).LoadUser(ctx, path)
		assert.ErrorIs(t, err, persistence.ErrMissingField)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		_, err := persistence.NewStore(nil, nil).LoadUser(ctx, filepath.Join(t.TempDir(), "missing.env"))
		assert.ErrorIs(t, err, persistence.ErrFileNotFound)
	})
}

func newTestResource(t *testing.T, typ resourceDomain.Type, name string) *resourceService.Resource {
	t.Helper()
	keys, err := keysService.NewKeyManagerFromPrivateKey(testPrivateKey, nil)
	require.NoError(t, err)
	r, err := resourceService.New(resourceService.Options{
		Type:       typ,
		Name:       name,
		KeyManager: keys,
		Now:        func() time.Time { return testStart },
	}, nil)
	require.NoError(t, err)
	return r
}

func TestStore_Resource(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_TableRoundTrip", func(t *testing.T) {
		store := persistence.NewStore(nil, nil)
		r := newTestResource(t, resourceDomain.TypeTable, "SXTTEMP.Orders_{date}")
		require.NoError(t, r.SetAccessType(resourceDomain.AccessPublicRead))
		r.SetCreateDDL("CREATE TABLE {table_name} (\n  id INT PRIMARY KEY,\n  total DECIMAL\n) {with_statement}")
		admin, err := r.AddBiscuit("admin", biscuitDomain.PermissionAll)
		require.NoError(t, err)
		adminToken, err := admin.Token()
		require.NoError(t, err)

		path, err := store.SaveResource(ctx, filepath.Join(t.TempDir(), "{resource}.sql"), r)
		require.NoError(t, err)
		assert.Equal(t, "SXTTEMP.Orders_20260301.sql", filepath.Base(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		content := string(data)
		assert.Contains(t, content, "RESOURCE_NAME=\"SXTTEMP.Orders_{date}\"\n")
		assert.Contains(t, content, "ACCESS_TYPE=\"public_read\"\n")
		assert.Contains(t, content, "START_TIME=\"2026-03-01 12:30:45\"\n")
		assert.Contains(t, content, "ADMIN_BISCUIT_TOKEN=\""+adminToken+"\"\n")
		assert.Contains(t, content, "CREATE_DDL=$(cat << EOM\nCREATE TABLE SXTTEMP.Orders_20260301 (")

		loaded, err := store.LoadResource(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, resourceDomain.TypeTable, loaded.Type())
		assert.Equal(t, "SXTTEMP.Orders_{date}", loaded.NameTemplate())
		assert.Equal(t, "SXTTEMP.Orders_20260301", loaded.Name())
		assert.Equal(t, resourceDomain.AccessPublicRead, loaded.AccessType())
		assert.Equal(t, r.CreateDDL(), loaded.CreateDDL())
		assert.Equal(t, testStart.Format(time.DateTime), loaded.StartTime().Format(time.DateTime))
		assert.Equal(t, testPrivateKey, loaded.KeyManager().PrivateKeyString(keysDomain.EncodingBase64))

		b, ok := loaded.Biscuit("admin")
		require.True(t, ok)
		assert.True(t, b.IsManual())
		got, err := b.Token()
		require.NoError(t, err)
		assert.Equal(t, adminToken, got)
	})

	t.Run("Success_MaterializedViewRefresh", func(t *testing.T) {
		store := persistence.NewStore(openSealer(t), nil)
		r := newTestResource(t, resourceDomain.TypeMaterializedView, "SXTTEMP.Daily")
		require.NoError(t, r.SetRefreshInterval(2880))
		r.SetCreateDDL("CREATE MATERIALIZED VIEW {matview_name} {with} AS SELECT 1")
		r.SetTableBiscuit(biscuitService.NewManualBiscuit("table", "parent-token", nil))

		path, err := store.SaveResource(ctx, filepath.Join(t.TempDir(), "daily.sql"), r)
		require.NoError(t, err)

		loaded, err := store.LoadResource(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 2880, loaded.RefreshInterval())
		assert.Equal(t, r.CreateDDL(), loaded.CreateDDL())
		require.NotNil(t, loaded.TableBiscuit())
		token, err := loaded.TableBiscuit().Token()
		require.NoError(t, err)
		assert.Equal(t, "parent-token", token)
		assert.Empty(t, loaded.Biscuits())
	})

	t.Run("Error_MissingType", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.sql")
		require.NoError(t, os.WriteFile(path, []byte("RESOURCE_NAME=\"S.T\"\n"), 0o600))

		_, err := persistence.NewStore(nil, nil).LoadResource(ctx, path)
		assert.ErrorIs(t, err, persistence.ErrMissingField)
	})

	t.Run("Error_UnknownType", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.sql")
		content := "RESOURCE_TYPE=\"index\"\nRESOURCE_NAME=\"S.T\"\nRESOURCE_PRIVATE_KEY=\"\"\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		_, err := persistence.NewStore(nil, nil).LoadResource(ctx, path)
		assert.ErrorIs(t, err, resourceDomain.ErrUnknownType)
	})
}

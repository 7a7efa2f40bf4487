package service

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	biscuitDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/biscuit/domain"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
)

const selectPolicy = `sxt:capability("dql_select", "s.t");`

func newKeypair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub, priv
}

func TestMint(t *testing.T) {
	pub, priv := newKeypair(t)

	t.Run("Success_Deterministic", func(t *testing.T) {
		first, err := Mint(priv, "sxt", selectPolicy)
		require.NoError(t, err)
		second, err := Mint(priv, "sxt", selectPolicy)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		_, err = base64.StdEncoding.DecodeString(first)
		assert.NoError(t, err)

		claims, err := Validate(first, pub)
		require.NoError(t, err)
		assert.Equal(t, TokenVersion, claims.Version)
		assert.Equal(t, "sxt", claims.Domain)
		assert.Equal(t, selectPolicy, claims.Policy)
	})

	t.Run("Success_DifferentPolicyDifferentToken", func(t *testing.T) {
		a, err := Mint(priv, "sxt", selectPolicy)
		require.NoError(t, err)
		b, err := Mint(priv, "sxt", `sxt:capability("dml_insert", "s.t");`)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("Error_MalformedPolicy", func(t *testing.T) {
		_, err := Mint(priv, "sxt", "this is not datalog")
		assert.ErrorIs(t, err, biscuitDomain.ErrMalformedPolicy)
		assert.ErrorIs(t, err, errors.ErrBiscuit)
	})

	t.Run("Error_NoKey", func(t *testing.T) {
		_, err := Mint(nil, "sxt", selectPolicy)
		assert.ErrorIs(t, err, errors.ErrArgument)
	})
}

func TestValidate(t *testing.T) {
	pub, priv := newKeypair(t)
	otherPub, _ := newKeypair(t)

	token, err := Mint(priv, "sxt", selectPolicy)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(token)
	require.NoError(t, err)
	tampered := make([]byte, len(raw))
	copy(tampered, raw)
	tampered[0] ^= 0xff

	tests := []struct {
		name  string
		token string
		key   ed25519.PublicKey
	}{
		{"WrongKey", token, otherPub},
		{"NotBase64", "%%%", pub},
		{"TooShort", base64.StdEncoding.EncodeToString(make([]byte, 10)), pub},
		{"Tampered", base64.StdEncoding.EncodeToString(tampered), pub},
		{"BadKeySize", token, ed25519.PublicKey(make([]byte, 5))},
	}

	for _, tt := range tests {
		t.Run("Error_"+tt.name, func(t *testing.T) {
			claims, err := Validate(tt.token, tt.key)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, biscuitDomain.ErrInvalidToken)
			assert.ErrorIs(t, err, errors.ErrBiscuit)
		})
	}

	t.Run("Success_EncodedKey", func(t *testing.T) {
		encoded := []byte(base64.StdEncoding.EncodeToString(pub))
		claims, err := ValidateWithKey(token, encoded)
		require.NoError(t, err)
		assert.Equal(t, selectPolicy, claims.Policy)
	})

	t.Run("Error_EncodedKeyGarbage", func(t *testing.T) {
		_, err := ValidateWithKey(token, []byte("garbage"))
		assert.ErrorIs(t, err, biscuitDomain.ErrInvalidToken)
	})
}

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	biscuitDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/biscuit/domain"
	apperrors "github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/persistence"
)

const testPrivateKey = "4G7l7Zu4zTTMsV/p3i7qjNEqf2LV92LSXfntQXWkH+c="

// outputValue returns the value of the first NAME=value line of out.
func outputValue(t *testing.T, out, name string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if value, ok := strings.CutPrefix(line, name+"="); ok {
			return value
		}
	}
	t.Fatalf("%s not found in output:\n%s", name, out)
	return ""
}

func TestRunBiscuit(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()
	store := persistence.NewStore(nil, logger)

	t.Run("generated-key-text-output", func(t *testing.T) {
		var out bytes.Buffer
		err := RunBiscuit(ctx, store, logger, &out, BiscuitOptions{
			Name:        "reader",
			Resources:   []string{"SXTDEMO.Orders"},
			Permissions: []string{"select", "dml_insert"},
			Format:      "text",
		})
		require.NoError(t, err)

		output := out.String()
		assert.Contains(t, output, "PRIVATE_KEY=")
		assert.Contains(t, output, `sxt:capability("dql_select", "sxtdemo.orders");`)
		assert.Contains(t, output, `sxt:capability("dml_insert", "sxtdemo.orders");`)
		assert.NotEmpty(t, outputValue(t, output, "BISCUIT_TOKEN"))
		assert.NotContains(t, output, "saved to")
	})

	t.Run("given-key-json-output-and-save", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reader.env")
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		var out bytes.Buffer
		err := RunBiscuit(ctx, store, logger, &out, BiscuitOptions{
			Name:        "reader",
			PrivateKey:  testPrivateKey,
			Resources:   []string{"SXTDEMO.T"},
			Permissions: []string{"select"},
			Identities:  []string{"alice"},
			ValidFor:    time.Hour,
			Now:         func() time.Time { return now },
			SavePath:    path,
			Format:      "json",
		})
		require.NoError(t, err)

		var got struct {
			Biscuit struct {
				PrivateKey string `json:"private_key"`
				Text       string `json:"biscuit_text"`
				Token      string `json:"biscuit_token"`
			} `json:"biscuit"`
			Path string `json:"path"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, path, got.Path)
		assert.NotEqual(t, testPrivateKey, got.Biscuit.PrivateKey)
		assert.Contains(t, got.Biscuit.Text, `check if sxt:user("alice");`)
		assert.Contains(t, got.Biscuit.Text, `"2026-03-01T13:00:00Z"`)
		assert.NotEmpty(t, got.Biscuit.Token)

		_, err = os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("no-resources", func(t *testing.T) {
		err := RunBiscuit(ctx, store, logger, &bytes.Buffer{}, BiscuitOptions{
			Permissions: []string{"select"},
			Format:      "text",
		})
		assert.ErrorIs(t, err, biscuitDomain.ErrNoResource)
	})

	t.Run("invalid-options", func(t *testing.T) {
		for name, opts := range map[string]BiscuitOptions{
			"blank-name":   {Name: " ", Resources: []string{"SXTDEMO.T"}, Permissions: []string{"select"}},
			"bad-resource": {Name: "b", Resources: []string{"SXTDEMO.T;DROP"}, Permissions: []string{"select"}},
			"bad-key":      {Name: "b", PrivateKey: "not-a-key", Resources: []string{"SXTDEMO.T"}, Permissions: []string{"select"}},
			"no-perms":     {Name: "b", Resources: []string{"SXTDEMO.T"}},
		} {
			opts.Format = "text"
			err := RunBiscuit(ctx, store, logger, &bytes.Buffer{}, opts)
			assert.ErrorIs(t, err, apperrors.ErrArgument, name)
		}
	})

	t.Run("unknown-permission", func(t *testing.T) {
		err := RunBiscuit(ctx, store, logger, &bytes.Buffer{}, BiscuitOptions{
			Name:        "reader",
			Resources:   []string{"SXTDEMO.T"},
			Permissions: []string{"truncate"},
			Format:      "text",
		})
		assert.ErrorIs(t, err, biscuitDomain.ErrUnknownPermission)
	})
}

func TestRunValidateBiscuit(t *testing.T) {
	ctx := context.Background()
	logger := discardLogger()

	var minted bytes.Buffer
	require.NoError(t, RunBiscuit(ctx, nil, logger, &minted, BiscuitOptions{
		Name:        "admin",
		Resources:   []string{"SXTDEMO.T"},
		Permissions: []string{"all"},
		Format:      "text",
	}))
	token := outputValue(t, minted.String(), "BISCUIT_TOKEN")
	publicKey := outputValue(t, minted.String(), "PUBLIC_KEY")

	t.Run("text-output", func(t *testing.T) {
		var out bytes.Buffer
		err := RunValidateBiscuit(logger, &out, token, publicKey, "text")
		require.NoError(t, err)
		assert.Contains(t, out.String(), "valid biscuit (domain sxt)")
		assert.Contains(t, out.String(), `sxt:capability("*", "sxtdemo.t");`)
	})

	t.Run("json-output", func(t *testing.T) {
		var out bytes.Buffer
		err := RunValidateBiscuit(logger, &out, token, publicKey, "json")
		require.NoError(t, err)
		assert.Contains(t, out.String(), `"valid": true`)
		assert.Contains(t, out.String(), `"domain": "sxt"`)
	})

	t.Run("wrong-key", func(t *testing.T) {
		var other bytes.Buffer
		require.NoError(t, RunKeygen(logger, &other, "hex", "text"))

		err := RunValidateBiscuit(logger, &bytes.Buffer{}, token, outputValue(t, other.String(), "USER_PUBLIC_KEY"), "text")
		assert.Error(t, err)
	})
}

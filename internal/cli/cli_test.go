package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/storefront/internal/cart"
	"github.com/mmeshcher/storefront/internal/model"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mockArgs(args ...string) []string {
	return append([]string{"--mock", "--latency", "0", "--storage", "memory"}, args...)
}

func TestList(t *testing.T) {
	out, err := run(t, mockArgs("list", "products")...)
	require.NoError(t, err)

	var resp model.Response[model.Product]
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.OK)
	assert.Len(t, resp.Data, 4)
}

func TestGet(t *testing.T) {
	out, err := run(t, mockArgs("get", "talleres", "tall-0001")...)
	require.NoError(t, err)

	var w model.Workshop
	require.NoError(t, json.Unmarshal([]byte(out), &w))
	assert.Equal(t, "tall-0001", w.ID)

	_, err = run(t, mockArgs("get", "services", "serv-9999")...)
	require.ErrorIs(t, err, errNotFound)

	_, err = run(t, mockArgs("get", "orders", "1")...)
	require.Error(t, err)
}

func TestCreate_InvalidDraft(t *testing.T) {
	out, err := run(t, mockArgs("create", "products", `{"price":-1}`)...)
	require.NoError(t, err)

	var resp model.Response[model.Product]
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.OK)
}

func TestCart_SurvivesInvocations(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "cart.db")
	args := func(a ...string) []string {
		return append([]string{"--mock", "--latency", "0", "--storage", "sqlite", "--dsn", dsn}, a...)
	}

	for range 3 {
		_, err := run(t, args("cart", "add", "products", "prod-0003")...)
		require.NoError(t, err)
	}

	_, err := run(t, args("cart", "add", "products", "prod-0003")...)
	require.ErrorIs(t, err, cart.ErrCapacityExceeded)

	out, err := run(t, args("cart", "show")...)
	require.NoError(t, err)

	var state model.CartState
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	require.Len(t, state.Lines, 1)
	assert.Equal(t, 3, state.Lines[0].RequestedCount)

	_, err = run(t, args("cart", "set", "prod-0003", "1")...)
	require.NoError(t, err)
	_, err = run(t, args("cart", "clear")...)
	require.NoError(t, err)

	out, err = run(t, args("cart", "show")...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	assert.Empty(t, state.Lines)
}

func TestWhoami_Anonymous(t *testing.T) {
	out, err := run(t, mockArgs("whoami")...)
	require.NoError(t, err)
	assert.Contains(t, out, `"state": "anonymous"`)
}

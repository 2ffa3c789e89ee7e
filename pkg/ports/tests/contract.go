package tests

import (
	"context"
	"testing"

	"github.com/aretw0/loanflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RegistryContractTest is a reusable test suite that verifies if an adapter complies
// with ports.Registry. knownABN must be registered; knownName must match it.
func RegistryContractTest(t *testing.T, reg ports.Registry, knownABN, knownName string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Lookup_Success", func(t *testing.T) {
		entry, err := reg.Lookup(ctx, knownABN)
		require.NoError(t, err)
		assert.Equal(t, knownABN, entry.ABN)
		assert.NotEmpty(t, entry.LegalName)
	})

	t.Run("Lookup_NotFound", func(t *testing.T) {
		_, err := reg.Lookup(ctx, "53004085616")
		assert.ErrorIs(t, err, ports.ErrNotFound)
	})

	t.Run("SearchByName_Limit", func(t *testing.T) {
		matches, err := reg.SearchByName(ctx, knownName, 3)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(matches), 3)
		require.NotEmpty(t, matches)
		assert.Equal(t, knownABN, matches[0].ABN)
	})

	t.Run("SearchByName_NoMatch", func(t *testing.T) {
		matches, err := reg.SearchByName(ctx, "zzqx qqzx", 3)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

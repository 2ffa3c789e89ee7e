package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/loanflow/pkg/adapters/memory"
	"github.com/aretw0/loanflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Contract(t *testing.T) {
	tests.RegistryContractTest(t, memory.Fixture(time.Now()), "51824753556", "Acme Haulage")
}

func TestRegistry_SearchRanking(t *testing.T) {
	reg := memory.Fixture(time.Now())
	matches, err := reg.SearchByName(context.Background(), "acme", 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.Equal(t, 90, m.Score)
	}
	assert.Equal(t, "Acme Cancelled Holdings Pty Ltd", matches[0].LegalName, "ties sort by name")

	matches, err = reg.SearchByName(context.Background(), "haulage acme", 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "51824753556", matches[0].ABN)
	assert.Equal(t, 50, matches[0].Score)
}

func TestRegistry_LookupNormalises(t *testing.T) {
	entry, err := memory.Fixture(time.Now()).Lookup(context.Background(), "51 824 753 556")
	require.NoError(t, err)
	assert.Equal(t, "Acme Haulage Pty Ltd", entry.LegalName)
}

package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/loanflow/pkg/adapters/memory"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSnapshotStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	app := ports.ContractRecord()

	require.NoError(t, store.Save(ctx, "s1", domain.NewSnapshot("deposit", app)))
	app.Business.LegalName = "mutated"

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Haulage Pty Ltd", loaded.Record.Business.LegalName)

	loaded.Record.Directors[0].FirstName = "mutated"
	again, _ := store.Load(ctx, "s1")
	assert.Equal(t, "Ada", again.Record.Directors[0].FirstName)
}

package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/quote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ContractRecord is a populated record used by store contract tests.
func ContractRecord() *domain.Application {
	app := domain.NewApplication()
	app.Business = domain.Business{
		ABN:           "51824753556",
		LegalName:     "Acme Haulage Pty Ltd",
		EntityClass:   domain.EntityCompany,
		GSTRegistered: true,
		GSTDate:       time.Date(2015, 7, 1, 0, 0, 0, 0, time.UTC),
		State:         "NSW",
		Postcode:      "2000",
	}
	app.Asset.Category = quote.AssetTruck
	app.Asset.Condition = quote.ConditionUsed0to3
	app.SetAssetPrice(88000)
	app.SetDeposit(8000)
	app.SetTerm(60)
	app.SetBalloon(20)
	app.SetBusinessUse(90)
	app.Directors = []domain.Director{{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		DateOfBirth: time.Date(1980, 5, 17, 0, 0, 0, 0, time.UTC),
		Email:       "ada@example.com",
	}}
	app.RegistryLookup = &domain.RegistryEntry{
		ABN:              "51824753556",
		Status:           "Active",
		RegistrationDate: time.Date(2012, 3, 1, 0, 0, 0, 0, time.UTC),
		GSTRegistered:    true,
		LegalName:        "Acme Haulage Pty Ltd",
		EntityClass:      domain.EntityCompany,
	}
	return app
}

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := domain.NewSnapshot("assetCondition", ContractRecord())
		snap.Revision = "rev-1"

		require.NoError(t, store.Save(ctx, sessionID, snap), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap, loaded, "load must return what was saved")
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSnapshot("deposit", ContractRecord())))
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "deposit", loaded.StepID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSnapshot("welcome", domain.NewApplication())))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "deleting twice is fine")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSnapshot("welcome", domain.NewApplication()))
		_ = store.Save(ctx, id2, domain.NewSnapshot("welcome", domain.NewApplication()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

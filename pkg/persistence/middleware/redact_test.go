package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/persistence/middleware"
	"github.com/aretw0/loanflow/pkg/ports"
)

func TestRedactionMiddleware(t *testing.T) {
	underlying := NewMockStore()
	store := middleware.NewRedactionMiddleware()(underlying)
	ctx := context.Background()

	app := ports.ContractRecord()
	app.Lead = &domain.Lead{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, store.Save(ctx, "s1", domain.NewSnapshot("review", app)))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	d := loaded.Record.Directors[0]
	assert.Equal(t, "Ada", d.FirstName)
	assert.Equal(t, middleware.Mask, d.Email)
	assert.True(t, d.DateOfBirth.IsZero())
	assert.Empty(t, d.Phone, "empty values stay empty")
	assert.Equal(t, middleware.Mask, loaded.Record.Lead.Email)
	assert.Equal(t, "Acme Haulage Pty Ltd", loaded.Record.Business.LegalName)

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", raw.Record.Directors[0].Email, "storage keeps the original")
}

func TestChain(t *testing.T) {
	underlying := NewMockStore()
	key := generateKey(t)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	require.NoError(t, err)

	// Redaction outermost sees decrypted snapshots.
	store := middleware.Chain(underlying, middleware.NewRedactionMiddleware(), enc)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", domain.NewSnapshot("review", ports.ContractRecord())))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "review", loaded.StepID)
	assert.Equal(t, middleware.Mask, loaded.Record.Directors[0].Email)

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)
}

func TestRedact_Nil(t *testing.T) {
	assert.Nil(t, middleware.Redact(nil))
}

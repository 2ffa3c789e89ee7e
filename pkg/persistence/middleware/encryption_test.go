package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/loanflow/pkg/adapters/memory"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/persistence/middleware"
	"github.com/aretw0/loanflow/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, middleware.KeySize)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secure(t *testing.T, next ports.SnapshotStore, cfg middleware.EncryptionConfig) ports.SnapshotStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	store := secure(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSnapshotStoreContract(t, store)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := NewMockStore()
	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	original := domain.NewSnapshot("directorEmail", ports.ContractRecord())
	require.NoError(t, store.Save(ctx, "s1", original))

	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, stored.StepID, "step id is hidden")
	assert.Nil(t, stored.Record, "record is hidden")
	assert.NotEmpty(t, stored.Sealed)
	assert.NotContains(t, stored.Sealed, "ada@example.com")

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldStore := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, oldStore.Save(ctx, "s1", domain.NewSnapshot("deposit", ports.ContractRecord())))

	rotated := secure(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := rotated.Load(ctx, "s1")
	require.NoError(t, err, "fallback key decrypts old snapshots")
	assert.Equal(t, "deposit", loaded.StepID)

	loaded.StepID = "tradeIn"
	require.NoError(t, rotated.Save(ctx, "s1", loaded))

	_, err = oldStore.Load(ctx, "s1")
	assert.Error(t, err, "re-sealed with the new key")
}

func TestEncryptionMiddleware_Plaintext(t *testing.T) {
	underlying := NewMockStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "legacy", domain.NewSnapshot("deposit", domain.NewApplication())))

	strict := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := strict.Load(ctx, "legacy")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)

	lenient := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t), AllowPlaintext: true})
	snap, err := lenient.Load(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, "deposit", snap.StepID)
}

func TestEncryptionMiddleware_NotFoundPassesThrough(t *testing.T) {
	store := secure(t, NewMockStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := store.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	parsed, err := middleware.ParseKey(" " + base64.StdEncoding.EncodeToString(key) + "\n")
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("too short")))
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)

	_, err = middleware.ParseKey("not base64!")
	assert.Error(t, err)
}

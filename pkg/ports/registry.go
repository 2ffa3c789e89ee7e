package ports

import (
	"context"
	"errors"

	"github.com/aretw0/loanflow/pkg/domain"
)

// ErrNotFound is returned by a Registry when the identifier is not registered.
var ErrNotFound = errors.New("not found in registry")

// Registry is the authoritative business-registration data source.
type Registry interface {
	// Lookup fetches the registration details of an ABN.
	Lookup(ctx context.Context, abn string) (*domain.RegistryEntry, error)

	// SearchByName returns at most maxResults candidates, best match first.
	SearchByName(ctx context.Context, name string, maxResults int) ([]domain.RegistryMatch, error)
}

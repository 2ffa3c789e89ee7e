package middleware

import (
	"context"
	"time"

	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type redactionMiddleware struct {
	next ports.SnapshotStore
}

// NewRedactionMiddleware masks personal details of directors and leads on
// Load, leaving the stored snapshot intact. Use it for operator views such as
// session inspection; a redacted snapshot cannot be resumed faithfully.
func NewRedactionMiddleware() Middleware {
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &redactionMiddleware{next: next}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	return m.next.Save(ctx, sessionID, snap)
}

func (m *redactionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	snap, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &domain.Snapshot{
		StepID:   snap.StepID,
		Record:   Redact(snap.Record),
		Revision: snap.Revision,
		Sealed:   snap.Sealed,
	}, nil
}

func (m *redactionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Redact returns a copy of app with contact and identity details masked.
// Names and business details are kept.
func Redact(app *domain.Application) *domain.Application {
	out := app.Clone()
	if out == nil {
		return nil
	}
	for i := range out.Directors {
		d := &out.Directors[i]
		d.Email = mask(d.Email)
		d.Phone = mask(d.Phone)
		d.Address = mask(d.Address)
		d.Licence = mask(d.Licence)
		d.DateOfBirth = time.Time{}
	}
	if out.Lead != nil {
		out.Lead.Email = mask(out.Lead.Email)
		out.Lead.Phone = mask(out.Lead.Phone)
	}
	return out
}

func mask(v string) string {
	if v == "" {
		return ""
	}
	return Mask
}

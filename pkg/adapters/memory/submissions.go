package memory

import (
	"context"
	"sync"

	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/quote"
)

// Outbox implements ports.Submitter and ports.LeadSink by keeping everything
// it receives. Useful for tests and the local CLI.
type Outbox struct {
	mu           sync.Mutex
	applications []*domain.Application
	leads        []domain.Lead
	failWith     error
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// FailWith makes subsequent calls return err. Pass nil to recover.
func (o *Outbox) FailWith(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failWith = err
}

// Submit stores a copy of the application.
func (o *Outbox) Submit(_ context.Context, app *domain.Application, _ *quote.Result) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failWith != nil {
		return "", o.failWith
	}
	o.applications = append(o.applications, app.Clone())
	return domain.NewReference("APP"), nil
}

// CaptureLead stores the lead.
func (o *Outbox) CaptureLead(_ context.Context, lead domain.Lead, _ *domain.Application) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failWith != nil {
		return "", o.failWith
	}
	o.leads = append(o.leads, lead)
	return domain.NewReference("LEAD"), nil
}

// Applications returns the submitted applications.
func (o *Outbox) Applications() []*domain.Application {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*domain.Application(nil), o.applications...)
}

// Leads returns the captured leads.
func (o *Outbox) Leads() []domain.Lead {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.Lead(nil), o.leads...)
}

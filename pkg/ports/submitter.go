package ports

import (
	"context"

	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/quote"
)

// Submitter accepts a finished application and the quote it was priced at.
// It returns a reference the applicant can quote back.
type Submitter interface {
	Submit(ctx context.Context, app *domain.Application, q *quote.Result) (string, error)
}

// LeadSink stores contact details captured on non-qualifying branches.
type LeadSink interface {
	CaptureLead(ctx context.Context, lead domain.Lead, app *domain.Application) (string, error)
}

package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/loanflow/internal/logging"
	"github.com/aretw0/loanflow/pkg/abn"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/ports"
	"github.com/aretw0/loanflow/pkg/quote"
)

// Names of the built-in actions referenced by the step graph.
const (
	SearchBusiness    = "searchBusiness"
	LookupBusiness    = "lookupBusiness"
	CalculateQuote    = "calculateQuote"
	StartNextDirector = "startNextDirector"
	SubmitApplication = "submitApplication"
	CaptureLead       = "captureLead"
)

// SearchLimit is the number of candidates offered after a name search.
const SearchLimit = 3

var (
	ErrNoRegistry   = errors.New("no business registry configured")
	ErrNoSubmitter  = errors.New("no submitter configured")
	ErrNoLeadSink   = errors.New("no lead sink configured")
	ErrInvalidABN   = errors.New("business number fails checksum")
	ErrEmptySearch  = errors.New("business name is empty")
	ErrDirectorsMax = errors.New("director limit reached")
)

// Service implements the built-in actions over the external collaborators.
type Service struct {
	registry   ports.Registry
	calculator *quote.Calculator
	submitter  ports.Submitter
	leads      ports.LeadSink
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRegistry sets the business registry used by search and lookup.
func WithRegistry(r ports.Registry) Option {
	return func(s *Service) { s.registry = r }
}

// WithCalculator overrides the default quote calculator.
func WithCalculator(c *quote.Calculator) Option {
	return func(s *Service) { s.calculator = c }
}

// WithSubmitter sets the application hand-off target.
func WithSubmitter(sub ports.Submitter) Option {
	return func(s *Service) { s.submitter = sub }
}

// WithLeadSink sets where captured leads go.
func WithLeadSink(l ports.LeadSink) Option {
	return func(s *Service) { s.leads = l }
}

// WithClock fixes "now" for eligibility decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates the built-in action implementations.
func NewService(opts ...Option) *Service {
	s := &Service{
		calculator: quote.New(),
		now:        time.Now,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register installs every built-in into r.
func (s *Service) Register(r *Registry) {
	r.Register(SearchBusiness, s.SearchBusiness)
	r.Register(LookupBusiness, s.LookupBusiness)
	r.Register(CalculateQuote, s.CalculateQuote)
	r.Register(StartNextDirector, s.StartNextDirector)
	r.Register(SubmitApplication, s.SubmitApplication)
	r.Register(CaptureLead, s.CaptureLead)
}

// Default returns a registry holding the built-ins configured by opts.
func Default(opts ...Option) *Registry {
	r := NewRegistry()
	NewService(opts...).Register(r)
	return r
}

// SearchBusiness replaces the candidate list with a name search.
func (s *Service) SearchBusiness(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	if s.registry == nil {
		return nil, ErrNoRegistry
	}
	name := strings.TrimSpace(app.Business.SearchName)
	if name == "" {
		return nil, ErrEmptySearch
	}
	matches, err := s.registry.SearchByName(ctx, name, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", name, err)
	}
	if len(matches) > SearchLimit {
		matches = matches[:SearchLimit]
	}
	app.SearchResults = matches
	return app, nil
}

// LookupBusiness fetches the registry entry for the entered ABN, copies its
// details into the business record and evaluates eligibility.
func (s *Service) LookupBusiness(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	if s.registry == nil {
		return nil, ErrNoRegistry
	}
	id := abn.Normalize(app.Business.ABN)
	if !abn.IsValid(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidABN, app.Business.ABN)
	}
	entry, err := s.registry.Lookup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", id, err)
	}

	app.RegistryLookup = entry
	b := &app.Business
	b.ABN = id
	b.LegalName = entry.LegalName
	if b.TradingName == "" {
		b.TradingName = entry.LegalName
	}
	b.EntityClass = entry.EntityClass
	b.GSTRegistered = entry.GSTRegistered
	b.GSTDate = entry.GSTDate
	b.State = entry.Jurisdiction
	b.Postcode = entry.Postcode

	app.Eligibility = Evaluate(entry, s.now())
	s.logger.Debug("business looked up",
		"abn", id,
		"eligible", app.Eligibility.Eligible,
		"trading_months", app.Eligibility.TradingMonths)
	return app, nil
}

// BalloonAllowed reports whether an asset category may carry a residual.
// Technology never does.
func BalloonAllowed(t quote.AssetType) bool {
	return t != quote.AssetTechnology
}

// QuoteRequest builds a calculator request from the record.
func QuoteRequest(app *domain.Application) quote.Request {
	balloon := app.Loan.BalloonPercentage
	if !BalloonAllowed(app.Asset.Category) {
		balloon = 0
	}
	return quote.Request{
		AssetType:         app.Asset.Category,
		Condition:         app.Asset.Condition,
		LoanAmount:        app.Loan.Principal,
		TermMonths:        app.Loan.TermMonths,
		BalloonPercentage: balloon,
	}
}

// CalculateQuote prices the loan. Out-of-range inputs leave the quote unset.
func (s *Service) CalculateQuote(_ context.Context, app *domain.Application) (*domain.Application, error) {
	res, err := s.calculator.Calculate(QuoteRequest(app))
	if err != nil {
		return nil, err
	}
	app.Quote = res
	return app, nil
}

// StartNextDirector moves the cursor to a new, empty director.
func (s *Service) StartNextDirector(_ context.Context, app *domain.Application) (*domain.Application, error) {
	next := len(app.Directors)
	if next >= domain.MaxDirectors {
		return nil, ErrDirectorsMax
	}
	if err := app.EnsureDirector(next); err != nil {
		return nil, err
	}
	app.DirectorCursor = next
	return app, nil
}

// SubmitApplication hands the record and its quote to the submitter.
func (s *Service) SubmitApplication(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	if s.submitter == nil {
		return nil, ErrNoSubmitter
	}
	if err := app.ReadyToSubmit(); err != nil {
		return nil, err
	}
	if app.Quote == nil {
		res, err := s.calculator.Calculate(QuoteRequest(app))
		if err != nil {
			return nil, fmt.Errorf("price before submit: %w", err)
		}
		app.Quote = res
	}
	ref, err := s.submitter.Submit(ctx, app, app.Quote)
	if err != nil {
		return nil, err
	}
	app.Submission = &domain.Submission{Reference: ref}
	return app, nil
}

// CaptureLead records contact details along with why the applicant left the flow.
func (s *Service) CaptureLead(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	if s.leads == nil {
		return nil, ErrNoLeadSink
	}
	if app.Lead == nil {
		app.Lead = &domain.Lead{}
	}
	if app.Lead.Reason == "" {
		app.Lead.Reason = LeadReason(app)
	}
	ref, err := s.leads.CaptureLead(ctx, *app.Lead, app)
	if err != nil {
		return nil, err
	}
	app.Lead.Reference = ref
	return app, nil
}

// LeadReason explains which branch produced a lead.
func LeadReason(app *domain.Application) string {
	switch {
	case app.Eligibility != nil && !app.Eligibility.Eligible:
		return "ineligible: " + strings.Join(app.Eligibility.Reasons, "; ")
	case app.Loan.BusinessUsePercentage != nil && *app.Loan.BusinessUsePercentage < 50:
		return "low business use"
	case app.Eligibility != nil && len(app.Eligibility.Warnings) > 0:
		return "warning: " + strings.Join(app.Eligibility.Warnings, "; ")
	case app.Quote != nil:
		return "quote follow-up"
	case app.Asset.Category != "" && !app.PrincipalInRange():
		return "quote unavailable"
	}
	return "general enquiry"
}

// Package flow defines the asset-finance conversation as a step graph.
package flow

import (
	"strconv"
	"time"

	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/dsl"
	"github.com/aretw0/loanflow/pkg/quote"
)

// Step ids.
const (
	Welcome            = "welcome"
	BusinessLookupMode = "businessLookupMode"
	ABNEntry           = "abnEntry"
	BusinessName       = "businessName"
	SelectBusiness     = "selectBusiness"
	ConfirmLookup      = "confirmLookup"
	LookupFailed       = "lookupFailed"
	Ineligible         = "ineligible"
	GSTWarning         = "gstWarning"
	ConfirmBusiness    = "confirmBusiness"

	AssetCategory    = "assetCategory"
	AssetCondition   = "assetCondition"
	AssetDescription = "assetDescription"
	AssetPrice       = "assetPrice"
	SupplierKnown    = "supplierKnown"
	SupplierName     = "supplierName"

	Deposit          = "deposit"
	TradeIn          = "tradeIn"
	LoanTerm         = "loanTerm"
	Balloon          = "balloon"
	BusinessUse      = "businessUse"
	LowBusinessUse   = "lowBusinessUse"
	CalculateQuote   = "calculateQuote"
	ShowQuote        = "showQuote"
	QuoteUnavailable = "quoteUnavailable"

	DirectorFirstName    = "directorFirstName"
	DirectorLastName     = "directorLastName"
	DirectorDOB          = "directorDob"
	DirectorEmail        = "directorEmail"
	DirectorPhone        = "directorPhone"
	DirectorAddress      = "directorAddress"
	DirectorLicence      = "directorLicence"
	AdditionalDirectors  = "additionalDirectors"
	AddDirector          = "addDirector"
	PrimaryContact       = "primaryContact"
	ReviewApplication    = "reviewApplication"
	SubmitApplication    = "submitApplication"
	SubmissionFailed     = "submissionFailed"
	ApplicationSubmitted = "applicationSubmitted"

	LeadName      = "leadName"
	LeadEmail     = "leadEmail"
	LeadPhone     = "leadPhone"
	CaptureLead   = "captureLead"
	LeadFailed    = "leadFailed"
	LeadCaptured  = "leadCaptured"
	IneligibleEnd = "ineligibleEnd"
)

// MinBusinessUse is the business-use share below which the flow diverts to a lead.
const MinBusinessUse = 50.0

type config struct {
	rates quote.RateTable
	now   func() time.Time
}

// Option configures the graph.
type Option func(*config)

// WithRates limits condition options to what a rate table prices.
func WithRates(rates quote.RateTable) Option {
	return func(c *config) { c.rates = rates }
}

// WithClock sets the time source for date-of-birth checks.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// New builds the asset-finance graph. It panics only on a programming error
// in the graph definition.
func New(opts ...Option) *domain.Graph {
	cfg := &config{rates: quote.DefaultRates(), now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	b := dsl.New(Welcome)
	addBusiness(b)
	addAsset(b, cfg)
	addLoan(b)
	addDirectors(b, cfg)
	addLead(b)
	return b.MustBuild()
}

// directorPath addresses a field of the director under the cursor.
func directorPath(field string) func(*domain.Application) string {
	return func(app *domain.Application) string {
		return "directors." + strconv.Itoa(app.DirectorCursor) + "." + field
	}
}

package domain

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/aretw0/loanflow/pkg/quote"
	"github.com/google/uuid"
)

// Loan limits applied to the derived principal.
const (
	MinPrincipal = quote.MinLoanAmount
	MaxPrincipal = quote.MaxLoanAmount
	// TaxRate is the flat consumption tax included in asset prices.
	TaxRate = 0.10
	// MaxDirectors bounds the guarantor list.
	MaxDirectors = 4
)

// TermOptions are the only accepted loan terms, in months.
var TermOptions = []int{12, 24, 36, 48, 60, 72, 84}

// EntityClass is the registry classification of a business.
type EntityClass string

const (
	EntitySoleTrader  EntityClass = "sole_trader"
	EntityCompany     EntityClass = "company"
	EntityPartnership EntityClass = "partnership"
	EntityTrust       EntityClass = "trust"
	EntityOther       EntityClass = "other"
)

// Business identifies the applicant entity.
type Business struct {
	ABN           string      `json:"abn,omitempty"`
	SearchName    string      `json:"searchName,omitempty"`
	LegalName     string      `json:"legalName,omitempty"`
	TradingName   string      `json:"tradingName,omitempty"`
	EntityClass   EntityClass `json:"entityClass,omitempty"`
	GSTRegistered bool        `json:"gstRegistered"`
	GSTDate       time.Time   `json:"gstDate,omitzero"`
	Street        string      `json:"street,omitempty"`
	Suburb        string      `json:"suburb,omitempty"`
	State         string      `json:"state,omitempty"`
	Postcode      string      `json:"postcode,omitempty"`
}

// Asset is the item being financed.
type Asset struct {
	Category      quote.AssetType `json:"category,omitempty"`
	Condition     quote.Condition `json:"condition,omitempty"`
	PriceExTax    float64         `json:"priceExTax"`
	PriceIncTax   float64         `json:"priceIncTax"`
	Description   string          `json:"description,omitempty"`
	SupplierName  string          `json:"supplierName,omitempty"`
	SupplierEmail string          `json:"supplierEmail,omitempty"`
}

// Loan holds the finance structure. Principal is always derived.
type Loan struct {
	Principal             float64  `json:"principal"`
	Deposit               float64  `json:"deposit"`
	TradeIn               float64  `json:"tradeIn"`
	TermMonths            int      `json:"termMonths,omitempty"`
	BalloonPercentage     float64  `json:"balloonPercentage"`
	BusinessUsePercentage *float64 `json:"businessUsePercentage,omitempty"`
}

// Director is a guarantor profile.
type Director struct {
	FirstName   string    `json:"firstName,omitempty"`
	LastName    string    `json:"lastName,omitempty"`
	DateOfBirth time.Time `json:"dateOfBirth,omitzero"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	Licence     string    `json:"licence,omitempty"`
}

// FullName joins first and last name.
func (d Director) FullName() string {
	switch {
	case d.FirstName == "":
		return d.LastName
	case d.LastName == "":
		return d.FirstName
	}
	return d.FirstName + " " + d.LastName
}

// RegistryEntry is the enrichment snapshot returned by a registry lookup.
type RegistryEntry struct {
	ABN              string      `json:"abn"`
	Status           string      `json:"status"`
	RegistrationDate time.Time   `json:"registrationDate,omitzero"`
	GSTRegistered    bool        `json:"gstRegistered"`
	GSTDate          time.Time   `json:"gstDate,omitzero"`
	LegalName        string      `json:"legalName"`
	EntityClass      EntityClass `json:"entityClass,omitempty"`
	Jurisdiction     string      `json:"jurisdiction,omitempty"`
	Postcode         string      `json:"postcode,omitempty"`
}

// Active reports whether the registration is current.
func (r *RegistryEntry) Active() bool {
	return r != nil && (r.Status == "" || r.Status == "Active" || r.Status == "active")
}

// RegistryMatch is one candidate from a registry name search.
type RegistryMatch struct {
	ABN          string      `json:"abn"`
	LegalName    string      `json:"legalName"`
	EntityClass  EntityClass `json:"entityClass,omitempty"`
	Jurisdiction string      `json:"jurisdiction,omitempty"`
	Postcode     string      `json:"postcode,omitempty"`
	Score        int         `json:"score"`
}

// Eligibility is populated once a lookup has been evaluated.
type Eligibility struct {
	Eligible      bool      `json:"eligible"`
	TradingMonths int       `json:"tradingMonths"`
	Reasons       []string  `json:"reasons,omitempty"`
	Warnings      []string  `json:"warnings,omitempty"`
	CheckedAt     time.Time `json:"checkedAt,omitzero"`
}

// Lead is contact detail captured along non-qualifying branches.
type Lead struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// Submission records a successful hand-off.
type Submission struct {
	Reference string `json:"reference"`
}

// Application is the record built up across a conversation.
type Application struct {
	Business            Business        `json:"business"`
	Asset               Asset           `json:"asset"`
	Loan                Loan            `json:"loan"`
	Directors           []Director      `json:"directors,omitempty"`
	PrimaryContactIndex int             `json:"primaryContactIndex"`
	DirectorCursor      int             `json:"directorCursor"`
	SearchResults       []RegistryMatch `json:"searchResults,omitempty"`
	RegistryLookup      *RegistryEntry  `json:"registryLookup,omitempty"`
	Quote               *quote.Result   `json:"quote,omitempty"`
	Eligibility         *Eligibility    `json:"eligibility,omitempty"`
	Lead                *Lead           `json:"lead,omitempty"`
	Submission          *Submission     `json:"submission,omitempty"`
}

// NewApplication returns an empty record.
func NewApplication() *Application {
	return &Application{}
}

// Clone returns a deep copy safe for independent mutation.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	out := *a
	if a.Directors != nil {
		out.Directors = append([]Director(nil), a.Directors...)
	}
	if a.SearchResults != nil {
		out.SearchResults = append([]RegistryMatch(nil), a.SearchResults...)
	}
	if a.Loan.BusinessUsePercentage != nil {
		v := *a.Loan.BusinessUsePercentage
		out.Loan.BusinessUsePercentage = &v
	}
	if a.RegistryLookup != nil {
		v := *a.RegistryLookup
		out.RegistryLookup = &v
	}
	if a.Quote != nil {
		v := *a.Quote
		out.Quote = &v
	}
	if a.Eligibility != nil {
		v := *a.Eligibility
		v.Reasons = append([]string(nil), a.Eligibility.Reasons...)
		v.Warnings = append([]string(nil), a.Eligibility.Warnings...)
		out.Eligibility = &v
	}
	if a.Lead != nil {
		v := *a.Lead
		out.Lead = &v
	}
	if a.Submission != nil {
		v := *a.Submission
		out.Submission = &v
	}
	return &out
}

// IsSoleTrader reports whether the registry (or the applicant) classified the
// business as a sole proprietorship.
func (a *Application) IsSoleTrader() bool {
	if a.RegistryLookup != nil && a.RegistryLookup.EntityClass != "" {
		return a.RegistryLookup.EntityClass == EntitySoleTrader
	}
	return a.Business.EntityClass == EntitySoleTrader
}

// BalloonAmount is principal × balloon percentage.
func (a *Application) BalloonAmount() float64 {
	return a.Loan.Principal * a.Loan.BalloonPercentage / 100
}

// PrincipalInRange reports whether the derived principal can be quoted.
func (a *Application) PrincipalInRange() bool {
	return a.Loan.Principal >= MinPrincipal && a.Loan.Principal <= MaxPrincipal
}

// SetAssetPrice records the tax-inclusive price and derives the exclusive one.
func (a *Application) SetAssetPrice(incTax float64) {
	a.Asset.PriceIncTax = incTax
	a.Asset.PriceExTax = roundCents(incTax / (1 + TaxRate))
	a.recompute()
	a.Quote = nil
}

// SetDeposit records the deposit and derives the principal.
func (a *Application) SetDeposit(v float64) {
	a.Loan.Deposit = v
	a.recompute()
	a.Quote = nil
}

// SetTradeIn records the trade-in value and derives the principal.
func (a *Application) SetTradeIn(v float64) {
	a.Loan.TradeIn = v
	a.recompute()
	a.Quote = nil
}

// SetTerm records the loan term. The quote becomes stale.
func (a *Application) SetTerm(months int) {
	a.Loan.TermMonths = months
	a.Quote = nil
}

// SetBalloon records the balloon percentage. The quote becomes stale.
func (a *Application) SetBalloon(pct float64) {
	a.Loan.BalloonPercentage = pct
	a.Quote = nil
}

// SetBusinessUse records the business-use percentage.
func (a *Application) SetBusinessUse(pct float64) {
	a.Loan.BusinessUsePercentage = &pct
}

// ErrDirectorIndex is returned for a negative or out-of-bounds director index.
var ErrDirectorIndex = errors.New("director index out of range")

// EnsureDirector grows the director list so index exists.
func (a *Application) EnsureDirector(index int) error {
	if index < 0 || index >= MaxDirectors {
		return ErrDirectorIndex
	}
	for len(a.Directors) <= index {
		a.Directors = append(a.Directors, Director{})
	}
	return nil
}

// CurrentDirector returns the director being captured, if any.
func (a *Application) CurrentDirector() *Director {
	if a.DirectorCursor < 0 || a.DirectorCursor >= len(a.Directors) {
		return nil
	}
	return &a.Directors[a.DirectorCursor]
}

// SetPrimaryContact marks an existing director as the primary contact.
func (a *Application) SetPrimaryContact(index int) error {
	if index < 0 || index >= len(a.Directors) {
		return ErrDirectorIndex
	}
	a.PrimaryContactIndex = index
	return nil
}

// ErrNoDirectors is returned when submitting without a guarantor.
var ErrNoDirectors = errors.New("at least one director is required")

// ReadyToSubmit checks the invariants that must hold before submission.
func (a *Application) ReadyToSubmit() error {
	if len(a.Directors) == 0 && !a.IsSoleTrader() {
		return ErrNoDirectors
	}
	if len(a.Directors) > 0 && (a.PrimaryContactIndex < 0 || a.PrimaryContactIndex >= len(a.Directors)) {
		return ErrDirectorIndex
	}
	if !a.PrincipalInRange() {
		return errors.New("loan principal outside lending limits")
	}
	return nil
}

func (a *Application) recompute() {
	p := a.Asset.PriceIncTax - a.Loan.Deposit - a.Loan.TradeIn
	if p < 0 {
		p = 0
	}
	a.Loan.Principal = roundCents(p)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// NewReference returns a short, human-quotable reference such as "APP-1F3A9C2B".
func NewReference(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + "-" + id[:8]
}

package quote

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Loan limits.
const (
	MinLoanAmount        = 5000.0
	MaxLoanAmount        = 500000.0
	MinTermMonths        = 12
	MaxTermMonths        = 84
	MaxBalloonPercentage = 50.0
)

// Fees are the flat charges added to the cost of a loan.
type Fees struct {
	Platform      float64 `json:"platform" yaml:"platform"`
	Establishment float64 `json:"establishment" yaml:"establishment"`
	Registration  float64 `json:"registration" yaml:"registration"`
}

// DefaultFees are the standard flat fees.
var DefaultFees = Fees{
	Platform:      495,
	Establishment: 395,
	Registration:  7.40,
}

// DefaultBrokerMargin is the rate a broker typically adds over the base rate, in percentage points.
const DefaultBrokerMargin = 2.0

// Request holds the loan parameters to price.
type Request struct {
	AssetType         AssetType `json:"assetType"`
	Condition         Condition `json:"condition"`
	LoanAmount        float64   `json:"loanAmount"`
	TermMonths        int       `json:"termMonths"`
	BalloonPercentage float64   `json:"balloonPercentage"`
}

// Comparison is the same loan priced through a broker.
type Comparison struct {
	Rate             float64         `json:"rate"`
	MonthlyRepayment decimal.Decimal `json:"monthlyRepayment"`
	TotalRepayments  decimal.Decimal `json:"totalRepayments"`
	TotalInterest    decimal.Decimal `json:"totalInterest"`
	TotalFees        decimal.Decimal `json:"totalFees"`
	TotalCost        decimal.Decimal `json:"totalCost"`
}

// Result is a priced quote.
type Result struct {
	AssetType         AssetType `json:"assetType"`
	Condition         Condition `json:"condition"`
	TermMonths        int       `json:"termMonths"`
	BalloonPercentage float64   `json:"balloonPercentage"`
	BaseRate          float64   `json:"baseRate"`

	LoanAmount           decimal.Decimal `json:"loanAmount"`
	BalloonAmount        decimal.Decimal `json:"balloonAmount"`
	MonthlyRepayment     decimal.Decimal `json:"monthlyRepayment"`
	FortnightlyRepayment decimal.Decimal `json:"fortnightlyRepayment"`
	WeeklyRepayment      decimal.Decimal `json:"weeklyRepayment"`
	TotalRepayments      decimal.Decimal `json:"totalRepayments"`
	TotalInterest        decimal.Decimal `json:"totalInterest"`

	PlatformFee      decimal.Decimal `json:"platformFee"`
	EstablishmentFee decimal.Decimal `json:"establishmentFee"`
	RegistrationFee  decimal.Decimal `json:"registrationFee"`
	TotalFees        decimal.Decimal `json:"totalFees"`
	TotalCost        decimal.Decimal `json:"totalCost"`

	Broker          Comparison      `json:"broker"`
	EstimatedSaving decimal.Decimal `json:"estimatedSaving"`
}

// Calculator prices loans against a rate table.
type Calculator struct {
	rates  RateTable
	fees   Fees
	margin float64
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithRates replaces the rate table.
func WithRates(rates RateTable) Option {
	return func(c *Calculator) {
		c.rates = rates
	}
}

// WithFees replaces the flat fees.
func WithFees(fees Fees) Option {
	return func(c *Calculator) {
		c.fees = fees
	}
}

// WithBrokerMargin sets the percentage points added for the broker comparison.
func WithBrokerMargin(margin float64) Option {
	return func(c *Calculator) {
		c.margin = margin
	}
}

// New creates a Calculator using the default table, fees and margin unless overridden.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		rates:  DefaultRates(),
		fees:   DefaultFees,
		margin: DefaultBrokerMargin,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rates returns the table the calculator prices against.
func (c *Calculator) Rates() RateTable {
	return c.rates
}

var defaultCalculator = New()

// Calculate prices req with the default calculator.
func Calculate(req Request) (*Result, error) {
	return defaultCalculator.Calculate(req)
}

// Calculate prices a loan. Out-of-range inputs return a *RangeError; an untabulated
// asset returns ErrUnknownRate.
func (c *Calculator) Calculate(req Request) (*Result, error) {
	if err := checkRange("loanAmount", req.LoanAmount, MinLoanAmount, MaxLoanAmount); err != nil {
		return nil, err
	}
	if err := checkRange("termMonths", float64(req.TermMonths), MinTermMonths, MaxTermMonths); err != nil {
		return nil, err
	}
	if err := checkRange("balloonPercentage", req.BalloonPercentage, 0, MaxBalloonPercentage); err != nil {
		return nil, err
	}

	baseRate, ok := c.rates.Lookup(req.AssetType, req.Condition)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownRate, req.AssetType, req.Condition)
	}

	balloon := req.LoanAmount * req.BalloonPercentage / 100
	monthly := monthlyPayment(req.LoanAmount, balloon, baseRate, req.TermMonths)
	totalRepayments := monthly*float64(req.TermMonths) + balloon
	totalFees := c.fees.Platform + c.fees.Establishment + c.fees.Registration
	totalCost := totalRepayments + totalFees

	brokerRate := baseRate + c.margin
	brokerMonthly := monthlyPayment(req.LoanAmount, balloon, brokerRate, req.TermMonths)
	brokerRepayments := brokerMonthly*float64(req.TermMonths) + balloon
	brokerFees := c.fees.Establishment + c.fees.Registration
	brokerCost := brokerRepayments + brokerFees

	return &Result{
		AssetType:         req.AssetType,
		Condition:         req.Condition,
		TermMonths:        req.TermMonths,
		BalloonPercentage: req.BalloonPercentage,
		BaseRate:          baseRate,

		LoanAmount:           money(req.LoanAmount),
		BalloonAmount:        money(balloon),
		MonthlyRepayment:     money(monthly),
		FortnightlyRepayment: money(monthly * 12 / 26),
		WeeklyRepayment:      money(monthly * 12 / 52),
		TotalRepayments:      money(totalRepayments),
		TotalInterest:        money(totalRepayments - req.LoanAmount),

		PlatformFee:      money(c.fees.Platform),
		EstablishmentFee: money(c.fees.Establishment),
		RegistrationFee:  money(c.fees.Registration),
		TotalFees:        money(totalFees),
		TotalCost:        money(totalCost),

		Broker: Comparison{
			Rate:             brokerRate,
			MonthlyRepayment: money(brokerMonthly),
			TotalRepayments:  money(brokerRepayments),
			TotalInterest:    money(brokerRepayments - req.LoanAmount),
			TotalFees:        money(brokerFees),
			TotalCost:        money(brokerCost),
		},
		EstimatedSaving: money(brokerCost - totalCost),
	}, nil
}

// monthlyPayment amortizes principal net of the present value of the balloon.
func monthlyPayment(principal, balloon, annualRate float64, term int) float64 {
	r := annualRate / 100 / 12
	n := float64(term)
	if r == 0 {
		return (principal - balloon) / n
	}

	factor := math.Pow(1+r, n)
	adjusted := principal - balloon/factor
	return adjusted * r * factor / (factor - 1)
}

func checkRange(field string, v, min, max float64) error {
	if math.IsNaN(v) || v < min || v > max {
		return &RangeError{Field: field, Value: v, Min: min, Max: max}
	}
	return nil
}

// money rounds to cents, half away from zero.
func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

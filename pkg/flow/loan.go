package flow

import (
	"fmt"
	"strconv"

	"github.com/aretw0/loanflow/pkg/actions"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/dsl"
	"github.com/aretw0/loanflow/pkg/quote"
	"github.com/aretw0/loanflow/pkg/validate"
)

func termOptions() []domain.Option {
	opts := make([]domain.Option, 0, len(domain.TermOptions))
	for _, m := range domain.TermOptions {
		opts = append(opts, dsl.Opt(Years(m), strconv.Itoa(m)))
	}
	return opts
}

func balloonOptions() []domain.Option {
	opts := []domain.Option{dsl.Opt("No balloon", "0")}
	for pct := 10; pct <= int(quote.MaxBalloonPercentage); pct += 10 {
		opts = append(opts, dsl.Opt(strconv.Itoa(pct)+"%", strconv.Itoa(pct)))
	}
	return opts
}

// requoting is true once business use has been accepted, so changes to term
// or balloon go straight back to pricing.
func requoting(app *domain.Application) bool {
	return app.Loan.BusinessUsePercentage != nil && *app.Loan.BusinessUsePercentage >= MinBusinessUse
}

func addLoan(b *dsl.Builder) {
	b.Add(Deposit).
		SayFunc(func(app *domain.Application) []string {
			return []string{fmt.Sprintf("Are you putting down a deposit on the %s asset? Enter 0 if not.", Money(app.Asset.PriceIncTax))}
		}).
		Input(domain.InputNumber).
		SaveTo("loan.deposit").
		Validate(validate.Deposit).
		Go(TradeIn)

	b.Add(TradeIn).
		Say("Trading anything in? Enter its value, or 0.").
		Input(domain.InputNumber).
		SaveTo("loan.tradeIn").
		Validate(validate.TradeIn).
		Go(LoanTerm)

	b.Add(LoanTerm).
		SayFunc(func(app *domain.Application) []string {
			return []string{fmt.Sprintf("You'd be borrowing %s. Over how long?", Money(app.Loan.Principal))}
		}).
		Choose(termOptions()...).
		SaveTo("loan.termMonths").
		Route(func(_ string, app *domain.Application) string {
			if requoting(app) {
				return CalculateQuote
			}
			return Balloon
		})

	b.Add(Balloon).
		Say("Would you like a balloon payment at the end? It lowers your regular repayments.").
		Choose(balloonOptions()...).
		SaveTo("loan.balloonPercentage").
		SkipIf(func(app *domain.Application) bool { return !actions.BalloonAllowed(app.Asset.Category) }).
		Route(func(_ string, app *domain.Application) string {
			if requoting(app) {
				return CalculateQuote
			}
			return BusinessUse
		})

	b.Add(BusinessUse).
		Say("Roughly what percentage of the time will it be used for business?").
		Input(domain.InputNumber).
		SaveTo("loan.businessUsePercentage").
		Convert(func(raw string, _ *domain.Application) (any, error) { return validate.ParsePercentage(raw) }).
		Validate(validate.BusinessUse).
		Route(func(_ string, app *domain.Application) string {
			if !requoting(app) {
				return LowBusinessUse
			}
			return CalculateQuote
		})

	b.Add(LowBusinessUse).
		Say("Business finance needs the asset to be used at least 50% for business.").
		Choose(dsl.Opt("Change my answer", "change"), dsl.Opt("Leave my details", "lead")).
		On("change", BusinessUse).
		On("lead", LeadName)

	b.Add(CalculateQuote).
		Say("Crunching the numbers...").
		Input(domain.InputConfirm).
		Do(actions.CalculateQuote).
		Route(func(_ string, app *domain.Application) string {
			if app.Quote != nil {
				return ShowQuote
			}
			return QuoteUnavailable
		})

	b.Add(ShowQuote).
		SayFunc(QuoteSummary).
		ChooseFunc(func(app *domain.Application) []domain.Option {
			opts := []domain.Option{dsl.Opt("Apply now", "apply"), dsl.Opt("Change term", "term")}
			if actions.BalloonAllowed(app.Asset.Category) {
				opts = append(opts, dsl.Opt("Change balloon", "balloon"))
			}
			return append(opts, dsl.Opt("Email me this quote", "email"))
		}).
		Route(func(answer string, app *domain.Application) string {
			switch answer {
			case "term":
				return LoanTerm
			case "balloon":
				return Balloon
			case "email":
				return LeadName
			}
			if len(app.Directors) > 0 && app.Directors[0].Email != "" {
				return ReviewApplication
			}
			return DirectorFirstName
		})

	b.Add(QuoteUnavailable).
		SayFunc(func(app *domain.Application) []string {
			switch p := app.Loan.Principal; {
			case p < domain.MinPrincipal:
				return []string{fmt.Sprintf("A loan of %s is below our %s minimum.", Money(p), Money(domain.MinPrincipal))}
			case p > domain.MaxPrincipal:
				return []string{fmt.Sprintf("A loan of %s is above the %s we can approve online.", Money(p), Money(domain.MaxPrincipal))}
			}
			return []string{"I couldn't price that combination of asset and term."}
		}).
		Choose(dsl.Opt("Change deposit", "deposit"), dsl.Opt("Change asset", "asset"), dsl.Opt("Leave my details", "lead")).
		On("deposit", Deposit).
		On("asset", AssetCategory).
		On("lead", LeadName)
}

// QuoteSummary renders the priced quote as chat messages.
func QuoteSummary(app *domain.Application) []string {
	q := app.Quote
	if q == nil {
		return []string{"Your quote isn't ready yet."}
	}
	msgs := []string{
		fmt.Sprintf("Here's your quote for %s over %s:", Dollars(q.LoanAmount), Years(q.TermMonths)),
		fmt.Sprintf("%s p.a. · %s a month (%s a week)", Percent(q.BaseRate), Dollars(q.MonthlyRepayment), Dollars(q.WeeklyRepayment)),
	}
	if q.BalloonAmount.IsPositive() {
		msgs = append(msgs, fmt.Sprintf("Balloon of %s due at the end of the term.", Dollars(q.BalloonAmount)))
	}
	msgs = append(msgs, fmt.Sprintf("Total cost %s, including %s in fees.", Dollars(q.TotalCost), Dollars(q.TotalFees)))
	if q.EstimatedSaving.IsPositive() {
		msgs = append(msgs, fmt.Sprintf("That's about %s less than a typical broker at %s.", Dollars(q.EstimatedSaving), Percent(q.Broker.Rate)))
	}
	return msgs
}

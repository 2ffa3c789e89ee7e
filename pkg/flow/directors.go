package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/loanflow/pkg/actions"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/dsl"
	"github.com/aretw0/loanflow/pkg/validate"
)

func ordinal(n int) string {
	switch n {
	case 1:
		return "first"
	case 2:
		return "second"
	case 3:
		return "third"
	}
	return "fourth"
}

func directorName(app *domain.Application) string {
	if d := app.CurrentDirector(); d != nil && d.FirstName != "" {
		return d.FirstName
	}
	return "the director"
}

func addDirectors(b *dsl.Builder, cfg *config) {
	b.Add(DirectorFirstName).
		SayFunc(func(app *domain.Application) []string {
			if app.DirectorCursor == 0 {
				return []string{"Nearly there. Now a few details about you as a director or owner.", "What's your first name?"}
			}
			return []string{fmt.Sprintf("What's the %s director's first name?", ordinal(app.DirectorCursor+1))}
		}).
		Input(domain.InputText).
		SaveToFunc(directorPath("firstName")).
		Validate(validate.NonEmpty(1)).
		Go(DirectorLastName)

	b.Add(DirectorLastName).
		SayFunc(func(app *domain.Application) []string {
			return []string{fmt.Sprintf("And %s's last name?", directorName(app))}
		}).
		Input(domain.InputText).
		SaveToFunc(directorPath("lastName")).
		Validate(validate.NonEmpty(1)).
		Go(DirectorDOB)

	b.Add(DirectorDOB).
		Say("Date of birth? (DD/MM/YYYY)").
		Input(domain.InputDate).
		SaveToFunc(directorPath("dateOfBirth")).
		Validate(func(raw string, app *domain.Application) string {
			return validate.DateOfBirthAt(cfg.now())(raw, app)
		}).
		Go(DirectorEmail)

	b.Add(DirectorEmail).
		Say("Best email address?").
		Input(domain.InputEmail).
		SaveToFunc(directorPath("email")).
		Validate(validate.Email).
		Go(DirectorPhone)

	b.Add(DirectorPhone).
		Say("And a mobile number?").
		Input(domain.InputPhone).
		SaveToFunc(directorPath("phone")).
		Convert(func(raw string, _ *domain.Application) (any, error) { return validate.NormalizePhone(raw), nil }).
		Validate(validate.Phone).
		Go(DirectorAddress)

	b.Add(DirectorAddress).
		Say("What's the residential address?").
		Input(domain.InputText).
		SaveToFunc(directorPath("address")).
		Validate(validate.NonEmpty(5)).
		Go(DirectorLicence)

	b.Add(DirectorLicence).
		Say("Last one: driver licence number?").
		Input(domain.InputText).
		SaveToFunc(directorPath("licence")).
		Validate(validate.NonEmpty(4)).
		Go(AdditionalDirectors)

	b.Add(AdditionalDirectors).
		Say("Are there other directors who'll guarantee the loan?").
		Choose(dsl.Opt("Add another director", "add"), dsl.Opt("That's everyone", "done")).
		SkipIf(func(app *domain.Application) bool {
			return app.IsSoleTrader() || len(app.Directors) >= domain.MaxDirectors
		}).
		On("add", AddDirector).
		Go(PrimaryContact)

	b.Add(AddDirector).
		Input(domain.InputConfirm).
		Do(actions.StartNextDirector).
		Go(DirectorFirstName)

	b.Add(PrimaryContact).
		Say("Who should we contact about this application?").
		ChooseFunc(func(app *domain.Application) []domain.Option {
			opts := make([]domain.Option, 0, len(app.Directors))
			for i, d := range app.Directors {
				opts = append(opts, dsl.Opt(d.FullName(), strconv.Itoa(i)))
			}
			return opts
		}).
		SaveTo("primaryContactIndex").
		SkipIf(func(app *domain.Application) bool { return len(app.Directors) <= 1 }).
		Go(ReviewApplication)

	b.Add(ReviewApplication).
		SayFunc(Review).
		Choose(dsl.Opt("Submit application", "submit"), dsl.Opt("Change asset details", "asset")).
		On("submit", SubmitApplication).
		On("asset", AssetCategory)

	b.Add(SubmitApplication).
		Say("Sending your application to our credit team...").
		Input(domain.InputConfirm).
		Do(actions.SubmitApplication).
		Route(func(_ string, app *domain.Application) string {
			if app.Submission != nil {
				return ApplicationSubmitted
			}
			return SubmissionFailed
		})

	b.Add(SubmissionFailed).
		Say("Sorry, something went wrong sending your application. Your answers are saved.").
		Choose(dsl.Opt("Try again", "retry"), dsl.Opt("Leave my details", "lead")).
		On("retry", SubmitApplication).
		On("lead", LeadName)

	b.Add(ApplicationSubmitted).
		SayFunc(func(app *domain.Application) []string {
			ref := ""
			if app.Submission != nil {
				ref = app.Submission.Reference
			}
			return []string{
				fmt.Sprintf("Done! Your reference is %s.", ref),
				"A lending specialist will be in touch within one business day.",
			}
		}).
		Terminal(domain.OutcomeSuccess)
}

// Review summarises the application before submission.
func Review(app *domain.Application) []string {
	msgs := []string{"Here's a summary before you submit:"}
	msgs = append(msgs, fmt.Sprintf("Business: %s", businessName(app)))
	asset := app.Asset.Description
	if asset == "" {
		asset = string(app.Asset.Category)
	}
	msgs = append(msgs, fmt.Sprintf("Asset: %s, %s incl. GST", asset, Money(app.Asset.PriceIncTax)))
	loan := fmt.Sprintf("Loan: %s over %s", Money(app.Loan.Principal), Years(app.Loan.TermMonths))
	if q := app.Quote; q != nil {
		loan += fmt.Sprintf(" at %s, %s a month", Percent(q.BaseRate), Dollars(q.MonthlyRepayment))
	}
	msgs = append(msgs, loan)
	names := make([]string, 0, len(app.Directors))
	for _, d := range app.Directors {
		names = append(names, d.FullName())
	}
	if len(names) > 0 {
		msgs = append(msgs, "Directors: "+strings.Join(names, ", "))
	}
	return msgs
}

package flow

import (
	"fmt"
	"strings"

	"github.com/aretw0/loanflow/pkg/abn"
	"github.com/aretw0/loanflow/pkg/actions"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/dsl"
	"github.com/aretw0/loanflow/pkg/validate"
)

// ManualEntry is the canonical value of the "enter my ABN" fallback.
const ManualEntry = "manual"

var entityLabels = map[domain.EntityClass]string{
	domain.EntitySoleTrader:  "sole trader",
	domain.EntityCompany:     "company",
	domain.EntityPartnership: "partnership",
	domain.EntityTrust:       "trust",
	domain.EntityOther:       "business",
}

// CandidateLabel renders a search match as "Legal Name · ABN 51 824 753 556 · NSW 2000".
func CandidateLabel(m domain.RegistryMatch) string {
	parts := []string{m.LegalName, "ABN " + abn.Format(m.ABN)}
	if loc := strings.TrimSpace(m.Jurisdiction + " " + m.Postcode); loc != "" {
		parts = append(parts, loc)
	}
	return strings.Join(parts, " · ")
}

func businessName(app *domain.Application) string {
	if app.Business.LegalName != "" {
		return app.Business.LegalName
	}
	return "your business"
}

func addBusiness(b *dsl.Builder) {
	b.Add(Welcome).
		Say("Hi! I can get you a business asset finance quote in a few minutes.",
			"You'll see your actual rate before you apply. Shall we start?").
		Choose(dsl.Opt("Get a quote", "quote"), dsl.Opt("Just browsing", "browse")).
		On("quote", BusinessLookupMode).
		On("browse", LeadName)

	b.Add(BusinessLookupMode).
		Say("First, let's find your business.").
		Choose(dsl.Opt("I know my ABN", "abn"), dsl.Opt("Search by business name", "name")).
		On("abn", ABNEntry).
		On("name", BusinessName)

	b.Add(ABNEntry).
		Say("What's your ABN?").
		Input(domain.InputText).
		SaveTo("business.abn").
		Convert(func(raw string, _ *domain.Application) (any, error) { return abn.Normalize(raw), nil }).
		Validate(validate.BusinessID).
		Go(ConfirmLookup)

	b.Add(BusinessName).
		Say("What's the name of your business?").
		Input(domain.InputText).
		SaveTo("business.searchName").
		Validate(validate.NonEmpty(2)).
		Do(actions.SearchBusiness).
		Go(SelectBusiness)

	b.Add(SelectBusiness).
		Input(domain.InputDisambiguation).
		SayFunc(func(app *domain.Application) []string {
			if len(app.SearchResults) == 0 {
				return []string{
					fmt.Sprintf("I couldn't find a business called %q.", app.Business.SearchName),
					"You can enter your ABN instead.",
				}
			}
			return []string{"I found these on the ABN register. Which one is yours?"}
		}).
		ChooseFunc(func(app *domain.Application) []domain.Option {
			opts := make([]domain.Option, 0, len(app.SearchResults)+1)
			for _, m := range app.SearchResults {
				opts = append(opts, dsl.Opt(CandidateLabel(m), m.ABN))
			}
			return append(opts, dsl.Opt("Enter my ABN instead", ManualEntry))
		}).
		SaveTo("business.abn").
		On(ManualEntry, ABNEntry).
		Go(ConfirmLookup)

	b.Add(ConfirmLookup).
		Say("Let me grab your details from the ABN register...").
		Input(domain.InputConfirm).
		Do(actions.LookupBusiness).
		Route(func(_ string, app *domain.Application) string {
			switch {
			case app.RegistryLookup == nil || app.RegistryLookup.ABN != abn.Normalize(app.Business.ABN):
				return LookupFailed
			case app.Eligibility == nil || !app.Eligibility.Eligible:
				return Ineligible
			case len(app.Eligibility.Warnings) > 0:
				return GSTWarning
			}
			return ConfirmBusiness
		})

	b.Add(LookupFailed).
		SayFunc(func(app *domain.Application) []string {
			return []string{fmt.Sprintf("I couldn't find ABN %s on the register right now.", abn.Format(app.Business.ABN))}
		}).
		Choose(dsl.Opt("Try another ABN", "abn"), dsl.Opt("Search by name", "name")).
		On("abn", ABNEntry).
		On("name", BusinessName)

	b.Add(Ineligible).
		SayFunc(func(app *domain.Application) []string {
			msgs := []string{fmt.Sprintf("Thanks. Unfortunately we can't offer finance to %s online yet.", businessName(app))}
			if app.Eligibility != nil && len(app.Eligibility.Reasons) > 0 {
				msgs = append(msgs, "The register shows the "+strings.Join(app.Eligibility.Reasons, " and ")+".")
			}
			return append(msgs, "We need at least 24 months of active trading. Can a specialist contact you instead?")
		}).
		Choose(dsl.Opt("Leave my details", "lead"), dsl.Opt("No thanks", "end")).
		On("lead", LeadName).
		On("end", IneligibleEnd)

	b.Add(GSTWarning).
		SayFunc(func(app *domain.Application) []string {
			return []string{
				fmt.Sprintf("Heads up: %s isn't registered for GST.", businessName(app)),
				"Most lenders prefer GST registration, so approval might take a little longer.",
			}
		}).
		Choose(dsl.Opt("Continue anyway", "continue"), dsl.Opt("Leave my details", "lead")).
		On("continue", ConfirmBusiness).
		On("lead", LeadName)

	b.Add(ConfirmBusiness).
		SayFunc(func(app *domain.Application) []string {
			bz := app.Business
			kind := entityLabels[bz.EntityClass]
			if kind == "" {
				kind = "business"
			}
			where := strings.TrimSpace(bz.State + " " + bz.Postcode)
			line := fmt.Sprintf("I found %s, a %s", bz.LegalName, kind)
			if where != "" {
				line += " in " + where
			}
			return []string{line + fmt.Sprintf(" (ABN %s).", abn.Format(bz.ABN)), "Is that you?"}
		}).
		Choose(dsl.Opt("Yes, that's us", "yes"), dsl.Opt("No, search again", "no")).
		On("yes", AssetCategory).
		On("no", BusinessLookupMode)
}

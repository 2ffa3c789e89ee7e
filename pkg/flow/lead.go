package flow

import (
	"fmt"

	"github.com/aretw0/loanflow/pkg/actions"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/dsl"
	"github.com/aretw0/loanflow/pkg/validate"
)

func addLead(b *dsl.Builder) {
	b.Add(LeadName).
		Say("No worries. What's your name?").
		Input(domain.InputText).
		SaveTo("lead.name").
		Validate(validate.NonEmpty(2)).
		Go(LeadEmail)

	b.Add(LeadEmail).
		Say("And your email?").
		Input(domain.InputEmail).
		SaveTo("lead.email").
		Validate(validate.Email).
		Go(LeadPhone)

	b.Add(LeadPhone).
		Say("Phone number, in case it's easier to call?").
		Input(domain.InputPhone).
		SaveTo("lead.phone").
		Convert(func(raw string, _ *domain.Application) (any, error) { return validate.NormalizePhone(raw), nil }).
		Validate(validate.Phone).
		Go(CaptureLead)

	b.Add(CaptureLead).
		Input(domain.InputConfirm).
		Do(actions.CaptureLead).
		Route(func(_ string, app *domain.Application) string {
			if app.Lead != nil && app.Lead.Reference != "" {
				return LeadCaptured
			}
			return LeadFailed
		})

	b.Add(LeadFailed).
		Say("Sorry, we couldn't save your details just now.").
		Choose(dsl.Opt("Try again", "retry"), dsl.Opt("Change my details", "edit")).
		On("retry", CaptureLead).
		On("edit", LeadName)

	b.Add(LeadCaptured).
		SayFunc(func(app *domain.Application) []string {
			name := "there"
			if app.Lead != nil && app.Lead.Name != "" {
				name = app.Lead.Name
			}
			return []string{fmt.Sprintf("Thanks %s, one of our specialists will be in touch soon.", name)}
		}).
		Terminal(domain.OutcomeLead)

	b.Add(IneligibleEnd).
		Say("No problem. Thanks for checking with us, and good luck with the business.").
		Terminal(domain.OutcomeIneligible)
}

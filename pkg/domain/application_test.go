package domain_test

import (
	"testing"

	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/quote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplication_PrincipalIsDerived(t *testing.T) {
	app := domain.NewApplication()
	app.SetAssetPrice(66000)
	assert.Equal(t, 66000.0, app.Loan.Principal)
	assert.Equal(t, 60000.0, app.Asset.PriceExTax)

	app.SetDeposit(10000)
	app.SetTradeIn(6000)
	assert.Equal(t, 50000.0, app.Loan.Principal)

	app.SetDeposit(70000)
	assert.Equal(t, 0.0, app.Loan.Principal, "principal is clamped at zero")
	assert.False(t, app.PrincipalInRange())
}

func TestApplication_QuoteGoesStale(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Application)
	}{
		{"price", func(a *domain.Application) { a.SetAssetPrice(70000) }},
		{"term", func(a *domain.Application) { a.SetTerm(48) }},
		{"balloon", func(a *domain.Application) { a.SetBalloon(20) }},
		{"deposit", func(a *domain.Application) { a.SetDeposit(1000) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := domain.NewApplication()
			app.Quote = &quote.Result{BaseRate: 6.29}
			tt.mutate(app)
			assert.Nil(t, app.Quote)
		})
	}
}

func TestApplication_BalloonAmount(t *testing.T) {
	app := domain.NewApplication()
	app.SetAssetPrice(50000)
	app.SetBalloon(30)
	assert.InDelta(t, 15000, app.BalloonAmount(), 1e-9)
}

func TestApplication_CloneIsDeep(t *testing.T) {
	app := domain.NewApplication()
	require.NoError(t, app.Set("directors.0.firstName", "Ada"))
	app.SetBusinessUse(80)

	cp := app.Clone()
	cp.Directors[0].FirstName = "Grace"
	*cp.Loan.BusinessUsePercentage = 10

	assert.Equal(t, "Ada", app.Directors[0].FirstName)
	assert.Equal(t, 80.0, *app.Loan.BusinessUsePercentage)
}

func TestApplication_ReadyToSubmit(t *testing.T) {
	app := domain.NewApplication()
	app.SetAssetPrice(40000)
	assert.ErrorIs(t, app.ReadyToSubmit(), domain.ErrNoDirectors)

	app.RegistryLookup = &domain.RegistryEntry{EntityClass: domain.EntitySoleTrader}
	assert.NoError(t, app.ReadyToSubmit(), "sole traders need no director")

	app.RegistryLookup = nil
	require.NoError(t, app.EnsureDirector(0))
	app.PrimaryContactIndex = 3
	assert.ErrorIs(t, app.ReadyToSubmit(), domain.ErrDirectorIndex)
}

func TestApplication_EnsureDirectorBound(t *testing.T) {
	app := domain.NewApplication()
	assert.ErrorIs(t, app.EnsureDirector(domain.MaxDirectors), domain.ErrDirectorIndex)
	assert.ErrorIs(t, app.EnsureDirector(-1), domain.ErrDirectorIndex)
	require.NoError(t, app.EnsureDirector(2))
	assert.Len(t, app.Directors, 3)
}

package domain_test

import (
	"testing"
	"time"

	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/quote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_RoundTrip(t *testing.T) {
	dob := time.Date(1980, 5, 17, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		path  string
		value any
		want  any
	}{
		{"directors.1.email", "ada@example.com", "ada@example.com"},
		{"directors.0.dateOfBirth", "1980-05-17", dob},
		{"business.abn", "51824753556", "51824753556"},
		{"business.gstRegistered", true, true},
		{"asset.category", "truck", quote.AssetTruck},
		{"asset.priceIncTax", 55000.0, 55000.0},
		{"loan.termMonths", 60, 60},
		{"loan.termMonths", "36", 36},
		{"loan.balloonPercentage", 20.0, 20.0},
		{"loan.businessUsePercentage", 75.0, 75.0},
		{"lead.email", "x@y.co", "x@y.co"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			app := domain.NewApplication()
			require.NoError(t, app.Set(tt.path, tt.value))
			got, err := app.Get(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPath_DirectorsCreatesList(t *testing.T) {
	app := domain.NewApplication()
	assert.Nil(t, app.Directors)

	require.NoError(t, app.Set("directors.0.firstName", "Ada"))
	require.Len(t, app.Directors, 1)
	assert.Equal(t, "Ada", app.Directors[0].FirstName)

	require.NoError(t, app.Set("directors.2.lastName", "Hopper"))
	require.Len(t, app.Directors, 3)
	assert.Equal(t, domain.Director{}, app.Directors[1])
}

func TestPath_Errors(t *testing.T) {
	app := domain.NewApplication()

	assert.ErrorIs(t, app.Set("loan.principal", 1000.0), domain.ErrReadOnlyField)
	assert.ErrorIs(t, app.Set("asset.priceExTax", 1000.0), domain.ErrReadOnlyField)
	assert.ErrorIs(t, app.Set("nope", 1), domain.ErrUnknownField)
	assert.ErrorIs(t, app.Set("directors.x.email", "a"), domain.ErrUnknownField)
	assert.ErrorIs(t, app.Set("directors.9.email", "a"), domain.ErrDirectorIndex)
	assert.ErrorIs(t, app.Set("loan.termMonths", 30), domain.ErrInvalidValue)
	assert.ErrorIs(t, app.Set("loan.balloonPercentage", 60.0), domain.ErrInvalidValue)
	assert.ErrorIs(t, app.Set("primaryContactIndex", 0), domain.ErrDirectorIndex)

	_, err := app.Get("directors.0.email")
	assert.ErrorIs(t, err, domain.ErrDirectorIndex)
}

func TestPath_ABNChangeDropsLookup(t *testing.T) {
	app := domain.NewApplication()
	require.NoError(t, app.Set("business.abn", "51824753556"))
	app.RegistryLookup = &domain.RegistryEntry{ABN: "51824753556"}
	app.Eligibility = &domain.Eligibility{Eligible: true}

	require.NoError(t, app.Set("business.abn", "51824753556"))
	assert.NotNil(t, app.RegistryLookup, "same value keeps enrichment")

	require.NoError(t, app.Set("business.abn", "53004085616"))
	assert.Nil(t, app.RegistryLookup)
	assert.Nil(t, app.Eligibility)
}

package quote_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loanflow/pkg/quote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vehicleRequest(amount float64, term int, balloon float64) quote.Request {
	return quote.Request{
		AssetType:         quote.AssetVehicle,
		Condition:         quote.ConditionNew,
		LoanAmount:        amount,
		TermMonths:        term,
		BalloonPercentage: balloon,
	}
}

func TestCalculate_ReferenceVehicleLoan(t *testing.T) {
	res, err := quote.Calculate(vehicleRequest(50000, 60, 0))
	require.NoError(t, err)

	// Reference annuity at 6.29/1200 over 60 periods.
	r := 6.29 / 1200
	f := math.Pow(1+r, 60)
	want := 50000 * r * f / (f - 1)

	assert.Equal(t, 6.29, res.BaseRate)
	assert.Equal(t, "973.40", res.MonthlyRepayment.StringFixed(2))
	assert.Equal(t, math.Round(want*100)/100, res.MonthlyRepayment.InexactFloat64())
	assert.Equal(t, "224.63", res.WeeklyRepayment.StringFixed(2))
	assert.Equal(t, "449.26", res.FortnightlyRepayment.StringFixed(2))
	assert.Equal(t, "0.00", res.BalloonAmount.StringFixed(2))
	assert.Equal(t, "58403.80", res.TotalRepayments.StringFixed(2))
	assert.Equal(t, "8403.80", res.TotalInterest.StringFixed(2))
	assert.Equal(t, "897.40", res.TotalFees.StringFixed(2))
	assert.Equal(t, "59301.20", res.TotalCost.StringFixed(2))
}

func TestCalculate_BrokerComparison(t *testing.T) {
	res, err := quote.Calculate(vehicleRequest(50000, 60, 0))
	require.NoError(t, err)

	assert.InDelta(t, 8.29, res.Broker.Rate, 1e-9)
	assert.Equal(t, "1020.77", res.Broker.MonthlyRepayment.StringFixed(2))
	assert.Equal(t, "402.40", res.Broker.TotalFees.StringFixed(2))
	assert.Equal(t, "61648.80", res.Broker.TotalCost.StringFixed(2))
	assert.Equal(t, "2347.60", res.EstimatedSaving.StringFixed(2))
}

func TestCalculate_BalloonLowersRepayment(t *testing.T) {
	previous := math.Inf(1)
	for _, pct := range []float64{0, 10, 20, 30, 40, 50} {
		res, err := quote.Calculate(vehicleRequest(80000, 48, pct))
		require.NoError(t, err, "balloon %v", pct)

		monthly := res.MonthlyRepayment.InexactFloat64()
		assert.Less(t, monthly, previous, "balloon %v should lower the repayment", pct)
		previous = monthly
	}

	_, err := quote.Calculate(vehicleRequest(80000, 48, 50.5))
	var rangeErr *quote.RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "balloonPercentage", rangeErr.Field)
}

func TestCalculate_BalloonAmount(t *testing.T) {
	res, err := quote.Calculate(vehicleRequest(50000, 60, 20))
	require.NoError(t, err)

	assert.Equal(t, "10000.00", res.BalloonAmount.StringFixed(2))
	assert.Equal(t, "831.13", res.MonthlyRepayment.StringFixed(2))
	assert.Equal(t, "59868.04", res.TotalRepayments.StringFixed(2))
}

func TestCalculate_ZeroRate(t *testing.T) {
	rates := quote.RateTable{quote.AssetVehicle: {quote.ConditionNew: 0}}
	calc := quote.New(quote.WithRates(rates), quote.WithBrokerMargin(0))

	res, err := calc.Calculate(vehicleRequest(12000, 12, 50))
	require.NoError(t, err)

	assert.Equal(t, "500.00", res.MonthlyRepayment.StringFixed(2))
	assert.Equal(t, "12000.00", res.TotalRepayments.StringFixed(2))
	assert.Equal(t, "0.00", res.TotalInterest.StringFixed(2))
	assert.Equal(t, "-495.00", res.EstimatedSaving.StringFixed(2), "only the platform fee differs at zero margin")
}

func TestCalculate_Preconditions(t *testing.T) {
	tests := []struct {
		name  string
		req   quote.Request
		field string
	}{
		{"amount below minimum", vehicleRequest(4999.99, 60, 0), "loanAmount"},
		{"amount above maximum", vehicleRequest(500000.01, 60, 0), "loanAmount"},
		{"term too short", vehicleRequest(20000, 11, 0), "termMonths"},
		{"term too long", vehicleRequest(20000, 85, 0), "termMonths"},
		{"negative balloon", vehicleRequest(20000, 36, -1), "balloonPercentage"},
		{"nan amount", vehicleRequest(math.NaN(), 36, 0), "loanAmount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := quote.Calculate(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, quote.ErrOutOfRange)

			var rangeErr *quote.RangeError
			require.True(t, errors.As(err, &rangeErr))
			assert.Equal(t, tt.field, rangeErr.Field)
		})
	}

	t.Run("bounds are inclusive", func(t *testing.T) {
		_, err := quote.Calculate(vehicleRequest(5000, 12, 0))
		assert.NoError(t, err)
		_, err = quote.Calculate(vehicleRequest(500000, 84, 50))
		assert.NoError(t, err)
	})
}

func TestCalculate_UnknownRate(t *testing.T) {
	_, err := quote.Calculate(quote.Request{
		AssetType:  quote.AssetTechnology,
		Condition:  quote.ConditionUsed8Plus,
		LoanAmount: 20000,
		TermMonths: 36,
	})
	assert.ErrorIs(t, err, quote.ErrUnknownRate)
}

func TestRateTable_Conditions(t *testing.T) {
	rates := quote.DefaultRates()
	assert.Equal(t, []quote.Condition{quote.ConditionNew, quote.ConditionUsed0to3}, rates.Conditions(quote.AssetTechnology))
	assert.Len(t, rates.Conditions(quote.AssetVehicle), 5)
	assert.Empty(t, rates.Conditions("boat"))
}

func TestLoadRates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rates:\n  vehicle:\n    new: 5.99\n  boat:\n    new: 9.5\n"), 0o644))

	table, err := quote.LoadRates(path)
	require.NoError(t, err)

	rate, ok := table.Lookup(quote.AssetVehicle, quote.ConditionNew)
	assert.True(t, ok)
	assert.Equal(t, 5.99, rate)

	rate, ok = table.Lookup("boat", quote.ConditionNew)
	assert.True(t, ok)
	assert.Equal(t, 9.5, rate)

	rate, _ = table.Lookup(quote.AssetTruck, quote.ConditionDemo)
	assert.Equal(t, 6.89, rate, "untouched entries keep their defaults")

	defaults := quote.DefaultRates()
	rate, _ = defaults.Lookup(quote.AssetVehicle, quote.ConditionNew)
	assert.Equal(t, 6.29, rate, "defaults are not mutated")

	t.Run("missing file yields defaults", func(t *testing.T) {
		table, err := quote.LoadRates(filepath.Join(dir, "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, quote.DefaultRates(), table)
	})

	t.Run("negative rate rejected", func(t *testing.T) {
		_, err := quote.ParseRates([]byte("rates:\n  vehicle:\n    new: -1\n"), quote.DefaultRates())
		assert.Error(t, err)
	})
}

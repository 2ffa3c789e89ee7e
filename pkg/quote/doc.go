/*
Package quote prices asset-finance loans.

It is a pure calculator: given an asset category, its condition band, the amount
financed, the term and an optional balloon percentage, it returns level monthly,
fortnightly and weekly repayments, the total cost of the loan including fixed fees,
and a comparison against the same loan written through a broker at a higher rate.

	res, err := quote.Calculate(quote.Request{
		AssetType:         quote.AssetVehicle,
		Condition:         quote.ConditionNew,
		LoanAmount:        50000,
		TermMonths:        60,
		BalloonPercentage: 0,
	})

All monetary outputs are rounded to cents, half away from zero.
*/
package quote

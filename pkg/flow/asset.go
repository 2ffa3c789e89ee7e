package flow

import (
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/dsl"
	"github.com/aretw0/loanflow/pkg/quote"
	"github.com/aretw0/loanflow/pkg/validate"
)

var categoryOptions = []domain.Option{
	dsl.Opt("Car, ute or van", string(quote.AssetVehicle)),
	dsl.Opt("Truck or trailer", string(quote.AssetTruck)),
	dsl.Opt("Construction or earthmoving", string(quote.AssetConstruction)),
	dsl.Opt("Agricultural machinery", string(quote.AssetAgriculture)),
	dsl.Opt("Other equipment", string(quote.AssetEquipment)),
	dsl.Opt("IT or technology", string(quote.AssetTechnology)),
}

var conditionLabels = map[quote.Condition]string{
	quote.ConditionNew:       "New",
	quote.ConditionDemo:      "Demo",
	quote.ConditionUsed0to3:  "Used, up to 3 years old",
	quote.ConditionUsed4to7:  "Used, 4 to 7 years old",
	quote.ConditionUsed8Plus: "Used, 8 years or older",
}

// ConditionOptions lists the condition bands the table prices for a category.
func ConditionOptions(rates quote.RateTable, category quote.AssetType) []domain.Option {
	conditions := rates.Conditions(category)
	opts := make([]domain.Option, 0, len(conditions))
	for _, c := range conditions {
		opts = append(opts, dsl.Opt(conditionLabels[c], string(c)))
	}
	return opts
}

func addAsset(b *dsl.Builder, cfg *config) {
	b.Add(AssetCategory).
		Say("Great. What are you looking to finance?").
		Choose(categoryOptions...).
		SaveTo("asset.category").
		Go(AssetCondition)

	b.Add(AssetCondition).
		Say("Is it new or used?").
		ChooseFunc(func(app *domain.Application) []domain.Option {
			return ConditionOptions(cfg.rates, app.Asset.Category)
		}).
		SaveTo("asset.condition").
		Go(AssetDescription)

	b.Add(AssetDescription).
		Say("Briefly describe it, for example \"2024 Toyota HiLux SR5\".").
		Input(domain.InputText).
		SaveTo("asset.description").
		Validate(validate.NonEmpty(3)).
		Go(AssetPrice)

	b.Add(AssetPrice).
		Say("What's the price, including GST?").
		Input(domain.InputNumber).
		SaveTo("asset.priceIncTax").
		Validate(validate.Money).
		Go(SupplierKnown)

	b.Add(SupplierKnown).
		Say("Do you know who you're buying it from?").
		Choose(dsl.Opt("Yes", "yes"), dsl.Opt("Not yet", "no")).
		On("yes", SupplierName).
		On("no", Deposit)

	b.Add(SupplierName).
		Say("Who's the supplier or dealer?").
		Input(domain.InputText).
		SaveTo("asset.supplierName").
		Validate(validate.NonEmpty(2)).
		Go(Deposit)
}

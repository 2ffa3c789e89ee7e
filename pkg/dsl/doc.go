/*
Package dsl provides a fluent builder for step graphs.

Steps are declared in code, which lets prompts, options, field paths and transitions
close over the record. Build validates every fixed transition target.

Example usage:

	b := dsl.New("welcome")

	b.Add("welcome").
		Say("Hi! What would you like to do?").
		Choose(dsl.Opt("Get a quote", "quote"), dsl.Opt("Just browsing", "browse")).
		On("quote", "assetPrice").
		On("browse", "bye")

	b.Add("assetPrice").
		Say("How much is the asset, including GST?").
		Input(domain.InputNumber).
		SaveTo("asset.priceIncTax").
		Validate(validate.Money).
		Go("bye")

	b.Add("bye").
		Say("Thanks for stopping by.").
		Terminal(domain.OutcomeLead)

	graph, err := b.Build()
*/
package dsl

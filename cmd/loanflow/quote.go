package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/loanflow/pkg/flow"
	"github.com/aretw0/loanflow/pkg/quote"
	"github.com/aretw0/loanflow/pkg/validate"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <loan-amount>",
	Short: "Price an indicative quote",
	Example: `  loanflow quote 50k --asset vehicle --condition new --term 60 --balloon 20
  loanflow quote '$120,000' --asset truck --condition used_4_7 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rates, err := cfg.Rates.Table()
		if err != nil {
			return err
		}
		amount, err := validate.ParseAmount(args[0])
		if err != nil {
			return fmt.Errorf("loan amount: %w", err)
		}

		asset, _ := cmd.Flags().GetString("asset")
		condition, _ := cmd.Flags().GetString("condition")
		term, _ := cmd.Flags().GetInt("term")
		balloon, _ := cmd.Flags().GetFloat64("balloon")

		res, err := quote.New(quote.WithRates(rates)).Calculate(quote.Request{
			AssetType:         quote.AssetType(asset),
			Condition:         quote.Condition(condition),
			LoanAmount:        amount,
			TermMonths:        term,
			BalloonPercentage: balloon,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		fmt.Fprintf(out, "Rate:        %s p.a. (broker %s)\n", flow.Percent(res.BaseRate), flow.Percent(res.Broker.Rate))
		fmt.Fprintf(out, "Term:        %s\n", flow.Years(res.TermMonths))
		fmt.Fprintf(out, "Monthly:     %s\n", flow.Dollars(res.MonthlyRepayment))
		fmt.Fprintf(out, "Fortnightly: %s\n", flow.Dollars(res.FortnightlyRepayment))
		fmt.Fprintf(out, "Weekly:      %s\n", flow.Dollars(res.WeeklyRepayment))
		if res.BalloonAmount.IsPositive() {
			fmt.Fprintf(out, "Balloon:     %s\n", flow.Dollars(res.BalloonAmount))
		}
		fmt.Fprintf(out, "Total cost:  %s\n", flow.Dollars(res.TotalCost))
		fmt.Fprintf(out, "You save:    %s against a broker\n", flow.Dollars(res.EstimatedSaving))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().String("asset", string(quote.AssetVehicle), "Asset type")
	quoteCmd.Flags().String("condition", string(quote.ConditionNew), "Asset condition")
	quoteCmd.Flags().Int("term", 60, "Term in months (12 to 84)")
	quoteCmd.Flags().Float64("balloon", 0, "Balloon percentage (0 to 50)")
	quoteCmd.Flags().Bool("json", false, "Print the full result as JSON")
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/loanflow/internal/cli"
	"github.com/aretw0/loanflow/pkg/abn"
	"github.com/aretw0/loanflow/pkg/ports"
)

var validateABNCmd = &cobra.Command{
	Use:   "validate-abn <abn>",
	Short: "Check an ABN checksum and, optionally, the register",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := abn.Normalize(args[0])
		out := cmd.OutOrStdout()
		if !abn.IsValid(id) {
			return fmt.Errorf("%q is not a valid ABN", args[0])
		}
		fmt.Fprintf(out, "%s is a valid ABN\n", abn.Format(id))

		if lookup, _ := cmd.Flags().GetBool("lookup"); !lookup {
			return nil
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		entry, err := cli.NewRegistry(cfg, cfg.Logger()).Lookup(cmd.Context(), id)
		if errors.Is(err, ports.ErrNotFound) {
			fmt.Fprintln(out, "Not found on the register.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("registry lookup: %w", err)
		}

		fmt.Fprintf(out, "Legal name: %s\n", entry.LegalName)
		fmt.Fprintf(out, "Status:     %s\n", entry.Status)
		if !entry.RegistrationDate.IsZero() {
			fmt.Fprintf(out, "Registered: %s\n", entry.RegistrationDate.Format("02/01/2006"))
		}
		fmt.Fprintf(out, "GST:        %t\n", entry.GSTRegistered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateABNCmd)
	validateABNCmd.Flags().Bool("lookup", false, "Look the ABN up on the business register")
}

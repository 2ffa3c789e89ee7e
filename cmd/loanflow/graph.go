package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/loanflow/internal/cli"
	"github.com/aretw0/loanflow/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph [session-id]",
	Short: "Export the step graph as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of the step graph. With a session id,
the step the session is waiting on is highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		app, err := cli.Build(cmd.Context(), cfg, cli.WithPacing(0))
		if err != nil {
			return err
		}
		defer app.Close()

		var overlay *graph.Overlay
		if len(args) == 1 {
			snap, err := app.Store.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", args[0], err)
			}
			overlay = &graph.Overlay{CurrentStep: snap.StepID}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(app.Engine.Graph(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

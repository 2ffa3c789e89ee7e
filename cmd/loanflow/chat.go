package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/loanflow/internal/cli"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat through an application in the terminal",
	Long: `Starts an interactive application. Progress is saved after every answer;
run chat again with the same --session to pick up where you left off.`,
	PreRunE: bindPacing,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sessionID, _ := cmd.Flags().GetString("session")
		jsonMode, _ := cmd.Flags().GetBool("json")
		headless, _ := cmd.Flags().GetBool("headless")
		markdown, _ := cmd.Flags().GetBool("markdown")

		return cli.RunChat(cmd.Context(), cfg, cli.ChatOptions{
			SessionID: sessionID,
			JSON:      jsonMode,
			Headless:  headless,
			Markdown:  markdown,
			In:        cmd.InOrStdin(),
			Out:       cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "local", "Session id to start or resume")
	chatCmd.Flags().Bool("json", false, "Run in JSON mode (JSON lines input/output)")
	chatCmd.Flags().Bool("headless", false, "Run without banner, pacing or confirmations")
	chatCmd.Flags().Bool("markdown", true, "Render messages as markdown")
	chatCmd.Flags().Duration("pacing", 600*time.Millisecond, "Delay between assistant messages")

	rootCmd.PreRunE = chatCmd.PreRunE
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}

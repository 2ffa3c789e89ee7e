package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/loanflow/internal/config"
)

var (
	v        = config.New()
	cfgFile  string
	envFiles []string
)

var rootCmd = &cobra.Command{
	Use:   "loanflow",
	Short: "loanflow is a conversational asset finance application engine",
	Long: `loanflow walks an applicant through a business asset finance application,
one question at a time: business lookup, asset and loan details, an indicative
quote, directors and submission.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadEnvFiles(envFiles...)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(v, cfgFile)
}

// bind ties a flag to a config key so the flag wins when set.
func bind(cmd *cobra.Command, key, flag string) {
	f := cmd.Flags().Lookup(flag)
	if f == nil {
		f = cmd.PersistentFlags().Lookup(flag)
	}
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

// bindPacing binds the --pacing flag of the running command. chat and serve
// both define one, so it cannot be bound at init.
func bindPacing(cmd *cobra.Command, _ []string) error {
	return v.BindPFlag("pacing.delay", cmd.Flags().Lookup("pacing"))
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ./loanflow.yaml if present)")
	pf.StringSliceVar(&envFiles, "env-file", nil, "Environment files to load (default .env)")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.String("store", "file", "Snapshot store: memory, file or redis")
	pf.String("store-path", ".loanflow/sessions", "Directory of the file store")

	bind(rootCmd, "log.level", "log-level")
	bind(rootCmd, "store.kind", "store")
	bind(rootCmd, "store.path", "store-path")
}

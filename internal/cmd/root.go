// Package cmd implements the multi-agent command line: the HTTP service, a
// one-shot run, the evaluation harness and direct tool calls.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/multi-agent/internal/config"
)

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree. Running the root command without a
// subcommand starts the server.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:   "multi-agent",
		Short: "Multi-agent LLM pipeline with planning, research, coding and review",
		Long: `multi-agent runs a fixed graph of LLM agents over a user request:
an orchestrator plans, a researcher and a coder do the work, and a critic
scores the result and may send it back for another pass.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			return config.Init(cfgFile)
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml or $HOME/.config/multi-agent/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))

	serve := newServeCmd()
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newRunCmd(), newEvalCmd(), newToolCmd())
	return root
}

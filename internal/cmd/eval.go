package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/multi-agent/internal/eval"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score the pipeline on task success, tool recall and instruction following",
		Long: `Run the evaluation suite and print a summary. Cases come from
--cases (YAML with success, tool_recall and instruction_following lists) or
the built-in set. Per-case results are written to --output as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			suite, err := eval.LoadSuite(a.cfg.Eval.CasesFile)
			if err != nil {
				return err
			}
			a.log.Info("evaluation started", "cases", suite.Len(), "parallelism", a.cfg.Eval.Parallelism)

			e := eval.New(a.pipeline, a.cfg.Eval.Parallelism, a.cfg.Pipeline.MaxRetries)
			report, err := e.Evaluate(a.context(cmd.Context()), suite)
			if err != nil {
				return err
			}
			eval.Render(cmd.OutOrStdout(), report)
			if out := a.cfg.Eval.Output; out != "" {
				if err := eval.Save(out, report); err != nil {
					return err
				}
				a.log.Info("results saved", "path", out)
			}
			return nil
		},
	}
	cmd.Flags().String("cases", "", "YAML file with evaluation cases")
	cmd.Flags().StringP("output", "o", "", "results file (default evaluation_results.json, empty string disables)")
	cmd.Flags().Int("parallelism", 0, "concurrent runs (default 2)")
	_ = viper.BindPFlag("eval.cases_file", cmd.Flags().Lookup("cases"))
	_ = viper.BindPFlag("eval.output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("eval.parallelism", cmd.Flags().Lookup("parallelism"))
	return cmd
}

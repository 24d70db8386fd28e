package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/multi-agent/internal/models"
	"github.com/example/multi-agent/internal/orchestrator"
	"github.com/example/multi-agent/internal/tools"
)

func newRunCmd() *cobra.Command {
	var (
		asJSON bool
		files  []string
	)
	cmd := &cobra.Command{
		Use:   "run <query>",
		Short: "Run one query through the pipeline and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := a.context(cmd.Context())

			req := orchestrator.RunRequest{
				Input:      strings.Join(args, " "),
				MaxRetries: a.cfg.Pipeline.MaxRetries,
			}
			if req.Documents, err = readDocuments(cmd, files); err != nil {
				return err
			}
			res, err := a.pipeline.Run(ctx, req)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res.Output)
			}
			printOutput(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().Int("max-retries", models.DefaultMaxRetries, "critic retry budget (0-5)")
	_ = viper.BindPFlag("pipeline.max_retries", cmd.Flags().Lookup("max-retries"))
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the final output as JSON")
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "attach a document (PDF, HTML or text); repeatable")
	return cmd
}

// readDocuments extracts text from each attached file into one block, one
// section per file.
func readDocuments(cmd *cobra.Command, paths []string) (string, error) {
	var parts []string
	for _, p := range paths {
		buf, err := os.ReadFile(p)
		if err != nil {
			return "", err
		}
		name := filepath.Base(p)
		text, err := tools.ExtractText(cmd.Context(), tools.Document{Name: name}, buf, 0)
		if err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		parts = append(parts, fmt.Sprintf("--- %s ---\n%s", name, text))
	}
	return strings.Join(parts, "\n\n"), nil
}

func printOutput(w io.Writer, res *orchestrator.RunResult) {
	out := res.Output
	rule := strings.Repeat("─", 60)
	fmt.Fprintf(w, "Run:     %s\n", res.ID)
	fmt.Fprintf(w, "Score:   %.2f (retries %d, critic runs %d)\n", out.QualityScore, out.RetryAttempts, res.CriticRuns)
	fmt.Fprintf(w, "Elapsed: %s\n", res.Duration.Round(time.Millisecond))
	if len(out.Plan.Tasks) > 0 {
		fmt.Fprintln(w, "\nPLAN")
		fmt.Fprintln(w, rule)
		for _, t := range out.Plan.Tasks {
			fmt.Fprintf(w, "- %s: %s\n", t.Agent, t.Task)
		}
	}
	if out.ResearcherOutput != "" {
		fmt.Fprintln(w, "\nRESEARCH")
		fmt.Fprintln(w, rule)
		fmt.Fprintln(w, out.ResearcherOutput)
	}
	if out.CoderOutput != "" {
		fmt.Fprintln(w, "\nCODE")
		fmt.Fprintln(w, rule)
		fmt.Fprintln(w, out.CoderOutput)
		if out.CodeCheck != nil {
			fmt.Fprintf(w, "\n[%s]\n", out.CodeCheck.Message)
		}
	}
	if out.Feedback != "" {
		fmt.Fprintln(w, "\nFEEDBACK")
		fmt.Fprintln(w, rule)
		fmt.Fprintln(w, out.Feedback)
	}
}

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newToolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tool [name] [json-inputs]",
		Short: "List the tool adapters or call one directly",
		Example: `  multi-agent tool
  multi-agent tool calculate '{"expression": "2 * (3 + 4)"}'
  multi-agent tool code_validator '{"code": "func f() {}"}'`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, n := range a.registry.Names() {
					fmt.Fprintln(w, n)
				}
				return nil
			}

			inputs := map[string]any{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &inputs); err != nil {
					return fmt.Errorf("inputs must be a JSON object: %w", err)
				}
			}
			out, logs, err := a.registry.Call(a.context(cmd.Context()), args[0], inputs)
			if err != nil {
				return err
			}
			if logs != "" {
				a.log.Debug("tool finished", "tool", args[0], "logs", logs)
			}
			if s, ok := out.(string); ok {
				fmt.Fprintln(w, s)
				return nil
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

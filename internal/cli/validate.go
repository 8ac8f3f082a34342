package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tracker-tv/standards-sync/internal/override"
)

func newValidateOverrideCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-override <file>",
		Short: "Check a repository override file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			ov, err := override.Parse(args[0], content)
			var cfgErr *override.ConfigError
			if errors.As(err, &cfgErr) {
				for _, p := range cfgErr.Problems {
					fmt.Fprintf(out, "error: %s\n", p)
				}
				return err
			}
			if err != nil {
				return err
			}

			pol, err := a.loadPolicy()
			if err != nil {
				return fmt.Errorf("load organization policy: %w", err)
			}
			for _, w := range override.Lint(ov, pol) {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			fmt.Fprintf(out, "%s is valid\n", args[0])
			return nil
		},
	}
}

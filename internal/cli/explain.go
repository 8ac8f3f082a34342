package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tracker-tv/standards-sync/internal/override"
	"github.com/tracker-tv/standards-sync/internal/policy"
	"github.com/tracker-tv/standards-sync/internal/resolver"
	"github.com/tracker-tv/standards-sync/internal/workspace"
	"github.com/tracker-tv/standards-sync/models"
)

func newExplainCommand(a *app) *cobra.Command {
	var (
		platform     string
		overrideFile string
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:   "explain <path>",
		Short: "Show how the policy decides one destination path",
		Example: `  standards-sync explain LICENSE
  standards-sync explain .github/workflows/ci.yml --platform joomla --override .github/standards-sync.yml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, err := workspace.Clean(args[0])
			if err != nil {
				return err
			}
			p, err := models.ParsePlatform(platform)
			if err != nil {
				return err
			}
			pol, err := a.loadPolicy()
			if err != nil {
				return fmt.Errorf("load organization policy: %w", err)
			}

			ov := models.DefaultOverride("local")
			if overrideFile != "" {
				content, err := os.ReadFile(overrideFile)
				if err != nil {
					return err
				}
				if ov, err = override.Parse("local", content); err != nil {
					return err
				}
			}

			d := resolver.New(pol).Resolve(ov, candidateFor(pol, p, dest))
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			printDecision(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.Flags().StringVar(&platform, "platform", string(models.PlatformGeneric), "platform whose catalog applies")
	cmd.Flags().StringVar(&overrideFile, "override", "", "repository override file to apply")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the decision as JSON")
	return cmd
}

// candidateFor returns the catalog entry for dest, or a bare candidate when
// the catalog does not ship that path.
func candidateFor(pol *policy.OrganizationPolicy, platform models.Platform, dest string) models.SyncCandidate {
	for _, c := range pol.Catalog(platform) {
		if c.Destination == dest {
			return c
		}
	}
	return models.SyncCandidate{Destination: dest, Platforms: []models.Platform{platform}}
}

func printDecision(w io.Writer, d models.Decision) {
	fmt.Fprintf(w, "path:     %s\n", d.Path())
	if d.Candidate.Source != "" {
		fmt.Fprintf(w, "source:   %s\n", d.Candidate.Source)
	} else {
		fmt.Fprintf(w, "source:   (not in catalog)\n")
	}
	fmt.Fprintf(w, "action:   %s\n", d.Action)
	if d.Level != "" {
		fmt.Fprintf(w, "level:    %s (Level %d)\n", d.Level, d.Level.DisplayNumber())
		fmt.Fprintf(w, "rule:     %s\n", d.Rule)
	} else {
		fmt.Fprintf(w, "level:    none\n")
	}
	fmt.Fprintf(w, "severity: %s\n", d.Severity)
	fmt.Fprintf(w, "conflict: %t\n", d.IsOverrideConflict)
	fmt.Fprintf(w, "reason:   %s\n", d.Reason)
}

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/embedlib/embedlib/internal/manifest"
	"github.com/embedlib/embedlib/internal/store"
	"github.com/spf13/cobra"
)

var (
	checkManifest string
	checkRegistry bool
	doctorFix     bool
)

func init() {
	doctorCmd.Flags().StringVar(&checkManifest, "check-manifest", "", "Validate a library manifest file at the given path")
	doctorCmd.Flags().BoolVar(&checkRegistry, "check-registry", false, "Verify the registry API is reachable")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Repair problems in the library directory")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the library directory",
	Long: `Check the library directory for stale locks, interrupted installs,
broken installed manifests, and missing dependencies.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if checkManifest != "" {
			return runManifestCheck(out, checkManifest)
		}

		st := store.New(libraryDir(), nil, store.WithLogger(loggerFromContext(cmd.Context())))
		report, err := st.Check(out, doctorFix)
		if err != nil {
			return err
		}

		if checkRegistry {
			if !runRegistryCheck(cmd.Context(), out) {
				report.Problems++
			}
		}

		fmt.Fprintln(out)
		remaining := report.Problems - report.Fixed
		if remaining <= 0 {
			printSuccess(out, "No problems found")
			return nil
		}
		printWarning(out, "%d problem(s) found", remaining)
		if !doctorFix {
			printDetail(out, "Run with --fix to repair what can be repaired")
		}
		return nil
	},
}

func runManifestCheck(out io.Writer, path string) error {
	fmt.Fprintf(out, "Manifest check: %s\n", path)
	result, err := manifest.ValidateFile(path)
	if err != nil {
		return fmt.Errorf("validating %s: %w", path, err)
	}
	if result.Valid {
		fmt.Fprintln(out, "  [ OK ] valid")
		if lib, err := manifest.ParseFile(path); err == nil {
			fmt.Fprintf(out, "  [ OK ] %s %s, %d dependencies\n", lib.Name, orDash(lib.Version), len(lib.Dependencies.Filters()))
		}
		return nil
	}
	for _, issue := range result.Issues {
		if issue.Path != "" {
			fmt.Fprintf(out, "  [FAIL] %s: %s\n", issue.Path, issue.Message)
		} else {
			fmt.Fprintf(out, "  [FAIL] %s\n", issue.Message)
		}
	}
	return fmt.Errorf("%s is not a valid library manifest", path)
}

func runRegistryCheck(ctx context.Context, out io.Writer) bool {
	fmt.Fprintln(out, "Registry check:")
	svc := newServices(ctx, false)
	defer svc.Close()

	start := time.Now()
	if _, err := svc.registry.Search(ctx, `name:"embedlib-doctor"`); err != nil {
		fmt.Fprintf(out, "  [FAIL] %s: %v\n", svc.settings.RegistryURL, err)
		return false
	}
	fmt.Fprintf(out, "  [ OK ] %s (%s)\n", svc.settings.RegistryURL, time.Since(start).Round(time.Millisecond))
	return true
}

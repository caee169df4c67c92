package cli

import (
	"fmt"

	"github.com/embedlib/embedlib/internal/versions"
	"github.com/spf13/cobra"
)

var versionsRequirement string

var versionsCmd = &cobra.Command{
	Use:   "versions <id|name>",
	Short: "List published versions of a library",
	Long: `List the published versions of a library. The version install would pick
for --requirement (latest by date when empty) is highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc := newServices(ctx, false)
		defer svc.Close()

		id, err := lookupID(ctx, svc, args[0])
		if err != nil {
			return err
		}
		records, err := svc.registry.Versions(ctx, id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			printInfo(out, "No published versions")
			return nil
		}

		rows, picked := versionRows(records, versionsRequirement)
		fmt.Fprintln(out, renderTable([]string{"", "Version", "Published"}, rows, picked))
		if picked < 0 {
			printWarning(out, "No version matches %q", versionsRequirement)
		}
		return nil
	},
}

func init() {
	versionsCmd.Flags().StringVarP(&versionsRequirement, "requirement", "r", "", "Version requirement to evaluate")
	rootCmd.AddCommand(versionsCmd)
}

// versionRows renders records and returns the index of the one Select
// picks for requirement, or -1.
func versionRows(records []versions.Record, requirement string) ([][]string, int) {
	best := versions.Select(records, requirement)
	picked := -1
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		marker := ""
		if picked < 0 && best != nil && r == *best {
			marker = iconSuccess
			picked = i
		}
		rows = append(rows, []string{marker, r.Version, orDash(r.Date)})
	}
	return rows, picked
}

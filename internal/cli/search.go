package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/embedlib/embedlib/internal/deps"
	"github.com/embedlib/embedlib/internal/registry"
	"github.com/embedlib/embedlib/internal/resolver"
	"github.com/spf13/cobra"
)

var (
	searchAuthor    []string
	searchFramework []string
	searchPlatform  []string
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search <name>...",
	Short: "Search the library registry",
	Long: `Search the registry by library name. Several names are combined into one
query; --author, --framework and --platform narrow the results and may be
repeated or comma-separated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchAuthor, "author", nil, "Filter by author")
	searchCmd.Flags().StringSliceVar(&searchFramework, "framework", nil, "Filter by framework (e.g., arduino, mbed)")
	searchCmd.Flags().StringSliceVar(&searchPlatform, "platform", nil, "Filter by platform (e.g., atmelavr, espressif32)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(searchCmd)
}

// searchFilter turns command arguments into the filter the resolver uses,
// so search shows exactly what install would consider.
func searchFilter(names, authors, frameworks, platforms []string) deps.Filter {
	return deps.Filter{
		Name:       strings.Join(names, ","),
		Authors:    nonEmpty(authors),
		Frameworks: nonEmpty(frameworks),
		Platforms:  nonEmpty(platforms),
	}
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" && v != deps.Wildcard {
			out = append(out, v)
		}
	}
	return out
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc := newServices(cmd.Context(), false)
	defer svc.Close()

	query := resolver.BuildQuery(searchFilter(args, searchAuthor, searchFramework, searchPlatform))
	svc.logger.Debug("searching registry", "query", query)

	result, err := svc.registry.Search(cmd.Context(), query)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	if len(result.Items) == 0 {
		printInfo(out, "No libraries found matching %s", query)
		return nil
	}
	fmt.Fprintln(out, renderTable(searchHeaders, searchRows(result.Items), -1))
	if result.Total > len(result.Items) {
		printDetail(out, "Showing %d of %d matches", len(result.Items), result.Total)
	}
	return nil
}

var searchHeaders = []string{"ID", "Name", "Version", "Frameworks", "Platforms", "Description"}

func searchRows(items []registry.Library) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			strconv.Itoa(it.ID),
			it.Name,
			orDash(it.Version),
			orDash(strings.Join(it.Frameworks, ", ")),
			orDash(strings.Join(it.Platforms, ", ")),
			truncate(orDash(it.Description), 50),
		})
	}
	return rows
}

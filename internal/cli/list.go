package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/embedlib/embedlib/internal/store"
	"github.com/spf13/cobra"
)

var (
	listJSON bool
	listTree bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed libraries",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().BoolVar(&listTree, "tree", false, "Show installed dependency trees")
	rootCmd.AddCommand(listCmd)
}

// listEntry is the JSON form of an installed library.
type listEntry struct {
	Name         string   `json:"name"`
	Version      string   `json:"version,omitempty"`
	ID           int      `json:"id,omitempty"`
	URL          string   `json:"url,omitempty"`
	Requirements string   `json:"requirements,omitempty"`
	Authors      []string `json:"authors,omitempty"`
	Dir          string   `json:"dir"`
}

func runList(cmd *cobra.Command, args []string) error {
	st := store.New(libraryDir(), nil, store.WithLogger(loggerFromContext(cmd.Context())))
	installed, err := st.List()
	if err != nil {
		return fmt.Errorf("reading library directory: %w", err)
	}

	out := cmd.OutOrStdout()
	switch {
	case listJSON:
		entries := make([]listEntry, 0, len(installed))
		for _, inst := range installed {
			lib := inst.Library
			entries = append(entries, listEntry{
				Name:         lib.Name,
				Version:      lib.Version,
				ID:           lib.ID,
				URL:          lib.URL,
				Requirements: lib.Requirements,
				Authors:      lib.Authors.Names(),
				Dir:          inst.Dir,
			})
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err

	case len(installed) == 0:
		printInfo(out, "No libraries installed in %s", st.Root())
		return nil

	case listTree:
		return printTrees(out, st, installed)
	}

	rows := make([][]string, 0, len(installed))
	for _, inst := range installed {
		lib := inst.Library
		source := "registry"
		if lib.URL != "" {
			source = lib.URL
		}
		id := "-"
		if lib.ID != 0 {
			id = fmt.Sprint(lib.ID)
		}
		authors := truncate(orDash(strings.Join(lib.Authors.Names(), ", ")), 30)
		rows = append(rows, []string{lib.Name, orDash(lib.Version), id, authors, truncate(source, 50), filepath.Base(inst.Dir)})
	}
	fmt.Fprintln(out, renderTable([]string{"Name", "Version", "ID", "Authors", "Source", "Directory"}, rows, -1))
	return nil
}

// printTrees prints one tree per library that no other installed library
// depends on.
func printTrees(w io.Writer, st *store.Store, installed []store.Installed) error {
	trees := make([]*store.Node, 0, len(installed))
	isChild := make(map[string]bool)
	for _, inst := range installed {
		root, err := st.TreeAt(inst.Dir)
		if err != nil {
			return err
		}
		trees = append(trees, root)
		for _, child := range root.Children {
			if child.Installed {
				isChild[child.Dir] = true
			}
		}
	}

	for _, root := range trees {
		if isChild[root.Dir] {
			continue
		}
		printTree(w, root, "", true, true)
	}
	return nil
}

func printTree(w io.Writer, node *store.Node, prefix string, isLast, isRoot bool) {
	label := node.Name
	if node.Version != "" {
		label += " " + styleHighlight.Render(node.Version)
	}
	switch {
	case !node.Installed:
		req := node.Requirement
		if req == "" {
			req = "any"
		}
		label += " " + styleWarning.Render("(missing, wants "+req+")")
	case node.Deduped:
		label += " " + styleDim.Render("(deduped)")
	}

	connector := "├── "
	if isLast {
		connector = "└── "
	}
	if isRoot {
		fmt.Fprintln(w, label)
	} else {
		fmt.Fprintln(w, prefix+connector+label)
	}

	childPrefix := prefix
	if !isRoot {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}
	for i, child := range node.Children {
		printTree(w, child, childPrefix, i == len(node.Children)-1, false)
	}
}

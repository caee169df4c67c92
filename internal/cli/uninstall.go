package cli

import (
	"github.com/embedlib/embedlib/internal/store"
	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <name|id=N>...",
	Short: "Remove installed libraries",
	Long: `Remove installed libraries from the library directory. Dependencies are
left in place since other libraries may still use them; the installed ones
are listed, deepest first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := store.New(libraryDir(), nil, store.WithLogger(loggerFromContext(cmd.Context())))

		lock, err := st.Lock()
		if err != nil {
			return err
		}
		defer lock.Release()

		out := cmd.OutOrStdout()
		for _, name := range args {
			var kept []*store.Node
			if root, err := st.Tree(name); err == nil {
				for _, node := range store.Flatten(root) {
					if node.Dir != root.Dir {
						kept = append(kept, node)
					}
				}
			}

			dir, err := st.Remove(name)
			if err != nil {
				return err
			}
			printSuccess(out, "Removed %s (%s)", name, dir)
			for _, node := range kept {
				printDetail(out, "Kept dependency %s %s", node.Name, orDash(node.Version))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

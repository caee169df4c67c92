package cli

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/embedlib/embedlib/internal/branding"
	"github.com/embedlib/embedlib/internal/config"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` installs embedded libraries from the registry, from archive URLs
or from local paths, together with every dependency their manifests declare.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()

		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		logger := newLogger(cmd.ErrOrStderr(), level)
		cmd.SetContext(withLogger(cmd.Context(), logger))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command with build info injected via ldflags.
// Errors are printed before being returned.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, "%v", err)
		return err
	}
	return nil
}

// libraryDir returns the configured store root.
func libraryDir() string {
	dir := config.Current().LibDir
	if dir == "" {
		dir = filepath.Join(config.Dir(), config.LibDirName)
	}
	return dir
}

package cli

import (
	"fmt"

	"github.com/embedlib/embedlib/internal/config"
	"github.com/embedlib/embedlib/internal/installer"
	"github.com/spf13/cobra"
)

var (
	installSilent      bool
	installNoEvent     bool
	installInteractive bool
)

var installCmd = &cobra.Command{
	Use:   "install <library>...",
	Short: "Install libraries and their dependencies",
	Long: `Install one or more libraries into the library directory. Each argument may be
a registry name, name@requirement, id=N, name=<url>, a URL or a local path.
Dependencies declared in the installed manifests are installed depth first.

When several registry libraries match a name, the first is chosen unless
prompts are enabled (enable_prompts, or --interactive for this run).`,
	Example: `  embedlib install OneWire
  embedlib install "ArduinoJson@^6.21.0"
  embedlib install id=64
  embedlib install Blink=https://example.com/blink-1.0.0.tar.gz`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installSilent, "silent", "s", false, "Suppress progress messages")
	installCmd.Flags().BoolVar(&installNoEvent, "no-event", false, "Do not emit install events")
	installCmd.Flags().BoolVar(&installInteractive, "interactive", false, "Ask which library to use when several match")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	interactive := installInteractive
	if !cmd.Flags().Changed("interactive") {
		interactive = config.Current().EnablePrompts
	}

	svc := newServices(ctx, interactive)
	defer svc.Close()

	lock, err := svc.store.Lock()
	if err != nil {
		return err
	}
	defer lock.Release()

	opts := installer.Options{
		Silent:       installSilent,
		TriggerEvent: !installNoEvent,
		Interactive:  interactive,
	}

	out := cmd.OutOrStdout()
	for _, name := range args {
		p := newProgress(svc.logger)
		dir, err := svc.installer.Install(ctx, name, opts)
		if err != nil {
			return fmt.Errorf("installing %s: %w", name, err)
		}
		if !installSilent {
			p.done("Installed " + name)
		}
		printSuccess(out, "%s %s %s", name, iconArrow, dir)
	}
	return nil
}

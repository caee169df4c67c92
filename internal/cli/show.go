package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Show registry details of a library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc := newServices(ctx, false)
		defer svc.Close()

		id, err := lookupID(ctx, svc, args[0])
		if err != nil {
			return err
		}
		info, err := svc.registry.Library(ctx, id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if showJSON {
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(data))
			return err
		}

		fmt.Fprintln(out, styleTitle.Render(info.Name)+" "+styleHighlight.Render(info.Version))
		if info.Description != "" {
			fmt.Fprintln(out, info.Description)
		}
		fmt.Fprintln(out)
		printKeyValue(out, "ID", fmt.Sprint(info.ID))
		printKeyValue(out, "Authors", orDash(strings.Join(info.Authors, ", ")))
		printKeyValue(out, "Keywords", orDash(strings.Join(info.Keywords, ", ")))
		printKeyValue(out, "Frameworks", orDash(strings.Join(info.Frameworks, ", ")))
		printKeyValue(out, "Platforms", orDash(strings.Join(info.Platforms, ", ")))
		printKeyValue(out, "License", orDash(info.License))
		printKeyValue(out, "Homepage", orDash(info.Homepage))
		printKeyValue(out, "Repository", orDash(info.Repository))
		printKeyValue(out, "Updated", orDash(info.Updated))
		fmt.Fprintln(out, "  "+styleDim.Render(iconArrow)+" "+styleLink.Render(svc.registry.ShowURL(info.ID, info.Name)))
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(showCmd)
}

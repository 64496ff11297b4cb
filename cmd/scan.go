package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cypher256/java-extension-pack-sub000/internal/java"
	"github.com/cypher256/java-extension-pack-sub000/internal/scanner"
	"github.com/cypher256/java-extension-pack-sub000/internal/theme"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the JDKs installed on this machine",
	Long: `Run every scanner and show the JDKs they found, in the order the
reconciliation sees them. Nothing is written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		var found []java.Installation
		err = java.WithSpinner(commandContext(cmd), "Scanning for Java installations...", func(ctx context.Context) error {
			found = scanner.Run(ctx, a.scanners(), a.log)
			return ctx.Err()
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(found) == 0 {
			fmt.Fprintln(out, theme.WarningMessage("No Java installations found."))
			fmt.Fprintln(out, theme.InfoStyle.Render("Run 'jdkauto install' to download one."))
			return nil
		}

		rows := make([][]string, 0, len(found))
		for _, inst := range found {
			version := inst.Version
			if version == "" {
				version = theme.Faint.Render("unknown")
			}
			rows = append(rows, []string{
				theme.CurrentStyle.Render(java.NameOf(inst.Major)),
				version,
				theme.PathStyle.Render(inst.Path),
				theme.Faint.Render(inst.Source),
			})
		}
		fmt.Fprintln(out, theme.Title.Render(fmt.Sprintf("Found %d Java installation(s)", len(found))))
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Name", "Version", "Path", "Source"}, rows))
		return nil
	},
}

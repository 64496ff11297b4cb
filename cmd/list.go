package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cypher256/java-extension-pack-sub000/internal/reconcile"
	"github.com/cypher256/java-extension-pack-sub000/internal/theme"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the runtimes configured in the VS Code settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		store := a.store()
		runtimes, err := store.Runtimes()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(runtimes) == 0 {
			fmt.Fprintln(out, theme.WarningMessage("No runtimes configured in "+store.Path()))
			fmt.Fprintln(out, theme.InfoStyle.Render("Run 'jdkauto sync' to add the installed JDKs."))
			return nil
		}

		engine := reconcile.New(reconcile.Deps{Validator: a.validator, StorageRoot: a.storageRoot(), Logger: a.log})
		rows := make([][]string, 0, len(runtimes))
		for _, rt := range runtimes {
			name := rt.Name
			if rt.Default {
				name = theme.CurrentStyle.Render(rt.Name + " *")
			}
			owner := "user"
			if engine.IsManaged(rt.Path) {
				owner = "jdkauto"
			}
			status := theme.SuccessStyle.Render("✓")
			if !a.validator.IsValidHome(rt.Path) {
				status = theme.ErrorStyle.Render("✗ missing")
			}
			rows = append(rows, []string{name, theme.PathStyle.Render(rt.Path), theme.Faint.Render(owner), status})
		}

		fmt.Fprintln(out, theme.Title.Render("Configured Java Runtimes"))
		fmt.Fprintln(out, theme.Faint.Render(store.Path()))
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Name", "Path", "Owner", "Status"}, rows))
		fmt.Fprintln(out, theme.Faint.Render("* default runtime"))
		return nil
	},
}

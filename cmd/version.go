package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/cypher256/java-extension-pack-sub000/internal/theme"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s %s\n",
			theme.Subtitle.Render("jdkauto"),
			theme.Faint.Render("version"),
			theme.HighlightText(version))
		if verbose {
			fmt.Fprintf(out, "Go version:  %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
		}
	},
}

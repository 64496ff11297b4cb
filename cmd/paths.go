package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/cypher256/java-extension-pack-sub000/internal/config"
	"github.com/cypher256/java-extension-pack-sub000/internal/java"
	"github.com/cypher256/java-extension-pack-sub000/internal/theme"
)

// jdkHome makes add-path and remove-path work on custom JDK homes instead
// of search directories
var jdkHome bool

var addPathCmd = &cobra.Command{
	Use:   "add-path <directory>",
	Short: "Add a directory whose subdirectories are scanned for JDKs",
	Long: `Add a search directory. Every child of it is checked for a JDK on each scan.
With --jdk the directory is itself a JDK home and is always considered.`,
	Example: `  jdkauto add-path /opt/java
  jdkauto add-path --jdk /opt/custom/jdk-21`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if !isDir(path) {
			return fmt.Errorf("invalid directory path: %s", path)
		}
		if jdkHome && !a.validator.IsValidHome(path) {
			return fmt.Errorf("not a JDK home (no bin/%s): %s", a.validator.ExeName("javac"), path)
		}
		if hasPath(a.cfg, path) {
			fmt.Fprintln(out, theme.WarningMessage("This path is already configured."))
			return nil
		}

		confirmed, err := confirmAction("Add path?", fmt.Sprintf("Path: %s\n\nIt will be scanned for Java installations.", path))
		if err != nil || !confirmed {
			fmt.Fprintln(out, theme.WarningMessage("Operation cancelled."))
			return nil
		}

		if jdkHome {
			a.cfg.AddCustomPath(path)
		} else {
			a.cfg.AddSearchPath(path)
		}
		if err := a.cfg.Save(); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}

		fmt.Fprintln(out, theme.SuccessMessage("Added path:"))
		fmt.Fprintln(out, "  "+theme.PathStyle.Render(path))
		fmt.Fprintln(out, theme.Faint.Render("Run ")+theme.Code.Render("jdkauto sync")+theme.Faint.Render(" to update the runtimes"))
		return nil
	},
}

var removePathCmd = &cobra.Command{
	Use:   "remove-path [directory]",
	Short: "Remove a configured search directory",
	Long: `Remove a search directory, or a JDK home with --jdk. Without an argument the
configured paths are offered for selection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		var path string
		if len(args) == 1 {
			path = args[0]
		} else {
			paths := a.cfg.SearchPaths
			if jdkHome {
				paths = a.cfg.CustomPaths
			}
			if len(paths) == 0 {
				fmt.Fprintln(out, theme.InfoMessage("No paths to remove"))
				return nil
			}
			if !java.IsTerminal() {
				return errors.New("no path given")
			}
			if path, err = selectPath(paths); err != nil {
				return err
			}
		}

		if !hasPath(a.cfg, path) {
			fmt.Fprintln(out, theme.WarningMessage("This path is not configured."))
			return nil
		}

		confirmed, err := confirmAction("Remove path?", fmt.Sprintf("Path: %s", path))
		if err != nil || !confirmed {
			fmt.Fprintln(out, theme.WarningMessage("Operation cancelled."))
			return nil
		}

		if jdkHome {
			a.cfg.RemoveCustomPath(path)
		} else {
			a.cfg.RemoveSearchPath(path)
		}
		if err := a.cfg.Save(); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
		fmt.Fprintln(out, theme.SuccessMessage("Removed path."))
		return nil
	},
}

var listPathsCmd = &cobra.Command{
	Use:   "list-paths",
	Short: "Show the configured search directories and JDK homes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, theme.Title.Render("Java Search Paths"))
		fmt.Fprintln(out, theme.Faint.Render(a.cfg.ConfigPath()))
		fmt.Fprintln(out)
		printPaths(cmd, "Search directories:", a.cfg.SearchPaths, isDir)
		printPaths(cmd, "JDK homes:", a.cfg.CustomPaths, a.validator.IsValidHome)
		fmt.Fprintln(out, theme.LabelStyle.Render("Downloaded JDKs:"), theme.PathStyle.Render(a.storageRoot()))
		return nil
	},
}

func init() {
	addPathCmd.Flags().BoolVar(&jdkHome, "jdk", false, "the path is a JDK home")
	removePathCmd.Flags().BoolVar(&jdkHome, "jdk", false, "the path is a JDK home")
}

func printPaths(cmd *cobra.Command, label string, paths []string, exists func(string) bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, theme.LabelStyle.Render(label))
	if len(paths) == 0 {
		fmt.Fprintln(out, indent(theme.Faint.Render("none (use 'jdkauto add-path' to add one)")))
		fmt.Fprintln(out)
		return
	}
	rows := make([][]string, len(paths))
	for i, p := range paths {
		rows[i] = []string{p, pathStatus(exists(p))}
	}
	fmt.Fprintln(out, renderTable([]string{"Path", "Status"}, rows))
	fmt.Fprintln(out)
}

// selectPath lets the user pick one of paths
func selectPath(paths []string) (string, error) {
	maxW := 0
	for _, p := range paths {
		if w := lipgloss.Width(p); w > maxW {
			maxW = w
		}
	}
	options := make([]huh.Option[string], len(paths))
	for i, p := range paths {
		pad := strings.Repeat(" ", maxW-lipgloss.Width(p))
		options[i] = huh.NewOption(theme.CurrentStyle.Render(p)+pad+"  "+pathStatus(isDir(p)), p)
	}

	var selected string
	err := huh.NewSelect[string]().
		Title(theme.Subtitle.Render("Select Path to Remove")).
		Description(theme.Faint.Render("Use arrow keys to navigate, Enter to select")).
		Options(options...).
		Value(&selected).
		Run()
	return selected, err
}

func hasPath(cfg *config.Config, path string) bool {
	if jdkHome {
		return cfg.HasCustomPath(path)
	}
	return cfg.HasSearchPath(path)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

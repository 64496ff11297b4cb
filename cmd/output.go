package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/cypher256/java-extension-pack-sub000/internal/java"
	"github.com/cypher256/java-extension-pack-sub000/internal/reconcile"
	"github.com/cypher256/java-extension-pack-sub000/internal/theme"
)

// renderTable lays out rows under headers with the theme's table styles
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = theme.TableHeader.Width(widths[i] + 2).Render(h)
	}
	lines := []string{lipgloss.JoinHorizontal(lipgloss.Left, cells...)}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = theme.TableCell.Width(widths[i] + 2).Render(cell)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left, cells...))
	}
	return theme.TableStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// printResult summarizes a reconciliation pass
func printResult(w io.Writer, res *reconcile.Result, settingsPath string) {
	if res == nil {
		return
	}
	for _, name := range res.Added {
		fmt.Fprintln(w, theme.SuccessMessage("Added "+name))
	}
	for _, name := range res.Updated {
		fmt.Fprintln(w, theme.InfoMessage("Updated "+name))
	}
	for _, name := range res.Removed {
		fmt.Fprintln(w, theme.WarningMessage("Removed "+name))
	}
	for _, name := range res.Skipped {
		fmt.Fprintln(w, theme.WarningMessage("Skipped "+name+": not supported by the Java extension"))
	}
	if res.DefaultChanged && res.Default != "" {
		fmt.Fprintln(w, theme.InfoMessage("Default runtime is now "+theme.CurrentStyle.Render(res.Default)))
	}

	if res.Changed {
		fmt.Fprintln(w, theme.Faint.Render("Wrote "+settingsPath))
	} else {
		fmt.Fprintln(w, theme.SuccessMessage("Runtimes are up to date"))
	}
}

// confirmAction asks a yes/no question. Without a terminal the answer is yes.
func confirmAction(title, description string) (bool, error) {
	if !java.IsTerminal() {
		return true, nil
	}

	confirmed := true
	err := huh.NewConfirm().
		Title(theme.Subtitle.Render(title)).
		Description(theme.Faint.Render(description)).
		Affirmative(theme.SuccessStyle.Render("Yes")).
		Negative(theme.ErrorStyle.Render("No")).
		Value(&confirmed).
		Run()
	return confirmed, err
}

func pathStatus(exists bool) string {
	if exists {
		return theme.SuccessStyle.Render("✓ Exists")
	}
	return theme.ErrorStyle.Render("✗ Not found")
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}

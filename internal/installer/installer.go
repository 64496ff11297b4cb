// Package installer downloads JDKs from Eclipse Adoptium and unpacks them into
// the directories owned by the reconciliation engine.
package installer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/cypher256/java-extension-pack-sub000/internal/java"
	"github.com/cypher256/java-extension-pack-sub000/internal/theme"
)

// SelectVersions shows the releases offered by dist and returns the majors
// the user picked. installed marks majors that already have a runtime.
func SelectVersions(ctx context.Context, dist Distributor, installed map[int]bool, log zerolog.Logger) ([]int, error) {
	var releases []JavaRelease
	var fetchErr error

	spinnerErr := java.WithSpinner(ctx,
		fmt.Sprintf("Fetching available versions from %s...", dist.Name()),
		func(ctx context.Context) error {
			releases, fetchErr = dist.AvailableReleases(ctx)
			return ctx.Err()
		},
	)
	if spinnerErr != nil {
		return nil, spinnerErr
	}
	if fetchErr != nil {
		log.Warn().Str("method", "SelectVersions").Err(fetchErr).Msg("release list unavailable")
	}
	if len(releases) == 0 {
		return nil, fmt.Errorf("no releases available from %s", dist.Name())
	}

	var selected []int
	picker := huh.NewMultiSelect[int]().
		Title(theme.Subtitle.Render("Select Java Versions to Install")).
		Description(theme.Faint.Render("Use Space to select, Enter to confirm")).
		Options(releaseOptions(releases, installed)...).
		Value(&selected).
		Limit(10)
	if err := huh.NewForm(huh.NewGroup(picker)).RunWithContext(ctx); err != nil {
		return nil, err
	}
	return selected, nil
}

// releaseOptions builds aligned options, LTS releases first
func releaseOptions(releases []JavaRelease, installed map[int]bool) []huh.Option[int] {
	maxW := 0
	for _, r := range releases {
		if w := lipgloss.Width("Java " + strconv.Itoa(r.Major)); w > maxW {
			maxW = w
		}
	}

	var ltsOptions, featureOptions []huh.Option[int]
	for _, release := range releases {
		version := strconv.Itoa(release.Major)
		pad := strings.Repeat(" ", maxW-lipgloss.Width("Java "+version))

		// Fixed tag columns: [LTS] and [Installed]
		ltsCol := strings.Repeat(" ", len("[LTS]"))
		if release.IsLTS {
			ltsCol = theme.SuccessStyle.Render("[LTS]")
		}
		instCol := strings.Repeat(" ", len("[Installed]"))
		if installed[release.Major] {
			instCol = theme.InfoStyle.Render("[Installed]")
		}

		label := theme.CurrentStyle.Render("Java") + " " + version + pad + " " + ltsCol + "  " + instCol
		option := huh.NewOption(label, release.Major)
		if release.IsLTS {
			ltsOptions = append(ltsOptions, option)
		} else {
			featureOptions = append(featureOptions, option)
		}
	}
	return append(ltsOptions, featureOptions...)
}

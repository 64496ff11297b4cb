package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cypher256/java-extension-pack-sub000/internal/installer"
	"github.com/cypher256/java-extension-pack-sub000/internal/java"
	"github.com/cypher256/java-extension-pack-sub000/internal/reconcile"
	"github.com/cypher256/java-extension-pack-sub000/internal/theme"
)

var download bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Update java.configuration.runtimes in the VS Code settings",
	Long: `Remove runtimes whose JDK is gone, add the newest JDK found for every
supported Java version and pick a default. With --download the missing LTS
versions are fetched from Eclipse Adoptium afterwards.

--download defaults to download.enabled from the configuration file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		withDownloads := a.cfg.Download.Enabled
		if cmd.Flags().Changed("download") {
			withDownloads = download
		}

		ctx := commandContext(cmd)
		engine, err := a.engine(cmd, withDownloads)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		var res *reconcile.Result
		err = java.WithSpinner(ctx, "Scanning for Java installations...", func(ctx context.Context) error {
			var err error
			res, err = engine.Reconcile(ctx)
			return err
		})
		if err != nil {
			return fmt.Errorf("reconcile failed: %w", err)
		}
		printResult(out, res, a.settingsPath())

		if !withDownloads {
			return nil
		}
		majors := engine.RequiredVersions(a.supported().Supported(ctx), a.cfg.Download.Versions)
		if len(majors) == 0 {
			return nil
		}
		a.log.Debug().Str("method", "sync").Ints("majors", majors).Msg("filling gaps")

		filled, fillErr := engine.FillGaps(ctx, majors)
		printResult(out, filled, a.settingsPath())
		return downloadFailure(cmd.ErrOrStderr(), fillErr)
	},
}

var installCmd = &cobra.Command{
	Use:   "install [major...]",
	Short: "Download JDKs into the storage root",
	Long: `Download the newest release of each given Java major version and add it to
the VS Code runtimes. Without arguments the available releases are offered
for selection. A version already served by a JDK you installed yourself is
left alone.`,
	Example: `  jdkauto install 21
  jdkauto install 17 21 25`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		ctx := commandContext(cmd)

		majors, err := parseMajors(args)
		if err != nil {
			return err
		}
		if len(majors) == 0 {
			if !java.IsTerminal() {
				return errors.New("no versions given; pass major versions such as 'jdkauto install 21'")
			}
			dist, err := a.distributor(installer.NewHTTPClient(a.log))
			if err != nil {
				return err
			}
			majors, err = installer.SelectVersions(ctx, dist, a.installedMajors(), a.log)
			if err != nil {
				return err
			}
			if len(majors) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), theme.WarningMessage("No versions selected."))
				return nil
			}
		}

		engine, err := a.engine(cmd, true)
		if err != nil {
			return err
		}
		res, fillErr := engine.FillGaps(ctx, majors)
		printResult(cmd.OutOrStdout(), res, a.settingsPath())
		return downloadFailure(cmd.ErrOrStderr(), fillErr)
	},
}

func init() {
	syncCmd.Flags().BoolVar(&download, "download", false, "download missing LTS versions")
}

// installedMajors returns the majors with a usable configured runtime
func (a *app) installedMajors() map[int]bool {
	installed := make(map[int]bool)
	runtimes, err := a.store().Runtimes()
	if err != nil {
		a.log.Warn().Str("method", "installedMajors").Err(err).Msg("cannot read runtimes")
		return installed
	}
	for _, rt := range runtimes {
		major, err := java.VersionOf(rt.Name)
		if err == nil && a.validator.IsValidHome(rt.Path) {
			installed[major] = true
		}
	}
	return installed
}

func parseMajors(args []string) ([]int, error) {
	majors := make([]int, 0, len(args))
	for _, arg := range args {
		major, err := strconv.Atoi(arg)
		if err != nil || major <= 0 {
			return nil, fmt.Errorf("invalid Java version %q", arg)
		}
		majors = append(majors, major)
	}
	return majors, nil
}

// downloadFailure prints each failed version and returns a summary error
func downloadFailure(w io.Writer, err error) error {
	if err == nil {
		return nil
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		var dlErr *installer.DownloadError
		if errors.As(e, &dlErr) {
			fmt.Fprintln(w, theme.ErrorMessage(fmt.Sprintf("%s: %s failed: %v", java.NameOf(dlErr.Major), dlErr.Phase, dlErr.Err)))
		} else {
			fmt.Fprintln(w, theme.ErrorMessage(e.Error()))
		}
	}
	return fmt.Errorf("%d download(s) failed", len(errs))
}

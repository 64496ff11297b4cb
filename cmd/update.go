package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cypher256/java-extension-pack-sub000/internal/java"
	"github.com/cypher256/java-extension-pack-sub000/internal/theme"
	"github.com/cypher256/java-extension-pack-sub000/internal/updater"
)

var (
	updateRepo string
	assumeYes  bool
)

var selfUpdateCmd = &cobra.Command{
	Use:   "self-update",
	Short: "Update jdkauto to the latest release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if !a.cfg.UpdateConfig.Enabled {
			fmt.Fprintln(out, theme.WarningMessage("Updates are disabled in configuration."))
			fmt.Fprintln(out, theme.Faint.Render("Set update_config.enabled to true in "+a.cfg.ConfigPath()))
			return nil
		}

		upd, err := updater.NewUpdater(a.cfg, version, updateRepo, a.log)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(commandContext(cmd), updater.UpdateTimeout)
		defer cancel()

		fmt.Fprintln(out, theme.InfoStyle.Render("Checking for updates..."))
		release, err := upd.CheckForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("update check failed: %w", err)
		}
		if release == nil {
			updater.ShowAlreadyUpToDate(out, upd.CurrentVersion())
			return nil
		}

		action := updater.ActionUpdate
		if !assumeYes && java.IsTerminal() {
			if action, err = upd.PromptForUpdate(ctx, release); err != nil {
				fmt.Fprintln(out, theme.WarningMessage("Update cancelled."))
				return nil
			}
		}
		switch action {
		case updater.ActionSkip:
			fmt.Fprintln(out, theme.InfoMessage(fmt.Sprintf("Skipped version %s", release.Version())))
			return nil
		case updater.ActionLater:
			fmt.Fprintln(out, theme.InfoMessage("Update postponed"))
			return nil
		}

		fmt.Fprintln(out, theme.InfoStyle.Render(fmt.Sprintf("Downloading jdkauto %s...", release.Version())))
		if err := upd.PerformUpdate(ctx, release); err != nil {
			return err
		}
		updater.ShowUpdateSuccess(out, release.Version())
		return nil
	},
}

func init() {
	selfUpdateCmd.Flags().StringVar(&updateRepo, "repo", updater.DefaultRepo, "GitHub repository (owner/name) to update from")
	selfUpdateCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "update without asking")
}

// notifyUpdate prints a hint when a newer release exists. It runs at most
// once per check interval and only on a terminal.
func notifyUpdate(cmd *cobra.Command) {
	if !java.IsTerminal() {
		return
	}
	cfg, err := loadConfig()
	if err != nil {
		return
	}
	log := newLogger(cmd.ErrOrStderr())
	upd, err := updater.NewUpdater(cfg, version, updater.DefaultRepo, log)
	if err != nil || !upd.ShouldCheckForUpdate() {
		return
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), 5*time.Second)
	defer cancel()
	release, err := upd.CheckForUpdate(ctx)
	if err != nil {
		log.Debug().Str("method", "notifyUpdate").Err(err).Msg("update check failed")
		return
	}
	if release != nil {
		updater.ShowUpdateNotification(cmd.ErrOrStderr(), upd.CurrentVersion(), release.Version())
	}
}

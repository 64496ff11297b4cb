// Package updater replaces the running jdkauto binary with the newest
// GitHub release.
package updater

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/rs/zerolog"

	"github.com/cypher256/java-extension-pack-sub000/internal/config"
)

const (
	// DefaultRepo is the repository jdkauto releases are published to
	DefaultRepo = "cypher256/jdkauto"

	// CheckInterval is minimum time between update checks
	CheckInterval = 24 * time.Hour

	// UpdateTimeout is maximum time for update operations
	UpdateTimeout = 5 * time.Minute
)

// Updater handles checking and applying updates
type Updater struct {
	config         *config.Config
	currentVersion string
	repo           string
	selfUpdater    *selfupdate.Updater
	now            func() time.Time
	log            zerolog.Logger
}

// NewUpdater creates an Updater for the release repository repo
// ("owner/name"). An empty repo means DefaultRepo.
func NewUpdater(cfg *config.Config, version, repo string, log zerolog.Logger) (*Updater, error) {
	su, err := selfupdate.NewUpdater(selfupdate.Config{
		Validator: &selfupdate.ChecksumValidator{
			UniqueFilename: "SHA256SUMS.txt",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}
	if repo == "" {
		repo = DefaultRepo
	}

	return &Updater{
		config:         cfg,
		currentVersion: cleanVersion(version),
		repo:           repo,
		selfUpdater:    su,
		now:            time.Now,
		log:            log,
	}, nil
}

// CurrentVersion returns the running version without a "v" prefix
func (u *Updater) CurrentVersion() string {
	return u.currentVersion
}

// ShouldCheckForUpdate reports whether a background check is due.
// Development builds never check.
func (u *Updater) ShouldCheckForUpdate() bool {
	if u.currentVersion == "" || u.currentVersion == "dev" {
		return false
	}
	if !u.config.UpdateConfig.Enabled || !u.config.UpdateConfig.AutoCheck {
		return false
	}
	return u.now().Sub(u.config.UpdateConfig.LastCheck) >= CheckInterval
}

// CheckForUpdate queries GitHub for the latest release. It returns nil when
// the running version is current or the user skipped the latest one.
func (u *Updater) CheckForUpdate(ctx context.Context) (*selfupdate.Release, error) {
	log := u.log.With().Str("method", "CheckForUpdate").Str("repo", u.repo).Logger()

	latest, found, err := u.selfUpdater.DetectLatest(ctx, selfupdate.ParseSlug(u.repo))
	if err != nil {
		return nil, fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no releases found in %s", u.repo)
	}

	u.config.UpdateConfig.LastCheck = u.now()
	if err := u.config.Save(); err != nil {
		log.Warn().Err(err).Msg("failed to save last check time")
	}

	if latest.LessOrEqual(u.currentVersion) {
		log.Debug().Str("latest", latest.Version()).Msg("already up to date")
		return nil, nil
	}
	if u.config.UpdateConfig.SkipVersion == latest.Version() {
		log.Debug().Str("latest", latest.Version()).Msg("version skipped by user")
		return nil, nil
	}
	return latest, nil
}

// PerformUpdate downloads release and replaces the running executable.
// The previous binary is restored when the replacement fails.
func (u *Updater) PerformUpdate(ctx context.Context, release *selfupdate.Release) error {
	log := u.log.With().Str("method", "PerformUpdate").Str("version", release.Version()).Logger()

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("failed to determine executable path: %w", err)
	}

	backup := exe + ".backup"
	if err := copyFile(exe, backup); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	if err := u.selfUpdater.UpdateTo(ctx, release, exe); err != nil {
		if rollbackErr := os.Rename(backup, exe); rollbackErr != nil {
			return fmt.Errorf("update failed and rollback failed: update error: %w, rollback error: %v", err, rollbackErr)
		}
		return fmt.Errorf("update failed (rolled back): %w", err)
	}

	if err := os.Remove(backup); err != nil {
		log.Debug().Err(err).Str("path", backup).Msg("backup left behind")
	}
	log.Info().Str("path", exe).Msg("binary replaced")
	return nil
}

// SkipVersion marks a version as skipped by the user
func (u *Updater) SkipVersion(version string) error {
	u.config.UpdateConfig.SkipVersion = version
	return u.config.Save()
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0755)
}

// cleanVersion removes 'v' prefix if present for consistent comparison
func cleanVersion(version string) string {
	return strings.TrimPrefix(strings.TrimSpace(version), "v")
}

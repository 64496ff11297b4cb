package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cypher256/java-extension-pack-sub000/internal/config"
	"github.com/cypher256/java-extension-pack-sub000/internal/installer"
	"github.com/cypher256/java-extension-pack-sub000/internal/java"
	"github.com/cypher256/java-extension-pack-sub000/internal/reconcile"
	"github.com/cypher256/java-extension-pack-sub000/internal/scanner"
	"github.com/cypher256/java-extension-pack-sub000/internal/settings"
)

// LogLevelEnv overrides the log level chosen by flags
const LogLevelEnv = "JDKAUTO_LOG_LEVEL"

var (
	// Version information set from main
	version = "dev"

	// Global flags
	verbose      bool
	configFile   string
	settingsFile string
	storageDir   string
)

var rootCmd = &cobra.Command{
	Use:   "jdkauto",
	Short: "Keep VS Code's Java runtimes in sync with the JDKs on this machine",
	Long: `jdkauto finds the JDKs installed on this machine, picks the newest build of
each Java version and writes them to java.configuration.runtimes in the VS Code
user settings. Missing LTS versions can be downloaded from Eclipse Adoptium.

Examples:
  jdkauto scan              # Show the JDKs that were found
  jdkauto sync              # Update settings.json
  jdkauto sync --download   # Also download missing LTS versions
  jdkauto install 21        # Download Java 21 into the storage root`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() != selfUpdateCmd.Name() {
			notifyUpdate(cmd)
		}
	},
}

// Execute runs the root command. It is called by main.main().
func Execute(v string) error {
	version = v
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "configuration file (default "+config.Path()+")")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "VS Code user settings.json to update")
	rootCmd.PersistentFlags().StringVar(&storageDir, "storage", "", "directory holding downloaded JDKs")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(addPathCmd)
	rootCmd.AddCommand(removePathCmd)
	rootCmd.AddCommand(listPathsCmd)
	rootCmd.AddCommand(selfUpdateCmd)
}

// newLogger writes human readable logs to w. The level is warn, debug with
// --verbose, or whatever LogLevelEnv names.
func newLogger(w io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if s := strings.TrimSpace(os.Getenv(LogLevelEnv)); s != "" {
		if l, err := zerolog.ParseLevel(strings.ToLower(s)); err == nil {
			level = l
		}
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// loadConfig reads the configuration file. The path flags are kept out of
// it so that saving never persists them.
func loadConfig() (*config.Config, error) {
	if configFile == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("error loading config %s: %w", config.Path(), err)
		}
		return cfg, nil
	}
	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config %s: %w", configFile, err)
	}
	return cfg, nil
}

// app holds what the commands share for one invocation
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	validator *java.Validator
	discovery *settings.Discovery

	// --settings and --storage, applied on top of cfg
	settingsOverride string
	storageOverride  string
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(cmd.ErrOrStderr())
	return &app{
		cfg:              cfg,
		log:              log,
		validator:        java.NewValidator(log),
		discovery:        settings.NewDiscovery(),
		settingsOverride: settingsFile,
		storageOverride:  storageDir,
	}, nil
}

func (a *app) settingsPath() string {
	if a.settingsOverride != "" {
		return a.settingsOverride
	}
	if a.cfg.SettingsPath != "" {
		return a.cfg.SettingsPath
	}
	return a.discovery.SettingsPath()
}

// storageRoot is the directory holding downloaded JDKs
func (a *app) storageRoot() string {
	if a.storageOverride != "" {
		return filepath.Clean(a.storageOverride)
	}
	return a.cfg.JDKStorageRoot()
}

func (a *app) store() *settings.FileStore {
	return settings.NewFileStore(a.settingsPath(), a.log)
}

func (a *app) supported() settings.SupportedSource {
	dir := a.cfg.ExtensionsDir
	if dir == "" {
		dir = a.discovery.ExtensionsDir()
	}
	return settings.NewExtensionSource(dir, a.cfg.SupportedRuntimes, a.log)
}

func (a *app) scanners() []scanner.Scanner {
	return []scanner.Scanner{
		scanner.NewGenericScanner(a.validator, a.cfg.SearchPaths, a.cfg.CustomPaths, a.log),
		scanner.NewPackageManagerScanner(a.validator, a.log),
		scanner.NewIDEScanner(a.validator, a.log),
		scanner.NewBundleScanner(a.validator, a.log),
	}
}

// distributor returns the configured download.distribution
func (a *app) distributor(client *retryablehttp.Client) (installer.Distributor, error) {
	return installer.NewDistributor(a.cfg.Download.Distribution, client)
}

// newInstaller creates the installer for the configured distribution. The
// progress bar is drawn only on a terminal.
func (a *app) newInstaller(cmd *cobra.Command) (*installer.Installer, error) {
	client := installer.NewHTTPClient(a.log)
	dist, err := a.distributor(client)
	if err != nil {
		return nil, err
	}
	inst := installer.New(dist, client, a.validator, a.log)
	if java.IsTerminal() {
		inst.SetProgress(installer.NewTerminalProgress(cmd.OutOrStdout()))
	}
	return inst, nil
}

// engine wires the reconciliation engine. withDownloads attaches the
// installer.
func (a *app) engine(cmd *cobra.Command, withDownloads bool) (*reconcile.Engine, error) {
	deps := reconcile.Deps{
		Store:       a.store(),
		Supported:   a.supported(),
		Scanners:    a.scanners(),
		Validator:   a.validator,
		StorageRoot: a.storageRoot(),
		MaxLTS:      a.cfg.Download.MaxLTS,
		Logger:      a.log,
	}
	if withDownloads {
		inst, err := a.newInstaller(cmd)
		if err != nil {
			return nil, err
		}
		deps.Downloader = inst
	}
	return reconcile.New(deps), nil
}

// commandContext returns the context of cmd, cancelled on interrupt
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

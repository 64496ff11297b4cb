package scanner

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/cypher256/java-extension-pack-sub000/internal/java"
	"github.com/cypher256/java-extension-pack-sub000/internal/probe"
)

// windowsRoots are vendor install directories whose children are JDK homes
var windowsRoots = []string{
	"C:\\Program Files\\Java",
	"C:\\Program Files (x86)\\Java",
	"C:\\Program Files\\Eclipse Adoptium",
	"C:\\Program Files\\Eclipse Foundation",
	"C:\\Program Files\\Zulu",
	"C:\\Program Files\\Amazon Corretto",
	"C:\\Program Files\\Microsoft",
	"C:\\Program Files\\BellSoft",
}

// GenericScanner looks at environment variables, PATH, the usual install
// roots of each platform, version managers, the registry on Windows and the
// user-configured paths.
type GenericScanner struct {
	validator   *java.Validator
	fixer       *java.Fixer
	searchPaths []string
	customPaths []string
	log         zerolog.Logger

	// test seams
	homeDir string
	getenv  func(string) string
	which   func(string) string
	roots   []string
	fromOS  func() []string
}

// NewGenericScanner creates the scanner. searchPaths are directories whose
// children are JDK homes; customPaths are JDK homes.
func NewGenericScanner(v *java.Validator, searchPaths, customPaths []string, log zerolog.Logger) *GenericScanner {
	home, _ := os.UserHomeDir()
	s := &GenericScanner{
		validator:   v,
		fixer:       java.NewFixer(v),
		searchPaths: searchPaths,
		customPaths: customPaths,
		log:         log,
		homeDir:     home,
		getenv:      os.Getenv,
		which:       probe.Which,
	}
	s.roots = s.defaultRoots()
	s.fromOS = func() []string { return registryHomes(log) }
	return s
}

// Name implements Scanner
func (s *GenericScanner) Name() string {
	return "generic"
}

// Scan implements Scanner
func (s *GenericScanner) Scan(ctx context.Context) ([]java.Installation, error) {
	candidates := make([]string, 0)

	for _, key := range []string{"JAVA_HOME", "JDK_HOME"} {
		if v := s.getenv(key); v != "" {
			candidates = append(candidates, v)
		}
	}
	for _, exe := range []string{"javac", "java"} {
		if found := s.which(exe); found != "" {
			candidates = append(candidates, found)
		}
	}

	candidates = append(candidates, probe.Glob(s.log, probe.GlobOptions{}, s.roots...)...)
	if s.fromOS != nil {
		candidates = append(candidates, s.fromOS()...)
	}

	// Auto-detect from user search paths: every child directory is a candidate
	for _, basePath := range s.searchPaths {
		entries, err := os.ReadDir(basePath)
		if err != nil {
			s.log.Info().Str("method", "Scan").Str("path", basePath).Err(err).Msg("cannot read search path")
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				candidates = append(candidates, filepath.Join(basePath, entry.Name()))
			}
		}
	}
	candidates = append(candidates, s.customPaths...)

	return identifyAll(ctx, s.validator, s.Name(), fixAll(s.fixer, candidates)), nil
}

// defaultRoots returns glob patterns of well-known JDK locations
func (s *GenericScanner) defaultRoots() []string {
	home := filepath.ToSlash(s.homeDir)
	roots := make([]string, 0)

	switch s.validator.GOOS() {
	case "windows":
		for _, r := range windowsRoots {
			roots = append(roots, filepath.ToSlash(r)+"/*")
		}
	case "darwin":
		roots = append(roots,
			"/Library/Java/JavaVirtualMachines/*",
			"/opt/homebrew/opt/openjdk*/libexec/openjdk.jdk",
			"/usr/local/opt/openjdk*/libexec/openjdk.jdk",
		)
		if home != "" {
			roots = append(roots, home+"/Library/Java/JavaVirtualMachines/*")
		}
	default:
		roots = append(roots,
			"/usr/lib/jvm/*",
			"/usr/java/*",
			"/opt/java/*",
			"/opt/jdk*",
		)
	}

	if sdkman := s.getenv("SDKMAN_DIR"); sdkman != "" {
		roots = append(roots, filepath.ToSlash(sdkman)+"/candidates/java/*")
	} else if home != "" {
		roots = append(roots, home+"/.sdkman/candidates/java/*")
	}
	if home != "" {
		roots = append(roots,
			home+"/.asdf/installs/java/*",
			home+"/.jabba/jdk/*",
		)
	}
	return roots
}

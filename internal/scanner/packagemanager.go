package scanner

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/cypher256/java-extension-pack-sub000/internal/java"
	"github.com/cypher256/java-extension-pack-sub000/internal/probe"
)

// PackageManagerScanner finds JDKs installed by scoop on Windows.
type PackageManagerScanner struct {
	validator *java.Validator
	fixer     *java.Fixer
	log       zerolog.Logger
	homeDir   string
	getenv    func(string) string
}

// NewPackageManagerScanner creates the scanner
func NewPackageManagerScanner(v *java.Validator, log zerolog.Logger) *PackageManagerScanner {
	home, _ := os.UserHomeDir()
	return &PackageManagerScanner{
		validator: v,
		fixer:     java.NewFixer(v),
		log:       log,
		homeDir:   home,
		getenv:    os.Getenv,
	}
}

// Name implements Scanner
func (s *PackageManagerScanner) Name() string {
	return "package-manager"
}

// Scan implements Scanner
func (s *PackageManagerScanner) Scan(ctx context.Context) ([]java.Installation, error) {
	if s.validator.GOOS() != "windows" {
		return nil, nil
	}

	patterns := make([]string, 0, 2)
	for _, root := range s.scoopRoots() {
		patterns = append(patterns, filepath.ToSlash(root)+"/apps/*/*/bin/"+s.validator.ExeName("javac"))
	}

	// "current" is a junction to one of the version directories
	hits := probe.Glob(s.log, probe.GlobOptions{IgnoreSymlinkDirs: true, Ignore: []string{"current"}}, patterns...)
	return identifyAll(ctx, s.validator, s.Name(), fixAll(s.fixer, hits)), nil
}

func (s *PackageManagerScanner) scoopRoots() []string {
	user := s.getenv("SCOOP")
	if user == "" && s.homeDir != "" {
		user = filepath.Join(s.homeDir, "scoop")
	}
	global := s.getenv("SCOOP_GLOBAL")
	if global == "" {
		global = "C:\\ProgramData\\scoop"
	}

	roots := make([]string, 0, 2)
	if user != "" {
		roots = append(roots, user)
	}
	return append(roots, global)
}

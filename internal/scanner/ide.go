package scanner

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/cypher256/java-extension-pack-sub000/internal/java"
	"github.com/cypher256/java-extension-pack-sub000/internal/probe"
)

// IDEScanner finds JDKs downloaded by IntelliJ IDEA into ~/.jdks.
type IDEScanner struct {
	validator *java.Validator
	fixer     *java.Fixer
	log       zerolog.Logger
	homeDir   string
}

// NewIDEScanner creates the scanner
func NewIDEScanner(v *java.Validator, log zerolog.Logger) *IDEScanner {
	home, _ := os.UserHomeDir()
	return &IDEScanner{validator: v, fixer: java.NewFixer(v), log: log, homeDir: home}
}

// Name implements Scanner
func (s *IDEScanner) Name() string {
	return "ide"
}

// Scan implements Scanner
func (s *IDEScanner) Scan(ctx context.Context) ([]java.Installation, error) {
	if s.homeDir == "" {
		return nil, nil
	}
	javac := s.validator.ExeName("javac")
	base := filepath.ToSlash(s.homeDir) + "/.jdks/*"

	patterns := []string{base + "/bin/" + javac}
	if s.validator.GOOS() == "darwin" {
		patterns = append(patterns, base+"/Contents/Home/bin/"+javac)
	}

	hits := probe.Glob(s.log, probe.GlobOptions{}, patterns...)
	return identifyAll(ctx, s.validator, s.Name(), fixAll(s.fixer, hits)), nil
}

package scanner

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cypher256/java-extension-pack-sub000/internal/java"
	"github.com/cypher256/java-extension-pack-sub000/internal/probe"
)

// BundleScanner finds JDKs shipped inside Pleiades All in One bundles on
// Windows drives.
type BundleScanner struct {
	validator *java.Validator
	fixer     *java.Fixer
	log       zerolog.Logger
	roots     []string
}

// NewBundleScanner creates the scanner for drives C: to Z:
func NewBundleScanner(v *java.Validator, log zerolog.Logger) *BundleScanner {
	roots := make([]string, 0, 24)
	for d := 'C'; d <= 'Z'; d++ {
		roots = append(roots, string(d)+":")
	}
	return &BundleScanner{validator: v, fixer: java.NewFixer(v), log: log, roots: roots}
}

// Name implements Scanner
func (s *BundleScanner) Name() string {
	return "bundle"
}

// Scan implements Scanner
func (s *BundleScanner) Scan(ctx context.Context) ([]java.Installation, error) {
	if s.validator.GOOS() != "windows" {
		return nil, nil
	}
	javac := s.validator.ExeName("javac")

	patterns := make([]string, 0, len(s.roots)*2)
	for _, root := range s.roots {
		patterns = append(patterns,
			root+"/pleiades*/java/*/bin/"+javac,
			root+"/pleiades*/20*/java/*/bin/"+javac,
		)
	}

	hits := probe.Glob(s.log, probe.GlobOptions{}, patterns...)
	return identifyAll(ctx, s.validator, s.Name(), fixAll(s.fixer, hits)), nil
}

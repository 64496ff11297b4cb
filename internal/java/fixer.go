package java

import (
	"path/filepath"
)

// maxParentSteps covers paths pointing at <home>/bin/javac or <home>/bin
const maxParentSteps = 2

// Fixer repairs imprecise JDK paths, e.g. one pointing at bin/java or at a
// macOS bundle root instead of the JDK home.
type Fixer struct {
	validator *Validator
}

// NewFixer creates a Fixer using validator for the home checks
func NewFixer(validator *Validator) *Fixer {
	return &Fixer{validator: validator}
}

// FixPath returns the JDK home for candidate, or fallback when none is found.
// It only reads the file system.
func (f *Fixer) FixPath(candidate, fallback string) string {
	if candidate == "" {
		return fallback
	}
	candidate = filepath.Clean(candidate)

	dir := candidate
	for i := 0; i <= maxParentSteps; i++ {
		if f.validator.IsValidHome(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if f.validator.GOOS() == "darwin" {
		for _, sub := range []string{filepath.Join("Contents", "Home"), "Home"} {
			if home := filepath.Join(candidate, sub); f.validator.IsValidHome(home) {
				return home
			}
		}
	}

	return fallback
}

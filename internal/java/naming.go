package java

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRuntimeName is returned by VersionOf for names that do not follow
// the J2SE-1.x / JavaSE-1.x / JavaSE-x convention.
var ErrInvalidRuntimeName = errors.New("invalid runtime name")

// NameOf returns the runtime name VS Code uses for a major version.
func NameOf(major int) string {
	switch {
	case major <= 5:
		return fmt.Sprintf("J2SE-1.%d", major)
	case major <= 8:
		return fmt.Sprintf("JavaSE-1.%d", major)
	default:
		return fmt.Sprintf("JavaSE-%d", major)
	}
}

// VersionOf is the inverse of NameOf.
func VersionOf(name string) (int, error) {
	rest, ok := strings.CutPrefix(name, "JavaSE-")
	if !ok {
		rest, ok = strings.CutPrefix(name, "J2SE-")
	}
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRuntimeName, name)
	}
	rest = strings.TrimPrefix(rest, "1.")
	major, err := strconv.Atoi(rest)
	if err != nil || major < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRuntimeName, name)
	}
	return major, nil
}

// IsLTS reports whether major is a long-term-support release line.
func IsLTS(major int) bool {
	return major == 8 || major == 11 || (major >= 17 && (major-17)%4 == 0)
}

package java

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/rs/zerolog"
)

// ErrInvalidVersion is returned when a string is not a dotted version.
var ErrInvalidVersion = errors.New("invalid java version")

// Installation represents a JDK found on disk during one scan pass
type Installation struct {
	Path    string // JDK home (directory containing bin/)
	Major   int    // Major version (8, 11, 17, 21...)
	Version string // Vendor full version (e.g., "17.0.9", "1.8.0_362"); empty if unknown
	Source  string // Name of the scanner that reported it
}

func (i Installation) String() string {
	if i.Version == "" {
		return fmt.Sprintf("%d (%s)", i.Major, i.Path)
	}
	return fmt.Sprintf("%s (%s)", i.Version, i.Path)
}

// ParseVersion parses a JDK version string. Legacy update separators
// ("1.8.0_362") are treated as dots.
func ParseVersion(s string) (*version.Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidVersion)
	}
	v, err := version.NewVersion(strings.ReplaceAll(s, "_", "."))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}
	return v, nil
}

// IsNewer reports whether left is a strictly newer version than right.
// Unparsable input on either side is logged and reported as not newer.
func IsNewer(log zerolog.Logger, left, right string) bool {
	l, err := ParseVersion(left)
	if err != nil {
		log.Warn().Str("method", "IsNewer").Str("left", left).Str("right", right).Err(err).Msg("cannot compare versions")
		return false
	}
	r, err := ParseVersion(right)
	if err != nil {
		log.Warn().Str("method", "IsNewer").Str("left", left).Str("right", right).Err(err).Msg("cannot compare versions")
		return false
	}
	return l.GreaterThan(r)
}

// MajorOf returns the major version encoded in a full version string:
// "1.8.0_362" is 8, "17.0.9" is 17.
func MajorOf(full string) (int, error) {
	v, err := ParseVersion(full)
	if err != nil {
		return 0, err
	}
	segs := v.Segments()
	if segs[0] == 1 && len(segs) > 1 {
		return segs[1], nil
	}
	return segs[0], nil
}

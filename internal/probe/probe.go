// Package probe holds the filesystem and OS primitives used while looking for
// JDK installations: path normalization, prefix checks, PATH lookup and glob
// expansion. None of the functions in this package return errors for missing
// files; absence is a normal answer.
package probe

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
)

// Normalize returns the canonical form of path for the current platform.
func Normalize(path string) string {
	return normalizeFor(runtime.GOOS, path)
}

func normalizeFor(goos, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	path = filepath.Clean(path)
	if len(path) > 1 {
		trimmed := strings.TrimRight(path, `/\`)
		// keep volume roots such as "C:\" intact
		if trimmed != "" && !strings.HasSuffix(trimmed, ":") {
			path = trimmed
		}
	}
	if caseInsensitive(goos) {
		path = strings.ToLower(path)
	}
	return path
}

// caseInsensitive reports whether the default file system of goos folds case.
func caseInsensitive(goos string) bool {
	return goos == "windows" || goos == "darwin"
}

// Contains reports whether path, once normalized, is basePath itself or one of
// its ancestor directories. Engine-managed runtimes are the ones for which
// Contains(runtimePath, storageRoot) holds.
func Contains(basePath, path string) bool {
	return containsFor(runtime.GOOS, basePath, path)
}

func containsFor(goos, basePath, path string) bool {
	base := normalizeFor(goos, basePath)
	prefix := normalizeFor(goos, path)
	if base == "" || prefix == "" {
		return false
	}
	if base == prefix {
		return true
	}
	if !strings.HasPrefix(base, prefix) {
		return false
	}
	if strings.HasSuffix(prefix, "/") || strings.HasSuffix(prefix, `\`) {
		return true
	}
	next := base[len(prefix)]
	return next == '/' || next == '\\'
}

// Which looks up an executable on PATH and returns its real location, or ""
// when it cannot be found.
func Which(name string) string {
	found, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(found); err == nil {
		found = resolved
	}
	abs, err := filepath.Abs(found)
	if err != nil {
		return found
	}
	return abs
}

// GlobOptions tunes Glob.
type GlobOptions struct {
	// IgnoreSymlinkDirs drops hits reached through a symlinked (or junction)
	// directory below the static part of the pattern.
	IgnoreSymlinkDirs bool
	// Ignore drops hits having any of these path segments (case-insensitive).
	Ignore []string
}

// Glob expands each pattern (forward-slash form, doublestar syntax) and returns
// the de-duplicated, sorted hits in OS path form. Errors are logged and yield
// no hits for the failing pattern.
func Glob(log zerolog.Logger, opts GlobOptions, patterns ...string) []string {
	seen := make(map[string]bool)
	hits := make([]string, 0)

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			log.Info().Str("method", "Glob").Str("pattern", pattern).Err(err).Msg("glob failed")
			continue
		}

		base, _ := doublestar.SplitPattern(pattern)
		for _, m := range matches {
			if ignoredSegment(m, opts.Ignore) {
				continue
			}
			if opts.IgnoreSymlinkDirs && throughSymlink(filepath.FromSlash(base), m) {
				log.Debug().Str("method", "Glob").Str("path", m).Msg("skipping symlinked directory")
				continue
			}
			if seen[m] {
				continue
			}
			seen[m] = true
			hits = append(hits, m)
		}
	}

	sort.Strings(hits)
	return hits
}

func ignoredSegment(path string, ignore []string) bool {
	if len(ignore) == 0 {
		return false
	}
	for _, seg := range strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool { return r == '/' }) {
		for _, ig := range ignore {
			if strings.EqualFold(seg, ig) {
				return true
			}
		}
	}
	return false
}

// Resolve returns the target of path when path itself is a symlink, such as
// Debian's /usr/lib/jvm/default-java or sdkman's current. Other paths are
// returned unchanged, including ones reached through linked parents.
func Resolve(path string) string {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return path
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return target
}

// Key returns the normalized path with every link followed, so that an alias
// and its target compare equal.
func Key(path string) string {
	if target, err := filepath.EvalSymlinks(path); err == nil {
		path = target
	}
	return Normalize(path)
}

// throughSymlink reports whether any directory between base (exclusive) and
// the parent of hit is a symlink or junction.
func throughSymlink(base, hit string) bool {
	base = filepath.Clean(base)
	for dir := filepath.Dir(hit); ; dir = filepath.Dir(dir) {
		if len(dir) <= len(base) || dir == filepath.Dir(dir) {
			return false
		}
		info, err := os.Lstat(dir)
		if err != nil {
			return false
		}
		if info.Mode()&(os.ModeSymlink|os.ModeIrregular) != 0 {
			return true
		}
	}
}

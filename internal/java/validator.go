package java

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/subosito/gotenv"
)

// versionCommandTimeout bounds one "java -version" probe.
const versionCommandTimeout = 5 * time.Second

var (
	versionOutputRe = regexp.MustCompile(`(?:openjdk|java)?\s*version\s+"([^"]+)"`)
	dirNameRes      = []*regexp.Regexp{
		regexp.MustCompile(`jdk-?(\d+(?:\.\d+)*(?:_\d+)?)`),
		regexp.MustCompile(`(?:java|openjdk|temurin|zulu|corretto)-?(\d+(?:\.\d+)*)`),
	}
)

// Validator decides whether a directory is a JDK home and reads its version
type Validator struct {
	goos string
	log  zerolog.Logger
}

// NewValidator creates a validator for the running platform
func NewValidator(log zerolog.Logger) *Validator {
	return NewValidatorWithOS(runtime.GOOS, log)
}

// NewValidatorWithOS creates a validator for a specific platform (for testing)
func NewValidatorWithOS(goos string, log zerolog.Logger) *Validator {
	return &Validator{goos: goos, log: log}
}

// GOOS returns the platform the validator checks layouts for.
func (v *Validator) GOOS() string {
	return v.goos
}

// ExeName returns the platform file name of a JDK executable.
func (v *Validator) ExeName(name string) string {
	if v.goos == "windows" {
		return name + ".exe"
	}
	return name
}

// IsValidHome checks if path is a JDK home, i.e. contains bin/javac
func (v *Validator) IsValidHome(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	javac, err := os.Stat(filepath.Join(path, "bin", v.ExeName("javac")))
	return err == nil && javac.Mode().IsRegular()
}

// Identify validates path and resolves its version. It returns false when the
// path is not a JDK home or the version cannot be determined.
func (v *Validator) Identify(ctx context.Context, path string) (Installation, bool) {
	if !v.IsValidHome(path) {
		return Installation{}, false
	}
	full := v.FullVersion(ctx, path)
	if full == "" {
		v.log.Info().Str("method", "Identify").Str("path", path).Msg("cannot determine java version")
		return Installation{}, false
	}
	major, err := MajorOf(full)
	if err != nil {
		v.log.Info().Str("method", "Identify").Str("path", path).Err(err).Msg("unparsable java version")
		return Installation{}, false
	}
	return Installation{Path: filepath.Clean(path), Major: major, Version: full}, true
}

// FullVersion extracts the vendor version of the JDK at path, or "" if unknown
func (v *Validator) FullVersion(ctx context.Context, path string) string {
	if !v.IsValidHome(path) {
		return ""
	}

	// The release file is present in every JDK since 9 and most 8 builds
	if ver := v.readReleaseFile(path); ver != "" {
		return ver
	}

	if ver := v.runVersionCommand(ctx, path); ver != "" {
		return ver
	}

	// Fallback: extract from directory name
	base := filepath.Base(path)
	if strings.EqualFold(base, "Home") {
		// macOS bundle: <name>.jdk/Contents/Home
		base = filepath.Base(filepath.Dir(filepath.Dir(path)))
	}
	return parseVersionFromDirName(base)
}

func (v *Validator) readReleaseFile(path string) string {
	env, err := gotenv.Read(filepath.Join(path, "release"))
	if err != nil {
		v.log.Debug().Str("method", "readReleaseFile").Str("path", path).Err(err).Msg("no release file")
		return ""
	}
	return strings.TrimSpace(env["JAVA_VERSION"])
}

func (v *Validator) runVersionCommand(ctx context.Context, path string) string {
	ctx, cancel := context.WithTimeout(ctx, versionCommandTimeout)
	defer cancel()

	javaExe := filepath.Join(path, "bin", v.ExeName("java"))
	output, err := exec.CommandContext(ctx, javaExe, "-version").CombinedOutput()
	if err != nil {
		v.log.Info().Str("method", "runVersionCommand").Str("path", javaExe).Err(err).Msg("java -version failed")
		return ""
	}
	return parseVersionOutput(string(output))
}

// parseVersionOutput parses the output of 'java -version'
func parseVersionOutput(output string) string {
	matches := versionOutputRe.FindStringSubmatch(output)
	if len(matches) > 1 {
		return matches[1]
	}
	return ""
}

// parseVersionFromDirName extracts version from directory names like "jdk-17" or "jdk1.8.0_322"
func parseVersionFromDirName(dirName string) string {
	dirName = strings.ToLower(dirName)
	for _, re := range dirNameRes {
		if matches := re.FindStringSubmatch(dirName); len(matches) > 1 {
			return matches[1]
		}
	}
	return ""
}

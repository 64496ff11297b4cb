package settings

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/rs/zerolog"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// javaExtensionPrefix is the directory prefix of the Red Hat Java extension
const javaExtensionPrefix = "redhat.java-"

// SupportedSource returns the runtime names the Java extension recognizes,
// ordered as declared. An empty result means the set is unknown.
type SupportedSource interface {
	Supported(ctx context.Context) []string
}

// StaticSource is a fixed list of supported runtime names.
type StaticSource []string

// Supported returns the list itself
func (s StaticSource) Supported(context.Context) []string {
	return append([]string(nil), s...)
}

// ExtensionSource reads the runtime name enum from the newest installed Java
// extension's package.json and falls back to a fixed list.
type ExtensionSource struct {
	extensionsDir string
	fallback      []string
	log           zerolog.Logger
}

// NewExtensionSource creates a source looking into extensionsDir
func NewExtensionSource(extensionsDir string, fallback []string, log zerolog.Logger) *ExtensionSource {
	return &ExtensionSource{extensionsDir: extensionsDir, fallback: fallback, log: log}
}

// Supported implements SupportedSource
func (s *ExtensionSource) Supported(ctx context.Context) []string {
	for _, dir := range s.extensionDirs() {
		names, err := readRuntimeNames(filepath.Join(dir, "package.json"))
		if err != nil {
			s.log.Info().Str("method", "Supported").Str("path", dir).Err(err).Msg("cannot read java extension metadata")
			continue
		}
		if len(names) > 0 {
			return names
		}
	}
	return append([]string(nil), s.fallback...)
}

// extensionDirs returns installed Java extension directories, newest first
func (s *ExtensionSource) extensionDirs() []string {
	if s.extensionsDir == "" {
		return nil
	}
	entries, err := os.ReadDir(s.extensionsDir)
	if err != nil {
		s.log.Info().Str("method", "extensionDirs").Str("path", s.extensionsDir).Err(err).Msg("cannot list extensions")
		return nil
	}

	type candidate struct {
		dir string
		ver *version.Version
	}
	found := make([]candidate, 0)
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), javaExtensionPrefix) {
			continue
		}
		v, err := version.NewVersion(strings.TrimPrefix(e.Name(), javaExtensionPrefix))
		if err != nil {
			continue
		}
		found = append(found, candidate{dir: filepath.Join(s.extensionsDir, e.Name()), ver: v})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].ver.GreaterThan(found[j].ver)
	})

	dirs := make([]string, len(found))
	for i, c := range found {
		dirs[i] = c.dir
	}
	return dirs
}

func readRuntimeNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pkg map[string]interface{}
	if err := json5.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}

	contributes, _ := pkg["contributes"].(map[string]interface{})

	// "configuration" is either one section or a list of sections
	var sections []interface{}
	switch conf := contributes["configuration"].(type) {
	case []interface{}:
		sections = conf
	case map[string]interface{}:
		sections = []interface{}{conf}
	}

	for _, sec := range sections {
		enum := lookup(sec, "properties", RuntimesKey, "items", "properties", "name", "enum")
		values, ok := enum.([]interface{})
		if !ok || len(values) == 0 {
			continue
		}
		names := make([]string, 0, len(values))
		for _, v := range values {
			if name, ok := v.(string); ok {
				names = append(names, name)
			}
		}
		return names, nil
	}
	return nil, nil
}

// lookup walks nested JSON objects along keys
func lookup(node interface{}, keys ...string) interface{} {
	for _, k := range keys {
		obj, ok := node.(map[string]interface{})
		if !ok {
			return nil
		}
		node = obj[k]
	}
	return node
}

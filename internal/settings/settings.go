// Package settings reads and writes the VS Code user settings that describe
// configured Java runtimes, and reads the runtime names the Java extension
// supports.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/tailscale/hujson"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// RuntimesKey is the settings.json key holding the runtime list.
const RuntimesKey = "java.configuration.runtimes"

// ErrMalformedSettings is returned when settings.json cannot be parsed.
var ErrMalformedSettings = errors.New("malformed settings file")

// Runtime is one entry of java.configuration.runtimes.
type Runtime struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Default bool   `json:"default,omitempty"`
}

// Store gives access to the persisted runtime list.
type Store interface {
	Runtimes() ([]Runtime, error)
	SetRuntimes(runtimes []Runtime) error
}

// SortByName orders runtimes by name in place, keeping diffs stable.
func SortByName(runtimes []Runtime) {
	sort.SliceStable(runtimes, func(i, j int) bool {
		return runtimes[i].Name < runtimes[j].Name
	})
}

// FileStore is a Store backed by a VS Code settings.json file. Comments and
// trailing commas are accepted on read and kept on write.
type FileStore struct {
	path string
	log  zerolog.Logger
}

// NewFileStore creates a store for the settings file at path
func NewFileStore(path string, log zerolog.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

// Path returns the settings file location
func (s *FileStore) Path() string {
	return s.path
}

// Runtimes returns the configured runtimes; empty if the file or key is absent.
// Entries without a name or path are dropped.
func (s *FileStore) Runtimes() ([]Runtime, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	runtimes := make([]Runtime, 0)
	raw, ok := doc[RuntimesKey]
	if !ok {
		return runtimes, nil
	}

	items, ok := raw.([]interface{})
	if !ok {
		s.log.Warn().Str("method", "Runtimes").Str("path", s.path).Msgf("%s is not a list, ignoring", RuntimesKey)
		return runtimes, nil
	}

	for _, item := range items {
		rt, ok := decodeRuntime(item)
		if !ok {
			s.log.Warn().Str("method", "Runtimes").Interface("entry", item).Msg("dropping malformed runtime entry")
			continue
		}
		runtimes = append(runtimes, rt)
	}
	return runtimes, nil
}

func decodeRuntime(item interface{}) (Runtime, bool) {
	fields, ok := item.(map[string]interface{})
	if !ok {
		return Runtime{}, false
	}
	name, _ := fields["name"].(string)
	path, _ := fields["path"].(string)
	if name == "" || path == "" {
		return Runtime{}, false
	}
	def, _ := fields["default"].(bool)
	return Runtime{Name: name, Path: path, Default: def}, true
}

// SetRuntimes replaces the runtime list. Only the runtimes member is
// touched: comments, key order and formatting of the rest of the file stay
// as the user wrote them.
func (s *FileStore) SetRuntimes(runtimes []Runtime) error {
	if runtimes == nil {
		runtimes = []Runtime{}
	}

	raw, err := s.readRaw()
	if err != nil {
		return err
	}
	doc, err := hujson.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedSettings, s.path, err)
	}

	op := "add"
	if doc.Find(runtimesPointer) != nil {
		op = "replace"
	}
	patch, err := encodeJSON([]patchOp{{Op: op, Path: runtimesPointer, Value: runtimes}})
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := doc.Patch(patch); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedSettings, s.path, err)
	}
	data := doc.Pack()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	// Write to a sibling and rename so VS Code never sees a torn file
	tmp := s.path + ".tmp"
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace settings: %w", err)
	}

	s.log.Debug().Str("method", "SetRuntimes").Str("path", s.path).Int("count", len(runtimes)).Msg("settings written")
	return nil
}

// runtimesPointer addresses RuntimesKey in a JSON patch
const runtimesPointer = "/" + RuntimesKey

type patchOp struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

// encodeJSON marshals v without HTML escaping, paths keep their & < >
func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}

// readRaw returns the settings bytes without BOM; a missing or blank file
// reads as an empty object.
func (s *FileStore) readRaw() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []byte("{}"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	// Remove BOM if present
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []byte("{}"), nil
	}
	return data, nil
}

func (s *FileStore) read() (map[string]interface{}, error) {
	data, err := s.readRaw()
	if err != nil {
		return nil, err
	}

	doc := map[string]interface{}{}
	if err := json5.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSettings, s.path, err)
	}
	return doc, nil
}

package settings

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const jsoncSettings = `{
  // editor
  "editor.fontSize": 14,
  /* runtimes */
  "java.configuration.runtimes": [
    {"name": "JavaSE-17", "path": "/opt/jdk-17", "default": true},
    {"name": "JavaSE-21", "path": "/opt/jdk-21"},
    {"name": "", "path": "/opt/broken"},
    "not an object",
  ],
}
`

func TestFileStore_RuntimesReadsJSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(jsoncSettings), 0644))

	got, err := NewFileStore(path, zerolog.Nop()).Runtimes()
	require.NoError(t, err)

	assert.Equal(t, []Runtime{
		{Name: "JavaSE-17", Path: "/opt/jdk-17", Default: true},
		{Name: "JavaSE-21", Path: "/opt/jdk-21"},
	}, got)
}

func TestFileStore_RuntimesMissingFile(t *testing.T) {
	got, err := NewFileStore(filepath.Join(t.TempDir(), "none.json"), zerolog.Nop()).Runtimes()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestFileStore_RuntimesMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": `), 0644))

	_, err := NewFileStore(path, zerolog.Nop()).Runtimes()
	assert.ErrorIs(t, err, ErrMalformedSettings)
}

func TestFileStore_SetRuntimesKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "User", "settings.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(jsoncSettings), 0644))

	store := NewFileStore(path, zerolog.Nop())
	want := []Runtime{{Name: "JavaSE-21", Path: "/opt/jdk-21", Default: true}}
	require.NoError(t, store.SetRuntimes(want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json5.Unmarshal(data, &doc))
	assert.Equal(t, float64(14), doc["editor.fontSize"])
	assert.Contains(t, string(data), "// editor")
	assert.Contains(t, string(data), "/* runtimes */")

	got, err := store.Runtimes()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoFileExists(t, path+".tmp")
}

func TestFileStore_SetRuntimesKeepsUserFormatting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	src := "{ // keep my font\n" +
		"  \"editor.fontSize\": 14,\n" +
		"  \"terminal.integrated.env.linux\": {\"X\": \"a && b <c>\"},\n" +
		"}\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	store := NewFileStore(path, zerolog.Nop())
	require.NoError(t, store.SetRuntimes([]Runtime{{Name: "JavaSE-17", Path: "/x"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "{ // keep my font\n  \"editor.fontSize\": 14,"), text)
	assert.Contains(t, text, `"a && b <c>"`)
	assert.NotContains(t, text, `\u0026`)
	assert.Less(t, strings.Index(text, "editor.fontSize"), strings.Index(text, "terminal.integrated.env.linux"))
	assert.Less(t, strings.Index(text, "terminal.integrated.env.linux"), strings.Index(text, RuntimesKey))

	got, err := store.Runtimes()
	require.NoError(t, err)
	assert.Equal(t, []Runtime{{Name: "JavaSE-17", Path: "/x"}}, got)
}

func TestFileStore_SetRuntimesMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": `), 0644))

	err := NewFileStore(path, zerolog.Nop()).SetRuntimes(nil)
	assert.ErrorIs(t, err, ErrMalformedSettings)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a": `, string(data))
}

func TestFileStore_SetRuntimesCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new", "settings.json")
	store := NewFileStore(path, zerolog.Nop())

	require.NoError(t, store.SetRuntimes(nil))

	got, err := store.Runtimes()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.FileExists(t, path)
}

func TestSortByName(t *testing.T) {
	rts := []Runtime{{Name: "JavaSE-21"}, {Name: "JavaSE-1.8"}, {Name: "JavaSE-17"}}
	SortByName(rts)
	assert.Equal(t, []string{"JavaSE-1.8", "JavaSE-17", "JavaSE-21"},
		[]string{rts[0].Name, rts[1].Name, rts[2].Name})
}

func TestExtensionSource_ReadsNewestExtension(t *testing.T) {
	dir := t.TempDir()
	writeExtension(t, dir, "redhat.java-1.20.0", `{"contributes": {"configuration": {"properties": {
		"java.configuration.runtimes": {"items": {"properties": {"name": {"enum": ["JavaSE-11", "JavaSE-17"]}}}}
	}}}}`)
	writeExtension(t, dir, "redhat.java-1.30.0-linux-x64", `{"contributes": {"configuration": [
		{"title": "General", "properties": {}},
		{"properties": {"java.configuration.runtimes": {"items": {"properties": {"name": {"enum": ["JavaSE-11", "JavaSE-17", "JavaSE-21"]}}}}}}
	]}}`)
	writeExtension(t, dir, "vscjava.vscode-maven-0.44.0", `{}`)

	src := NewExtensionSource(dir, []string{"JavaSE-1.8"}, zerolog.Nop())
	assert.Equal(t, []string{"JavaSE-11", "JavaSE-17", "JavaSE-21"}, src.Supported(context.Background()))
}

func TestExtensionSource_Fallback(t *testing.T) {
	dir := t.TempDir()
	writeExtension(t, dir, "redhat.java-1.30.0", `not json`)

	src := NewExtensionSource(dir, []string{"JavaSE-17"}, zerolog.Nop())
	assert.Equal(t, []string{"JavaSE-17"}, src.Supported(context.Background()))

	empty := NewExtensionSource(filepath.Join(dir, "missing"), nil, zerolog.Nop())
	assert.Empty(t, empty.Supported(context.Background()))
}

func TestDiscovery(t *testing.T) {
	t.Setenv("VSCODE_PORTABLE", "")
	t.Setenv("XDG_CONFIG_HOME", "")

	linux := NewDiscoveryWithOS("/home/me", "linux")
	assert.Equal(t, filepath.Join("/home/me", ".config", "Code", "User", "settings.json"), linux.SettingsPath())
	assert.Equal(t, filepath.Join("/home/me", ".vscode", "extensions"), linux.ExtensionsDir())

	mac := NewDiscoveryWithOS("/Users/me", "darwin")
	assert.Equal(t, filepath.Join("/Users/me", "Library", "Application Support", "Code", "User", "settings.json"), mac.SettingsPath())

	t.Setenv("VSCODE_PORTABLE", "/portable/data")
	assert.Equal(t, filepath.Join("/portable/data", "user-data", "User", "settings.json"), linux.SettingsPath())
}

func writeExtension(t *testing.T, root, name, pkg string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(pkg), 0644))
}

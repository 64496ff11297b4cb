// Package testutil builds fake JDK trees for tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// exe appends the executable suffix of goos.
func exe(goos, name string) string {
	if goos == "windows" {
		return name + ".exe"
	}
	return name
}

// MakeJDK creates a minimal JDK home at home: bin/javac, bin/java and, when
// version is not empty, a release file carrying JAVA_VERSION.
func MakeJDK(t testing.TB, home, version string) string {
	t.Helper()
	return MakeJDKFor(t, runtime.GOOS, home, version)
}

// MakeJDKFor is MakeJDK with the executable layout of goos.
func MakeJDKFor(t testing.TB, goos, home, version string) string {
	t.Helper()

	bin := filepath.Join(home, "bin")
	require.NoError(t, os.MkdirAll(bin, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, exe(goos, "javac")), []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, exe(goos, "java")), []byte("#!/bin/sh\nexit 1\n"), 0755))

	if version != "" {
		release := fmt.Sprintf("IMPLEMENTOR=\"Eclipse Adoptium\"\nJAVA_VERSION=\"%s\"\n", version)
		require.NoError(t, os.WriteFile(filepath.Join(home, "release"), []byte(release), 0644))
	}
	return home
}

// MakeDir creates a plain directory (not a JDK) at path.
func MakeDir(t testing.TB, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0755))
	return path
}

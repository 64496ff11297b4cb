package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypher256/java-extension-pack-sub000/internal/java"
	"github.com/cypher256/java-extension-pack-sub000/internal/scanner"
	"github.com/cypher256/java-extension-pack-sub000/internal/settings"
	"github.com/cypher256/java-extension-pack-sub000/internal/testutil"
)

type memStore struct {
	runtimes []settings.Runtime
	writes   int
}

func (m *memStore) Runtimes() ([]settings.Runtime, error) {
	return cloneRuntimes(m.runtimes), nil
}

func (m *memStore) SetRuntimes(runtimes []settings.Runtime) error {
	m.writes++
	m.runtimes = cloneRuntimes(runtimes)
	return nil
}

type staticScanner struct {
	name   string
	found  []java.Installation
	onScan func()
}

func (s *staticScanner) Name() string { return s.name }

func (s *staticScanner) Scan(context.Context) ([]java.Installation, error) {
	if s.onScan != nil {
		s.onScan()
	}
	return s.found, nil
}

type fakeDownloader struct {
	latest     map[int]string
	latestErr  error
	fetchErr   error
	fetchCalls int
	t          *testing.T
}

func (d *fakeDownloader) Latest(_ context.Context, major int) (string, error) {
	if d.latestErr != nil {
		return "", d.latestErr
	}
	return d.latest[major], nil
}

func (d *fakeDownloader) FetchAndUnpack(_ context.Context, major int, targetDir string) (string, error) {
	d.fetchCalls++
	if d.fetchErr != nil {
		return "", d.fetchErr
	}
	testutil.MakeJDK(d.t, targetDir, d.latest[major])
	return d.latest[major], nil
}

var supportedLTS = settings.StaticSource{"JavaSE-1.8", "JavaSE-11", "JavaSE-17", "JavaSE-21"}

func newEngine(store settings.Store, supported settings.SupportedSource, root string, scanners ...scanner.Scanner) *Engine {
	return New(Deps{
		Store:       store,
		Supported:   supported,
		Scanners:    scanners,
		Validator:   java.NewValidator(zerolog.Nop()),
		StorageRoot: root,
		Logger:      zerolog.Nop(),
	})
}

func found(path string, major int, full string) java.Installation {
	return java.Installation{Path: path, Major: major, Version: full}
}

func TestReconcile_OlderCandidateKeepsUserInstall(t *testing.T) {
	dir := t.TempDir()
	user := testutil.MakeJDK(t, filepath.Join(dir, "user", "jdk-17"), "17.0.1")
	scanned := testutil.MakeJDK(t, filepath.Join(dir, "scan", "jdk-17"), "17.0.0")

	store := &memStore{runtimes: []settings.Runtime{{Name: "JavaSE-17", Path: user, Default: true}}}
	e := newEngine(store, supportedLTS, filepath.Join(dir, "managed"),
		&staticScanner{name: "s", found: []java.Installation{found(scanned, 17, "17.0.0")}})

	res, err := e.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, user, store.runtimes[0].Path)
	assert.False(t, res.Changed)
	assert.Equal(t, 0, store.writes)
}

func TestReconcile_NewerCandidateReplacesUserInstall(t *testing.T) {
	dir := t.TempDir()
	user := testutil.MakeJDK(t, filepath.Join(dir, "user", "jdk-17"), "17.0.1")
	scanned := testutil.MakeJDK(t, filepath.Join(dir, "scan", "jdk-17"), "17.0.9")

	store := &memStore{runtimes: []settings.Runtime{{Name: "JavaSE-17", Path: user, Default: true}}}
	e := newEngine(store, supportedLTS, filepath.Join(dir, "managed"),
		&staticScanner{name: "s", found: []java.Installation{found(scanned, 17, "17.0.9")}})

	res, err := e.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, scanned, store.runtimes[0].Path)
	assert.True(t, store.runtimes[0].Default)
	assert.Equal(t, []string{"JavaSE-17"}, res.Updated)
	assert.True(t, res.Changed)
	assert.True(t, res.DefaultChanged)
	assert.Equal(t, 1, store.writes)
}

func TestReconcile_ManagedEntryAlwaysOverwritten(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "managed")
	managed := testutil.MakeJDK(t, filepath.Join(root, "17"), "17.0.9")
	scanned := testutil.MakeJDK(t, filepath.Join(dir, "scan", "jdk-17"), "17.0.1")

	store := &memStore{runtimes: []settings.Runtime{{Name: "JavaSE-17", Path: managed, Default: true}}}
	e := newEngine(store, supportedLTS, root,
		&staticScanner{name: "s", found: []java.Installation{found(scanned, 17, "17.0.1")}})

	_, err := e.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, scanned, store.runtimes[0].Path)
}

func TestReconcile_SecondRunDoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	jdk17 := testutil.MakeJDK(t, filepath.Join(dir, "jdk-17"), "17.0.9")
	jdk21 := testutil.MakeJDK(t, filepath.Join(dir, "jdk-21"), "21.0.1")
	jdk22 := testutil.MakeJDK(t, filepath.Join(dir, "jdk-22"), "22.0.1")

	store := &memStore{}
	e := newEngine(store, settings.StaticSource(nil), "",
		&staticScanner{name: "s", found: []java.Installation{
			found(jdk22, 22, "22.0.1"), found(jdk21, 21, "21.0.1"), found(jdk17, 17, "17.0.9"),
		}})

	first, err := e.Reconcile(context.Background())
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.Equal(t, "JavaSE-21", first.Default)
	assert.True(t, first.DefaultChanged)
	assert.Equal(t, []settings.Runtime{
		{Name: "JavaSE-17", Path: jdk17},
		{Name: "JavaSE-21", Path: jdk21, Default: true},
		{Name: "JavaSE-22", Path: jdk22},
	}, store.runtimes)
	snapshot := cloneRuntimes(store.runtimes)

	second, err := e.Reconcile(context.Background())
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.False(t, second.DefaultChanged)
	assert.Equal(t, 1, store.writes)
	assert.Equal(t, snapshot, store.runtimes)
}

func TestReconcile_PruneIsWrittenBeforeScan(t *testing.T) {
	dir := t.TempDir()
	jdk11 := testutil.MakeJDK(t, filepath.Join(dir, "jdk-11"), "11.0.21")
	jdk17 := testutil.MakeJDK(t, filepath.Join(dir, "jdk-17"), "17.0.9")

	store := &memStore{runtimes: []settings.Runtime{
		{Name: "JavaSE-11", Path: jdk11},
		{Name: "JavaSE-17", Path: jdk17, Default: true},
	}}
	writesAtScan := -1
	e := newEngine(store, settings.StaticSource{"JavaSE-17", "JavaSE-21"}, "",
		&staticScanner{name: "s", onScan: func() { writesAtScan = store.writes }})

	res, err := e.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, writesAtScan)
	assert.Equal(t, []string{"JavaSE-11"}, res.Removed)
	assert.Equal(t, []settings.Runtime{{Name: "JavaSE-17", Path: jdk17, Default: true}}, store.runtimes)
	assert.Equal(t, 1, store.writes)
	assert.True(t, res.Changed)
}

func TestReconcile_PruneFixesAndRemovesPaths(t *testing.T) {
	dir := t.TempDir()
	jdk17 := testutil.MakeJDK(t, filepath.Join(dir, "jdk-17"), "17.0.9")

	store := &memStore{runtimes: []settings.Runtime{
		{Name: "JavaSE-11", Path: filepath.Join(dir, "gone")},
		{Name: "JavaSE-17", Path: filepath.Join(jdk17, "bin", "java"), Default: true},
	}}
	e := newEngine(store, supportedLTS, "")

	res, err := e.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"JavaSE-11"}, res.Removed)
	assert.Equal(t, []string{"JavaSE-17"}, res.Updated)
	assert.Equal(t, []settings.Runtime{{Name: "JavaSE-17", Path: jdk17, Default: true}}, store.runtimes)
	assert.Equal(t, 1, store.writes)
}

func TestReconcile_DuplicateNameIsReportedRemoved(t *testing.T) {
	dir := t.TempDir()
	first := testutil.MakeJDK(t, filepath.Join(dir, "jdk-17"), "17.0.9")
	second := testutil.MakeJDK(t, filepath.Join(dir, "jdk-17b"), "17.0.8")

	store := &memStore{runtimes: []settings.Runtime{
		{Name: "JavaSE-17", Path: first, Default: true},
		{Name: "JavaSE-17", Path: second},
	}}
	e := newEngine(store, supportedLTS, "")

	res, err := e.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"JavaSE-17"}, res.Removed)
	assert.True(t, res.Changed)
	assert.Equal(t, []settings.Runtime{{Name: "JavaSE-17", Path: first, Default: true}}, store.runtimes)
}

func TestReconcile_EmptySupportedSetDisablesFiltering(t *testing.T) {
	dir := t.TempDir()
	jdk7 := testutil.MakeJDK(t, filepath.Join(dir, "jdk-7"), "1.7.0_80")
	jdk23 := testutil.MakeJDK(t, filepath.Join(dir, "jdk-23"), "23.0.1")

	store := &memStore{runtimes: []settings.Runtime{{Name: "JavaSE-1.7", Path: jdk7, Default: true}}}
	e := newEngine(store, settings.StaticSource(nil), "",
		&staticScanner{name: "s", found: []java.Installation{found(jdk23, 23, "23.0.1")}})

	res, err := e.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Empty(t, res.Removed)
	assert.Equal(t, []string{"JavaSE-23"}, res.Added)
	assert.Len(t, store.runtimes, 2)
}

func TestReconcile_UnsupportedCandidateIgnored(t *testing.T) {
	dir := t.TempDir()
	jdk23 := testutil.MakeJDK(t, filepath.Join(dir, "jdk-23"), "23.0.1")

	store := &memStore{}
	e := newEngine(store, supportedLTS, "",
		&staticScanner{name: "s", found: []java.Installation{found(jdk23, 23, "23.0.1")}})

	res, err := e.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Added)
	assert.Equal(t, 0, store.writes)
}

func TestReconcile_EarlierScannerWinsTies(t *testing.T) {
	dir := t.TempDir()
	first := testutil.MakeJDK(t, filepath.Join(dir, "a", "jdk-21"), "21.0.1")
	second := testutil.MakeJDK(t, filepath.Join(dir, "b", "jdk-21"), "21.0.1")
	newer := testutil.MakeJDK(t, filepath.Join(dir, "c", "jdk-17"), "17.0.9")
	older := testutil.MakeJDK(t, filepath.Join(dir, "d", "jdk-17"), "17.0.1")

	store := &memStore{}
	e := newEngine(store, supportedLTS, "",
		&staticScanner{name: "one", found: []java.Installation{found(first, 21, "21.0.1"), found(older, 17, "17.0.1")}},
		&staticScanner{name: "two", found: []java.Installation{found(second, 21, "21.0.1"), found(newer, 17, "17.0.9")}},
	)

	_, err := e.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []settings.Runtime{
		{Name: "JavaSE-17", Path: newer},
		{Name: "JavaSE-21", Path: first, Default: true},
	}, store.runtimes)
}

func TestReconcile_FoldsInManagedDirectory(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "managed")
	managed := testutil.MakeJDK(t, filepath.Join(root, "21"), "")
	testutil.MakeDir(t, filepath.Join(root, "17"))

	store := &memStore{}
	e := newEngine(store, supportedLTS, root)

	res, err := e.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"JavaSE-21"}, res.Added)
	assert.Equal(t, []settings.Runtime{{Name: "JavaSE-21", Path: managed, Default: true}}, store.runtimes)
}

func TestReconcile_KeepsFirstOfSeveralDefaults(t *testing.T) {
	dir := t.TempDir()
	jdk11 := testutil.MakeJDK(t, filepath.Join(dir, "jdk-11"), "11.0.21")
	jdk17 := testutil.MakeJDK(t, filepath.Join(dir, "jdk-17"), "17.0.9")

	store := &memStore{runtimes: []settings.Runtime{
		{Name: "JavaSE-17", Path: jdk17, Default: true},
		{Name: "JavaSE-11", Path: jdk11, Default: true},
	}}
	e := newEngine(store, supportedLTS, "")

	res, err := e.Reconcile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "JavaSE-11", res.Default)
	assert.Equal(t, []settings.Runtime{
		{Name: "JavaSE-11", Path: jdk11, Default: true},
		{Name: "JavaSE-17", Path: jdk17},
	}, store.runtimes)
}

func TestFillGaps_DownloadFailureLeavesEntryAndMarker(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "managed")
	managed := testutil.MakeJDK(t, filepath.Join(root, "21"), "21.0.1")
	require.NoError(t, os.WriteFile(filepath.Join(managed, MarkerFile), []byte("21.0.1"), 0644))

	before := []settings.Runtime{{Name: "JavaSE-21", Path: managed, Default: true}}
	store := &memStore{runtimes: cloneRuntimes(before)}
	failure := errors.New("connection reset")
	dl := &fakeDownloader{t: t, latest: map[int]string{21: "21.0.2", 17: "17.0.10"}, fetchErr: failure}

	e := newEngine(store, supportedLTS, root)
	e.deps.Downloader = dl

	res, err := e.FillGaps(context.Background(), []int{21, 17})
	require.Error(t, err)
	assert.ErrorIs(t, err, failure)

	assert.Equal(t, 2, dl.fetchCalls)
	assert.Equal(t, before, store.runtimes)
	assert.Equal(t, 0, store.writes)
	assert.False(t, res.Changed)

	marker, err := os.ReadFile(filepath.Join(managed, MarkerFile))
	require.NoError(t, err)
	assert.Equal(t, "21.0.1", string(marker))
	assert.NoFileExists(t, filepath.Join(root, "17", MarkerFile))
}

func TestFillGaps_InstallsMissingVersion(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "managed")

	store := &memStore{}
	dl := &fakeDownloader{t: t, latest: map[int]string{21: "21.0.2"}}
	e := newEngine(store, supportedLTS, root)
	e.deps.Downloader = dl

	res, err := e.FillGaps(context.Background(), []int{21})
	require.NoError(t, err)

	home := filepath.Join(root, "21")
	assert.Equal(t, []string{"JavaSE-21"}, res.Added)
	assert.Equal(t, []settings.Runtime{{Name: "JavaSE-21", Path: home, Default: true}}, store.runtimes)

	marker, err := os.ReadFile(filepath.Join(home, MarkerFile))
	require.NoError(t, err)
	assert.Equal(t, "21.0.2", string(marker))

	// marker matches, nothing to fetch
	_, err = e.FillGaps(context.Background(), []int{21})
	require.NoError(t, err)
	assert.Equal(t, 1, dl.fetchCalls)
	assert.Equal(t, 1, store.writes)
}

func TestFillGaps_SkipsValidUserInstall(t *testing.T) {
	dir := t.TempDir()
	user := testutil.MakeJDK(t, filepath.Join(dir, "jdk-17"), "17.0.1")

	store := &memStore{runtimes: []settings.Runtime{{Name: "JavaSE-17", Path: user, Default: true}}}
	dl := &fakeDownloader{t: t, latestErr: errors.New("must not be called")}
	e := newEngine(store, supportedLTS, filepath.Join(dir, "managed"))
	e.deps.Downloader = dl

	_, err := e.FillGaps(context.Background(), []int{17})
	require.NoError(t, err)
	assert.Equal(t, 0, dl.fetchCalls)
	assert.Equal(t, user, store.runtimes[0].Path)
}

func TestFillGaps_OfflineKeepsInstalledJDK(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "managed")
	managed := testutil.MakeJDK(t, filepath.Join(root, "17"), "17.0.9")

	store := &memStore{}
	dl := &fakeDownloader{t: t, latestErr: errors.New("offline")}
	e := newEngine(store, supportedLTS, root)
	e.deps.Downloader = dl

	res, err := e.FillGaps(context.Background(), []int{17, 21})
	require.Error(t, err)
	assert.Equal(t, []string{"JavaSE-17"}, res.Added)
	assert.Equal(t, []settings.Runtime{{Name: "JavaSE-17", Path: managed, Default: true}}, store.runtimes)
}

func TestFillGaps_SkipsUnsupportedVersion(t *testing.T) {
	root := filepath.Join(t.TempDir(), "managed")

	store := &memStore{}
	dl := &fakeDownloader{t: t, latest: map[int]string{21: "21.0.2", 22: "22.0.1"}}
	e := newEngine(store, supportedLTS, root)
	e.deps.Downloader = dl

	res, err := e.FillGaps(context.Background(), []int{22, 21})
	require.NoError(t, err)

	assert.Equal(t, []string{"JavaSE-22"}, res.Skipped)
	assert.Equal(t, []string{"JavaSE-21"}, res.Added)
	assert.Equal(t, 1, dl.fetchCalls)
	assert.NoDirExists(t, filepath.Join(root, "22"))

	// nothing left for the next pass to prune
	res, err = e.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Removed)
}

func TestFillGaps_RequiresDownloader(t *testing.T) {
	e := newEngine(&memStore{}, supportedLTS, t.TempDir())
	_, err := e.FillGaps(context.Background(), []int{21})
	assert.Error(t, err)
}

func TestRequiredVersions(t *testing.T) {
	e := newEngine(&memStore{}, supportedLTS, "")

	supported := []string{"J2SE-1.5", "JavaSE-1.8", "JavaSE-11", "JavaSE-17", "JavaSE-21", "JavaSE-22", "JavaSE-25"}
	assert.Equal(t, []int{11, 17, 21, 25}, e.RequiredVersions(supported, nil))
	assert.Equal(t, []int{21, 17}, e.RequiredVersions(supported, []int{21, 17, 21, 0}))
	assert.Empty(t, e.RequiredVersions(nil, nil))
}

// Package reconcile merges the JDKs found on disk into the configured runtime
// list and downloads the versions that are missing.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"

	"github.com/cypher256/java-extension-pack-sub000/internal/java"
	"github.com/cypher256/java-extension-pack-sub000/internal/probe"
	"github.com/cypher256/java-extension-pack-sub000/internal/scanner"
	"github.com/cypher256/java-extension-pack-sub000/internal/settings"
)

// MarkerFile records the vendor version unpacked into a managed directory.
// It is written last and is the only proof that a download completed.
const MarkerFile = "version.txt"

// DefaultMaxLTS is used when Deps.MaxLTS is not set
const DefaultMaxLTS = 4

// Downloader fetches JDKs into the managed storage root.
type Downloader interface {
	// Latest returns the full version of the newest release of major.
	Latest(ctx context.Context, major int) (string, error)
	// FetchAndUnpack installs the newest release of major as the JDK home
	// targetDir and returns its full version. On failure targetDir is left
	// as it was.
	FetchAndUnpack(ctx context.Context, major int, targetDir string) (string, error)
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Store       settings.Store
	Supported   settings.SupportedSource
	Scanners    []scanner.Scanner
	Validator   *java.Validator
	Fixer       *java.Fixer // defaults to a Fixer over Validator
	StorageRoot string      // parent of the <major> directories the engine owns
	Downloader  Downloader  // may be nil when downloads are disabled
	MaxLTS      int
	Logger      zerolog.Logger
}

// Result describes what a pass did.
type Result struct {
	Changed        bool // the runtime list was written
	DefaultChanged bool
	Default        string // name of the default runtime, "" if none
	Removed        []string
	Added          []string
	Updated        []string
	Skipped        []string // requested names the Java extension does not support
}

// Engine reconciles the configured runtimes with the installed JDKs. One
// pass runs at a time.
type Engine struct {
	mu   sync.Mutex
	deps Deps
	log  zerolog.Logger
}

// New creates an Engine
func New(deps Deps) *Engine {
	if deps.Fixer == nil {
		deps.Fixer = java.NewFixer(deps.Validator)
	}
	if deps.MaxLTS <= 0 {
		deps.MaxLTS = DefaultMaxLTS
	}
	if deps.Supported == nil {
		deps.Supported = settings.StaticSource(nil)
	}
	return &Engine{deps: deps, log: deps.Logger}
}

// StorageRoot returns the directory holding engine-managed JDKs
func (e *Engine) StorageRoot() string {
	return e.deps.StorageRoot
}

// ManagedDir returns the managed JDK home of major
func (e *Engine) ManagedDir(major int) string {
	return filepath.Join(e.deps.StorageRoot, strconv.Itoa(major))
}

// IsManaged reports whether path lies in the storage root
func (e *Engine) IsManaged(path string) bool {
	return e.deps.StorageRoot != "" && probe.Contains(path, e.deps.StorageRoot)
}

// Reconcile prunes stale entries, scans for JDKs and merges the best one per
// major version into the runtime list. The list is written only when it
// changed.
func (e *Engine) Reconcile(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := e.log.With().Str("method", "Reconcile").Logger()
	res := &Result{}

	persisted, err := e.deps.Store.Runtimes()
	if err != nil {
		return nil, err
	}
	supported := newNameSet(e.deps.Supported.Supported(ctx))
	prevDefault := defaultOf(persisted)

	// Invalid entries make the IDE show an error on load, so prune is saved
	// right away instead of waiting for the scan.
	runtimes, pruned := e.prune(persisted, supported, res)
	if pruned {
		if err := e.deps.Store.SetRuntimes(runtimes); err != nil {
			return nil, err
		}
		res.Changed = true
		log.Info().Strs("removed", res.Removed).Msg("pruned runtimes written")
		persisted = cloneRuntimes(runtimes)
	}

	found := scanner.Run(ctx, e.deps.Scanners, e.log)
	winners := e.selectBest(found, supported)
	e.foldIn(winners, supported)

	majors := make([]int, 0, len(winners))
	for major := range winners {
		majors = append(majors, major)
	}
	sort.Ints(majors)
	for _, major := range majors {
		runtimes = e.merge(ctx, runtimes, winners[major], res)
	}

	if err := e.emit(persisted, runtimes, prevDefault, res); err != nil {
		return nil, err
	}
	return res, nil
}

// prune drops unsupported and unresolvable entries and fixes imprecise paths.
func (e *Engine) prune(persisted []settings.Runtime, supported nameSet, res *Result) ([]settings.Runtime, bool) {
	changed := false
	seen := make(map[string]bool)
	runtimes := make([]settings.Runtime, 0, len(persisted))

	for _, rt := range persisted {
		if seen[rt.Name] {
			e.log.Info().Str("method", "prune").Str("name", rt.Name).Msg("removing duplicate runtime")
			res.Removed = appendOnce(res.Removed, rt.Name)
			changed = true
			continue
		}
		if !supported.allows(rt.Name) {
			e.log.Info().Str("method", "prune").Str("name", rt.Name).Msg("removing unsupported runtime")
			res.Removed = append(res.Removed, rt.Name)
			changed = true
			continue
		}
		fixed := e.deps.Fixer.FixPath(rt.Path, "")
		if fixed == "" {
			e.log.Info().Str("method", "prune").Str("name", rt.Name).Str("path", rt.Path).Msg("removing invalid runtime")
			res.Removed = append(res.Removed, rt.Name)
			changed = true
			continue
		}
		if fixed != rt.Path {
			e.log.Info().Str("method", "prune").Str("name", rt.Name).Str("from", rt.Path).Str("to", fixed).Msg("fixing runtime path")
			rt.Path = fixed
			res.Updated = append(res.Updated, rt.Name)
			changed = true
		}
		seen[rt.Name] = true
		runtimes = append(runtimes, rt)
	}
	return runtimes, changed
}

// selectBest keeps the newest installation per major. found is in scanner
// priority order, so an equal or unparsable version keeps the earlier one.
func (e *Engine) selectBest(found []java.Installation, supported nameSet) map[int]java.Installation {
	winners := make(map[int]java.Installation)
	for _, inst := range found {
		if !supported.allows(java.NameOf(inst.Major)) {
			continue
		}
		held, ok := winners[inst.Major]
		if !ok || java.IsNewer(e.log, inst.Version, held.Version) {
			winners[inst.Major] = inst
		}
	}
	return winners
}

// foldIn adds previously downloaded JDKs for majors no scanner reported.
func (e *Engine) foldIn(winners map[int]java.Installation, supported nameSet) {
	if e.deps.StorageRoot == "" {
		return
	}
	for _, major := range e.managedMajors(supported) {
		if _, ok := winners[major]; ok {
			continue
		}
		dir := e.ManagedDir(major)
		if e.deps.Validator.IsValidHome(dir) {
			winners[major] = java.Installation{Path: dir, Major: major, Source: "managed"}
		}
	}
}

// managedMajors lists the majors worth probing under the storage root: the
// supported ones, or every numeric directory when support is unknown.
func (e *Engine) managedMajors(supported nameSet) []int {
	if !supported.empty() {
		return supported.majors()
	}
	entries, err := os.ReadDir(e.deps.StorageRoot)
	if err != nil {
		return nil
	}
	majors := make([]int, 0, len(entries))
	for _, entry := range entries {
		if major, err := strconv.Atoi(entry.Name()); err == nil && entry.IsDir() {
			majors = append(majors, major)
		}
	}
	return majors
}

// merge applies a winning installation to the runtime list.
func (e *Engine) merge(ctx context.Context, runtimes []settings.Runtime, winner java.Installation, res *Result) []settings.Runtime {
	name := java.NameOf(winner.Major)
	log := e.log.With().Str("method", "merge").Str("name", name).Logger()

	i := indexOf(runtimes, name)
	if i < 0 {
		log.Info().Str("path", winner.Path).Msg("adding runtime")
		res.Added = append(res.Added, name)
		return append(runtimes, settings.Runtime{Name: name, Path: winner.Path})
	}

	existing := runtimes[i]
	if probe.Normalize(existing.Path) == probe.Normalize(winner.Path) {
		return runtimes
	}

	if !e.IsManaged(existing.Path) {
		current := e.deps.Validator.FullVersion(ctx, existing.Path)
		if !java.IsNewer(log, winner.Version, current) {
			log.Debug().Str("path", existing.Path).Str("candidate", winner.Path).Msg("keeping user runtime")
			return runtimes
		}
	}

	log.Info().Str("from", existing.Path).Str("to", winner.Path).Msg("updating runtime")
	runtimes[i].Path = winner.Path
	res.Updated = appendOnce(res.Updated, name)
	return runtimes
}

// emit finalizes the list and writes it when it differs from persisted.
func (e *Engine) emit(persisted, runtimes []settings.Runtime, prevDefault settings.Runtime, res *Result) error {
	settings.SortByName(runtimes)
	selectDefault(runtimes)

	def := defaultOf(runtimes)
	res.Default = def.Name
	res.DefaultChanged = def != prevDefault

	if cmp.Equal(persisted, runtimes, cmpopts.EquateEmpty()) {
		e.log.Debug().Str("method", "emit").Msg("runtimes unchanged")
		return nil
	}
	if err := e.deps.Store.SetRuntimes(runtimes); err != nil {
		return err
	}
	res.Changed = true
	e.log.Info().Str("method", "emit").Int("count", len(runtimes)).Msg("runtimes written")
	return nil
}

// FillGaps makes sure the newest release of each major is installed. A major
// already served by a valid user JDK is left alone. Failures are collected
// per major and leave that major's entry and marker as they were.
func (e *Engine) FillGaps(ctx context.Context, majors []int) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deps.Downloader == nil {
		return nil, errors.New("downloads are not configured")
	}
	if e.deps.StorageRoot == "" {
		return nil, errors.New("storage root is not configured")
	}

	res := &Result{}
	persisted, err := e.deps.Store.Runtimes()
	if err != nil {
		return nil, err
	}
	prevDefault := defaultOf(persisted)
	runtimes := cloneRuntimes(persisted)
	supported := newNameSet(e.deps.Supported.Supported(ctx))

	var errs []error
	for _, major := range majors {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		// The next Reconcile would prune an unsupported entry again
		if name := java.NameOf(major); !supported.allows(name) {
			e.log.Warn().Str("method", "FillGaps").Str("name", name).Msg("not supported by the Java extension, skipping")
			res.Skipped = appendOnce(res.Skipped, name)
			continue
		}
		var err error
		runtimes, err = e.fillOne(ctx, runtimes, major, res)
		if err != nil {
			e.log.Warn().Str("method", "FillGaps").Int("major", major).Err(err).Msg("cannot install jdk")
			errs = append(errs, err)
		}
	}

	if err := e.emit(persisted, runtimes, prevDefault, res); err != nil {
		return nil, err
	}
	return res, errors.Join(errs...)
}

func (e *Engine) fillOne(ctx context.Context, runtimes []settings.Runtime, major int, res *Result) ([]settings.Runtime, error) {
	name := java.NameOf(major)
	log := e.log.With().Str("method", "fillOne").Str("name", name).Logger()

	if i := indexOf(runtimes, name); i >= 0 {
		if p := runtimes[i].Path; !e.IsManaged(p) && e.deps.Validator.IsValidHome(p) {
			log.Debug().Str("path", p).Msg("user jdk present, skipping download")
			return runtimes, nil
		}
	}

	dir := e.ManagedDir(major)
	latest, err := e.deps.Downloader.Latest(ctx, major)
	if err != nil {
		if e.deps.Validator.IsValidHome(dir) {
			log.Info().Err(err).Msg("cannot check latest version, keeping installed jdk")
			return e.ensure(runtimes, name, dir, res), nil
		}
		return runtimes, err
	}

	if marker := readMarker(dir); marker != "" && marker == latest && e.deps.Validator.IsValidHome(dir) {
		log.Debug().Str("version", latest).Msg("jdk is up to date")
		return e.ensure(runtimes, name, dir, res), nil
	}

	log.Info().Str("version", latest).Str("path", dir).Msg("downloading jdk")
	full, err := e.deps.Downloader.FetchAndUnpack(ctx, major, dir)
	if err != nil {
		return runtimes, err
	}
	if !e.deps.Validator.IsValidHome(dir) {
		return runtimes, fmt.Errorf("%s: unpacked directory is not a JDK home: %s", name, dir)
	}
	if full == "" {
		full = latest
	}
	if err := writeMarker(dir, full); err != nil {
		return runtimes, fmt.Errorf("%s: failed to write version marker: %w", name, err)
	}
	return e.ensure(runtimes, name, dir, res), nil
}

// ensure points the entry name at the managed directory dir.
func (e *Engine) ensure(runtimes []settings.Runtime, name, dir string, res *Result) []settings.Runtime {
	i := indexOf(runtimes, name)
	if i < 0 {
		res.Added = append(res.Added, name)
		return append(runtimes, settings.Runtime{Name: name, Path: dir})
	}
	if runtimes[i].Path != dir {
		runtimes[i].Path = dir
		res.Updated = appendOnce(res.Updated, name)
	}
	return runtimes
}

// RequiredVersions returns the majors to keep installed: configured when
// given, else the newest LTS majors among the supported names.
func (e *Engine) RequiredVersions(supported []string, configured []int) []int {
	if len(configured) > 0 {
		seen := make(map[int]bool)
		majors := make([]int, 0, len(configured))
		for _, major := range configured {
			if major > 0 && !seen[major] {
				seen[major] = true
				majors = append(majors, major)
			}
		}
		return majors
	}

	lts := make([]int, 0)
	for _, major := range newNameSet(supported).majors() {
		if java.IsLTS(major) {
			lts = append(lts, major)
		}
	}
	if len(lts) > e.deps.MaxLTS {
		lts = lts[len(lts)-e.deps.MaxLTS:]
	}
	return lts
}

// selectDefault leaves exactly one default when the list is not empty,
// preferring an existing one, then the newest LTS, then the newest major.
func selectDefault(runtimes []settings.Runtime) {
	found := false
	for i := range runtimes {
		if runtimes[i].Default {
			if found {
				runtimes[i].Default = false
			}
			found = true
		}
	}
	if found {
		return
	}

	best, bestMajor, bestLTS := -1, -1, false
	for i, rt := range runtimes {
		major, err := java.VersionOf(rt.Name)
		if err != nil {
			continue
		}
		lts := java.IsLTS(major)
		if (lts && !bestLTS) || (lts == bestLTS && major > bestMajor) {
			best, bestMajor, bestLTS = i, major, lts
		}
	}
	if best >= 0 {
		runtimes[best].Default = true
	}
}

func defaultOf(runtimes []settings.Runtime) settings.Runtime {
	for _, rt := range runtimes {
		if rt.Default {
			return rt
		}
	}
	return settings.Runtime{}
}

func indexOf(runtimes []settings.Runtime, name string) int {
	for i, rt := range runtimes {
		if rt.Name == name {
			return i
		}
	}
	return -1
}

func cloneRuntimes(runtimes []settings.Runtime) []settings.Runtime {
	return append(make([]settings.Runtime, 0, len(runtimes)), runtimes...)
}

func appendOnce(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}

func readMarker(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, MarkerFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func writeMarker(dir, full string) error {
	return os.WriteFile(filepath.Join(dir, MarkerFile), []byte(full), 0644)
}

// nameSet is the supported runtime names. An empty set allows everything.
type nameSet map[string]bool

func newNameSet(names []string) nameSet {
	set := make(nameSet, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func (s nameSet) empty() bool {
	return len(s) == 0
}

func (s nameSet) allows(name string) bool {
	return s.empty() || s[name]
}

// majors returns the parsable majors in ascending order
func (s nameSet) majors() []int {
	majors := make([]int, 0, len(s))
	for name := range s {
		if major, err := java.VersionOf(name); err == nil {
			majors = append(majors, major)
		}
	}
	sort.Ints(majors)
	return majors
}

// Package scanner enumerates JDK installations from the places they are
// commonly installed and runs the scanners concurrently.
package scanner

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cypher256/java-extension-pack-sub000/internal/java"
	"github.com/cypher256/java-extension-pack-sub000/internal/probe"
)

// Scanner reports JDK installations found in one kind of location.
type Scanner interface {
	Name() string
	Scan(ctx context.Context) ([]java.Installation, error)
}

// Run executes all scanners concurrently and waits for every one of them.
// A failing or panicking scanner contributes nothing. Results keep the order
// of scanners, and a home reported twice keeps its first occurrence. A
// symlinked home is reported as its target.
func Run(ctx context.Context, scanners []Scanner, log zerolog.Logger) []java.Installation {
	results := make([][]java.Installation, len(scanners))

	var g errgroup.Group
	for i, s := range scanners {
		g.Go(func() error {
			results[i] = safeScan(ctx, s, log)
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool)
	all := make([]java.Installation, 0)
	for i, found := range results {
		for _, inst := range found {
			inst.Path = probe.Resolve(inst.Path)
			key := probe.Key(inst.Path)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			if inst.Source == "" {
				inst.Source = scanners[i].Name()
			}
			all = append(all, inst)
		}
	}
	return all
}

func safeScan(ctx context.Context, s Scanner, log zerolog.Logger) (found []java.Installation) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("method", "Run").Str("scanner", s.Name()).Err(fmt.Errorf("panic: %v", r)).Msg("scanner crashed")
			found = nil
		}
	}()

	found, err := s.Scan(ctx)
	if err != nil {
		log.Warn().Str("method", "Run").Str("scanner", s.Name()).Err(err).Msg("scanner failed")
		return nil
	}
	log.Debug().Str("method", "Run").Str("scanner", s.Name()).Int("count", len(found)).Msg("scanner finished")
	return found
}

// identifyAll resolves candidate homes in parallel. The output follows the
// input order; invalid homes are dropped.
func identifyAll(ctx context.Context, v *java.Validator, source string, homes []string) []java.Installation {
	slots := make([]*java.Installation, len(homes))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, home := range homes {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if inst, ok := v.Identify(ctx, home); ok {
				inst.Source = source
				slots[i] = &inst
			}
			return nil
		})
	}
	_ = g.Wait()

	found := make([]java.Installation, 0, len(homes))
	for _, inst := range slots {
		if inst != nil {
			found = append(found, *inst)
		}
	}
	return found
}

// fixAll maps each candidate to its JDK home, dropping unfixable ones and
// duplicates while keeping order.
func fixAll(f *java.Fixer, candidates []string) []string {
	seen := make(map[string]bool)
	homes := make([]string, 0, len(candidates))
	for _, c := range candidates {
		home := f.FixPath(c, "")
		if home == "" {
			continue
		}
		home = probe.Resolve(home)
		key := probe.Key(home)
		if seen[key] {
			continue
		}
		seen[key] = true
		homes = append(homes, home)
	}
	return homes
}

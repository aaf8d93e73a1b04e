// Package relctx assembles the relevant-context package injected into every
// narration prompt.
//
// The package consists of the NPCs, quests and locations most relevant to a
// described game situation, fetched with one retrieval query per entity kind.
// The three queries run concurrently. Use [Format] to convert a [Package]
// into a context block ready for prompt injection.
package relctx

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/lorekeep/pkg/game"
)

// DefaultLimit is the per-kind result count used when none is configured.
const DefaultLimit = 5

// Searcher is the retrieval surface the assembler needs.
// *search.Engine satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, kind game.Kind, limit int) ([]game.Record, error)
}

// Package is the assembled relevant context for one game situation.
// Within each category, records keep the order the retrieval engine
// returned them in.
type Package struct {
	// NPCs relevant to the situation.
	NPCs []*game.NPC

	// Quests relevant to the situation.
	Quests []*game.Quest

	// Locations relevant to the situation.
	Locations []*game.Location

	// AssemblyDuration records how long [Assembler.Relevant] took.
	AssemblyDuration time.Duration
}

// Empty reports whether the package contains no records at all.
func (p *Package) Empty() bool {
	return len(p.NPCs) == 0 && len(p.Quests) == 0 && len(p.Locations) == 0
}

// Assembler fetches the per-kind relevant entities for a situation.
type Assembler struct {
	searcher Searcher
	limit    int
}

// Option is a functional option for [NewAssembler].
type Option func(*Assembler)

// WithLimit sets the per-kind result count. Defaults to 5.
func WithLimit(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.limit = n
		}
	}
}

// NewAssembler creates an [Assembler] over the given retrieval engine.
func NewAssembler(searcher Searcher, opts ...Option) *Assembler {
	a := &Assembler{
		searcher: searcher,
		limit:    DefaultLimit,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Relevant runs one retrieval query per entity kind for the given situation
// and returns the merged package. The three queries run in parallel via
// errgroup; if any of them fails, assembly is aborted and that error is
// returned.
func (a *Assembler) Relevant(ctx context.Context, situation string) (*Package, error) {
	start := time.Now()

	pkg := &Package{
		NPCs:      []*game.NPC{},
		Quests:    []*game.Quest{},
		Locations: []*game.Location{},
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		recs, err := a.searcher.Search(egCtx, situation, game.KindNPC, a.limit)
		if err != nil {
			return fmt.Errorf("relevant context: npc search: %w", err)
		}
		for _, rec := range recs {
			if n, ok := rec.(*game.NPC); ok {
				pkg.NPCs = append(pkg.NPCs, n)
			}
		}
		return nil
	})

	eg.Go(func() error {
		recs, err := a.searcher.Search(egCtx, situation, game.KindQuest, a.limit)
		if err != nil {
			return fmt.Errorf("relevant context: quest search: %w", err)
		}
		for _, rec := range recs {
			if q, ok := rec.(*game.Quest); ok {
				pkg.Quests = append(pkg.Quests, q)
			}
		}
		return nil
	})

	eg.Go(func() error {
		recs, err := a.searcher.Search(egCtx, situation, game.KindLocation, a.limit)
		if err != nil {
			return fmt.Errorf("relevant context: location search: %w", err)
		}
		for _, rec := range recs {
			if l, ok := rec.(*game.Location); ok {
				pkg.Locations = append(pkg.Locations, l)
			}
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	pkg.AssemblyDuration = time.Since(start)
	return pkg, nil
}

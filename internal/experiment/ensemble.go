package experiment

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/fabricsim/internal/metrics"
)

// Ensemble runs one configuration under several force laws at once, each
// on its own scene and kernel.
type Ensemble struct {
	reg  *Registry
	base Config
	log  logr.Logger
}

func NewEnsemble(reg *Registry, base Config, log logr.Logger) *Ensemble {
	return &Ensemble{reg: reg, base: base, log: log}
}

// RunLaws returns one result per law, in the order given. The first
// failing run cancels the others.
func (en *Ensemble) RunLaws(ctx context.Context, laws []string) ([]*Result, error) {
	results := make([]*Result, len(laws))
	g, ctx := errgroup.WithContext(ctx)
	for i, law := range laws {
		g.Go(func() error {
			cfg := en.base
			cfg.Law = law

			exp := New(cfg, en.log.WithValues("law", law))
			if err := exp.Setup(en.reg, metrics.Defaults()...); err != nil {
				return fmt.Errorf("law %s: %w", law, err)
			}
			defer exp.Close()

			res, err := exp.Run(ctx)
			if err != nil {
				return fmt.Errorf("law %s: %w", law, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

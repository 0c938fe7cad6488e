package ssafront

import (
	"cmp"
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/ssa"

	"github.com/sirkon/tapegraph/internal/cfg"
)

// LowerPackage lowers every package level function of a built package.
//
// A function that cannot be lowered does not stop the others: its error is
// collected and the function is left out of the result. Errors come in the
// name order of their functions.
func LowerPackage(ctx context.Context, pkg *ssa.Package) (map[string]*cfg.Function, []error) {
	var fns []*ssa.Function
	for _, m := range pkg.Members {
		fn, ok := m.(*ssa.Function)
		if !ok || fn.Synthetic != "" {
			continue
		}
		fns = append(fns, fn)
	}
	slices.SortFunc(fns, func(a, b *ssa.Function) int {
		return cmp.Compare(a.Name(), b.Name())
	})

	lowered := make([]*cfg.Function, len(fns))
	failures := make([]error, len(fns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, fn := range fns {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lowered[i], failures[i] = LowerFunction(fn)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, []error{err}
	}

	res := map[string]*cfg.Function{}
	var errs []error
	for i, fn := range lowered {
		if failures[i] != nil {
			errs = append(errs, failures[i])
			continue
		}
		res[fn.Name] = fn
	}

	return res, errs
}

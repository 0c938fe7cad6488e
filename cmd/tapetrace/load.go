package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"go/token"
	"log/slog"
	"maps"
	"slices"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/sirkon/tapegraph/internal/cfg"
	"github.com/sirkon/tapegraph/internal/config"
	"github.com/sirkon/tapegraph/internal/interp"
	"github.com/sirkon/tapegraph/internal/interp/builtins"
	"github.com/sirkon/tapegraph/internal/report"
	"github.com/sirkon/tapegraph/internal/ssafront"
	"github.com/sirkon/tapegraph/internal/tracer"
)

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports |
	packages.NeedDeps

// program is a lowered package.
type program struct {
	fset   *token.FileSet
	funcs  map[string]*cfg.Function
	engine *report.ReportEngine
}

func load(ctx context.Context, pattern string, log *slog.Logger) (*program, error) {
	pkgs, err := packages.Load(&packages.Config{Context: ctx, Mode: loadMode}, pattern)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", pattern, err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, fmt.Errorf("package %s has errors", pattern)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("pattern %s matches %d packages, want exactly one", pattern, len(pkgs))
	}

	prog, ssapkgs := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
	prog.Build()
	if ssapkgs[0] == nil {
		return nil, fmt.Errorf("package %s has no SSA form", pattern)
	}

	funcs, errs := ssafront.LowerPackage(ctx, ssapkgs[0])
	res := &program{
		fset:   pkgs[0].Fset,
		funcs:  funcs,
		engine: &report.ReportEngine{},
	}
	for _, err := range errs {
		var uerr *ssafront.UnsupportedError
		if !errors.As(err, &uerr) {
			return nil, fmt.Errorf("lower %s: %w", pattern, err)
		}
		res.engine.Phase(report.ReportLower).Report(uerr.Function, uerr.Pos, err)
	}

	log.Info(
		"package lowered",
		slog.String("package", pkgs[0].PkgPath),
		slog.Int("functions", len(funcs)),
		slog.Int("unsupported", len(errs)),
	)
	return res, nil
}

// sorted returns the functions in name order.
func (p *program) sorted() []*cfg.Function {
	return slices.SortedFunc(maps.Values(p.funcs), func(a, b *cfg.Function) int {
		return cmp.Compare(a.Name, b.Name)
	})
}

// newTracer returns a tracer over a machine that knows every lowered function.
func (p *program) newTracer(c *config.Config, log *slog.Logger) *tracer.Tracer {
	m := interp.New(
		interp.WithMaxSteps(c.Interp.MaxSteps),
		interp.WithLogger(log),
	)
	m.DefineNatives(builtins.New(nil))
	for name, fn := range p.funcs {
		m.Define(name, fn)
	}

	return tracer.New(
		m,
		tracer.WithMaxDepth(c.Trace.MaxDepth),
		tracer.WithPrimitives(c.Trace.Primitives...),
		tracer.WithLogger(log),
	)
}

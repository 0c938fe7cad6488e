package main

import (
	"errors"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
	"golang.org/x/tools/go/analysis/singlechecker"
	"golang.org/x/tools/go/ssa"

	"github.com/sirkon/tapegraph/internal/report"
	"github.com/sirkon/tapegraph/internal/ssafront"
	"github.com/sirkon/tapegraph/internal/transform"
)

const doc = `tapevet reports package level functions that cannot be traced by tapegraph`

// Analyzer is the main entry point for the checker.
var Analyzer = &analysis.Analyzer{
	Name:     "tapevet",
	Doc:      doc,
	Requires: []*analysis.Analyzer{buildssa.Analyzer},
	Run:      run,
}

func main() {
	singlechecker.Main(Analyzer)
}

func run(pass *analysis.Pass) (any, error) {
	info := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)

	var engine report.ReportEngine
	for _, fn := range info.SrcFuncs {
		if fn.Parent() != nil || fn.Signature.Recv() != nil {
			continue
		}
		checkFunction(fn, &engine)
	}

	for _, rep := range engine.Reports() {
		pass.Reportf(rep.Pos, "%s: %s", rep.RuleCode, rep.Message)
	}
	return nil, nil
}

// checkFunction lowers fn and instruments the result, every failure is
// reported under its phase.
func checkFunction(fn *ssa.Function, engine *report.ReportEngine) {
	lowered, err := ssafront.LowerFunction(fn)
	if err != nil {
		pos := fn.Pos()
		var uerr *ssafront.UnsupportedError
		if errors.As(err, &uerr) && uerr.Pos.IsValid() {
			pos = uerr.Pos
		}
		engine.Phase(report.ReportLower).Report(fn.String(), pos, err)
		return
	}

	if _, err := transform.Transform(lowered); err != nil {
		engine.Phase(report.ReportInstrument).Report(fn.String(), fn.Pos(), err)
	}
}

// Package report collects the findings of tapevet.
package report

import (
	"fmt"
	"go/token"
	"io"
	"sync"

	"github.com/sirkon/tapegraph/internal/tvrules"
)

// ReportEngine collects the reasons functions cannot be traced.
type ReportEngine struct {
	mu      sync.Mutex
	reports []Report
}

// Report represents a single diagnostic entry.
type Report struct {
	Phase    ReportPhase
	RuleCode tvrules.Rule
	Function string
	Pos      token.Pos
	Message  string
}

// ReportPhase marks the stage where a report was generated.
type ReportPhase int

const (
	_                ReportPhase = iota
	ReportLower                  // SSA to control-flow graph lowering
	ReportInstrument             // control-flow graph instrumentation
)

func (p ReportPhase) String() string {
	switch p {
	case ReportLower:
		return "lower"
	case ReportInstrument:
		return "instrument"
	default:
		return fmt.Sprintf("unknown-phase(%d)", p)
	}
}

// ReporterPhase binds a ReportEngine to a fixed phase.
type ReporterPhase struct {
	parent *ReportEngine
	phase  ReportPhase
}

// Phase returns a reporter that sets the given phase for all reports
// produced through it.
func (r *ReportEngine) Phase(p ReportPhase) *ReporterPhase {
	return &ReporterPhase{parent: r, phase: p}
}

// Report adds a new record to the engine.
func (r *ReportEngine) Report(rep Report) {
	r.mu.Lock()
	r.reports = append(r.reports, rep)
	r.mu.Unlock()
}

// Report records a failure of the function under the bound phase. An error
// of unknown origin is still recorded, with its text as the message.
func (rp *ReporterPhase) Report(function string, pos token.Pos, err error) {
	rule := tvrules.Of(err)
	message := err.Error()
	if message == "" {
		message = rule.Description()
	}
	rp.parent.Report(Report{
		Phase:    rp.phase,
		RuleCode: rule,
		Function: function,
		Pos:      pos,
		Message:  message,
	})
}

// Reports returns a snapshot of all collected records.
func (r *ReportEngine) Reports() []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Report, len(r.reports))
	copy(out, r.reports)
	return out
}

// PrintSummary prints all collected reports in a compact, human-readable form.
func (r *ReportEngine) PrintSummary(w io.Writer, fset *token.FileSet) error {
	for _, rep := range r.Reports() {
		pos := fset.Position(rep.Pos)
		_, err := fmt.Fprintf(w, "[%s] %s - %s (%s:%d)\n",
			rep.Phase,
			rep.RuleCode,
			rep.Message,
			pos.Filename,
			pos.Line,
		)
		if err != nil {
			return fmt.Errorf("print report: %w", err)
		}
	}
	return nil
}

package report

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirkon/tapegraph/internal/ssafront"
	"github.com/sirkon/tapegraph/internal/transform"
	"github.com/sirkon/tapegraph/internal/tvrules"
)

func TestReportEngine_ReportPhases(t *testing.T) {
	tests := []struct {
		name  string
		phase ReportPhase
		err   error
		rule  tvrules.Rule
	}{
		{
			name:  "lower unsupported",
			phase: ReportLower,
			err:   &ssafront.UnsupportedError{Function: "p.F", What: "closure"},
			rule:  tvrules.Unsupported(),
		},
		{
			name:  "instrument entry",
			phase: ReportInstrument,
			err:   fmt.Errorf("F: %w", transform.ErrEntryIsJumpTarget),
			rule:  tvrules.EntryIsJumpTarget(),
		},
		{
			name:  "foreign error",
			phase: ReportLower,
			err:   errors.New("boom"),
			rule:  tvrules.Of(errors.New("boom")),
		},
	}

	var r ReportEngine
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.Phase(tt.phase).Report("p.F", token.Pos(i+1), tt.err)
		})
	}

	reps := r.Reports()
	require.Len(t, reps, len(tests))
	for i, rep := range reps {
		want := tests[i]
		assert.Equal(t, want.phase, rep.Phase, want.name)
		assert.Equal(t, want.rule, rep.RuleCode, want.name)
		assert.Equal(t, want.err.Error(), rep.Message, want.name)
		assert.Equal(t, token.Pos(i+1), rep.Pos, want.name)
		assert.Equal(t, "p.F", rep.Function, want.name)
	}
}

func TestReportEngine_ConcurrencySafety(t *testing.T) {
	const n = 500
	var (
		r  ReportEngine
		wg sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Report(Report{
				Phase:    ReportLower,
				RuleCode: tvrules.Unsupported(),
				Pos:      token.Pos(i),
				Message:  "parallel add",
			})
		}(i)
	}
	wg.Wait()

	reps := r.Reports()
	require.Len(t, reps, n)
	reps[0].Message = "changed"
	assert.NotEqual(t, "changed", r.Reports()[0].Message, "Reports() returned shared slice")
}

func TestPrintSummary(t *testing.T) {
	fset := token.NewFileSet()
	f := fset.AddFile("sample.go", -1, 100)
	f.SetLines([]int{0, 10, 20})

	var r ReportEngine
	r.Phase(ReportLower).Report("p.F", f.Pos(15), &ssafront.UnsupportedError{Function: "p.F", What: "closure"})

	var buf bytes.Buffer
	require.NoError(t, r.PrintSummary(&buf, fset))
	assert.Equal(t, "[lower] TGV000: Unsupported - p.F: unsupported construct: closure (sample.go:2)\n", buf.String())
}

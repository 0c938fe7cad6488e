package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sirkon/tapegraph/internal/cfg"
	"github.com/sirkon/tapegraph/internal/config"
	"github.com/sirkon/tapegraph/internal/interp"
	"github.com/sirkon/tapegraph/internal/interp/builtins"
	"github.com/sirkon/tapegraph/internal/query"
	"github.com/sirkon/tapegraph/internal/tape"
	"github.com/sirkon/tapegraph/internal/tracer"
)

func TestParseArg(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{in: "42", want: int64(42)},
		{in: "-7", want: int64(-7)},
		{in: "0x10", want: int64(16)},
		{in: "2.5", want: 2.5},
		{in: "true", want: true},
		{in: `"42"`, want: "42"},
		{in: "hello", want: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseArg(tt.in))
		})
	}
}

func TestTextFlag(t *testing.T) {
	a := query.Preceding
	f := textFlag(&a, "axis")
	require.NoError(t, f.Set("descendant"))
	assert.Equal(t, query.Descendant, a)
	assert.Equal(t, "descendant", f.String())
	assert.Equal(t, "axis", f.Type())
	require.Error(t, f.Set("sideways"))

	level := config.LevelInfo
	require.NoError(t, textFlag(&level, "level").Set("debug"))
	assert.Equal(t, config.LevelDebug, level)
}

func traced(t *testing.T) *tape.Tape {
	t.Helper()

	m := interp.New()
	m.DefineNatives(builtins.New(nil))
	fn := &cfg.Function{
		Name: "double",
		Blocks: []*cfg.Block{{
			Args: []cfg.VarID{1, 2},
			Stmts: []cfg.Stmt{{
				Var:  3,
				Expr: &cfg.Call{Callee: cfg.Global{Name: "+"}, Args: []cfg.Operand{cfg.Var{ID: 2}, cfg.Var{ID: 2}}},
			}},
			Branches: []cfg.Branch{cfg.Return(cfg.Var{ID: 3})},
		}},
	}

	_, tp, err := tracer.New(m).Trace(context.Background(), fn, int64(4))
	require.NoError(t, err)
	return tp
}

func TestDumpYAML(t *testing.T) {
	tp := traced(t)

	var buf bytes.Buffer
	require.NoError(t, dumpYAML(&buf, tp))

	var got dumpNode
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, tape.NodeID(1), got.ID)
	assert.Equal(t, tape.KindNestedCall, got.Kind)
	assert.Equal(t, "8", got.Result)
	require.Len(t, got.Children, 4)
	assert.Equal(t, tape.KindPrimitiveCall, got.Children[2].Kind)
	assert.Equal(t, "#1:%3", got.Children[2].Location)
	assert.Equal(t, "[5] #1:br1 return @#1:%3", got.Children[3].Node)
	assert.Contains(t, buf.String(), "kind: argument")
}

func TestDumpText(t *testing.T) {
	tp := traced(t)

	var buf bytes.Buffer
	require.NoError(t, dumpText(&buf, tp))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "[1] - = nested func double(4)", lines[0])
	assert.Equal(t, "  [5] #1:br1 return @#1:%3", lines[4])
}

func TestRelatedNodes(t *testing.T) {
	tp := traced(t)
	ret := tp.Node(5)

	got, err := relatedNodes(tp, ret, "", query.Preceding)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = relatedNodes(tp, ret, "backward", query.PrecedingParent)
	require.NoError(t, err)
	assert.Equal(t, []tape.Node{tp.Node(4), tp.Node(3)}, got)

	got, err = relatedNodes(tp, tp.Node(3), "forward", query.Preceding)
	require.NoError(t, err)
	assert.Equal(t, []tape.Node{tp.Node(4), tp.Node(5)}, got)

	_, err = relatedNodes(tp, ret, "sideways", query.Preceding)
	require.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"run", "../../testdata/src/sample", "Sum", "4", "--format", "text"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "value: 6\n"), text)
	assert.Contains(t, text, "nested func Sum(4)")
}

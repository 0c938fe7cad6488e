package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sirkon/tapegraph/internal/config"
	"github.com/sirkon/tapegraph/internal/logging"
	"github.com/sirkon/tapegraph/internal/query"
	"github.com/sirkon/tapegraph/internal/tape"
)

var (
	configPath string
	logLevel   = config.LevelInfo
	logFormat  = config.FormatText

	dumpFormat string
	nodeID     uint32
	axis       = query.Preceding
	slice      string

	conf   *config.Config
	logger *slog.Logger
)

var (
	rootCmd = &cobra.Command{
		Use:           "tapetrace",
		Short:         "Trace executions of Go functions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c := config.Default()
			if configPath != "" {
				var err error
				if c, err = config.Load(configPath); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("log-level") {
				c.Log.Level = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				c.Log.Format = logFormat
			}

			conf = c
			logger = logging.New(c.Log, os.Stderr)
			return nil
		},
	}

	lowerCmd = &cobra.Command{
		Use:   "lower <package>",
		Short: "Print the control-flow graphs of the package functions",
		Args:  cobra.ExactArgs(1),
		RunE:  runLower,
	}

	runCmd = &cobra.Command{
		Use:   "run <package> <function> [args...]",
		Short: "Run a function with recording enabled and print its trace",
		Long: `Run lowers every function of the package, calls the named one with
the given arguments and prints the value and the trace. Arguments are
integers, floats, true/false, or strings (quoted or not).`,
		Args: cobra.MinimumNArgs(2),
		RunE: runTrace,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration")
	rootCmd.PersistentFlags().Var(textFlag(&logLevel, "level"), "log-level", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Var(textFlag(&logFormat, "format"), "log-format", "log format: text or json")

	runCmd.Flags().StringVar(&dumpFormat, "format", "yaml", "trace output: yaml or text")
	runCmd.Flags().Uint32Var(&nodeID, "node", 0, "print the nodes related to this node instead of the trace")
	runCmd.Flags().Var(textFlag(&axis, "axis"), "axis", "axis of --node: parent, child, following, preceding, ancestor, descendant or preceding-parent")
	runCmd.Flags().StringVar(&slice, "slice", "", "with --node print the backward or forward dependency slice instead of the axis")

	rootCmd.AddCommand(lowerCmd, runCmd)
}

func runLower(cmd *cobra.Command, args []string) error {
	prog, err := load(cmd.Context(), args[0], logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, fn := range prog.sorted() {
		fmt.Fprintln(out, fn.String())
	}
	return prog.engine.PrintSummary(cmd.ErrOrStderr(), prog.fset)
}

func runTrace(cmd *cobra.Command, args []string) error {
	prog, err := load(cmd.Context(), args[0], logger)
	if err != nil {
		return err
	}

	fn, ok := prog.funcs[args[1]]
	if !ok {
		if err := prog.engine.PrintSummary(cmd.ErrOrStderr(), prog.fset); err != nil {
			return err
		}
		return fmt.Errorf("function %s is not among the lowered functions of %s", args[1], args[0])
	}

	values := make([]any, len(args)-2)
	for i, a := range args[2:] {
		values[i] = parseArg(a)
	}

	value, tp, err := prog.newTracer(conf, logger).Trace(cmd.Context(), fn, values...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if nodeID != 0 {
		n := tp.Node(tape.NodeID(nodeID))
		if n == nil {
			return fmt.Errorf("trace has no node %d", nodeID)
		}
		related, err := relatedNodes(tp, n, slice, axis)
		if err != nil {
			return err
		}
		for _, r := range related {
			fmt.Fprintln(out, r)
		}
		return nil
	}

	fmt.Fprintf(out, "value: %v\n", value)
	switch dumpFormat {
	case "yaml":
		return dumpYAML(out, tp)
	case "text":
		return dumpText(out, tp)
	default:
		return fmt.Errorf("unknown trace format %q", dumpFormat)
	}
}

func relatedNodes(tp *tape.Tape, n tape.Node, slice string, axis query.Axis) ([]tape.Node, error) {
	switch slice {
	case "":
		return query.Query(tp, n, axis), nil
	case "backward":
		return query.Backward(tp, n, query.WithAxis(axis)), nil
	case "forward":
		return query.Forward(tp, n), nil
	default:
		return nil, fmt.Errorf("unknown slice %q, want backward or forward", slice)
	}
}

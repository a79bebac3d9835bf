package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/copyleftdev/annealhive/internal/logging"
	"github.com/copyleftdev/annealhive/internal/optimization"
	"github.com/copyleftdev/annealhive/internal/store"
)

var (
	logLevel  string
	logFormat string
	logger    = zap.NewNop()

	objectiveName string
	seed          int64
	tracePath     string
	jsonOutput    bool
)

var rootCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Minimize two-dimensional test functions",
	Long: `optimize runs simulated annealing or an artificial bee colony against
the built-in objective catalog and reports the best point found.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.NewLogger(&logging.Config{
			Level:  logLevel,
			Format: logFormat,
			Output: "stderr",
		})
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console, json)")
}

// addRunFlags registers the flags shared by the run commands.
func addRunFlags(f *pflag.FlagSet) {
	f.StringVar(&objectiveName, "objective", "sphere", "Objective function name (see 'optimize objectives')")
	f.Int64Var(&seed, "seed", 0, "Random seed (0 picks a time-based seed)")
	f.BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
}

func addTraceFlag(f *pflag.FlagSet) {
	f.StringVar(&tracePath, "trace", "", "Write the best-value trace as JSON lines to this file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type resultView struct {
	Algorithm            string    `json:"algorithm"`
	Objective            string    `json:"objective"`
	Best                 []float64 `json:"best"`
	Value                float64   `json:"value"`
	Iterations           int       `json:"iterations"`
	Evaluations          int       `json:"evaluations"`
	ElapsedSeconds       float64   `json:"elapsed_seconds"`
	StopReason           string    `json:"stop_reason"`
	Converged            bool      `json:"converged"`
	FinalTemperature     float64   `json:"final_temperature,omitempty"`
	Accepted             int       `json:"accepted,omitempty"`
	Abandoned            int       `json:"abandoned,omitempty"`
	DegenerateSelections int       `json:"degenerate_selections,omitempty"`
}

// report prints res and writes the trace file when requested.
func report(w io.Writer, objective string, res *optimization.Result) error {
	if tracePath != "" {
		if err := writeTrace(tracePath, res.Trace); err != nil {
			return err
		}
		logger.Info("Trace written", zap.String("path", tracePath), zap.Int("entries", res.Trace.Len()))
	}

	view := resultView{
		Algorithm:            res.Algorithm,
		Objective:            objective,
		Best:                 res.Best.Position(),
		Value:                res.Best.Value,
		Iterations:           res.Iterations,
		Evaluations:          res.Evaluations,
		ElapsedSeconds:       res.Elapsed.Seconds(),
		StopReason:           string(res.StopReason),
		Converged:            res.Converged,
		FinalTemperature:     res.FinalTemperature,
		Accepted:             res.Accepted,
		Abandoned:            res.Abandoned,
		DegenerateSelections: res.DegenerateSelections,
	}
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	fmt.Fprintf(w, "algorithm:   %s\n", view.Algorithm)
	fmt.Fprintf(w, "objective:   %s\n", view.Objective)
	fmt.Fprintf(w, "best point:  %v\n", view.Best)
	fmt.Fprintf(w, "best value:  %.9g\n", view.Value)
	fmt.Fprintf(w, "iterations:  %d (%d evaluations)\n", view.Iterations, view.Evaluations)
	fmt.Fprintf(w, "stopped by:  %s after %s\n", view.StopReason, res.Elapsed)
	return nil
}

func writeTrace(path string, trace optimization.Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	tw := store.NewTraceWriter(f)
	if err := tw.WriteTrace(trace); err != nil {
		_ = f.Close()
		return err
	}
	if err := tw.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

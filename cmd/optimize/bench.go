package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/annealhive/internal/bench"
	"github.com/copyleftdev/annealhive/internal/objective"
)

var benchFlags struct {
	algorithm     string
	runs          int
	workers       int
	tolerance     float64
	maxIterations int
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Replicate runs and summarize the final best values",
	Long: `Runs independent replicas of one optimizer in parallel, replica i seeded
with --seed+i+1, and prints summary statistics of their final best values.`,
	RunE: runBench,
}

func init() {
	f := benchCmd.Flags()
	f.StringVar(&benchFlags.algorithm, "algorithm", "annealing", "Optimizer: annealing or colony")
	f.IntVar(&benchFlags.runs, "runs", 30, "Number of replicas")
	f.IntVar(&benchFlags.workers, "workers", runtime.NumCPU(), "Replicas running at once")
	f.Float64Var(&benchFlags.tolerance, "tolerance", 1e-2, "Distance to the known minimum that counts as a success")

	f.IntVar(&benchFlags.maxIterations, "max-iterations", 0, "Iteration budget per replica (0 keeps the algorithm default)")
	addAnnealFlags(f)
	addColonyFlags(f)
	addRunFlags(f)

	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	fn, err := objective.Lookup(objectiveName)
	if err != nil {
		return err
	}

	var run bench.RunFunc
	switch benchFlags.algorithm {
	case "annealing":
		cfg := annealingConfig(fn.Bounds)
		cfg.Verbose = false
		if benchFlags.maxIterations > 0 {
			cfg.MaxIterations = benchFlags.maxIterations
		}
		switch annealFlags.mode {
		case "iteration", "time":
		default:
			return fmt.Errorf("unknown mode %q, expected iteration or time", annealFlags.mode)
		}
		run = bench.Annealing(cfg, fn.Objective(), annealFlags.mode == "time")
	case "colony":
		cfg, err := colonyConfig(fn.Bounds)
		if err != nil {
			return err
		}
		cfg.Verbose = false
		cfg.ProgressInterval = 0
		if benchFlags.maxIterations > 0 {
			cfg.MaxIterations = benchFlags.maxIterations
		}
		run = bench.Colony(cfg, fn.Objective())
	default:
		return fmt.Errorf("unknown algorithm %q, expected annealing or colony", benchFlags.algorithm)
	}

	logger.Info("Starting benchmark",
		zap.String("algorithm", benchFlags.algorithm),
		zap.String("objective", fn.Name),
		zap.Int("runs", benchFlags.runs),
		zap.Int("workers", benchFlags.workers),
	)
	sum, err := bench.Replicate(cmd.Context(), benchFlags.runs, benchFlags.workers, seed, run)
	if err != nil {
		return err
	}
	success := sum.SuccessRate(fn.Minimum, benchFlags.tolerance)

	w := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"algorithm":       benchFlags.algorithm,
			"objective":       fn.Name,
			"runs":            sum.Runs,
			"mean":            sum.Mean,
			"std_dev":         sum.StdDev,
			"median":          sum.Median,
			"min":             sum.Min,
			"max":             sum.Max,
			"mean_iterations": sum.MeanIterations,
			"best":            sum.Best.Position(),
			"success_rate":    success,
			"values":          sum.Values,
		})
	}

	fmt.Fprintf(w, "%s on %s, %d runs\n", benchFlags.algorithm, fn.Name, sum.Runs)
	fmt.Fprintf(w, "mean:         %.9g (std %.3g)\n", sum.Mean, sum.StdDev)
	fmt.Fprintf(w, "median:       %.9g\n", sum.Median)
	fmt.Fprintf(w, "range:        [%.9g, %.9g]\n", sum.Min, sum.Max)
	fmt.Fprintf(w, "iterations:   %.1f mean\n", sum.MeanIterations)
	fmt.Fprintf(w, "best point:   %v\n", sum.Best.Position())
	fmt.Fprintf(w, "success rate: %.1f%% within %g of %.9g\n", 100*success, benchFlags.tolerance, fn.Minimum)
	return nil
}

package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/copyleftdev/annealhive/internal/objective"
	"github.com/copyleftdev/annealhive/internal/optimization"
	"github.com/copyleftdev/annealhive/internal/optimization/colony"
)

var colonyFlags struct {
	population    int
	abandonment   int
	threshold     float64
	stagnation    int
	maxIterations int
	weighting     string
	progressEvery int
	verbose       bool
}

var colonyCmd = &cobra.Command{
	Use:   "colony",
	Short: "Run an artificial bee colony",
	Long: `Runs an artificial bee colony until the best value changes by less than
--threshold for --stagnation consecutive iterations, or until --max-iterations.`,
	RunE: runColony,
}

func init() {
	f := colonyCmd.Flags()
	addColonyFlags(f)
	f.IntVar(&colonyFlags.maxIterations, "max-iterations", 100000, "Iteration cap")
	f.IntVar(&colonyFlags.progressEvery, "progress-every", 100, "Iterations between progress logs (0 disables)")
	f.BoolVar(&colonyFlags.verbose, "verbose", false, "Log progress and the summary at info level")
	addRunFlags(f)
	addTraceFlag(f)

	rootCmd.AddCommand(colonyCmd)
}

// addColonyFlags registers the colony tuning flags shared with bench.
func addColonyFlags(f *pflag.FlagSet) {
	f.IntVar(&colonyFlags.population, "population", 100, "Colony size; half are agents holding a food source")
	f.IntVar(&colonyFlags.abandonment, "abandonment-limit", 100, "Failed trials before a source is abandoned")
	f.Float64Var(&colonyFlags.threshold, "threshold", 1e-2, "Convergence threshold on the per-iteration best change")
	f.IntVar(&colonyFlags.stagnation, "stagnation", 10, "Consecutive stagnant iterations that count as converged")
	f.StringVar(&colonyFlags.weighting, "weighting", "fitness", "Recruitment weighting: fitness, rank or inverse")
}

func colonyConfig(bounds [][2]float64) (colony.Config, error) {
	w, err := colony.ParseWeighting(strings.ToLower(colonyFlags.weighting))
	if err != nil {
		return colony.Config{}, err
	}
	cfg := colony.DefaultConfig(bounds...)
	cfg.PopulationSize = colonyFlags.population
	cfg.AbandonmentLimit = colonyFlags.abandonment
	cfg.ConvergenceThreshold = colonyFlags.threshold
	cfg.StagnationRounds = colonyFlags.stagnation
	cfg.MaxIterations = colonyFlags.maxIterations
	cfg.Weighting = w
	cfg.ProgressInterval = colonyFlags.progressEvery
	cfg.RandomSeed = seed
	cfg.Verbose = colonyFlags.verbose
	cfg.Logger = logger
	return cfg, nil
}

func runColony(cmd *cobra.Command, args []string) error {
	fn, err := objective.Lookup(objectiveName)
	if err != nil {
		return err
	}
	cfg, err := colonyConfig(fn.Bounds)
	if err != nil {
		return err
	}
	cfg.Progress = func(p optimization.Progress) {
		logger.Debug("Colony progress", zap.Int("iteration", p.Iteration), zap.Float64("best", p.Best))
	}

	c, err := colony.New(cfg)
	if err != nil {
		return err
	}
	logger.Info("Starting colony",
		zap.String("objective", fn.Name),
		zap.Int("agents", c.Agents()),
		zap.Stringer("weighting", cfg.Weighting),
	)

	res, err := c.Run(cmd.Context(), fn.Objective())
	if err != nil {
		return err
	}
	return report(cmd.OutOrStdout(), fn.Name, res)
}

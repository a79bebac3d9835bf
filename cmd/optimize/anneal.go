package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/copyleftdev/annealhive/internal/objective"
	"github.com/copyleftdev/annealhive/internal/optimization"
	"github.com/copyleftdev/annealhive/internal/optimization/annealing"
)

var annealFlags struct {
	mode          string
	initialTemp   float64
	finalTemp     float64
	maxIterations int
	maxTime       time.Duration
	verbose       bool
}

var annealCmd = &cobra.Command{
	Use:   "anneal",
	Short: "Run simulated annealing",
	Long: `Runs simulated annealing with an exponential cooling schedule. In
iteration mode the run stops when the temperature reaches --final-temp; in
time mode it stops after --max-time of wall-clock time.`,
	RunE: runAnneal,
}

func init() {
	f := annealCmd.Flags()
	addAnnealFlags(f)
	f.IntVar(&annealFlags.maxIterations, "max-iterations", 1000, "Iterations to cool from initial to final temperature")
	f.BoolVar(&annealFlags.verbose, "verbose", false, "Log a summary when the run finishes")
	addRunFlags(f)
	addTraceFlag(f)

	rootCmd.AddCommand(annealCmd)
}

// addAnnealFlags registers the annealing tuning flags shared with bench.
func addAnnealFlags(f *pflag.FlagSet) {
	f.StringVar(&annealFlags.mode, "mode", "iteration", "Termination mode: iteration or time")
	f.Float64Var(&annealFlags.initialTemp, "initial-temp", 1, "Initial temperature")
	f.Float64Var(&annealFlags.finalTemp, "final-temp", 0.1, "Final temperature")
	f.DurationVar(&annealFlags.maxTime, "max-time", 100*time.Second, "Wall-clock budget in time mode")
}

func annealingConfig(bounds [][2]float64) annealing.Config {
	cfg := annealing.DefaultConfig(bounds...)
	cfg.InitialTemp = annealFlags.initialTemp
	cfg.FinalTemp = annealFlags.finalTemp
	cfg.MaxIterations = annealFlags.maxIterations
	cfg.MaxTime = annealFlags.maxTime
	cfg.RandomSeed = seed
	cfg.Verbose = annealFlags.verbose
	cfg.Logger = logger
	return cfg
}

func runAnneal(cmd *cobra.Command, args []string) error {
	fn, err := objective.Lookup(objectiveName)
	if err != nil {
		return err
	}

	a, err := annealing.New(annealingConfig(fn.Bounds))
	if err != nil {
		return err
	}
	logger.Info("Starting annealing",
		zap.String("objective", fn.Name),
		zap.String("mode", annealFlags.mode),
		zap.Int("steps", a.Schedule().Steps),
	)

	var res *optimization.Result
	switch annealFlags.mode {
	case "iteration":
		res, err = a.RunByIteration(cmd.Context(), fn.Objective())
	case "time":
		res, err = a.RunByTime(cmd.Context(), fn.Objective())
	default:
		return fmt.Errorf("unknown mode %q, expected iteration or time", annealFlags.mode)
	}
	if err != nil {
		return err
	}
	return report(cmd.OutOrStdout(), fn.Name, res)
}

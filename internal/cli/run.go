package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/trajectly/trajectly/internal/counterexample"
	"github.com/trajectly/trajectly/internal/orchestrator"
)

var (
	runTimeout       time.Duration
	runAttempts      uint
	runDisableShrink bool
	runShrinkSeconds float64
	runShrinkIters   int
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "agent subprocess timeout (default: the spec's budget.run_timeout, or 2m)")
	runCmd.Flags().UintVar(&runAttempts, "attempts", 1, "number of attempts before giving up with a TOOLING error")
	runCmd.Flags().BoolVar(&runDisableShrink, "no-shrink", false, "skip counterexample shrinking on FAIL")
	runCmd.Flags().Float64Var(&runShrinkSeconds, "shrink-seconds", 0, "shrinker time budget in seconds (default: the spec's budget.shrink_max_seconds, or 5)")
	runCmd.Flags().IntVar(&runShrinkIters, "shrink-iterations", 0, "shrinker iteration budget (default: the spec's budget.shrink_max_iterations, or 200)")
}

var runCmd = &cobra.Command{
	Use:   "run <spec.yaml>",
	Short: "Replay the agent against its baseline and evaluate refinement",
	Long:  "Runs the spec's command against its recorded baseline with the fixture store in read mode and the replay guard active, then reports PASS, FAIL, or TOOLING via exit code.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	spec, err := loadSpec(args[0])
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	o, err := orchestrator.New(stateDir, logger, nil)
	if err != nil {
		return fmt.Errorf("cli: build orchestrator: %w", err)
	}

	opts := orchestrator.RunOptions{
		Timeout:       resolveTimeout(runTimeout, spec.Budget.RunTimeout),
		Attempts:      runAttempts,
		DisableShrink: runDisableShrink,
		ShrinkBudget: counterexample.Budget{
			MaxSeconds:    resolveShrinkSeconds(runShrinkSeconds, spec.Budget.ShrinkMaxSeconds),
			MaxIterations: resolveShrinkIterations(runShrinkIters, spec.Budget.ShrinkMaxIterations),
		},
	}
	result, err := o.Run(cmd.Context(), spec, opts)
	if err != nil {
		return fmt.Errorf("cli: run %s: %w", spec.Name, err)
	}

	if result.Report != nil {
		fmt.Print(result.Report.Markdown())
	}
	os.Exit(result.ExitCode)
	return nil
}

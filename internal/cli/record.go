package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trajectly/trajectly/internal/orchestrator"
)

var (
	recordAllowCIWrite bool
	recordTimeout      time.Duration
	recordAttempts     uint
)

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().BoolVar(&recordAllowCIWrite, "allow-ci-write", false, "override the CI baseline-write guard")
	recordCmd.Flags().DurationVar(&recordTimeout, "timeout", 0, "agent subprocess timeout (default: the spec's budget.run_timeout, or 2m)")
	recordCmd.Flags().UintVar(&recordAttempts, "attempts", 1, "number of attempts before giving up with a TOOLING error")
}

var recordCmd = &cobra.Command{
	Use:   "record <spec.yaml>",
	Short: "Record the agent's trajectory as the trusted baseline",
	Long:  "Runs the spec's command with no replay guard and the fixture store in write mode, then persists the resulting trace and fixture bundle as the spec's baseline.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecord,
}

func runRecord(cmd *cobra.Command, args []string) error {
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

	opts := orchestrator.RecordOptions{
		AllowCIWrite: recordAllowCIWrite,
		Timeout:      resolveTimeout(recordTimeout, spec.Budget.RunTimeout),
		Attempts:     recordAttempts,
	}
	if err := o.Record(cmd.Context(), spec, opts); err != nil {
		return err
	}
	fmt.Printf("recorded baseline for %s\n", spec.Name)
	return nil
}

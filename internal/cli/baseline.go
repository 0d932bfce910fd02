package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trajectly/trajectly/internal/store"
)

func init() {
	rootCmd.AddCommand(baselineCmd)
	baselineCmd.AddCommand(baselineListCmd)
	baselineCmd.AddCommand(baselineShowCmd)
}

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Inspect recorded baselines",
}

var baselineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every spec with a recorded baseline",
	Args:  cobra.NoArgs,
	RunE:  runBaselineList,
}

var baselineShowCmd = &cobra.Command{
	Use:   "show <spec-name>",
	Short: "Print the recorded baseline trace for a spec",
	Args:  cobra.ExactArgs(1),
	RunE:  runBaselineShow,
}

func openBaselines() (*store.BaselineStore, error) {
	layout, err := store.NewLayout(stateDir)
	if err != nil {
		return nil, fmt.Errorf("cli: build layout: %w", err)
	}
	return store.NewBaselineStore(layout), nil
}

func runBaselineList(cmd *cobra.Command, args []string) error {
	baselines, err := openBaselines()
	if err != nil {
		return err
	}
	names, err := baselines.List()
	if err != nil {
		return fmt.Errorf("cli: list baselines: %w", err)
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runBaselineShow(cmd *cobra.Command, args []string) error {
	baselines, err := openBaselines()
	if err != nil {
		return err
	}
	b, err := baselines.Resolve(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("spec: %s\n", b.SpecName)
	fmt.Printf("normalizer_version: %s\n", b.NormalizerVersion)
	fmt.Printf("fixture_path: %s\n", b.FixturePath)
	fmt.Printf("events: %d\n", len(b.Trace))
	for i, ev := range b.Trace {
		fmt.Printf("  [%d] %s\n", i, ev.EventType)
	}
	return nil
}

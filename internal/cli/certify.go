package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trajectly/trajectly/internal/certify"
)

var certifyJSON bool

func init() {
	rootCmd.AddCommand(certifyCmd)
	certifyCmd.Flags().BoolVar(&certifyJSON, "json", false, "print the report as JSON instead of text")
}

var certifyCmd = &cobra.Command{
	Use:   "certify",
	Short: "Run the built-in scenario suite against this build of the engine",
	Long:  "Exercises the refinement, contract, and verdict pipeline against a fixed set of scripted trajectories plus a determinism check, independent of any user spec. A non-zero exit means this build's engine logic itself is suspect, not that an agent under test regressed.",
	Args:  cobra.NoArgs,
	RunE:  runCertify,
}

func runCertify(cmd *cobra.Command, args []string) error {
	report, err := certify.Run()
	if err != nil {
		return fmt.Errorf("cli: certify: %w", err)
	}

	if certifyJSON {
		out, err := certify.FormatJSON(report)
		if err != nil {
			return fmt.Errorf("cli: format certify report: %w", err)
		}
		fmt.Println(out)
	} else {
		fmt.Print(certify.FormatText(report))
	}

	if !report.Passed() {
		os.Exit(1)
	}
	return nil
}

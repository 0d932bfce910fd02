package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/trajectly/trajectly/internal/audit"
)

var (
	auditReplayTraceID  string
	auditReplaySpecName string
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditReplayCmd)
	auditReplayCmd.Flags().StringVar(&auditReplayTraceID, "trace-id", "", "filter entries to a single trace id")
	auditReplayCmd.Flags().StringVar(&auditReplaySpecName, "spec", "", "filter entries to a single spec name")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the hash-chained audit trail",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the audit log's hash chain is intact",
	Args:  cobra.NoArgs,
	RunE:  runAuditVerify,
}

var auditReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Print audit entries and a rollup summary",
	Args:  cobra.NoArgs,
	RunE:  runAuditReplay,
}

func auditLogPath() string {
	return filepath.Join(stateDir, "audit.jsonl")
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	result := audit.Verify(auditLogPath())
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("cli: encode verify result: %w", err)
	}
	if !result.Valid {
		os.Exit(1)
	}
	return nil
}

func runAuditReplay(cmd *cobra.Command, args []string) error {
	filter := audit.ReplayFilter{
		TraceID:  auditReplayTraceID,
		SpecName: auditReplaySpecName,
	}
	result, err := audit.Replay(auditLogPath(), filter)
	if err != nil {
		return fmt.Errorf("cli: replay audit log: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

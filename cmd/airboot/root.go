package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// CheckOrchestratorCLI verifies that the orchestrator binary is available
// in PATH. Returns an error with installation hints if not found.
func CheckOrchestratorCLI(bin string) error {
	_, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("%s CLI not found in PATH\n\n"+
			"airboot provisions environments through the orchestrator's own\n"+
			"command-line interface, so the %q binary must be installed and\n"+
			"reachable before provisioning.\n\n"+
			"If the binary has a different name, set it with:\n"+
			"  airboot config orchestrator.bin <name>\n"+
			"or: export AIRBOOT_ORCHESTRATOR_BIN=<name>", bin, bin)
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "airboot",
	Short: "Workflow-orchestrator environment provisioner",
	Long: `airboot provisions local runtime environments for an Airflow-style
workflow orchestrator.

A provisioning run, in strict order:
- destructively resets the environment home directory
- initializes the orchestrator's metadata store
- renders the orchestrator config file from a template
- seeds the manifest's variables and connections

Runs are recorded in a local ledger; use 'airboot status' to inspect
past runs. Re-running provision is always safe: every run starts from
a clean slate.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

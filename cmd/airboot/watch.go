package main

import (
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Provision, then re-provision on template or manifest changes",
	Long: `Provision the environment, then keep watching the config template and
provisioning manifest. Each change triggers a full re-provision; the
destructive reset makes repeated runs safe.

Equivalent to 'airboot provision --watch'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provisionWatch = true
		return runProvision(cmd, args)
	},
}

func init() {
	watchCmd.Flags().StringVar(&provisionTemplate, "template", "", "Config template path (overrides config)")
	watchCmd.Flags().StringVar(&provisionManifest, "manifest", "", "Provisioning manifest path (overrides config)")
	watchCmd.Flags().BoolVar(&provisionSkipBinCheck, "skip-bin-check", false, "Skip the orchestrator binary availability check")
}

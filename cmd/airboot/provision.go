package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turel-data/airboot/internal/config"
	"github.com/turel-data/airboot/internal/exec"
	"github.com/turel-data/airboot/internal/manifest"
	"github.com/turel-data/airboot/internal/metastore"
	"github.com/turel-data/airboot/internal/provision"
	"github.com/turel-data/airboot/internal/state"
	"github.com/turel-data/airboot/internal/watch"
)

var (
	provisionTemplate     string
	provisionManifest     string
	provisionDryRun       bool
	provisionSkipBinCheck bool
	provisionWatch        bool
)

var provisionCmd = &cobra.Command{
	Use:   "provision [dir]",
	Short: "Provision an orchestrator environment",
	Long: `Provision an orchestrator environment from scratch.

The environment home defaults to a directory named after
provision.home_dir_name next to the current working directory; an
explicit directory argument overrides it.

The home is removed and recreated empty on every run, so anything
inside it from a previous run is gone afterward. Concurrent runs
against the same home are unsafe; run one provision at a time per
environment.

Examples:
  airboot provision                    # provision ../airflow
  airboot provision /srv/airflow-dev   # explicit home
  airboot provision --dry-run          # print the plan only
  airboot provision --watch            # re-provision on template/manifest change`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().StringVar(&provisionTemplate, "template", "", "Config template path (overrides config)")
	provisionCmd.Flags().StringVar(&provisionManifest, "manifest", "", "Provisioning manifest path (overrides config)")
	provisionCmd.Flags().BoolVar(&provisionDryRun, "dry-run", false, "Print the planned actions without executing")
	provisionCmd.Flags().BoolVar(&provisionSkipBinCheck, "skip-bin-check", false, "Skip the orchestrator binary availability check")
	provisionCmd.Flags().BoolVar(&provisionWatch, "watch", false, "Re-provision when the template or manifest changes")
}

// provisionSetup is everything resolved from config, flags, and args
// before a run starts.
type provisionSetup struct {
	cfg          *config.Config
	homePath     string
	templatePath string
	manifestPath string
	mf           *manifest.Manifest
	ledger       *state.DB
}

func runProvision(cmd *cobra.Command, args []string) error {
	setup, err := resolveProvisionSetup(args)
	if err != nil {
		return err
	}
	if setup.ledger != nil {
		defer setup.ledger.Close()
	}

	if !provisionSkipBinCheck && !provisionDryRun {
		if err := CheckOrchestratorCLI(setup.cfg.Orchestrator.Bin); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := provisionOnce(ctx, setup); err != nil {
		return err
	}

	if provisionWatch {
		return watchAndReprovision(ctx, setup)
	}
	return nil
}

// resolveProvisionSetup loads config, resolves paths, loads the
// manifest, and opens the run ledger (best effort).
func resolveProvisionSetup(args []string) (*provisionSetup, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var homePath string
	if len(args) > 0 {
		homePath, err = filepath.Abs(args[0])
		if err != nil {
			return nil, fmt.Errorf("resolving home path: %w", err)
		}
	} else {
		homePath, err = provision.DefaultHomePath(cfg.Provision.HomeDirName)
		if err != nil {
			return nil, err
		}
	}

	templatePath := cfg.Provision.TemplatePath
	if provisionTemplate != "" {
		templatePath = provisionTemplate
	}

	manifestPath := cfg.Provision.ManifestPath
	if provisionManifest != "" {
		manifestPath = provisionManifest
	}

	var mf *manifest.Manifest
	if manifestPath != "" {
		mf, err = manifest.Load(manifestPath)
		if err != nil {
			return nil, err
		}
	} else {
		mf = manifest.Default()
	}

	// Ledger is best effort: a broken ledger must never block
	// provisioning.
	var ledger *state.DB
	if !provisionDryRun {
		if db, err := state.OpenDefault(); err == nil {
			if err := db.Migrate(); err == nil {
				ledger = db
			} else {
				db.Close()
				printWarning(fmt.Sprintf("Run ledger unavailable: %v", err))
			}
		} else {
			printWarning(fmt.Sprintf("Run ledger unavailable: %v", err))
		}
	}

	return &provisionSetup{
		cfg:          cfg,
		homePath:     homePath,
		templatePath: templatePath,
		manifestPath: manifestPath,
		mf:           mf,
		ledger:       ledger,
	}, nil
}

// provisionOnce executes a single provisioning run.
func provisionOnce(ctx context.Context, setup *provisionSetup) error {
	runner := exec.NewRunner()
	store := metastore.NewCLIStore(
		setup.cfg.Orchestrator.Bin,
		setup.cfg.Orchestrator.HomeEnvVar,
		runner,
		setup.cfg.Timeouts.Command,
	)

	opts := provision.Options{
		HomePath:       setup.homePath,
		TemplatePath:   setup.templatePath,
		ConfigFileName: setup.cfg.Provision.ConfigFileName,
		Placeholder:    setup.cfg.Provision.Placeholder,
		Manifest:       setup.mf,
		Store:          store,
		DryRun:         provisionDryRun,
	}
	if setup.ledger != nil {
		opts.Recorder = setup.ledger
	}

	if err := provision.New(opts).Provision(ctx); err != nil {
		return err
	}

	if !provisionDryRun {
		fmt.Printf("\n%s Environment ready at %s\n", color.GreenString("✓"), setup.homePath)
	}
	return nil
}

// watchAndReprovision blocks, re-running provisionOnce on template or
// manifest changes, until interrupted.
func watchAndReprovision(ctx context.Context, setup *provisionSetup) error {
	paths := []string{setup.templatePath}
	if setup.manifestPath != "" {
		paths = append(paths, setup.manifestPath)
	}

	w, err := watch.New(func(ctx context.Context) {
		fmt.Println("\nChange detected, re-provisioning...")
		// Reload the manifest so edits take effect.
		if setup.manifestPath != "" {
			mf, err := manifest.Load(setup.manifestPath)
			if err != nil {
				printWarning(err.Error())
				return
			}
			setup.mf = mf
		}
		if err := provisionOnce(ctx, setup); err != nil {
			printWarning(err.Error())
		}
	}, paths...)
	if err != nil {
		return err
	}

	fmt.Printf("\nWatching %v for changes (Ctrl-C to stop)\n", paths)
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// printWarning prints a yellow warning line.
func printWarning(message string) {
	c := color.New(color.FgYellow)
	fmt.Printf("%s %s\n", c.Sprint("⚠"), message)
}

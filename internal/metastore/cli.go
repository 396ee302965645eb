// Package metastore implements provision.MetadataStore against the
// orchestrator's own command-line interface. The store itself is
// external, opaque state: every method shells out and surfaces the
// command's exit status and output verbatim on failure.
package metastore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/turel-data/airboot/internal/exec"
	"github.com/turel-data/airboot/internal/manifest"
	"github.com/turel-data/airboot/internal/provision"
)

// CLIStore issues metadata-store requests by invoking the orchestrator
// binary. The store is scoped to a home directory via an environment
// variable (AIRFLOW_HOME for stock Airflow), set on every invocation so
// process-global environment is never mutated.
type CLIStore struct {
	bin        string
	homeEnvVar string
	runner     exec.CommandRunner
	timeout    time.Duration

	homePath string
}

// NewCLIStore creates a store that invokes bin through runner, scoping
// the metadata store with homeEnvVar. A zero timeout means commands run
// unbounded; an external command that hangs, hangs the caller.
func NewCLIStore(bin, homeEnvVar string, runner exec.CommandRunner, timeout time.Duration) *CLIStore {
	return &CLIStore{
		bin:        bin,
		homeEnvVar: homeEnvVar,
		runner:     runner,
		timeout:    timeout,
	}
}

// Init creates or resets the metadata store scoped to homePath. All
// subsequent calls operate on the same home.
func (s *CLIStore) Init(ctx context.Context, homePath string) error {
	s.homePath = homePath
	return s.run(ctx, "initdb")
}

// SetVariable registers a named string value.
func (s *CLIStore) SetVariable(ctx context.Context, name, value string) error {
	return s.run(ctx, "variables", "--set", name, value)
}

// RegisterConnection registers a typed connection. The extra flag is
// omitted entirely when the connection carries no extra payload.
func (s *CLIStore) RegisterConnection(ctx context.Context, conn manifest.Connection) error {
	args := []string{"connections", "--add", "--conn_id", conn.ConnID, "--conn_type", conn.ConnType}
	extra, err := conn.ExtraJSON()
	if err != nil {
		return err
	}
	if extra != "" {
		args = append(args, "--conn_extra", extra)
	}
	return s.run(ctx, args...)
}

// run invokes the orchestrator binary with the home env var set,
// wrapping any failure in *provision.ExternalToolError.
func (s *CLIStore) run(ctx context.Context, args ...string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	env := []string{fmt.Sprintf("%s=%s", s.homeEnvVar, s.homePath)}
	output, err := s.runner.RunEnv(ctx, "", env, s.bin, args...)
	if err != nil {
		return &provision.ExternalToolError{
			Command: s.bin + " " + strings.Join(args, " "),
			Output:  output,
			Err:     err,
		}
	}
	return nil
}

// Verify CLIStore implements MetadataStore at compile time.
var _ provision.MetadataStore = (*CLIStore)(nil)

package metastore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/turel-data/airboot/internal/manifest"
	"github.com/turel-data/airboot/internal/provision"
)

// call is one recorded runner invocation.
type call struct {
	env  []string
	name string
	args []string
}

// fakeRunner implements exec.CommandRunner, recording invocations.
type fakeRunner struct {
	calls  []call
	err    error
	output []byte
}

func (f *fakeRunner) Run(ctx context.Context, workDir string, name string, args ...string) ([]byte, error) {
	return f.RunEnv(ctx, workDir, nil, name, args...)
}

func (f *fakeRunner) RunEnv(ctx context.Context, workDir string, env []string, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{env: env, name: name, args: args})
	return f.output, f.err
}

func (f *fakeRunner) RunShell(ctx context.Context, workDir string, command string) ([]byte, error) {
	return f.Run(ctx, workDir, "sh", "-c", command)
}

func (f *fakeRunner) Exists(ctx context.Context, workDir string, path string) bool {
	return false
}

func (f *fakeRunner) LookPath(name string) error {
	return nil
}

func newTestStore(runner *fakeRunner) *CLIStore {
	return NewCLIStore("airflow", "AIRFLOW_HOME", runner, 0)
}

func TestCLIStore_Init(t *testing.T) {
	runner := &fakeRunner{}
	store := newTestStore(runner)

	if err := store.Init(context.Background(), "/srv/airflow"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(runner.calls))
	}
	c := runner.calls[0]
	if c.name != "airflow" {
		t.Errorf("binary = %q, want airflow", c.name)
	}
	if len(c.args) != 1 || c.args[0] != "initdb" {
		t.Errorf("args = %v, want [initdb]", c.args)
	}
	if len(c.env) != 1 || c.env[0] != "AIRFLOW_HOME=/srv/airflow" {
		t.Errorf("env = %v, want [AIRFLOW_HOME=/srv/airflow]", c.env)
	}
}

func TestCLIStore_SetVariable(t *testing.T) {
	runner := &fakeRunner{}
	store := newTestStore(runner)

	if err := store.Init(context.Background(), "/srv/airflow"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := store.SetVariable(context.Background(), "TEST_MODE", "True"); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}

	c := runner.calls[1]
	want := []string{"variables", "--set", "TEST_MODE", "True"}
	if strings.Join(c.args, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v, want %v", c.args, want)
	}
	if len(c.env) != 1 || c.env[0] != "AIRFLOW_HOME=/srv/airflow" {
		t.Errorf("env = %v, home not carried from Init", c.env)
	}
}

func TestCLIStore_RegisterConnection_WithExtra(t *testing.T) {
	runner := &fakeRunner{}
	store := newTestStore(runner)

	conn := manifest.Connection{
		ConnID:   "bigquery_zazma",
		ConnType: "google_cloud_platform",
		Extra: &manifest.ConnExtra{
			KeyPath: "/etc/gcp/key.json",
			Project: "zazma-data",
			Scope:   "https://www.googleapis.com/auth/bigquery",
		},
	}
	if err := store.RegisterConnection(context.Background(), conn); err != nil {
		t.Fatalf("RegisterConnection: %v", err)
	}

	c := runner.calls[0]
	argv := strings.Join(c.args, " ")
	if !strings.HasPrefix(argv, "connections --add --conn_id bigquery_zazma --conn_type google_cloud_platform --conn_extra ") {
		t.Errorf("args = %v", c.args)
	}
	extra := c.args[len(c.args)-1]
	for _, want := range []string{`"key_path":"/etc/gcp/key.json"`, `"project":"zazma-data"`} {
		if !strings.Contains(extra, want) {
			t.Errorf("extra JSON %q missing %q", extra, want)
		}
	}
}

func TestCLIStore_RegisterConnection_NoExtraOmitsFlag(t *testing.T) {
	runner := &fakeRunner{}
	store := newTestStore(runner)

	conn := manifest.Connection{ConnID: "system_slack", ConnType: "google_cloud_platform"}
	if err := store.RegisterConnection(context.Background(), conn); err != nil {
		t.Fatalf("RegisterConnection: %v", err)
	}

	c := runner.calls[0]
	for _, a := range c.args {
		if a == "--conn_extra" {
			t.Errorf("args %v contain --conn_extra for a connection without extra", c.args)
		}
	}
	want := []string{"connections", "--add", "--conn_id", "system_slack", "--conn_type", "google_cloud_platform"}
	if strings.Join(c.args, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v, want %v", c.args, want)
	}
}

func TestCLIStore_WrapsFailures(t *testing.T) {
	cause := errors.New("exit status 2")
	runner := &fakeRunner{err: cause, output: []byte("no such table: variable\n")}
	store := newTestStore(runner)

	err := store.SetVariable(context.Background(), "TEST_MODE", "True")
	if err == nil {
		t.Fatal("expected error")
	}

	var toolErr *provision.ExternalToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("error type = %T, want *provision.ExternalToolError", err)
	}
	if toolErr.Command != "airflow variables --set TEST_MODE True" {
		t.Errorf("Command = %q", toolErr.Command)
	}
	if !strings.Contains(string(toolErr.Output), "no such table") {
		t.Errorf("Output = %q, tool output not surfaced verbatim", toolErr.Output)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not wrapped")
	}
}

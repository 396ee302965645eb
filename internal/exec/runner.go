package exec

import (
	"context"
	"os"
	"os/exec"
)

// ExecRunner implements CommandRunner using os/exec.
type ExecRunner struct{}

// NewRunner creates a new ExecRunner.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes a command and returns combined stdout/stderr output.
func (r *ExecRunner) Run(ctx context.Context, workDir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	return cmd.CombinedOutput()
}

// RunEnv executes a command with extra environment entries appended to the
// current process environment.
func (r *ExecRunner) RunEnv(ctx context.Context, workDir string, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	return cmd.CombinedOutput()
}

// RunShell executes a shell command through "sh -c".
func (r *ExecRunner) RunShell(ctx context.Context, workDir string, command string) ([]byte, error) {
	return r.Run(ctx, workDir, "sh", "-c", command)
}

// Exists checks if a file exists at the given path.
func (r *ExecRunner) Exists(ctx context.Context, workDir string, path string) bool {
	cmd := exec.CommandContext(ctx, "test", "-e", path)
	if workDir != "" {
		cmd.Dir = workDir
	}
	return cmd.Run() == nil
}

// LookPath reports whether the named binary can be found in PATH.
func (r *ExecRunner) LookPath(name string) error {
	_, err := exec.LookPath(name)
	return err
}

// Verify ExecRunner implements CommandRunner at compile time.
var _ CommandRunner = (*ExecRunner)(nil)

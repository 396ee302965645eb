package provision

import (
	"fmt"
	"strings"
)

// FilesystemError reports a failed local filesystem operation: the
// destructive home reset, template read, or config write.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// ExternalToolError reports an orchestrator CLI invocation that exited
// non-zero or could not be started. Output carries the command's
// combined stdout/stderr verbatim; no sub-reasons are distinguished.
type ExternalToolError struct {
	Command string
	Output  []byte
	Err     error
}

func (e *ExternalToolError) Error() string {
	out := strings.TrimSpace(string(e.Output))
	if out == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v\n%s", e.Command, e.Err, out)
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

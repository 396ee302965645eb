package provision

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestFilesystemError_Unwrap(t *testing.T) {
	err := &FilesystemError{Op: "read template", Path: "/no/such/file", Err: os.ErrNotExist}

	if !errors.Is(err, os.ErrNotExist) {
		t.Error("FilesystemError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "/no/such/file") {
		t.Errorf("error message %q omits the path", err.Error())
	}
}

func TestExternalToolError_SurfacesOutput(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &ExternalToolError{
		Command: "airflow initdb",
		Output:  []byte("DB init failed: connection refused\n"),
		Err:     cause,
	}

	msg := err.Error()
	if !strings.Contains(msg, "airflow initdb") {
		t.Errorf("error message %q omits the command", msg)
	}
	if !strings.Contains(msg, "connection refused") {
		t.Errorf("error message %q omits the tool output", msg)
	}
	if !errors.Is(err, cause) {
		t.Error("ExternalToolError should unwrap to its cause")
	}
}

func TestExternalToolError_NoOutput(t *testing.T) {
	err := &ExternalToolError{Command: "airflow initdb", Err: errors.New("executable file not found")}

	if strings.HasSuffix(err.Error(), "\n") {
		t.Errorf("error message %q has a trailing newline with no output", err.Error())
	}
}

package provision

import (
	"os"
	"strings"
)

// Render substitutes every literal occurrence of placeholder in the
// template contents with replacement. This is plain text replacement,
// not templating: no escaping rules apply, so a replacement value that
// collides with surrounding config syntax is the caller's problem.
func Render(content, placeholder, replacement string) string {
	return strings.ReplaceAll(content, placeholder, replacement)
}

// readTemplate loads the template file up front so a missing or
// unreadable template fails the run before any external side effect.
func readTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &FilesystemError{Op: "read template", Path: path, Err: err}
	}
	return string(data), nil
}

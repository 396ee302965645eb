// Package provision implements the environment-bootstrap procedure: it
// destructively resets an orchestrator home directory, renders its
// config file from a template, initializes the metadata store, and
// seeds the manifest's variables and connections, strictly in order.
//
// The procedure is linear and one-shot. It aborts on the first failure
// with no rollback; re-running is the documented recovery path because
// the destructive reset makes every run start from a clean slate.
// Concurrent runs against the same home path are unsafe and must be
// serialized by the caller.
package provision

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/turel-data/airboot/internal/manifest"
)

// Options configures a Provisioner.
type Options struct {
	// HomePath is the environment's home directory. It is removed and
	// recreated empty on every run.
	HomePath string

	// ParentDir is the value substituted for the template placeholder.
	// Empty means the parent directory of HomePath.
	ParentDir string

	// TemplatePath is the config template containing Placeholder.
	TemplatePath string

	// ConfigFileName is the rendered file's name inside HomePath.
	ConfigFileName string

	// Placeholder is the literal token replaced during rendering.
	Placeholder string

	// Manifest lists the variables and connections to seed.
	Manifest *manifest.Manifest

	// Store receives the init/variable/connection write requests.
	Store MetadataStore

	// Recorder persists the run trace; nil disables recording.
	Recorder RunRecorder

	// DryRun prints the planned actions without executing them. The
	// template and manifest are still read so validation errors surface.
	DryRun bool

	// Out receives status output; nil means os.Stdout.
	Out io.Writer
}

// Provisioner executes the environment-bootstrap procedure.
type Provisioner struct {
	opts Options
	out  io.Writer
}

// New creates a Provisioner from opts.
func New(opts Options) *Provisioner {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	if opts.ParentDir == "" {
		opts.ParentDir = filepath.Dir(opts.HomePath)
	}
	return &Provisioner{opts: opts, out: out}
}

// DefaultHomePath returns the conventional home location for an
// environment: a directory named dirName next to the current working
// directory.
func DefaultHomePath(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return filepath.Join(filepath.Dir(cwd), dirName), nil
}

// Provision runs the full procedure. On failure it returns the first
// error, either a *FilesystemError or a *ExternalToolError, with no
// rollback of completed steps.
func (p *Provisioner) Provision(ctx context.Context) error {
	o := p.opts

	// Read the template before touching anything so a missing template
	// fails the run with zero side effects.
	template, err := readTemplate(o.TemplatePath)
	if err != nil {
		return err
	}

	if o.DryRun {
		return p.plan()
	}

	runID := p.beginRun()
	seq := 0

	fail := func(kind, name string, err error) error {
		p.record(runID, seq, kind, name, "", "failed")
		p.finishRun(runID, "failed", err.Error())
		return err
	}

	// Destructive reset. Everything under the old home is gone after
	// this, including files owned by a previous failed run.
	seq++
	if err := os.RemoveAll(o.HomePath); err != nil {
		return fail("reset", o.HomePath, &FilesystemError{Op: "remove home", Path: o.HomePath, Err: err})
	}
	if err := os.MkdirAll(o.HomePath, 0755); err != nil {
		return fail("reset", o.HomePath, &FilesystemError{Op: "create home", Path: o.HomePath, Err: err})
	}
	p.status("✓", fmt.Sprintf("Reset %s", o.HomePath), color.FgGreen)
	p.record(runID, seq, "reset", o.HomePath, "", "done")

	// Metadata store init is opaque: the external tool owns its
	// internals and its failure output is surfaced verbatim.
	seq++
	if err := p.opts.Store.Init(ctx, o.HomePath); err != nil {
		p.status("✗", "Metadata store init failed", color.FgRed)
		return fail("initdb", o.HomePath, err)
	}
	p.status("✓", "Initialized metadata store", color.FgGreen)
	p.record(runID, seq, "initdb", o.HomePath, "", "done")

	seq++
	configPath := filepath.Join(o.HomePath, o.ConfigFileName)
	rendered := Render(template, o.Placeholder, o.ParentDir)
	if err := os.WriteFile(configPath, []byte(rendered), 0644); err != nil {
		return fail("render", configPath, &FilesystemError{Op: "write config", Path: configPath, Err: err})
	}
	p.status("✓", fmt.Sprintf("Rendered %s", configPath), color.FgGreen)
	p.record(runID, seq, "render", configPath, o.TemplatePath, "done")

	for _, v := range o.Manifest.Variables {
		seq++
		if err := p.opts.Store.SetVariable(ctx, v.Name, v.Value); err != nil {
			p.status("✗", fmt.Sprintf("Set variable %s failed", v.Name), color.FgRed)
			return fail("variable", v.Name, err)
		}
		p.status("✓", fmt.Sprintf("Set variable %s=%s", v.Name, v.Value), color.FgGreen)
		p.record(runID, seq, "variable", v.Name, v.Value, "done")
	}

	for _, c := range o.Manifest.Connections {
		seq++
		if err := p.opts.Store.RegisterConnection(ctx, c); err != nil {
			p.status("✗", fmt.Sprintf("Register connection %s failed", c.ConnID), color.FgRed)
			return fail("connection", c.ConnID, err)
		}
		p.status("✓", fmt.Sprintf("Registered connection %s (%s)", c.ConnID, c.ConnType), color.FgGreen)
		p.record(runID, seq, "connection", c.ConnID, c.ConnType, "done")
	}

	p.finishRun(runID, "succeeded", "")
	return nil
}

// plan prints what a real run would do, in order.
func (p *Provisioner) plan() error {
	o := p.opts
	fmt.Fprintf(p.out, "Would reset %s\n", o.HomePath)
	fmt.Fprintf(p.out, "Would initialize metadata store at %s\n", o.HomePath)
	fmt.Fprintf(p.out, "Would render %s -> %s (replacing %s with %s)\n",
		o.TemplatePath, filepath.Join(o.HomePath, o.ConfigFileName), o.Placeholder, o.ParentDir)
	for _, v := range o.Manifest.Variables {
		fmt.Fprintf(p.out, "Would set variable %s=%s\n", v.Name, v.Value)
	}
	for _, c := range o.Manifest.Connections {
		extra, err := c.ExtraJSON()
		if err != nil {
			return err
		}
		if extra == "" {
			fmt.Fprintf(p.out, "Would register connection %s (%s)\n", c.ConnID, c.ConnType)
		} else {
			fmt.Fprintf(p.out, "Would register connection %s (%s) extra=%s\n", c.ConnID, c.ConnType, extra)
		}
	}
	return nil
}

// status prints a colored status line.
func (p *Provisioner) status(symbol, message string, attr color.Attribute) {
	c := color.New(attr)
	fmt.Fprintf(p.out, "%s %s\n", c.Sprint(symbol), message)
}

// beginRun starts a ledger entry. Recording is best effort.
func (p *Provisioner) beginRun() string {
	if p.opts.Recorder == nil {
		return ""
	}
	runID, err := p.opts.Recorder.BeginRun(p.opts.HomePath)
	if err != nil {
		p.status("⚠", fmt.Sprintf("Run ledger unavailable: %v", err), color.FgYellow)
		return ""
	}
	return runID
}

func (p *Provisioner) record(runID string, seq int, kind, name, detail, stepStatus string) {
	if p.opts.Recorder == nil || runID == "" {
		return
	}
	if err := p.opts.Recorder.RecordStep(runID, seq, kind, name, detail, stepStatus); err != nil {
		p.status("⚠", fmt.Sprintf("Run ledger write failed: %v", err), color.FgYellow)
	}
}

func (p *Provisioner) finishRun(runID, runStatus, errMsg string) {
	if p.opts.Recorder == nil || runID == "" {
		return
	}
	if err := p.opts.Recorder.FinishRun(runID, runStatus, errMsg); err != nil {
		p.status("⚠", fmt.Sprintf("Run ledger write failed: %v", err), color.FgYellow)
	}
}

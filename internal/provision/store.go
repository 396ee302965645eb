package provision

import (
	"context"

	"github.com/turel-data/airboot/internal/manifest"
)

// MetadataStore is the provisioner's view of the orchestrator's
// metadata store. The store is external, process-wide state; the
// provisioner only issues write requests and never tracks their state
// afterward. Implementations return *ExternalToolError on failure.
type MetadataStore interface {
	// Init creates or resets the metadata store scoped to homePath.
	// Opaque external operation; no retry, no inspection.
	Init(ctx context.Context, homePath string) error

	// SetVariable registers a named string value. Later writes for the
	// same name overwrite earlier ones.
	SetVariable(ctx context.Context, name, value string) error

	// RegisterConnection registers a typed connection. Behavior on an
	// already-registered conn_id is owned by the store, not by the
	// provisioner.
	RegisterConnection(ctx context.Context, conn manifest.Connection) error
}

// RunRecorder persists a trace of a provisioning run. Recording is
// best effort: the provisioner surfaces recorder failures as warnings
// and never fails a run because of them. A nil RunRecorder disables
// recording.
type RunRecorder interface {
	BeginRun(homePath string) (runID string, err error)
	RecordStep(runID string, seq int, kind, name, detail, status string) error
	FinishRun(runID, status, errMsg string) error
}

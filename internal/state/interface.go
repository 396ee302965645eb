// Package state provides a SQLite-backed ledger of provisioning runs.
package state

import (
	"io"

	"github.com/turel-data/airboot/internal/provision"
)

// RunReader handles run-ledger query operations.
type RunReader interface {
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]Run, error)
	ListSteps(runID string) ([]Step, error)
}

// Migrator handles database schema migrations.
// Separating this allows clients to depend only on migration functionality.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Ledger defines the full interface for run persistence. It composes
// the provisioner-facing recorder with the query side used by status.
type Ledger interface {
	io.Closer
	Migrator
	RunReader
	provision.RunRecorder
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Ledger                = (*DB)(nil)
	_ Migrator              = (*DB)(nil)
	_ RunReader             = (*DB)(nil)
	_ provision.RunRecorder = (*DB)(nil)
)

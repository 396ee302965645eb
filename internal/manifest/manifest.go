// Package manifest defines the provisioning manifest: the ordered set of
// variables and connections seeded into a freshly provisioned environment.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Variable is a named string value registered in the orchestrator's
// metadata store. Variables are kept as an ordered list rather than a
// map so that duplicate names survive decoding and the last write wins
// downstream.
type Variable struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// ConnExtra is the structured credential payload attached to a
// connection. The provisioner writes it opaquely; it never opens or
// validates the referenced key file.
type ConnExtra struct {
	KeyPath string `yaml:"key_path" json:"key_path,omitempty"`
	Project string `yaml:"project" json:"project,omitempty"`
	Scope   string `yaml:"scope" json:"scope,omitempty"`
}

// Connection is a named, typed reference to an external system.
type Connection struct {
	ConnID   string     `yaml:"conn_id"`
	ConnType string     `yaml:"conn_type"`
	Extra    *ConnExtra `yaml:"extra,omitempty"`
}

// ExtraJSON returns the connection's extra payload serialized as JSON,
// or "" when the connection has none.
func (c *Connection) ExtraJSON() (string, error) {
	if c.Extra == nil {
		return "", nil
	}
	data, err := json.Marshal(c.Extra)
	if err != nil {
		return "", fmt.Errorf("marshal extra for %s: %w", c.ConnID, err)
	}
	return string(data), nil
}

// Manifest lists everything to seed into an environment, in order.
type Manifest struct {
	Variables   []Variable   `yaml:"variables"`
	Connections []Connection `yaml:"connections"`
}

// Load reads and validates a manifest from a YAML file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	return m, nil
}

// Validate checks structural invariants: variable names are non-empty,
// connection ids are non-empty and unique, connection types are set.
// Duplicate variable names are allowed; the last occurrence wins when
// the store applies them in order.
func (m *Manifest) Validate() error {
	for i, v := range m.Variables {
		if v.Name == "" {
			return fmt.Errorf("variable %d: empty name", i)
		}
	}

	seen := make(map[string]bool, len(m.Connections))
	for i, c := range m.Connections {
		if c.ConnID == "" {
			return fmt.Errorf("connection %d: empty conn_id", i)
		}
		if c.ConnType == "" {
			return fmt.Errorf("connection %s: empty conn_type", c.ConnID)
		}
		if seen[c.ConnID] {
			return fmt.Errorf("connection %s: duplicate conn_id", c.ConnID)
		}
		seen[c.ConnID] = true
	}

	return nil
}

// Default returns the built-in manifest used when no manifest file is
// given. It mirrors the standard development environment: test-mode
// variables plus the Slack and Google Cloud connections the
// maintenance DAGs expect.
func Default() *Manifest {
	return &Manifest{
		Variables: []Variable{
			{Name: "TEST_MODE", Value: "True"},
			{Name: "TEST_ENV", Value: "dev"},
			{Name: "TEST_DAG", Value: "cancel_dataflow_jobs"},
			{Name: "BQ_JOBS_BUCKET", Value: "my-bucket"},
		},
		Connections: []Connection{
			{
				ConnID:   "slack",
				ConnType: "http",
			},
			{
				ConnID:   "bigquery_zazma",
				ConnType: "google_cloud_platform",
				Extra: &ConnExtra{
					KeyPath: "/etc/gcp/bigquery-key.json",
					Project: "zazma-data",
					Scope:   "https://www.googleapis.com/auth/bigquery",
				},
			},
			{
				ConnID:   "google_cloud_default",
				ConnType: "google_cloud_platform",
				Extra: &ConnExtra{
					KeyPath: "/etc/gcp/storage-key.json",
					Project: "zazma-data",
					Scope:   "https://www.googleapis.com/auth/cloud-platform",
				},
			},
		},
	}
}

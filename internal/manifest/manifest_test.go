package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "manifest.yaml")

	content := `
variables:
  - name: TEST_MODE
    value: "True"
  - name: TEST_ENV
    value: dev
connections:
  - conn_id: slack
    conn_type: http
  - conn_id: bigquery_zazma
    conn_type: google_cloud_platform
    extra:
      key_path: /etc/gcp/key.json
      project: zazma-data
      scope: https://www.googleapis.com/auth/bigquery
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(m.Variables) != 2 {
		t.Fatalf("got %d variables, want 2", len(m.Variables))
	}
	if m.Variables[0].Name != "TEST_MODE" || m.Variables[0].Value != "True" {
		t.Errorf("first variable = %+v", m.Variables[0])
	}
	if m.Variables[1].Name != "TEST_ENV" || m.Variables[1].Value != "dev" {
		t.Errorf("second variable = %+v", m.Variables[1])
	}

	if len(m.Connections) != 2 {
		t.Fatalf("got %d connections, want 2", len(m.Connections))
	}
	if m.Connections[0].Extra != nil {
		t.Error("slack connection should have no extra")
	}
	bq := m.Connections[1]
	if bq.Extra == nil || bq.Extra.KeyPath != "/etc/gcp/key.json" || bq.Extra.Project != "zazma-data" {
		t.Errorf("bigquery extra = %+v", bq.Extra)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestLoad_PreservesDuplicateVariables(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "manifest.yaml")

	content := `
variables:
  - name: TEST_ENV
    value: dev
  - name: TEST_ENV
    value: prod
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Duplicates are legal; the last write wins once applied in order.
	if len(m.Variables) != 2 {
		t.Fatalf("got %d variables, want both duplicates kept", len(m.Variables))
	}
	if m.Variables[1].Value != "prod" {
		t.Errorf("last duplicate = %q, want prod", m.Variables[1].Value)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       Manifest
		wantErr string
	}{
		{
			name:    "empty variable name",
			m:       Manifest{Variables: []Variable{{Name: "", Value: "x"}}},
			wantErr: "empty name",
		},
		{
			name:    "empty conn_id",
			m:       Manifest{Connections: []Connection{{ConnID: "", ConnType: "http"}}},
			wantErr: "empty conn_id",
		},
		{
			name:    "empty conn_type",
			m:       Manifest{Connections: []Connection{{ConnID: "slack", ConnType: ""}}},
			wantErr: "empty conn_type",
		},
		{
			name: "duplicate conn_id",
			m: Manifest{Connections: []Connection{
				{ConnID: "slack", ConnType: "http"},
				{ConnID: "slack", ConnType: "http"},
			}},
			wantErr: "duplicate conn_id",
		},
		{
			name: "valid",
			m: Manifest{
				Variables:   []Variable{{Name: "A", Value: "1"}},
				Connections: []Connection{{ConnID: "slack", ConnType: "http"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestExtraJSON(t *testing.T) {
	conn := Connection{
		ConnID:   "bigquery_zazma",
		ConnType: "google_cloud_platform",
		Extra: &ConnExtra{
			KeyPath: "/etc/gcp/key.json",
			Project: "zazma-data",
			Scope:   "https://www.googleapis.com/auth/bigquery",
		},
	}

	got, err := conn.ExtraJSON()
	if err != nil {
		t.Fatalf("ExtraJSON: %v", err)
	}
	for _, want := range []string{`"key_path":"/etc/gcp/key.json"`, `"project":"zazma-data"`, `"scope":"https://www.googleapis.com/auth/bigquery"`} {
		if !strings.Contains(got, want) {
			t.Errorf("ExtraJSON %q missing %q", got, want)
		}
	}
}

func TestExtraJSON_Nil(t *testing.T) {
	conn := Connection{ConnID: "slack", ConnType: "http"}

	got, err := conn.ExtraJSON()
	if err != nil {
		t.Fatalf("ExtraJSON: %v", err)
	}
	if got != "" {
		t.Errorf("ExtraJSON = %q, want empty for nil extra", got)
	}
}

func TestDefault(t *testing.T) {
	m := Default()

	if err := m.Validate(); err != nil {
		t.Fatalf("default manifest invalid: %v", err)
	}

	wantVars := map[string]string{
		"TEST_MODE":      "True",
		"TEST_ENV":       "dev",
		"TEST_DAG":       "cancel_dataflow_jobs",
		"BQ_JOBS_BUCKET": "my-bucket",
	}
	if len(m.Variables) != len(wantVars) {
		t.Fatalf("got %d variables, want %d", len(m.Variables), len(wantVars))
	}
	for _, v := range m.Variables {
		if wantVars[v.Name] != v.Value {
			t.Errorf("variable %s = %q, want %q", v.Name, v.Value, wantVars[v.Name])
		}
	}

	ids := make(map[string]bool)
	for _, c := range m.Connections {
		ids[c.ConnID] = true
	}
	for _, want := range []string{"slack", "bigquery_zazma", "google_cloud_default"} {
		if !ids[want] {
			t.Errorf("default manifest missing connection %s", want)
		}
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetDefaults(t *testing.T) {
	c := &Config{}
	c.SetDefaults()

	if c.Server.Addr != ":8080" {
		t.Errorf("Server.Addr default = %q, want :8080", c.Server.Addr)
	}
	if c.Server.RequestTimeout.String() != "5m0s" {
		t.Errorf("Server.RequestTimeout default = %v, want 5m0s", c.Server.RequestTimeout)
	}
	if c.SessionTokenBudget != defaultSessionTokenBudget {
		t.Errorf("SessionTokenBudget default = %d, want %d", c.SessionTokenBudget, defaultSessionTokenBudget)
	}
	if c.Database.Driver != "sqlite3" {
		t.Errorf("Database.Driver default = %q, want sqlite3", c.Database.Driver)
	}
}

func TestSetDefaultsPreservesExplicitValues(t *testing.T) {
	c := &Config{
		Server:             ServerConfig{Addr: ":9090"},
		SessionTokenBudget: 1000,
		Database:           DatabaseConfig{Driver: "postgres"},
	}
	c.SetDefaults()

	if c.Server.Addr != ":9090" {
		t.Errorf("Server.Addr overwritten, got %q", c.Server.Addr)
	}
	if c.SessionTokenBudget != 1000 {
		t.Errorf("SessionTokenBudget overwritten, got %d", c.SessionTokenBudget)
	}
	if c.Database.Driver != "postgres" {
		t.Errorf("Database.Driver overwritten, got %q", c.Database.Driver)
	}
}

func TestValidate(t *testing.T) {
	valid := &Config{
		Provider: ProviderConfig{ProjectID: "acme"},
		Models:   ModelConfig{DefaultTextModel: "gpt-4o"},
		Database: DatabaseConfig{Driver: "sqlite3", DSN: "file:test.db"},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() on a well-formed config: %v", err)
	}

	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"missing projectId", func(c *Config) { c.Provider.ProjectID = "" }},
		{"missing text model", func(c *Config) { c.Models.DefaultTextModel = "" }},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }},
		{"bad driver", func(c *Config) { c.Database.Driver = "mssql" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := *valid
			tc.mut(&c)
			if err := c.Validate(); err == nil {
				t.Fatalf("Validate() = nil, want error for %s", tc.name)
			}
		})
	}
}

func TestLoaderLoadExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("AGENTFORGE_TEST_PROJECT", "acme-prod")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := `
provider:
  projectId: "${AGENTFORGE_TEST_PROJECT}"
models:
  defaultTextModel: gpt-4o
database:
  driver: sqlite3
  dsn: "file:test.db"
enableMemoryBank: true
`
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Provider.ProjectID != "acme-prod" {
		t.Errorf("Provider.ProjectID = %q, want acme-prod (env expansion)", cfg.Provider.ProjectID)
	}
	if !cfg.EnableMemoryBank {
		t.Errorf("EnableMemoryBank = false, want true")
	}
	if cfg.SessionTokenBudget != defaultSessionTokenBudget {
		t.Errorf("SessionTokenBudget = %d, want default %d", cfg.SessionTokenBudget, defaultSessionTokenBudget)
	}
}

func TestLoaderLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("provider:\n  projectId: acme\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := NewLoader(path).Load(); err == nil {
		t.Fatal("Load() = nil error, want validation failure for missing defaultTextModel/dsn")
	}
}

package config

import "fmt"

// Validate checks the fields the composition root cannot proceed
// without, grounded on the teacher's Config.Validate/
// validateReferences shape (fail fast: the first missing or invalid
// piece is returned as the error) narrowed to this domain's much smaller surface.
func (c *Config) Validate() error {
	if c.Provider.ProjectID == "" {
		return fmt.Errorf("config: provider.projectId is required")
	}
	if c.Models.DefaultTextModel == "" {
		return fmt.Errorf("config: models.defaultTextModel is required")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("config: database.dsn is required")
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite3":
	default:
		return fmt.Errorf("config: database.driver must be postgres, mysql, or sqlite3, got %q", c.Database.Driver)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

package config

import "time"

const defaultSessionTokenBudget = 30000

// SetDefaults fills every zero-valued field with its spec §6 default,
// grounded on the teacher's per-section SetDefaults methods
// (AgentConfig.SetDefaults, ContextConfig.SetDefaults, etc.)
// collapsed into one pass over the single flat Config.
func (c *Config) SetDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 5 * time.Minute
	}
	if c.SessionTokenBudget <= 0 {
		c.SessionTokenBudget = defaultSessionTokenBudget
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite3"
	}
	c.Observability.SetDefaults()
}

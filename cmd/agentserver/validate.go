package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/brandloom/agentforge/pkg/config"
	"gopkg.in/yaml.v3"
)

// ValidateCmd validates a configuration file without starting the
// server, narrowed from the teacher's cmd/hector/validate.go (ported
// from its pkg/cli/validate_command.go) to this domain's flat
// config.Config shape.
type ValidateCmd struct {
	Config      string `arg:"" name:"config" help:"Configuration file path." placeholder:"PATH"`
	Format      string `short:"f" help:"Output format: compact, json." default:"compact" enum:"compact,json"`
	PrintConfig bool   `short:"p" name:"print-config" help:"Print the expanded configuration (defaults applied, env vars resolved)."`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	config.LoadEnvFiles()

	cfg, err := config.NewLoader(c.Config).Load()
	if err != nil {
		return printLoadError(c.Format, c.Config, err)
	}

	if c.PrintConfig {
		return printExpandedConfig(c.Format, c.Config, cfg)
	}
	printValidateSuccess(c.Format, c.Config)
	return nil
}

func printLoadError(format, file string, err error) error {
	if format == "json" {
		printValidateJSON(false, file, err.Error())
	} else {
		fmt.Fprintf(os.Stderr, "%s: load error: %s\n", file, err.Error())
	}
	return fmt.Errorf("config load failed")
}

func printValidateSuccess(format, file string) {
	if format == "json" {
		printValidateJSON(true, file, "")
		return
	}
	fmt.Fprintf(os.Stdout, "%s: valid\n", file)
}

func printExpandedConfig(format, file string, cfg *config.Config) error {
	if format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	}

	fmt.Fprintf(os.Stdout, "# Expanded configuration from: %s\n", file)
	fmt.Fprintf(os.Stdout, "# (defaults applied, env vars resolved)\n\n")
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(cfg)
}

func printValidateJSON(valid bool, file, errMsg string) {
	out := struct {
		Valid bool   `json:"valid"`
		File  string `json:"file"`
		Error string `json:"error,omitempty"`
	}{Valid: valid, File: file, Error: errMsg}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.Encode(out)
}

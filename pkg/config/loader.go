package config

import (
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Loader loads Config from a YAML file, expanding environment
// variables, and optionally watches the file for hot-reload —
// grounded on the teacher's koanf_loader.go, narrowed to a single
// file.Provider (the teacher's consul/etcd/zookeeper providers have
// no SPEC_FULL component to serve; see DESIGN.md).
type Loader struct {
	path     string
	onChange func(*Config)
	stopChan chan struct{}
}

func NewLoader(path string) *Loader {
	return &Loader{path: path, stopChan: make(chan struct{})}
}

// SetOnChange registers the callback invoked with the newly loaded
// Config each time Watch observes a file change.
func (l *Loader) SetOnChange(cb func(*Config)) {
	l.onChange = cb
}

// Load reads, expands, and unmarshals the config file once.
func (l *Loader) Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(l.path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", l.path, err)
	}

	expanded, ok := ExpandEnvVarsInData(k.Raw()).(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("config: env expansion produced non-map data")
	}
	k = koanf.New(".")
	if err := k.Load(confmap.Provider(expanded, "."), nil); err != nil {
		return nil, fmt.Errorf("config: reload expanded config: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch starts an fsnotify watcher on the config file, reloading and
// invoking the OnChange callback on every write (spec's configuration
// hot-reload expectation, carried from the teacher's koanf Watcher
// plumbing but backed directly by fsnotify rather than per-backend
// Watch implementations).
func (l *Loader) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	if err := watcher.Add(l.path); err != nil {
		watcher.Close()
		return fmt.Errorf("config: watch %s: %w", l.path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-l.stopChan:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := l.Load()
				if err != nil {
					slog.Warn("config: reload failed", "path", l.path, "error", err)
					continue
				}
				if l.onChange != nil {
					l.onChange(cfg)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("config: watcher error", "error", err)
			}
		}
	}()
	return nil
}

func (l *Loader) Stop() {
	close(l.stopChan)
}

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/agentbridge/agentbridge/pkg/config/provider"
)

// Loader reads configuration through a provider and optionally watches for
// changes.
type Loader struct {
	provider provider.Provider
	logger   *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the loader logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader builds a Loader over the given provider.
func NewLoader(p provider.Provider, opts ...LoaderOption) *Loader {
	l := &Loader{provider: p, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads, expands, decodes, defaults, and validates the configuration.
func (l *Loader) Load(ctx context.Context) (*Config, error) {
	data, err := l.provider.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	raw, err := parseBytes(data)
	if err != nil {
		return nil, err
	}

	expanded, _ := expandEnvVars(raw).(map[string]any)
	if expanded == nil {
		expanded = map[string]any{}
	}

	cfg, err := decodeConfig(expanded)
	if err != nil {
		return nil, err
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Watch blocks until ctx is done, logging whenever the underlying source
// changes. The agent fleet is fixed at startup, so a change only means the
// process should be restarted to pick it up.
func (l *Loader) Watch(ctx context.Context) error {
	changes, err := l.provider.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch config: %w", err)
	}
	if changes == nil {
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			l.logger.Warn("configuration changed on disk, restart to apply")
		}
	}
}

// Close releases the provider.
func (l *Loader) Close() error {
	return l.provider.Close()
}

// LoadFromFile is the common path: load and validate a config file once.
func LoadFromFile(ctx context.Context, path string) (*Config, error) {
	p, err := provider.NewFileProvider(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return NewLoader(p).Load(ctx)
}

// parseBytes decodes YAML first and falls back to JSON.
func parseBytes(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err == nil {
		return normalizeKeys(raw), nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config is neither valid YAML nor JSON: %w", err)
	}
	return raw, nil
}

// normalizeKeys converts nested map[any]any values produced by older YAML
// decoders into map[string]any so mapstructure can walk them.
func normalizeKeys(m map[string]any) map[string]any {
	for key, value := range m {
		m[key] = normalizeValue(value)
	}
	return m
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeKeys(t)
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalizeValue(val)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = normalizeValue(item)
		}
		return t
	default:
		return v
	}
}

func decodeConfig(raw map[string]any) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

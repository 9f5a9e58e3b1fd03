package core

import (
	"context"
	"fmt"
	"maps"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

// ConfigProvider loads the file or environment layer of the service config.
type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

// OptionsResolver merges defaults, loaded config and the runtime config passed
// to NewService, strongest last.
type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

// StaticConfigLoader serves a fixed raw config map.
type StaticConfigLoader struct {
	Values map[string]any
}

func (l StaticConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if l.Values == nil {
		return map[string]any{}, nil
	}
	return maps.Clone(l.Values), nil
}

// CfgxConfigProvider decodes raw values over the defaults with cfgx.
type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil || p.Loader == nil {
		return decodeConfig(map[string]any{}, defaults)
	}
	raw, err := p.Loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, fmt.Errorf("core: load raw config: %w", err)
	}
	return decodeConfig(raw, defaults)
}

// GoOptionsResolver stacks the three config sources as go-options scopes.
// Zero fields of the loaded and runtime configs do not override weaker scopes.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	sources := []struct {
		scope    string
		priority int
		snapshot map[string]any
	}{
		{"defaults", 0, defaults.layer(true)},
		{"config", 10, loaded.layer(false)},
		{"runtime", 20, runtime.layer(false)},
	}
	layers := make([]opts.Layer[map[string]any], 0, len(sources))
	for _, source := range sources {
		layers = append(layers, opts.NewLayer(
			opts.NewScope(source.scope, source.priority),
			source.snapshot,
			opts.WithSnapshotID[map[string]any](source.scope),
		))
	}

	stack, err := opts.NewStack(layers...)
	if err != nil {
		return Config{}, fmt.Errorf("core: build config scopes: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: merge config scopes: %w", err)
	}
	return decodeConfig(merged.Value, defaults)
}

func decodeConfig(raw map[string]any, defaults Config) (Config, error) {
	return cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidatorFunc[Config](Config.Validate),
	)
}

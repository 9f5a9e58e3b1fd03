package core

import (
	"fmt"
	"strings"
)

type AuditConfig struct {
	Disabled bool `koanf:"disabled" mapstructure:"disabled"`
}

type Config struct {
	ServiceName   string      `koanf:"service_name" mapstructure:"service_name"`
	ProtocolName  string      `koanf:"protocol_name" mapstructure:"protocol_name"`
	KnownVersions []int       `koanf:"known_versions" mapstructure:"known_versions"`
	Audit         AuditConfig `koanf:"audit" mapstructure:"audit"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:   "tradeguard",
		ProtocolName:  DefaultProtocolName,
		KnownVersions: []int{1, 2, 3},
		Audit:         AuditConfig{},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.ProtocolName) == "" {
		return fmt.Errorf("core: protocol_name is required")
	}
	if len(c.KnownVersions) == 0 {
		return fmt.Errorf("core: known_versions is required")
	}
	seen := make(map[int]struct{}, len(c.KnownVersions))
	for _, version := range c.KnownVersions {
		if version <= 0 {
			return fmt.Errorf("core: known_versions must be positive, got %d", version)
		}
		if _, dup := seen[version]; dup {
			return fmt.Errorf("core: known_versions has duplicate version %d", version)
		}
		seen[version] = struct{}{}
	}
	return nil
}

// layer renders c as a go-options snapshot. Unless full is set, unset fields
// are left out so they inherit from weaker scopes.
func (c Config) layer(full bool) map[string]any {
	out := map[string]any{}
	if full || strings.TrimSpace(c.ServiceName) != "" {
		out["service_name"] = c.ServiceName
	}
	if full || strings.TrimSpace(c.ProtocolName) != "" {
		out["protocol_name"] = c.ProtocolName
	}
	if full || len(c.KnownVersions) > 0 {
		out["known_versions"] = append([]int(nil), c.KnownVersions...)
	}
	if full || c.Audit.Disabled {
		out["audit"] = map[string]any{"disabled": c.Audit.Disabled}
	}
	return out
}

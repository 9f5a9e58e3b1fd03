package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

const (
	VersionGateName     = "version"
	DefaultProtocolName = "Uniswap"
)

// VersionGate rejects calls made through a client whose protocol version is
// not in the declared list.
type VersionGate struct {
	versions []int
	protocol string
	observer GuardObserver
}

type VersionGateOption func(*VersionGate)

func WithProtocolName(name string) VersionGateOption {
	return func(g *VersionGate) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			g.protocol = trimmed
		}
	}
}

func WithVersionObserver(observer GuardObserver) VersionGateOption {
	return func(g *VersionGate) {
		g.observer = observer
	}
}

// NewVersionGate builds a gate for the given versions. The list is fixed for
// the lifetime of the gate.
func NewVersionGate(versions []int, opts ...VersionGateOption) (*VersionGate, error) {
	if len(versions) == 0 {
		return nil, fmt.Errorf("core: version gate requires at least one supported version")
	}
	for _, version := range versions {
		if version <= 0 {
			return nil, fmt.Errorf("core: version gate version must be positive, got %d", version)
		}
	}
	gate := &VersionGate{
		versions: append([]int(nil), versions...),
		protocol: DefaultProtocolName,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(gate)
	}
	return gate, nil
}

func (g *VersionGate) Name() string {
	return VersionGateName
}

func (g *VersionGate) Versions() []int {
	return append([]int(nil), g.versions...)
}

func (g *VersionGate) Supports(version int) bool {
	return slices.Contains(g.versions, version)
}

func (g *VersionGate) Invoke(ctx context.Context, client Client, call Call, next Operation) (any, error) {
	if err := g.Check(ctx, call.Operation, client.Version()); err != nil {
		return nil, err
	}
	return next(ctx, client, call)
}

// Check returns a version incompatibility error when version is not
// supported by operation.
func (g *VersionGate) Check(ctx context.Context, operation string, version int) error {
	if g.Supports(version) {
		return nil
	}
	if g.observer != nil {
		g.observer.VersionRejected(ctx, operation, version, g.Versions())
	}
	return NewVersionIncompatibleError(operation, version, g.versions)
}

// Note renders the compatibility line attached to descriptors.
func (g *VersionGate) Note() string {
	tags := make([]string, 0, len(g.versions))
	for _, version := range g.versions {
		tags = append(tags, fmt.Sprintf("v%d", version))
	}
	return fmt.Sprintf("Supports %s %s", g.protocol, strings.Join(tags, ", "))
}

func (g *VersionGate) Describe(desc OperationDescriptor) OperationDescriptor {
	desc.Notes = append(append([]string(nil), desc.Notes...), g.Note())
	if len(desc.SupportedVersions) == 0 {
		desc.SupportedVersions = g.Versions()
		return desc
	}
	// Stacked gates only admit versions every gate admits.
	supported := make([]int, 0, len(desc.SupportedVersions))
	for _, version := range desc.SupportedVersions {
		if g.Supports(version) {
			supported = append(supported, version)
		}
	}
	desc.SupportedVersions = supported
	return desc
}

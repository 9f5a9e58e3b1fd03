package core

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Registration declares an operation and the guards it runs behind. When
// both apply the pipeline is always version gate, approval guard, operation.
type Registration struct {
	Descriptor      OperationDescriptor
	Operation       Operation
	Versions        []int
	EnsureApprovals bool
	TokenSlots      []TokenSlot
}

// RegisteredOperation is an operation composed with its guards.
type RegisteredOperation struct {
	Descriptor OperationDescriptor
	Invoke     Operation
	Gate       *VersionGate
	Approval   *ApprovalGuard
}

type OperationRegistry struct {
	mu            sync.RWMutex
	operations    map[string]RegisteredOperation
	knownVersions []int
	protocol      string
	observer      GuardObserver
}

type RegistryOption func(*OperationRegistry)

// WithKnownVersions restricts the versions registrations may declare.
func WithKnownVersions(versions ...int) RegistryOption {
	return func(r *OperationRegistry) {
		r.knownVersions = append([]int(nil), versions...)
	}
}

func WithRegistryProtocolName(name string) RegistryOption {
	return func(r *OperationRegistry) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			r.protocol = trimmed
		}
	}
}

func WithRegistryObserver(observer GuardObserver) RegistryOption {
	return func(r *OperationRegistry) {
		r.observer = observer
	}
}

func NewOperationRegistry(opts ...RegistryOption) *OperationRegistry {
	registry := &OperationRegistry{
		operations: make(map[string]RegisteredOperation),
		protocol:   DefaultProtocolName,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(registry)
	}
	return registry
}

func (r *OperationRegistry) Register(reg Registration) (OperationDescriptor, error) {
	if r == nil {
		return OperationDescriptor{}, fmt.Errorf("core: operation registry is nil")
	}
	name := strings.TrimSpace(reg.Descriptor.Name)
	if name == "" {
		return OperationDescriptor{}, fmt.Errorf("core: operation name is required")
	}
	if reg.Operation == nil {
		return OperationDescriptor{}, fmt.Errorf("core: operation %q function is required", name)
	}
	if err := r.validateVersions(name, reg.Versions); err != nil {
		return OperationDescriptor{}, err
	}

	entry := RegisteredOperation{}
	guards := make([]Guard, 0, 2)
	if len(reg.Versions) > 0 {
		gate, err := NewVersionGate(reg.Versions,
			WithProtocolName(r.protocol),
			WithVersionObserver(r.observer),
		)
		if err != nil {
			return OperationDescriptor{}, err
		}
		entry.Gate = gate
		guards = append(guards, gate)
	}
	if reg.EnsureApprovals {
		approvalOpts := []ApprovalGuardOption{WithApprovalObserver(r.observer)}
		if len(reg.TokenSlots) > 0 {
			approvalOpts = append(approvalOpts, WithTokenSlots(reg.TokenSlots...))
		}
		entry.Approval = NewApprovalGuard(approvalOpts...)
		guards = append(guards, entry.Approval)
	}

	desc := reg.Descriptor
	desc.Name = name
	entry.Descriptor = Describe(desc, guards...)
	entry.Invoke = Chain(reg.Operation, guards...)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.operations[name]; exists {
		return OperationDescriptor{}, fmt.Errorf("core: operation already registered: %s", name)
	}
	r.operations[name] = entry
	return entry.Descriptor.clone(), nil
}

func (r *OperationRegistry) validateVersions(name string, versions []int) error {
	seen := make(map[int]struct{}, len(versions))
	for _, version := range versions {
		if version <= 0 {
			return fmt.Errorf("core: operation %q version must be positive, got %d", name, version)
		}
		if _, dup := seen[version]; dup {
			return fmt.Errorf("core: operation %q has duplicate version %d", name, version)
		}
		seen[version] = struct{}{}
		if len(r.knownVersions) > 0 && !slices.Contains(r.knownVersions, version) {
			return fmt.Errorf("core: operation %q declares unknown protocol version %d", name, version)
		}
	}
	return nil
}

func (r *OperationRegistry) Get(name string) (RegisteredOperation, bool) {
	name = strings.TrimSpace(name)
	if r == nil || name == "" {
		return RegisteredOperation{}, false
	}
	r.mu.RLock()
	entry, ok := r.operations[name]
	r.mu.RUnlock()
	if ok {
		entry.Descriptor = entry.Descriptor.clone()
	}
	return entry, ok
}

func (r *OperationRegistry) List() []OperationDescriptor {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.operations))
	for name := range r.operations {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]OperationDescriptor, 0, len(names))
	for _, name := range names {
		out = append(out, r.operations[name].Descriptor.clone())
	}
	return out
}

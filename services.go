package tradeguard

import "github.com/goliatone/go-tradeguard/core"

type Config = core.Config

type AuditConfig = core.AuditConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Client = core.Client

type Call = core.Call

type Operation = core.Operation

type Guard = core.Guard

type Registration = core.Registration

type OperationDescriptor = core.OperationDescriptor

type TokenSlot = core.TokenSlot

type GuardEvent = core.GuardEvent

type GuardEventFilter = core.GuardEventFilter

type GuardEventPage = core.GuardEventPage

type GuardEventStore = core.GuardEventStore

var NativeToken = core.NativeToken

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorFactory    = core.WithErrorFactory
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithRegistry        = core.WithRegistry
	WithGuardEventStore = core.WithGuardEventStore
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, client Client, opts ...Option) (*Service, error) {
	return core.NewService(cfg, client, opts...)
}

// Setup builds a service and registers the given operation functions under
// their default guard table.
func Setup(cfg Config, client Client, ops map[string]Operation, opts ...Option) (*Service, error) {
	return core.Setup(cfg, client, core.DefaultRegistrations(ops), opts...)
}

// IsVersionIncompatible reports whether err is a protocol version rejection.
func IsVersionIncompatible(err error) bool {
	return core.IsVersionIncompatible(err)
}

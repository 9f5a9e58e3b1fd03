package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Service hosts the guarded operations of one exchange client.
type Service struct {
	config          Config
	client          Client
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	registry        Registry
	eventStore      GuardEventStore
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	Registry        Registry
	GuardEventStore GuardEventStore
}

func NewService(cfg Config, client Client, opts ...Option) (*Service, error) {
	builder := newServiceBuilder(cfg, opts)
	deps := builder.dependencies()
	if client == nil {
		return nil, mapBuildError(deps.ErrorMapper, fmt.Errorf("core: exchange client is required"))
	}

	defaults := DefaultConfig()
	loaded, err := deps.ConfigProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(deps.ErrorMapper, err)
	}
	finalConfig, err := deps.OptionsResolver.Resolve(defaults, loaded, builder.runtime)
	if err != nil {
		return nil, mapBuildError(deps.ErrorMapper, err)
	}

	svc := &Service{
		config:          finalConfig,
		client:          client,
		logger:          deps.Logger,
		loggerProvider:  deps.LoggerProvider,
		metricsRecorder: deps.MetricsRecorder,
		errorFactory:    deps.ErrorFactory,
		errorMapper:     deps.ErrorMapper,
		configProvider:  deps.ConfigProvider,
		optionsResolver: deps.OptionsResolver,
		registry:        deps.Registry,
		eventStore:      deps.GuardEventStore,
	}
	if svc.registry == nil {
		svc.registry = NewOperationRegistry(
			WithKnownVersions(finalConfig.KnownVersions...),
			WithRegistryProtocolName(finalConfig.ProtocolName),
			WithRegistryObserver(svc),
		)
	}
	if svc.eventStore == nil && !finalConfig.Audit.Disabled {
		svc.eventStore = NewMemoryGuardEventStore()
	}
	return svc, nil
}

// Setup builds a service and registers regs on it.
func Setup(cfg Config, client Client, regs []Registration, opts ...Option) (*Service, error) {
	svc, err := NewService(cfg, client, opts...)
	if err != nil {
		return nil, err
	}
	for _, reg := range regs {
		if _, err := svc.Register(reg); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	cfg := s.config
	cfg.KnownVersions = append([]int(nil), s.config.KnownVersions...)
	return cfg
}

func (s *Service) Client() Client {
	if s == nil {
		return nil
	}
	return s.client
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		Registry:        s.registry,
		GuardEventStore: s.eventStore,
	}
}

func (s *Service) Register(reg Registration) (OperationDescriptor, error) {
	if s == nil || s.registry == nil {
		return OperationDescriptor{}, fmt.Errorf("core: service is not configured")
	}
	desc, err := s.registry.Register(reg)
	if err != nil {
		return OperationDescriptor{}, s.mapError(err)
	}
	s.logInfo(context.Background(), "operation registered", map[string]any{
		"operation":          desc.Name,
		"guards":             strings.Join(desc.Guards, ","),
		"supported_versions": desc.SupportedVersions,
	})
	return desc, nil
}

// Invoke runs the named operation through its guards. Errors raised by the
// client or the operation are returned unchanged.
func (s *Service) Invoke(ctx context.Context, call Call) (result any, err error) {
	startedAt := time.Now().UTC()
	call.Operation = strings.TrimSpace(call.Operation)
	defer func() {
		s.observeOperation(ctx, startedAt, call.Operation, err, map[string]any{
			"operation":       call.Operation,
			"client_version":  s.clientVersion(),
			"version_blocked": IsVersionIncompatible(err),
		})
	}()

	entry, err := s.lookup(call.Operation)
	if err != nil {
		return nil, err
	}
	return entry.Invoke(ctx, s.client, call)
}

// EnsureApprovals runs the version and approval checks of the named
// operation without executing it.
func (s *Service) EnsureApprovals(ctx context.Context, call Call) error {
	call.Operation = strings.TrimSpace(call.Operation)
	entry, err := s.lookup(call.Operation)
	if err != nil {
		return err
	}
	if entry.Gate != nil {
		if err := entry.Gate.Check(ctx, call.Operation, s.client.Version()); err != nil {
			return err
		}
	}
	if entry.Approval == nil {
		return nil
	}
	return entry.Approval.Ensure(ctx, s.client, call)
}

// CheckVersion reports whether the client's version is accepted by the
// named operation.
func (s *Service) CheckVersion(ctx context.Context, operation string) error {
	entry, err := s.lookup(operation)
	if err != nil {
		return err
	}
	if entry.Gate == nil {
		return nil
	}
	return entry.Gate.Check(ctx, entry.Descriptor.Name, s.client.Version())
}

func (s *Service) Describe(operation string) (OperationDescriptor, error) {
	entry, err := s.lookup(operation)
	if err != nil {
		return OperationDescriptor{}, err
	}
	return entry.Descriptor, nil
}

func (s *Service) Operations() []OperationDescriptor {
	if s == nil || s.registry == nil {
		return nil
	}
	return s.registry.List()
}

func (s *Service) ListGuardEvents(ctx context.Context, filter GuardEventFilter) (GuardEventPage, error) {
	if s == nil || s.eventStore == nil {
		return GuardEventPage{}, s.mapError(fmt.Errorf("core: guard event store is required"))
	}
	return s.eventStore.List(ctx, filter)
}

func (s *Service) lookup(operation string) (RegisteredOperation, error) {
	if s == nil || s.registry == nil {
		return RegisteredOperation{}, fmt.Errorf("core: service is not configured")
	}
	operation = strings.TrimSpace(operation)
	if operation == "" {
		return RegisteredOperation{}, s.mapError(fmt.Errorf("core: operation name is required"))
	}
	entry, ok := s.registry.Get(operation)
	if !ok {
		return RegisteredOperation{}, s.operationNotFound(operation)
	}
	return entry, nil
}

func (s *Service) operationNotFound(operation string) error {
	factory := s.errorFactory
	if factory == nil {
		factory = goerrors.New
	}
	err := factory(
		fmt.Sprintf("operation %q is not registered", operation),
		goerrors.CategoryNotFound,
	).WithTextCode(ServiceErrorOperationNotFound)
	return ensureServiceErrorEnvelope(err.WithMetadata(map[string]any{"operation": operation}))
}

func (s *Service) clientVersion() int {
	if s == nil || s.client == nil {
		return 0
	}
	return s.client.Version()
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

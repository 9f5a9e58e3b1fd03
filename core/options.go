package core

import (
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// DefaultLoggerName names the logger requested from a LoggerProvider.
const DefaultLoggerName = "tradeguard"

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

// Option overrides one service dependency. Unset dependencies are filled when
// the service is built.
type Option func(*serviceBuilder)

type serviceBuilder struct {
	runtime Config
	deps    ServiceDependencies
}

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) { b.deps.Logger = logger }
}

// WithLoggerProvider takes precedence over WithLogger. The logger passed to
// WithLogger is used when the provider has no logger for DefaultLoggerName.
func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) { b.deps.LoggerProvider = provider }
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) { b.deps.MetricsRecorder = recorder }
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) { b.deps.ErrorFactory = factory }
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) { b.deps.ErrorMapper = mapper }
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) { b.deps.ConfigProvider = provider }
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) { b.deps.OptionsResolver = resolver }
}

// WithRegistry replaces the operation registry. A registry supplied here is
// used as is; the service does not attach its observer to it.
func WithRegistry(registry Registry) Option {
	return func(b *serviceBuilder) { b.deps.Registry = registry }
}

func WithGuardEventStore(store GuardEventStore) Option {
	return func(b *serviceBuilder) { b.deps.GuardEventStore = store }
}

func newServiceBuilder(runtime Config, options []Option) *serviceBuilder {
	builder := &serviceBuilder{runtime: runtime}
	for _, option := range options {
		if option != nil {
			option(builder)
		}
	}
	return builder
}

// dependencies returns the configured dependencies with defaults filled in.
// Registry and GuardEventStore depend on the resolved config and are left to
// NewService.
func (b *serviceBuilder) dependencies() ServiceDependencies {
	deps := b.deps
	deps.LoggerProvider, deps.Logger = glog.Resolve(DefaultLoggerName, deps.LoggerProvider, deps.Logger)
	deps.Logger = glog.Ensure(deps.Logger)
	if deps.MetricsRecorder == nil {
		deps.MetricsRecorder = NopMetricsRecorder{}
	}
	if deps.ErrorFactory == nil {
		deps.ErrorFactory = goerrors.New
	}
	if deps.ErrorMapper == nil {
		deps.ErrorMapper = serviceErrorMapper
	}
	if deps.ConfigProvider == nil {
		deps.ConfigProvider = NewCfgxConfigProvider(nil)
	}
	if deps.OptionsResolver == nil {
		deps.OptionsResolver = GoOptionsResolver{}
	}
	return deps
}

package tradeguard

import (
	"fmt"

	tgcommand "github.com/goliatone/go-tradeguard/command"
	"github.com/goliatone/go-tradeguard/core"
	tgquery "github.com/goliatone/go-tradeguard/query"
)

type CommandQueryService interface {
	tgcommand.MutatingService
	tgquery.OperationReader
}

type Commands struct {
	InvokeOperation *tgcommand.InvokeOperationCommand
	EnsureApprovals *tgcommand.EnsureApprovalsCommand
}

type Queries struct {
	DescribeOperation *tgquery.DescribeOperationQuery
	ListOperations    *tgquery.ListOperationsQuery
	ListGuardEvents   *tgquery.ListGuardEventsQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	guardEventReader tgquery.GuardEventReader
}

// WithGuardEventReader overrides the reader behind the guard event query.
func WithGuardEventReader(reader tgquery.GuardEventReader) FacadeOption {
	return func(options *facadeOptions) {
		options.guardEventReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("tradeguard: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.guardEventReader
	if reader == nil {
		reader = resolveGuardEventReader(service)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		InvokeOperation: tgcommand.NewInvokeOperationCommand(service),
		EnsureApprovals: tgcommand.NewEnsureApprovalsCommand(service),
	}
	facade.queries = Queries{
		DescribeOperation: tgquery.NewDescribeOperationQuery(service),
		ListOperations:    tgquery.NewListOperationsQuery(service),
		ListGuardEvents:   tgquery.NewListGuardEventsQuery(reader),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

func resolveGuardEventReader(service CommandQueryService) tgquery.GuardEventReader {
	if reader, ok := service.(tgquery.GuardEventReader); ok {
		return reader
	}
	provider, ok := service.(interface {
		Dependencies() core.ServiceDependencies
	})
	if !ok {
		return nil
	}
	store := provider.Dependencies().GuardEventStore
	if store == nil {
		return nil
	}
	return store
}

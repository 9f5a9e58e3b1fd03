package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	tradeguard "github.com/goliatone/go-tradeguard"
	tgcommand "github.com/goliatone/go-tradeguard/command"
	"github.com/goliatone/go-tradeguard/core"
	tgquery "github.com/goliatone/go-tradeguard/query"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

// AddQueueResolver mirrors registered commands into a go-job queue registry
// so they can also run from a worker.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// SubscribeQuery subscribes qry on the dispatcher. Queries are not added to
// the command registry.
func SubscribeQuery[T any, R any](
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...), nil
}

// RegisterFacade registers the tradeguard commands and subscribes them and
// the tradeguard queries on the dispatcher. On failure every subscription
// made so far is removed.
func RegisterFacade(
	adapter *RegistryAdapter,
	facade *tradeguard.Facade,
	runnerOpts ...runner.Option,
) ([]commanddispatcher.Subscription, error) {
	if facade == nil {
		return nil, fmt.Errorf("gocommand: facade is required")
	}
	commands := facade.Commands()
	queries := facade.Queries()

	subscriptions := make([]commanddispatcher.Subscription, 0, 5)
	rollback := func(err error) ([]commanddispatcher.Subscription, error) {
		for _, subscription := range subscriptions {
			if subscription != nil {
				subscription.Unsubscribe()
			}
		}
		return nil, err
	}

	invoke, err := RegisterAndSubscribe[tgcommand.InvokeOperationMessage](adapter, commands.InvokeOperation, runnerOpts...)
	if err != nil {
		return rollback(err)
	}
	subscriptions = append(subscriptions, invoke)

	ensure, err := RegisterAndSubscribe[tgcommand.EnsureApprovalsMessage](adapter, commands.EnsureApprovals, runnerOpts...)
	if err != nil {
		return rollback(err)
	}
	subscriptions = append(subscriptions, ensure)

	describe, err := SubscribeQuery[tgquery.DescribeOperationMessage, core.OperationDescriptor](queries.DescribeOperation, runnerOpts...)
	if err != nil {
		return rollback(err)
	}
	subscriptions = append(subscriptions, describe)

	list, err := SubscribeQuery[tgquery.ListOperationsMessage, []core.OperationDescriptor](queries.ListOperations, runnerOpts...)
	if err != nil {
		return rollback(err)
	}
	subscriptions = append(subscriptions, list)

	events, err := SubscribeQuery[tgquery.ListGuardEventsMessage, core.GuardEventPage](queries.ListGuardEvents, runnerOpts...)
	if err != nil {
		return rollback(err)
	}
	subscriptions = append(subscriptions, events)

	return subscriptions, nil
}

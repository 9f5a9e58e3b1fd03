package command

import (
	"context"
	"strings"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-tradeguard/core"
)

type MutatingService interface {
	Invoke(ctx context.Context, call core.Call) (any, error)
	EnsureApprovals(ctx context.Context, call core.Call) error
}

// OperationResult is stored in the go-command result collector after a
// successful invocation.
type OperationResult struct {
	Operation string
	Value     any
}

type InvokeOperationCommand struct {
	service MutatingService
}

func NewInvokeOperationCommand(service MutatingService) *InvokeOperationCommand {
	return &InvokeOperationCommand{service: service}
}

func (c *InvokeOperationCommand) Execute(ctx context.Context, msg InvokeOperationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: invoke operation service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	value, err := c.service.Invoke(ctx, msg.Call)
	if err != nil {
		return err
	}
	storeResult(ctx, OperationResult{
		Operation: strings.TrimSpace(msg.Call.Operation),
		Value:     value,
	})
	return nil
}

type EnsureApprovalsCommand struct {
	service MutatingService
}

func NewEnsureApprovalsCommand(service MutatingService) *EnsureApprovalsCommand {
	return &EnsureApprovalsCommand{service: service}
}

func (c *EnsureApprovalsCommand) Execute(ctx context.Context, msg EnsureApprovalsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: ensure approvals service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.service.EnsureApprovals(ctx, msg.Call)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}

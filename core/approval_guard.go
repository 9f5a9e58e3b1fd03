package core

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const ApprovalGuardName = "approval"

// ApprovalGuard makes sure every non-native token an operation spends has a
// standing approval, submitting one when the client reports none.
//
// Errors from IsApproved, Approve and the wrapped operation are returned
// unchanged. The guard adds one error of its own: a token slot holding a value
// that is not an address fails with ServiceErrorInvalidTokenArgument before
// the client is called.
type ApprovalGuard struct {
	slots    []TokenSlot
	observer GuardObserver
}

type ApprovalGuardOption func(*ApprovalGuard)

// WithTokenSlots replaces the slot table derived from the operation name.
func WithTokenSlots(slots ...TokenSlot) ApprovalGuardOption {
	return func(g *ApprovalGuard) {
		g.slots = normalizeTokenSlots(slots)
	}
}

func WithApprovalObserver(observer GuardObserver) ApprovalGuardOption {
	return func(g *ApprovalGuard) {
		g.observer = observer
	}
}

func NewApprovalGuard(opts ...ApprovalGuardOption) *ApprovalGuard {
	guard := &ApprovalGuard{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(guard)
	}
	return guard
}

func (g *ApprovalGuard) Name() string {
	return ApprovalGuardName
}

func (g *ApprovalGuard) Invoke(ctx context.Context, client Client, call Call, next Operation) (any, error) {
	if err := g.Ensure(ctx, client, call); err != nil {
		return nil, err
	}
	return next(ctx, client, call)
}

// Ensure runs the approval checks for call without delegating.
func (g *ApprovalGuard) Ensure(ctx context.Context, client Client, call Call) error {
	tokens, err := g.resolve(call)
	if err != nil {
		return err
	}
	for _, token := range tokens {
		approved, err := client.IsApproved(ctx, token)
		if err != nil {
			return err
		}
		if g.observer != nil {
			g.observer.ApprovalChecked(ctx, call.Operation, token, approved)
		}
		if approved {
			continue
		}

		err = client.Approve(ctx, token)
		if g.observer != nil {
			g.observer.ApprovalSubmitted(ctx, call.Operation, token, err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// resolve reads every slot before any client capability is invoked.
func (g *ApprovalGuard) resolve(call Call) ([]common.Address, error) {
	slots := g.slotsFor(call.Operation)
	tokens := make([]common.Address, 0, len(slots))
	for _, slot := range slots {
		token, ok, err := slot.Resolve(call)
		if err != nil {
			return nil, err
		}
		if ok {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

// Slots returns the slot table applied to operation.
func (g *ApprovalGuard) Slots(operation string) []TokenSlot {
	return append([]TokenSlot(nil), g.slotsFor(operation)...)
}

func (g *ApprovalGuard) slotsFor(operation string) []TokenSlot {
	if g != nil && len(g.slots) > 0 {
		return g.slots
	}
	return TokenSlotsFor(strings.TrimSpace(operation))
}

func (g *ApprovalGuard) Describe(desc OperationDescriptor) OperationDescriptor {
	desc.TokenSlots = g.Slots(desc.Name)
	return desc
}

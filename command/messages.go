package command

import (
	"strings"

	"github.com/goliatone/go-tradeguard/core"
)

const (
	TypeInvokeOperation = "tradeguard.command.operation.invoke"
	TypeEnsureApprovals = "tradeguard.command.approvals.ensure"
)

// InvokeOperationMessage runs a registered operation through its guards.
type InvokeOperationMessage struct {
	Call core.Call
}

func (InvokeOperationMessage) Type() string { return TypeInvokeOperation }

func (m InvokeOperationMessage) Validate() error {
	return validateCall(m.Call)
}

// EnsureApprovalsMessage runs the version gate and approval checks of an
// operation without executing it.
type EnsureApprovalsMessage struct {
	Call core.Call
}

func (EnsureApprovalsMessage) Type() string { return TypeEnsureApprovals }

func (m EnsureApprovalsMessage) Validate() error {
	return validateCall(m.Call)
}

func validateCall(call core.Call) error {
	if strings.TrimSpace(call.Operation) == "" {
		return commandValidationError("operation", "operation is required")
	}
	for key := range call.Named {
		if strings.TrimSpace(key) == "" {
			return commandValidationError("named", "named argument keys must not be empty")
		}
	}
	return nil
}

package query

import (
	"strings"
	"time"

	"github.com/goliatone/go-tradeguard/core"
)

const (
	TypeDescribeOperation = "tradeguard.query.operation.describe"
	TypeListOperations    = "tradeguard.query.operation.list"
	TypeListGuardEvents   = "tradeguard.query.guard_events.list"
)

type DescribeOperationMessage struct {
	Operation string
}

func (DescribeOperationMessage) Type() string { return TypeDescribeOperation }

func (m DescribeOperationMessage) Validate() error {
	if strings.TrimSpace(m.Operation) == "" {
		return queryValidationError("operation", "operation is required")
	}
	return nil
}

type ListOperationsMessage struct{}

func (ListOperationsMessage) Type() string { return TypeListOperations }

func (ListOperationsMessage) Validate() error { return nil }

type ListGuardEventsMessage struct {
	Filter core.GuardEventFilter
}

func (ListGuardEventsMessage) Type() string { return TypeListGuardEvents }

func (m ListGuardEventsMessage) Validate() error {
	if m.Filter.Page < 0 {
		return queryValidationError("page", "page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return queryValidationError("per_page", "per_page must be >= 0")
	}
	switch m.Filter.Kind {
	case "", core.GuardEventApprovalSubmitted, core.GuardEventApprovalFailed, core.GuardEventVersionRejected:
	default:
		return queryValidationError("kind", "unknown guard event kind")
	}
	if m.Filter.From != nil && m.Filter.To != nil && m.Filter.To.Before(*m.Filter.From) {
		return queryValidationError("to", "to must not be before from")
	}
	return nil
}

// Since narrows the filter to events created at or after t.
func (m ListGuardEventsMessage) Since(t time.Time) ListGuardEventsMessage {
	from := t.UTC()
	m.Filter.From = &from
	return m
}

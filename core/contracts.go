package core

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	glog "github.com/goliatone/go-logger/glog"
)

// Client is the exchange client collaborator. The core only reads its
// protocol version and invokes its approval capabilities.
type Client interface {
	Version() int
	IsApproved(ctx context.Context, token common.Address) (bool, error)
	Approve(ctx context.Context, token common.Address) error
}

// Call carries the positional and named arguments of a single operation
// invocation.
type Call struct {
	Operation string
	Args      []any
	Named     map[string]any
}

// Arg returns the positional argument at index, if present.
func (c Call) Arg(index int) (any, bool) {
	if index < 0 || index >= len(c.Args) {
		return nil, false
	}
	return c.Args[index], true
}

// NamedArg returns the named argument bound to key, if present.
func (c Call) NamedArg(key string) (any, bool) {
	if c.Named == nil || key == "" {
		return nil, false
	}
	value, ok := c.Named[key]
	return value, ok
}

// Operation is a client operation that guards wrap.
type Operation func(ctx context.Context, client Client, call Call) (any, error)

// Guard intercepts an operation call and decides whether, and how, to
// delegate to next.
type Guard interface {
	Name() string
	Invoke(ctx context.Context, client Client, call Call, next Operation) (any, error)
}

// Describer is implemented by guards that contribute static metadata to an
// operation descriptor. Describe runs once when the operation is registered.
type Describer interface {
	Describe(desc OperationDescriptor) OperationDescriptor
}

// GuardObserver receives guard decisions. Implementations must not affect
// the outcome of the call being observed.
type GuardObserver interface {
	ApprovalChecked(ctx context.Context, operation string, token common.Address, approved bool)
	ApprovalSubmitted(ctx context.Context, operation string, token common.Address, err error)
	VersionRejected(ctx context.Context, operation string, version int, supported []int)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Registry interface {
	Register(reg Registration) (OperationDescriptor, error)
	Get(name string) (RegisteredOperation, bool)
	List() []OperationDescriptor
}

type GuardEventKind string

const (
	GuardEventApprovalSubmitted GuardEventKind = "approval_submitted"
	GuardEventApprovalFailed    GuardEventKind = "approval_failed"
	GuardEventVersionRejected   GuardEventKind = "version_rejected"
)

type GuardEvent struct {
	ID        string
	Operation string
	Kind      GuardEventKind
	Token     string
	Version   int
	Error     string
	CreatedAt time.Time
}

type GuardEventFilter struct {
	Operation string
	Kind      GuardEventKind
	Token     string
	From      *time.Time
	To        *time.Time
	Page      int
	PerPage   int
}

type GuardEventPage struct {
	Items   []GuardEvent
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

type GuardEventStore interface {
	Record(ctx context.Context, event GuardEvent) error
	List(ctx context.Context, filter GuardEventFilter) (GuardEventPage, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

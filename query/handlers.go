package query

import (
	"context"

	"github.com/goliatone/go-tradeguard/core"
)

type OperationReader interface {
	Describe(operation string) (core.OperationDescriptor, error)
	Operations() []core.OperationDescriptor
}

type GuardEventReader interface {
	List(ctx context.Context, filter core.GuardEventFilter) (core.GuardEventPage, error)
}

type DescribeOperationQuery struct {
	reader OperationReader
}

func NewDescribeOperationQuery(reader OperationReader) *DescribeOperationQuery {
	return &DescribeOperationQuery{reader: reader}
}

func (q *DescribeOperationQuery) Query(ctx context.Context, msg DescribeOperationMessage) (core.OperationDescriptor, error) {
	if q == nil || q.reader == nil {
		return core.OperationDescriptor{}, queryDependencyError("query: operation reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.OperationDescriptor{}, err
	}
	return q.reader.Describe(msg.Operation)
}

type ListOperationsQuery struct {
	reader OperationReader
}

func NewListOperationsQuery(reader OperationReader) *ListOperationsQuery {
	return &ListOperationsQuery{reader: reader}
}

func (q *ListOperationsQuery) Query(context.Context, ListOperationsMessage) ([]core.OperationDescriptor, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: operation reader is required")
	}
	return q.reader.Operations(), nil
}

type ListGuardEventsQuery struct {
	reader GuardEventReader
}

func NewListGuardEventsQuery(reader GuardEventReader) *ListGuardEventsQuery {
	return &ListGuardEventsQuery{reader: reader}
}

func (q *ListGuardEventsQuery) Query(ctx context.Context, msg ListGuardEventsMessage) (core.GuardEventPage, error) {
	if q == nil || q.reader == nil {
		return core.GuardEventPage{}, queryDependencyError("query: guard event reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.GuardEventPage{}, err
	}
	return q.reader.List(ctx, msg.Filter)
}

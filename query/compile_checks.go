package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-tradeguard/core"
)

var (
	_ gocmd.Querier[DescribeOperationMessage, core.OperationDescriptor] = (*DescribeOperationQuery)(nil)
	_ gocmd.Querier[ListOperationsMessage, []core.OperationDescriptor]  = (*ListOperationsQuery)(nil)
	_ gocmd.Querier[ListGuardEventsMessage, core.GuardEventPage]        = (*ListGuardEventsQuery)(nil)

	_ OperationReader  = (*core.Service)(nil)
	_ GuardEventReader = (*core.MemoryGuardEventStore)(nil)
)

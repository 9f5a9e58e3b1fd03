package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-tradeguard/core"
)

var (
	_ gocmd.Commander[InvokeOperationMessage] = (*InvokeOperationCommand)(nil)
	_ gocmd.Commander[EnsureApprovalsMessage] = (*EnsureApprovalsCommand)(nil)

	_ MutatingService = (*core.Service)(nil)
)

package sqlstore

import "github.com/goliatone/go-tradeguard/core"

var (
	_ core.GuardEventStore = (*GuardEventStore)(nil)
	_ core.GuardEventStore = (*CachedGuardEventStore)(nil)
)

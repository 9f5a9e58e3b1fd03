package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type guardEventRecord struct {
	bun.BaseModel `bun:"table:tradeguard_guard_events,alias:ge"`

	ID        string    `bun:"id,pk"`
	Operation string    `bun:"operation,notnull"`
	Kind      string    `bun:"kind,notnull"`
	Token     string    `bun:"token,notnull"`
	Version   int       `bun:"version,notnull"`
	Error     string    `bun:"error,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

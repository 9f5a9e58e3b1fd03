package sqlstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-tradeguard/core"
	tgmigrations "github.com/goliatone/go-tradeguard/migrations"
	sqlstore "github.com/goliatone/go-tradeguard/store/sql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-tradeguard-tests"
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	var tableName string
	if err := client.DB().NewRaw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		"tradeguard_guard_events",
	).Scan(context.Background(), &tableName); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if tableName != "tradeguard_guard_events" {
		t.Fatalf("expected tradeguard_guard_events table, got %q", tableName)
	}
}

func TestGuardEventStore_RecordAndListSQLite(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store := factory.GuardEventStore()
	if store == nil || factory.SQLGuardEventStore() == nil {
		t.Fatalf("expected guard event store from factory")
	}

	tokenIn := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	tokenOut := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	events := []core.GuardEvent{
		{Operation: "make_trade", Kind: core.GuardEventApprovalSubmitted, Token: tokenIn.Hex(), Version: 1, CreatedAt: base},
		{Operation: "make_trade", Kind: core.GuardEventApprovalSubmitted, Token: tokenOut.Hex(), Version: 1, CreatedAt: base.Add(time.Minute)},
		{Operation: "make_trade", Kind: core.GuardEventApprovalFailed, Token: tokenOut.Hex(), Version: 1, Error: "reverted", CreatedAt: base.Add(2 * time.Minute)},
		{Operation: "add_liquidity", Kind: core.GuardEventVersionRejected, Version: 2, CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, event := range events {
		if err := store.Record(ctx, event); err != nil {
			t.Fatalf("record %s: %v", event.Kind, err)
		}
	}

	page, err := store.List(ctx, core.GuardEventFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if page.Total != 4 || len(page.Items) != 4 {
		t.Fatalf("expected four events, got total=%d items=%d", page.Total, len(page.Items))
	}
	if page.Items[0].Kind != core.GuardEventVersionRejected || page.Items[0].Version != 2 {
		t.Fatalf("expected newest event first, got %+v", page.Items[0])
	}
	if page.Items[0].ID == "" {
		t.Fatalf("expected generated event id")
	}

	page, err = store.List(ctx, core.GuardEventFilter{
		Operation: "make_trade",
		Token:     strings.ToLower(tokenOut.Hex()),
	})
	if err != nil {
		t.Fatalf("list by token: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected two events for output token, got %d", page.Total)
	}
	if page.Items[0].Error != "reverted" {
		t.Fatalf("expected failed approval first, got %+v", page.Items[0])
	}

	page, err = store.List(ctx, core.GuardEventFilter{Kind: core.GuardEventApprovalSubmitted, PerPage: 1})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 1 || !page.HasNext {
		t.Fatalf("expected first of two pages, got %+v", page)
	}
	page, err = store.List(ctx, core.GuardEventFilter{Kind: core.GuardEventApprovalSubmitted, PerPage: 1, Page: 2})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(page.Items) != 1 || page.HasNext || page.Items[0].Token != tokenIn.Hex() {
		t.Fatalf("expected oldest approval on second page, got %+v", page)
	}

	deleted, err := factory.SQLGuardEventStore().Prune(ctx, "add_liquidity")
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected one pruned row, got %d", deleted)
	}
}

func TestGuardEventStore_RejectsInvalidEvents(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	store, err := sqlstore.NewGuardEventStore(client.DB())
	if err != nil {
		t.Fatalf("new guard event store: %v", err)
	}
	if err := store.Record(context.Background(), core.GuardEvent{Kind: core.GuardEventApprovalSubmitted}); err == nil {
		t.Fatalf("expected missing operation to fail")
	}
	if err := store.Record(context.Background(), core.GuardEvent{Operation: "make_trade", Kind: "unknown"}); err == nil {
		t.Fatalf("expected unknown kind to fail")
	}
}

func TestRepositoryFactory_WithCacheService(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	cacheService, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	factory, err := sqlstore.NewRepositoryFactoryFromDB(client.DB(), sqlstore.WithCacheService(cacheService))
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	store, ok := factory.GuardEventStore().(*sqlstore.CachedGuardEventStore)
	if !ok {
		t.Fatalf("expected cached store, got %T", factory.GuardEventStore())
	}

	if err := store.Record(ctx, core.GuardEvent{Operation: "make_trade", Kind: core.GuardEventApprovalSubmitted}); err != nil {
		t.Fatalf("record: %v", err)
	}
	page, err := store.List(ctx, core.GuardEventFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("expected one event, got %d", page.Total)
	}
	if err := store.Record(ctx, core.GuardEvent{Operation: "make_trade", Kind: core.GuardEventApprovalSubmitted}); err != nil {
		t.Fatalf("record second: %v", err)
	}
	page, err = store.List(ctx, core.GuardEventFilter{})
	if err != nil {
		t.Fatalf("list after write: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected write to be visible through the cache, got %d", page.Total)
	}
}

func TestRepositoryFactory_RejectsUnsupportedClient(t *testing.T) {
	if _, err := sqlstore.NewRepositoryFactory().BuildStores(nil); err == nil {
		t.Fatalf("expected nil client to fail")
	}
	if _, err := sqlstore.NewRepositoryFactory().BuildStores("postgres://"); err == nil {
		t.Fatalf("expected unsupported client type to fail")
	}
}

func TestServiceRecordsGuardEventsInSQLite(t *testing.T) {
	ctx := context.Background()
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	exchange := &sqliteExchangeClient{version: 2}
	svc, err := core.Setup(core.DefaultConfig(), exchange, core.DefaultRegistrations(map[string]core.Operation{
		"add_liquidity": func(context.Context, core.Client, core.Call) (any, error) { return nil, nil },
	}), core.WithGuardEventStore(factory.GuardEventStore()))
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	_, err = svc.Invoke(ctx, core.Call{Operation: "add_liquidity", Args: []any{core.NativeToken}})
	if !core.IsVersionIncompatible(err) {
		t.Fatalf("expected version rejection, got %v", err)
	}
	page, err := svc.ListGuardEvents(ctx, core.GuardEventFilter{Kind: core.GuardEventVersionRejected})
	if err != nil {
		t.Fatalf("list guard events: %v", err)
	}
	if page.Total != 1 || page.Items[0].Operation != "add_liquidity" || page.Items[0].Version != 2 {
		t.Fatalf("expected persisted rejection, got %+v", page)
	}
}

func TestOpenSQLite(t *testing.T) {
	db, err := sqlstore.Open("sqlite", fmt.Sprintf("file:tradeguard-open-%d?mode=memory&cache=shared", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if db.Dialect().Name() != dialect.SQLite {
		t.Fatalf("expected sqlite dialect, got %v", db.Dialect().Name())
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := sqlstore.Open("mysql", "root@/db"); err == nil {
		t.Fatalf("expected unknown driver to fail")
	}
	if _, err := sqlstore.Open("sqlite3", " "); err == nil {
		t.Fatalf("expected empty dsn to fail")
	}
	label, err := sqlstore.DialectFor("PostgreSQL")
	if err != nil || label != tgmigrations.DialectPostgres {
		t.Fatalf("expected postgres dialect, got %q err=%v", label, err)
	}
}

type sqliteExchangeClient struct {
	version int
}

func (c *sqliteExchangeClient) Version() int { return c.version }

func (c *sqliteExchangeClient) IsApproved(context.Context, common.Address) (bool, error) {
	return true, nil
}

func (c *sqliteExchangeClient) Approve(context.Context, common.Address) error {
	return nil
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:tradeguard-test-%d?mode=memory&cache=shared",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	_, err = tgmigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != tgmigrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, tgmigrations.WithDialects(tgmigrations.DialectSQLite))
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}

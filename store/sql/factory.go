package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-tradeguard/core"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db *bun.DB

	guardEventStore  *GuardEventStore
	cachedEventStore *CachedGuardEventStore
	cacheService     repositorycache.CacheService
}

type FactoryOption func(*RepositoryFactory)

// WithCacheService fronts the guard event store with a read-through cache.
func WithCacheService(cacheService repositorycache.CacheService) FactoryOption {
	return func(f *RepositoryFactory) {
		f.cacheService = cacheService
	}
}

func NewRepositoryFactory(opts ...FactoryOption) *RepositoryFactory {
	factory := &RepositoryFactory{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(factory)
	}
	return factory
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

// BuildStores resolves a *bun.DB from persistenceClient, which is either a
// *bun.DB or anything exposing DB() *bun.DB, and builds the stores on it.
func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.GuardEventStore, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.guardEventStore == nil {
		if err := f.initStores(); err != nil {
			return nil, err
		}
	}
	return f.GuardEventStore(), nil
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

// GuardEventStore returns the cached store when a cache service is
// configured and the plain SQL store otherwise.
func (f *RepositoryFactory) GuardEventStore() core.GuardEventStore {
	if f == nil {
		return nil
	}
	if f.cachedEventStore != nil {
		return f.cachedEventStore
	}
	if f.guardEventStore == nil {
		return nil
	}
	return f.guardEventStore
}

func (f *RepositoryFactory) SQLGuardEventStore() *GuardEventStore {
	if f == nil {
		return nil
	}
	return f.guardEventStore
}

func (f *RepositoryFactory) initStores() error {
	store, err := NewGuardEventStore(f.db)
	if err != nil {
		return err
	}
	f.guardEventStore = store
	if f.cacheService != nil {
		cached, err := NewCachedGuardEventStore(store, f.cacheService)
		if err != nil {
			return err
		}
		f.cachedEventStore = cached
	}
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		if typed == nil {
			return nil, fmt.Errorf("sqlstore: bun db is required")
		}
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}

// Package migrations registers the embedded guard event schema with a
// go-persistence-bun client.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	tradeguard "github.com/goliatone/go-tradeguard"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// DefaultSourceLabel identifies tradeguard migrations in the migrator.
const DefaultSourceLabel = "go-tradeguard"

var dialectDirs = []struct {
	dialect string
	dir     string
}{
	{DialectPostgres, "data/sql/migrations"},
	{DialectSQLite, "data/sql/migrations/sqlite"},
}

// Source is the migration tree of one dialect.
type Source struct {
	Dialect  string
	Path     string
	FS       fs.FS
	Versions []string
}

// RegisterFunc receives the migration tree of one dialect, typically to pass
// it to persistence.Client.RegisterSQLMigrations.
type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*registerConfig)

type registerConfig struct {
	label    string
	dialects []string
	root     fs.FS
}

func WithSourceLabel(label string) Option {
	return func(c *registerConfig) {
		if label = strings.TrimSpace(label); label != "" {
			c.label = label
		}
	}
}

// WithDialects limits registration to the named dialects.
func WithDialects(dialects ...string) Option {
	return func(c *registerConfig) {
		selected := make([]string, 0, len(dialects))
		for _, dialect := range dialects {
			dialect = strings.ToLower(strings.TrimSpace(dialect))
			if dialect != "" && !slices.Contains(selected, dialect) {
				selected = append(selected, dialect)
			}
		}
		c.dialects = selected
	}
}

// WithRoot reads migrations from root instead of the embedded tree.
func WithRoot(root fs.FS) Option {
	return func(c *registerConfig) {
		if root != nil {
			c.root = root
		}
	}
}

// Sources resolves the postgres and sqlite trees of root and checks each of
// them with Versions.
func Sources(root fs.FS) ([]Source, error) {
	if root == nil {
		root = tradeguard.GetMigrationsFS()
	}
	sources := make([]Source, 0, len(dialectDirs))
	for _, entry := range dialectDirs {
		sub, err := fs.Sub(root, entry.dir)
		if err != nil {
			return nil, fmt.Errorf("migrations: open %s: %w", entry.dir, err)
		}
		versions, err := Versions(sub)
		if err != nil {
			return nil, fmt.Errorf("migrations: %s: %w", entry.dialect, err)
		}
		sources = append(sources, Source{
			Dialect:  entry.dialect,
			Path:     entry.dir,
			FS:       sub,
			Versions: versions,
		})
	}
	return sources, nil
}

// Versions lists the migration names of fsys in apply order. Every up
// migration must ship with its down counterpart.
func Versions(fsys fs.FS) ([]string, error) {
	if fsys == nil {
		return nil, fmt.Errorf("filesystem is nil")
	}
	ups, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, err
	}
	if len(ups) == 0 {
		return nil, fmt.Errorf("no *.up.sql files")
	}
	slices.Sort(ups)

	versions := make([]string, 0, len(ups))
	for _, up := range ups {
		name := strings.TrimSuffix(up, ".up.sql")
		if _, err := fs.Stat(fsys, name+".down.sql"); err != nil {
			return nil, fmt.Errorf("migration %s has no down file: %w", name, err)
		}
		versions = append(versions, name)
	}
	return versions, nil
}

// Register hands the migrations of every selected dialect to register and
// returns the sources it registered.
func Register(ctx context.Context, register RegisterFunc, opts ...Option) ([]Source, error) {
	if register == nil {
		return nil, fmt.Errorf("migrations: register function is required")
	}
	cfg := registerConfig{
		label:    DefaultSourceLabel,
		dialects: []string{DialectPostgres, DialectSQLite},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if len(cfg.dialects) == 0 {
		return nil, fmt.Errorf("migrations: at least one dialect is required")
	}

	sources, err := Sources(cfg.root)
	if err != nil {
		return nil, err
	}
	registered := make([]Source, 0, len(cfg.dialects))
	for _, dialect := range cfg.dialects {
		idx := slices.IndexFunc(sources, func(source Source) bool { return source.Dialect == dialect })
		if idx < 0 {
			return registered, fmt.Errorf("migrations: unsupported dialect %q", dialect)
		}
		source := sources[idx]
		if err := register(ctx, source.Dialect, cfg.label, source.FS); err != nil {
			return registered, fmt.Errorf("migrations: register %s: %w", source.Dialect, err)
		}
		registered = append(registered, source)
	}
	return registered, nil
}

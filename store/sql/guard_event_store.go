package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-tradeguard/core"
	"github.com/uptrace/bun"
)

// GuardEventStore persists guard events in the tradeguard_guard_events table.
type GuardEventStore struct {
	db   *bun.DB
	repo repository.Repository[*guardEventRecord]
}

func NewGuardEventStore(db *bun.DB) (*GuardEventStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*guardEventRecord](db, guardEventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid guard event repository wiring: %w", err)
		}
	}
	return &GuardEventStore{db: db, repo: repo}, nil
}

func (s *GuardEventStore) Record(ctx context.Context, event core.GuardEvent) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: guard event store is not configured")
	}
	event, err := core.NormalizeGuardEvent(event)
	if err != nil {
		return err
	}
	_, err = s.repo.Create(ctx, &guardEventRecord{
		ID:        event.ID,
		Operation: event.Operation,
		Kind:      string(event.Kind),
		Token:     canonicalToken(event.Token),
		Version:   event.Version,
		Error:     event.Error,
		CreatedAt: event.CreatedAt,
	})
	return err
}

func (s *GuardEventStore) List(ctx context.Context, filter core.GuardEventFilter) (core.GuardEventPage, error) {
	if s == nil || s.repo == nil {
		return core.GuardEventPage{}, fmt.Errorf("sqlstore: guard event store is not configured")
	}
	page, perPage, offset := filter.Pagination()

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if operation := strings.TrimSpace(filter.Operation); operation != "" {
		selectors = append(selectors, repository.SelectBy("operation", "=", operation))
	}
	if kind := strings.TrimSpace(string(filter.Kind)); kind != "" {
		selectors = append(selectors, repository.SelectBy("kind", "=", kind))
	}
	if token := strings.TrimSpace(filter.Token); token != "" {
		selectors = append(selectors, repository.SelectBy("token", "=", canonicalToken(token)))
	}
	if filter.From != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", ">=", filter.From.UTC()))
	}
	if filter.To != nil {
		selectors = append(selectors, repository.SelectByTimetz("created_at", "<=", filter.To.UTC()))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.GuardEventPage{}, err
	}
	items := make([]core.GuardEvent, 0, len(records))
	for _, record := range records {
		items = append(items, guardEventRecordToDomain(record))
	}
	return core.GuardEventPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

// Prune deletes every event of the given operation and returns the number of
// rows removed. An empty operation removes all events.
func (s *GuardEventStore) Prune(ctx context.Context, operation string) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: guard event store is not configured")
	}
	query := s.db.NewDelete().Model((*guardEventRecord)(nil))
	if operation = strings.TrimSpace(operation); operation != "" {
		query = query.Where("operation = ?", operation)
	} else {
		query = query.Where("1 = 1")
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

func guardEventRecordToDomain(record *guardEventRecord) core.GuardEvent {
	if record == nil {
		return core.GuardEvent{}
	}
	return core.GuardEvent{
		ID:        strings.TrimSpace(record.ID),
		Operation: record.Operation,
		Kind:      core.GuardEventKind(record.Kind),
		Token:     record.Token,
		Version:   record.Version,
		Error:     record.Error,
		CreatedAt: record.CreatedAt.UTC(),
	}
}

// canonicalToken rewrites hex addresses to their checksummed form so lookups
// ignore letter case.
func canonicalToken(token string) string {
	token = strings.TrimSpace(token)
	if common.IsHexAddress(token) {
		return common.HexToAddress(token).Hex()
	}
	return token
}

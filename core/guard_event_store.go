package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultGuardEventPageSize = 25

// MemoryGuardEventStore keeps guard events in process memory.
type MemoryGuardEventStore struct {
	mu     sync.RWMutex
	events []GuardEvent
}

func NewMemoryGuardEventStore() *MemoryGuardEventStore {
	return &MemoryGuardEventStore{}
}

func (s *MemoryGuardEventStore) Record(_ context.Context, event GuardEvent) error {
	if s == nil {
		return fmt.Errorf("core: guard event store is nil")
	}
	event, err := NormalizeGuardEvent(event)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

func (s *MemoryGuardEventStore) List(_ context.Context, filter GuardEventFilter) (GuardEventPage, error) {
	if s == nil {
		return GuardEventPage{}, fmt.Errorf("core: guard event store is nil")
	}
	page, perPage, offset := filter.Pagination()

	s.mu.RLock()
	matched := make([]GuardEvent, 0, len(s.events))
	for _, event := range s.events {
		if filter.Matches(event) {
			matched = append(matched, event)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	items := []GuardEvent{}
	if offset < total {
		end := offset + perPage
		if end > total {
			end = total
		}
		items = append(items, matched[offset:end]...)
	}
	return GuardEventPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

// NormalizeGuardEvent trims fields and fills the id and timestamp.
func NormalizeGuardEvent(event GuardEvent) (GuardEvent, error) {
	event.Operation = strings.TrimSpace(event.Operation)
	event.Token = strings.TrimSpace(event.Token)
	if event.Operation == "" {
		return GuardEvent{}, fmt.Errorf("core: guard event operation is required")
	}
	switch event.Kind {
	case GuardEventApprovalSubmitted, GuardEventApprovalFailed, GuardEventVersionRejected:
	default:
		return GuardEvent{}, fmt.Errorf("core: invalid guard event kind %q", event.Kind)
	}
	if strings.TrimSpace(event.ID) == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	event.CreatedAt = event.CreatedAt.UTC()
	return event, nil
}

// Pagination resolves the page window, defaulting to the first page of 25.
func (f GuardEventFilter) Pagination() (page int, perPage int, offset int) {
	page = f.Page
	if page <= 0 {
		page = 1
	}
	perPage = f.PerPage
	if perPage <= 0 {
		perPage = defaultGuardEventPageSize
	}
	return page, perPage, (page - 1) * perPage
}

func (f GuardEventFilter) Matches(event GuardEvent) bool {
	if operation := strings.TrimSpace(f.Operation); operation != "" && operation != event.Operation {
		return false
	}
	if f.Kind != "" && f.Kind != event.Kind {
		return false
	}
	if token := strings.TrimSpace(f.Token); token != "" && !strings.EqualFold(token, event.Token) {
		return false
	}
	if f.From != nil && event.CreatedAt.Before(f.From.UTC()) {
		return false
	}
	if f.To != nil && event.CreatedAt.After(f.To.UTC()) {
		return false
	}
	return true
}

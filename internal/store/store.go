// Package store holds the last-fetched list state the admin views render:
// items, pagination, a loading flag and the last error. Stores never parse
// responses themselves; they dispatch to a fetch function and record what
// came back.
package store

import (
	"context"
	"sync"

	"github.com/AliShanawar/sitelink/internal/api/rest"
	"github.com/AliShanawar/sitelink/internal/models"
)

// Fetcher loads one page of a resource.
type Fetcher[T any] func(ctx context.Context, q rest.ListQuery) ([]T, *models.Pagination, error)

// ListStore is the state container for one list view. Reads return
// snapshots; a failed load keeps the previously fetched items.
type ListStore[T any] struct {
	fetch Fetcher[T]

	mu         sync.Mutex
	items      []T
	pagination models.Pagination
	loading    bool
	lastError  string
}

func NewListStore[T any](fetch Fetcher[T]) *ListStore[T] {
	return &ListStore[T]{fetch: fetch}
}

// Load fetches one page and records the outcome. Synchronous; callers that
// want it off their goroutine wrap it themselves.
func (s *ListStore[T]) Load(ctx context.Context, q rest.ListQuery) {
	s.mu.Lock()
	s.loading = true
	s.lastError = ""
	s.mu.Unlock()

	items, page, err := s.fetch(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastError = err.Error()
		return
	}
	s.items = items
	if page != nil {
		s.pagination = *page
	} else {
		s.pagination = models.Pagination{}
	}
}

func (s *ListStore[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *ListStore[T]) Pagination() models.Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination
}

func (s *ListStore[T]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *ListStore[T]) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

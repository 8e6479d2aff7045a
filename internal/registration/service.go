package registration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository persists registration records in append order.
type Repository interface {
	// Append adds one record to the end of the store.
	Append(ctx context.Context, rec Record) error
	// LoadAll returns every record, oldest first. An absent store yields an empty slice.
	LoadAll(ctx context.Context) ([]Record, error)
	Ping(ctx context.Context) error
	Close() error
}

// Service validates submissions, stamps them and appends them to the repository.
type Service struct {
	repo Repository
	now  func() time.Time

	// mu makes stamp-and-append a single-writer section so that stored
	// timestamps never go backwards, whatever the backend.
	mu   sync.Mutex
	last time.Time
}

// NewService creates a service backed by a repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register validates the submission and appends a new timestamped record.
// CRLF line endings are folded to LF first; the returned record is exactly
// what the store will hand back.
func (s *Service) Register(ctx context.Context, sub Submission) (Record, error) {
	sub = sub.normalized()
	if err := sub.Validate(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC().Truncate(time.Second)
	if ts.Before(s.last) {
		ts = s.last
	}

	rec := Record{
		ID:        uuid.NewString(),
		Name:      sub.Name,
		Mobile:    sub.Mobile,
		Course:    sub.Course,
		Extra:     sub.Extra,
		Timestamp: ts,
	}
	if err := s.repo.Append(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("append registration: %w", err)
	}
	s.last = ts
	return rec, nil
}

// List returns every stored record, oldest first.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	recs, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registrations: %w", err)
	}
	return recs, nil
}

// Healthy reports whether the repository is reachable.
func (s *Service) Healthy(ctx context.Context) bool {
	return s.repo.Ping(ctx) == nil
}

package eventpublisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/usecase"
)

func TestProcessEventsPublishesAndMarks(t *testing.T) {
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{{ID: "evt-1", EventType: domain.EventTypeMovementPosted}},
	}
	pub := &stubPublisher{}
	obs := &stubObserver{}
	ep := newTestPublisher(repo, pub)
	ep.observer = obs

	n, err := ep.ProcessEvents(context.Background())
	if err != nil {
		t.Fatalf("ProcessEvents failed: %v", err)
	}

	if n != 1 || len(pub.published) != 1 {
		t.Fatalf("expected one published event, got n=%d published=%d", n, len(pub.published))
	}
	if len(repo.marked) != 1 || repo.marked[0] != "evt-1" {
		t.Fatalf("expected event to be marked published, got %#v", repo.marked)
	}
	if obs.published[domain.EventTypeMovementPosted] != 1 {
		t.Fatalf("expected observer to see the event, got %#v", obs.published)
	}
}

func TestProcessEventsContinuesOnPublishError(t *testing.T) {
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{
			{ID: "evt-1", EventType: "type"},
			{ID: "evt-2", EventType: "type"},
		},
	}
	pub := &stubPublisher{
		errorsByID: map[string]error{"evt-1": errors.New("fail")},
	}
	obs := &stubObserver{}
	ep := newTestPublisher(repo, pub)
	ep.observer = obs

	if _, err := ep.ProcessEvents(context.Background()); err != nil {
		t.Fatalf("ProcessEvents returned error: %v", err)
	}

	if len(pub.published) != 1 || pub.published[0].ID != "evt-2" {
		t.Fatalf("expected only evt-2 to be published, got %#v", pub.published)
	}
	if len(repo.marked) != 1 || repo.marked[0] != "evt-2" {
		t.Fatalf("expected only evt-2 to be marked, got %#v", repo.marked)
	}
	if obs.failed != 1 {
		t.Fatalf("expected one failure, got %d", obs.failed)
	}
}

func TestDrainEmptiesOutbox(t *testing.T) {
	repo := &stubOutboxRepo{}
	for i := 0; i < 25; i++ {
		repo.events = append(repo.events, &domain.OutboxEvent{ID: string(rune('a' + i)), EventType: "type"})
	}
	ep := newTestPublisher(repo, &stubPublisher{})

	n, err := ep.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if n != 25 {
		t.Fatalf("expected 25 events drained, got %d", n)
	}
}

func TestDrainStopsWhenNothingPublishes(t *testing.T) {
	repo := &stubOutboxRepo{events: []*domain.OutboxEvent{{ID: "evt-1"}}}
	pub := &stubPublisher{errorsByID: map[string]error{"evt-1": errors.New("broker down")}}
	ep := newTestPublisher(repo, pub)

	n, err := ep.Drain(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected Drain to stop with nothing published, got n=%d err=%v", n, err)
	}
}

func TestCleanupUsesRetention(t *testing.T) {
	repo := &stubOutboxRepo{}
	ep := newTestPublisher(repo, &stubPublisher{})
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	ep.now = func() time.Time { return now }

	if err := ep.cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if repo.deletedBefore != nil {
		t.Fatalf("expected no deletion without retention")
	}

	ep.retention = 24 * time.Hour
	if err := ep.cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if repo.deletedBefore == nil || !repo.deletedBefore.Equal(now.Add(-24*time.Hour)) {
		t.Fatalf("expected deletion cutoff one day back, got %v", repo.deletedBefore)
	}
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	repo := &stubOutboxRepo{}
	pub := &stubPublisher{}
	ep := newTestPublisher(repo, pub)
	ep.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ep.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}

func newTestPublisher(repo *stubOutboxRepo, pub *stubPublisher) *EventPublisher {
	return NewEventPublisher(Config{
		OutboxRepo: repo,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
		BatchSize:  10,
		Interval:   5 * time.Millisecond,
	})
}

type stubOutboxRepo struct {
	events        []*domain.OutboxEvent
	marked        []string
	deletedBefore *time.Time
}

func (s *stubOutboxRepo) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return nil
}

func (s *stubOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	var pending []*domain.OutboxEvent
	for _, e := range s.events {
		if !e.Published {
			pending = append(pending, e)
		}
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (s *stubOutboxRepo) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	s.marked = append(s.marked, id)
	for _, e := range s.events {
		if e.ID == id {
			e.Published = true
		}
	}
	return nil
}

func (s *stubOutboxRepo) DeletePublished(ctx context.Context, before time.Time) error {
	s.deletedBefore = &before
	return nil
}

type stubPublisher struct {
	published  []*domain.OutboxEvent
	errorsByID map[string]error
}

func (s *stubPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	if err := s.errorsByID[event.ID]; err != nil {
		return err
	}
	s.published = append(s.published, event)
	return nil
}

type stubObserver struct {
	published map[string]int
	failed    int
}

func (s *stubObserver) EventPublished(eventType string) {
	if s.published == nil {
		s.published = map[string]int{}
	}
	s.published[eventType]++
}

func (s *stubObserver) EventPublishFailed() {
	s.failed++
}

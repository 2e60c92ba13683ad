package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/darkr4m/5StarK9/internal/core/domain"
)

type memAuditRepo struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	block  chan struct{}
	err    error
}

func (r *memAuditRepo) Insert(_ context.Context, e *domain.AuditEvent) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return r.err
}

func (r *memAuditRepo) snapshot() []domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEvent(nil), r.events...)
}

func TestDispatcher_WritesInOrderPerEmail(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewDispatcher(3, repo, zerolog.Nop())
	d.Start()

	actions := []domain.AuditAction{domain.AuditRegistered, domain.AuditLoginSuccess, domain.AuditLogout}
	for _, a := range actions {
		d.Record(domain.AuditEvent{Action: a, Email: "ann@example.com"})
		d.Record(domain.AuditEvent{Action: a, Email: "bob@example.com"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	var ann []domain.AuditAction
	for _, e := range repo.snapshot() {
		if e.Email == "ann@example.com" {
			ann = append(ann, e.Action)
		}
	}
	if len(ann) != len(actions) {
		t.Fatalf("expected %d events for ann, got %v", len(actions), ann)
	}
	for i := range actions {
		if ann[i] != actions[i] {
			t.Fatalf("events out of order: %v", ann)
		}
	}
	if len(repo.snapshot()) != 6 {
		t.Fatalf("expected all events drained on stop")
	}
}

func TestDispatcher_DropsWhenFullOrStopped(t *testing.T) {
	repo := &memAuditRepo{block: make(chan struct{})}
	d := NewDispatcher(1, repo, zerolog.Nop())

	var dropped int
	d.OnDrop(func(domain.AuditEvent) { dropped++ })

	// workers not started, so the queue fills up
	for i := 0; i < channelBuffer+5; i++ {
		d.Record(domain.AuditEvent{Action: domain.AuditLoginFailure, Email: "x@example.com"})
	}
	if dropped != 5 {
		t.Fatalf("expected 5 dropped events, got %d", dropped)
	}

	close(repo.block)
	d.Start()
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	d.Record(domain.AuditEvent{Action: domain.AuditLogout, Email: "x@example.com"})
	if dropped != 6 {
		t.Fatalf("expected record after stop to be dropped, got %d", dropped)
	}
	if got := len(repo.snapshot()); got != channelBuffer {
		t.Fatalf("expected %d written events, got %d", channelBuffer, got)
	}
}

func TestDispatcher_InsertErrorDoesNotStopWorker(t *testing.T) {
	repo := &memAuditRepo{err: errors.New("mongo down")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start()

	d.Record(domain.AuditEvent{Action: domain.AuditLoginSuccess, Email: "a@example.com"})
	d.Record(domain.AuditEvent{Action: domain.AuditLogout, Email: "a@example.com"})
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if got := len(repo.snapshot()); got != 2 {
		t.Fatalf("expected both inserts attempted, got %d", got)
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(0, &memAuditRepo{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected default worker count")
	}
	if d.shardIndex("same@example.com") != d.shardIndex("same@example.com") {
		t.Fatalf("shard index must be deterministic")
	}
}

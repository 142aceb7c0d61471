package queue

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ab7289/dining-concierge/internal/model"
)

// startPostgres spins up a throwaway Postgres container. Gated behind
// CONCIERGE_TEST_DOCKER so unit runs stay docker-free.
func startPostgres(t *testing.T) *PGQueue {
	t.Helper()
	if os.Getenv("CONCIERGE_TEST_DOCKER") == "" {
		t.Skip("CONCIERGE_TEST_DOCKER not set; skipping queue integration test")
	}

	ctx := context.Background()
	ctr, err := pgcontainer.Run(ctx, "postgres:16-alpine",
		pgcontainer.WithDatabase("concierge"),
		pgcontainer.WithUsername("test"),
		pgcontainer.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	q := New(db, Config{BatchSize: 10, Interval: time.Second}, zerolog.Nop())
	if err := q.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return q
}

type recordingProcessor struct {
	seen []string
	fail map[string]error
}

func (p *recordingProcessor) Process(ctx context.Context, msg *Message) error {
	if err := p.fail[msg.DedupeID]; err != nil {
		return err
	}
	p.seen = append(p.seen, msg.DedupeID)
	return nil
}

func emitReq(t *testing.T, q *PGQueue, group, dedupe string) {
	t.Helper()
	req := sampleRequest()
	req.GroupID = group
	req.DedupeID = dedupe
	if err := q.Emit(context.Background(), req); err != nil {
		t.Fatalf("emit %s/%s: %v", group, dedupe, err)
	}
}

func TestPGQueue_FIFOWithinGroupAndDedupe(t *testing.T) {
	q := startPostgres(t)
	ctx := context.Background()

	emitReq(t, q, "conv-a", "a1")
	emitReq(t, q, "conv-a", "a2")
	emitReq(t, q, "conv-b", "b1")
	// Exact resubmission of the same dedupe token is dropped.
	emitReq(t, q, "conv-a", "a1")

	proc := &recordingProcessor{}
	// First pass may only see the head of each group; drain with a few passes.
	for i := 0; i < 3; i++ {
		if err := q.processOnce(ctx, proc); err != nil {
			t.Fatalf("processOnce: %v", err)
		}
	}

	if len(proc.seen) != 3 {
		t.Fatalf("processed %d messages, want 3 (dedupe dropped): %v", len(proc.seen), proc.seen)
	}
	// a1 must come before a2; conv-b may interleave anywhere.
	var aOrder []string
	for _, id := range proc.seen {
		if id == "a1" || id == "a2" {
			aOrder = append(aOrder, id)
		}
	}
	if len(aOrder) != 2 || aOrder[0] != "a1" || aOrder[1] != "a2" {
		t.Fatalf("group conv-a out of order: %v", proc.seen)
	}
}

func TestPGQueue_FailedMessageBacksOffAndRedelivers(t *testing.T) {
	q := startPostgres(t)
	ctx := context.Background()

	emitReq(t, q, "conv-c", "c1")

	proc := &recordingProcessor{fail: map[string]error{
		"c1": &model.DeliveryError{Err: errors.New("smtp rejected")},
	}}
	if err := q.processOnce(ctx, proc); err != nil {
		t.Fatalf("processOnce: %v", err)
	}
	if len(proc.seen) != 0 {
		t.Fatalf("failed message must not be acknowledged: %v", proc.seen)
	}

	// Clear the failure and wait out the first backoff interval.
	proc.fail = nil
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) && len(proc.seen) == 0 {
		if err := q.processOnce(ctx, proc); err != nil {
			t.Fatalf("processOnce: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
	if len(proc.seen) != 1 || proc.seen[0] != "c1" {
		t.Fatalf("expected redelivery of c1, got %v", proc.seen)
	}
}

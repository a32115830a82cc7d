package leaselock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type row struct {
	key string
	err error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.key
	return nil
}

// memoryLocks emulates the roster_locks table without expiry.
type memoryLocks struct {
	mu      sync.Mutex
	owners  map[string]string
	renewed int
	fail    error
}

func newMemoryLocks() *memoryLocks {
	return &memoryLocks{owners: map[string]string{}}
}

func (m *memoryLocks) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return row{err: m.fail}
	}
	key, token := args[0].(string), args[1].(string)
	switch sql {
	case tryAcquireSQL:
		if owner, ok := m.owners[key]; ok && owner != token {
			return row{err: pgx.ErrNoRows}
		}
		m.owners[key] = token
		return row{key: key}
	case renewSQL:
		if m.owners[key] != token {
			return row{err: pgx.ErrNoRows}
		}
		m.renewed++
		return row{key: key}
	}
	return row{err: errors.New("unexpected query")}
}

func (m *memoryLocks) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, token := args[0].(string), args[1].(string)
	if sql == releaseSQL && m.owners[key] == token {
		delete(m.owners, key)
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.NewCommandTag("DELETE 0"), nil
}

func TestSchoolKey(t *testing.T) {
	if got := SchoolKey("42", KindNotes); got != "school:42:notes" {
		t.Errorf("SchoolKey() = %q", got)
	}
}

func TestAcquireBusyAndRelease(t *testing.T) {
	db := newMemoryLocks()
	c := New(db)
	ctx := context.Background()
	key := SchoolKey("s1", KindNotes)

	first, err := c.Acquire(ctx, key, Options{TokenPrefix: "worker-"})
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := c.Acquire(ctx, key, Options{}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	if err := first.Release(ctx); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if first.Context.Err() == nil {
		t.Errorf("lease context should be cancelled after release")
	}

	second, err := c.Acquire(ctx, key, Options{})
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	_ = second.Release(ctx)
}

func TestWithLeaseReleases(t *testing.T) {
	db := newMemoryLocks()
	c := New(db)
	key := SchoolKey("s2", KindNotes)

	ran := false
	err := c.WithLease(context.Background(), key, Options{}, func(ctx context.Context) error {
		ran = true
		if len(db.owners) != 1 {
			t.Errorf("lock not held inside fn")
		}
		return nil
	})
	if err != nil || !ran {
		t.Fatalf("WithLease() = %v, ran = %v", err, ran)
	}
	if len(db.owners) != 0 {
		t.Errorf("lock not released: %v", db.owners)
	}
}

func TestWithLeasePropagatesError(t *testing.T) {
	c := New(newMemoryLocks())
	boom := errors.New("boom")
	err := c.WithLease(context.Background(), "k", Options{}, func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestWithLeaseReportsLostLock(t *testing.T) {
	db := newMemoryLocks()
	c := New(db)
	key := SchoolKey("s3", KindNotes)

	opts := Options{TTL: time.Hour, RenewEvery: 10 * time.Millisecond}
	err := c.WithLease(context.Background(), key, opts, func(ctx context.Context) error {
		db.mu.Lock()
		db.owners[key] = "someone-else"
		db.mu.Unlock()

		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-time.After(5 * time.Second):
			return errors.New("lease context was not cancelled")
		}
	})
	if !errors.Is(err, ErrLost) {
		t.Fatalf("expected ErrLost, got %v", err)
	}
	if db.owners[key] != "someone-else" {
		t.Errorf("release must not delete a lock taken over by another holder")
	}
}

func TestAcquireWaitsUntilContextDone(t *testing.T) {
	db := newMemoryLocks()
	db.owners["k"] = "someone-else"
	c := New(db)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Acquire(ctx, "k", Options{Wait: true, WaitInterval: 10 * time.Millisecond})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestAcquireRejectsEmptyKey(t *testing.T) {
	if _, err := New(newMemoryLocks()).Acquire(context.Background(), "", Options{}); err == nil {
		t.Fatalf("expected an error for an empty key")
	}
}

func TestAcquireDatabaseError(t *testing.T) {
	db := newMemoryLocks()
	db.fail = errors.New("connection refused")
	if _, err := New(db).Acquire(context.Background(), "k", Options{}); err == nil || errors.Is(err, ErrBusy) {
		t.Fatalf("expected a database error, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	opts := normalize(Options{TTL: 10 * time.Second, RenewEvery: time.Minute})
	if opts.RenewEvery != 5*time.Second {
		t.Errorf("RenewEvery = %v", opts.RenewEvery)
	}
	opts = normalize(Options{})
	if opts.TTL != 5*time.Minute || opts.WaitInterval != 250*time.Millisecond {
		t.Errorf("defaults = %#v", opts)
	}
}

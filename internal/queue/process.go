package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/family"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/leaselock"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/store"
)

// Locker is satisfied by *leaselock.Client.
type Locker interface {
	WithLease(ctx context.Context, key string, opts leaselock.Options, fn func(ctx context.Context) error) error
}

// Processor handles the messages of every work queue. Writes to the notes of
// a school are serialized through the school's notes lease.
type Processor struct {
	storage store.RosterStorage
	family  *family.Client
	locks   Locker
	lease   leaselock.Options
}

type NewProcessorParams struct {
	Storage store.RosterStorage
	Family  *family.Client
	Locks   Locker
	Lease   leaselock.Options
}

func NewProcessor(params NewProcessorParams) *Processor {
	lease := params.Lease
	if lease.TTL <= 0 {
		lease.TTL = 10 * time.Minute
	}
	lease.Wait = true
	return &Processor{
		storage: params.Storage,
		family:  params.Family,
		locks:   params.Locks,
		lease:   lease,
	}
}

// Process dispatches body to the handler of queueName.
func (p *Processor) Process(ctx context.Context, queueName string, body []byte) error {
	switch queueName {
	case PropagateQueue:
		return p.ProcessPropagateMessage(ctx, body)
	case CleanupQueue:
		return p.ProcessCleanupMessage(ctx, body)
	default:
		return fmt.Errorf("%w: unknown queue %s", ErrInvalidMessage, queueName)
	}
}

func (p *Processor) withSchoolLease(ctx context.Context, schoolID, owner string, fn func(ctx context.Context) error) error {
	opts := p.lease
	opts.TokenPrefix = owner + "/"
	return p.locks.WithLease(ctx, leaselock.SchoolKey(schoolID, leaselock.KindNotes), opts, fn)
}

// ProcessPropagateMessage infers the relationships implied around one student
// and merges them into the stored notes. It fails, and is retried, only when
// nothing could be written.
func (p *Processor) ProcessPropagateMessage(ctx context.Context, body []byte) error {
	msg, err := decodePropagate(body)
	if err != nil {
		return err
	}

	return p.withSchoolLease(ctx, msg.SchoolID, "propagate", func(ctx context.Context) error {
		if _, err := p.storage.GetStudent(ctx, msg.SchoolID, msg.StudentID); err != nil {
			return fmt.Errorf("failed to load student %s: %w", msg.StudentID, err)
		}

		snap, err := store.LoadSnapshot(ctx, p.storage, msg.SchoolID)
		if err != nil {
			return err
		}

		res := p.family.PropagateForStudent(snap, msg.StudentID)
		if res.Count == 0 {
			logger.Info("[Queue] Nothing to propagate", "school_id", msg.SchoolID, "student_id", msg.StudentID, "correlation_id", msg.CorrelationID)
			return nil
		}
		for _, d := range res.Details {
			logger.Debug("[Queue] Inferred relationship", "detail", d.String())
		}

		report, err := p.family.ApplyPropagation(ctx, snap, res)
		if err != nil {
			return err
		}
		if report.Updated == 0 && len(report.Skipped) > 0 {
			return fmt.Errorf("no inferred relationship could be persisted (%d skipped)", len(report.Skipped))
		}

		logger.Info("[Queue] Propagation persisted",
			"school_id", msg.SchoolID,
			"student_id", msg.StudentID,
			"correlation_id", msg.CorrelationID,
			"updated", report.Updated,
			"added", report.Added,
			"skipped", len(report.Skipped),
		)
		return nil
	})
}

// ProcessCleanupMessage removes invalid relationships from every student of
// a school.
func (p *Processor) ProcessCleanupMessage(ctx context.Context, body []byte) error {
	msg, err := decodeCleanup(body)
	if err != nil {
		return err
	}

	return p.withSchoolLease(ctx, msg.SchoolID, "cleanup", func(ctx context.Context) error {
		snap, err := store.LoadSnapshot(ctx, p.storage, msg.SchoolID)
		if err != nil {
			return err
		}

		report, err := p.family.Clean(ctx, snap)
		if err != nil {
			return err
		}

		logger.Info("[Queue] Cleanup finished",
			"school_id", msg.SchoolID,
			"correlation_id", msg.CorrelationID,
			"updated", report.Updated,
			"fixes", len(report.Fixes),
			"skipped", len(report.Skipped),
		)
		return nil
	})
}

// Package family bundles the relationship engine behind one client that
// works on roster snapshots.
package family

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/util"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/cleaner"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/diagnostics"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/graph"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/notes"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/propagation"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/roster"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/taxonomy"
)

// Snapshot is the roster of one school as fetched by the caller.
type Snapshot struct {
	Students  []common.Student  `json:"students"`
	Guardians []common.Guardian `json:"guardians"`
}

// Index builds the lookup index of the snapshot.
func (s Snapshot) Index() *roster.Index {
	return roster.New(s.Students, s.Guardians)
}

// Client runs diagnosis, cleaning, propagation and tree building over
// snapshots. It holds no roster state between calls.
//
// A Client should be created using NewClient.
type Client struct {
	writer     cleaner.NotesWriter
	maxRetries int

	diagnoser *diagnostics.Diagnoser
	cleaner   *cleaner.Cleaner
	engine    *propagation.Engine
	builder   *graph.Builder
}

// NewClientParams defines the configuration parameters for creating
// a new Client.
//
// Writer persists notes blobs; without one Clean and ApplyPropagation only
// compute. Now overrides the clock used for timestamps. Table overrides the
// composition rules used by propagation. Layout overrides the tree spacing.
type NewClientParams struct {
	Writer     cleaner.NotesWriter
	MaxRetries int
	Now        func() time.Time
	Table      *taxonomy.Table
	Layout     graph.Layout
}

// NewClient creates and returns a new Client configured with the provided
// parameters.
func NewClient(params NewClientParams) *Client {
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Client{
		writer:     params.Writer,
		maxRetries: maxRetries,
		diagnoser:  diagnostics.NewDiagnoser(diagnostics.NewDiagnoserParams{Now: params.Now}),
		cleaner:    cleaner.NewCleaner(cleaner.NewCleanerParams{Writer: params.Writer, MaxRetries: maxRetries}),
		engine:     propagation.NewEngine(propagation.NewEngineParams{Table: params.Table, Now: params.Now}),
		builder:    graph.NewBuilder(graph.NewBuilderParams{Layout: params.Layout}),
	}
}

func (c *Client) Diagnose(s Snapshot) diagnostics.Result {
	return c.diagnoser.Diagnose(s.Index())
}

// Clean removes invalid relationship entries and persists the students that
// changed through the client's writer.
func (c *Client) Clean(ctx context.Context, s Snapshot) (cleaner.Report, error) {
	return c.cleaner.CleanInvalidRelationships(ctx, s.Students)
}

func (c *Client) Propagate(s Snapshot) propagation.Result {
	return c.engine.Propagate(s.Index())
}

func (c *Client) PropagateForStudent(s Snapshot, studentID string) propagation.Result {
	return c.engine.PropagateForStudent(s.Index(), studentID)
}

// BuildTree lays out the snapshot. When groups is nil the students are
// clustered by primary guardian first.
func (c *Client) BuildTree(s Snapshot, groups []common.FamilyGroup) graph.Result {
	if groups == nil {
		groups = graph.GroupByGuardian(s.Students, s.Guardians)
	}
	return c.builder.Build(groups, s.Index())
}

// ApplyReport summarizes a propagation persisted by ApplyPropagation.
type ApplyReport struct {
	Updated int              `json:"updated"`
	Added   int              `json:"added"`
	Skipped []common.Skipped `json:"skipped,omitempty"`
}

// ApplyPropagation merges inferred relationships into each student's notes
// and writes the students that gained entries. Students whose notes cannot
// be parsed are left untouched. The returned error is only set when ctx is
// cancelled or the client has no writer.
func (c *Client) ApplyPropagation(ctx context.Context, s Snapshot, res propagation.Result) (ApplyReport, error) {
	var report ApplyReport
	if c.writer == nil {
		return report, cleaner.ErrNoWriter
	}

	idx := s.Index()
	unparsable := make(map[string]bool, len(idx.Skipped))
	for _, sk := range idx.Skipped {
		unparsable[sk.StudentID] = true
	}

	ids := make([]string, 0, len(res.NewRelationships))
	for id := range res.NewRelationships {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, ok := idx.Student(id); !ok {
			report.Skipped = append(report.Skipped, common.Skipped{StudentID: id, Reason: "student not found"})
			continue
		}
		if unparsable[id] {
			report.Skipped = append(report.Skipped, common.Skipped{StudentID: id, Reason: "notes could not be parsed"})
			continue
		}

		merged, added := propagation.Merge(idx.Notes(id), res.NewRelationships[id])
		if added == 0 {
			continue
		}
		blob := notes.Stringify(merged)
		err := util.RetryErrWithContext(ctx, c.maxRetries, func(ctx context.Context) error {
			return c.writer.UpdateStudentNotes(ctx, id, blob)
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			logger.Error("[Family] Failed to persist inferred relationships", "student_id", id, "err", err)
			report.Skipped = append(report.Skipped, common.Skipped{StudentID: id, Reason: fmt.Sprintf("persist failed: %v", err)})
			continue
		}
		report.Updated++
		report.Added += added
	}

	logger.Info("[Family] Applied inferred relationships", "updated", report.Updated, "added", report.Added, "skipped", len(report.Skipped))
	return report, nil
}

package family

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/util"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/cleaner"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/notes"
)

func init() {
	util.RetryBackoff = 0
}

type memoryWriter struct {
	mu    sync.Mutex
	blobs map[string]string
	fail  error
}

func (w *memoryWriter) UpdateStudentNotes(_ context.Context, studentID, blob string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	if w.blobs == nil {
		w.blobs = map[string]string{}
	}
	w.blobs[studentID] = blob
	return nil
}

func strPtr(s string) *string { return &s }

var fixedNow = time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)

func snapshot() Snapshot {
	return Snapshot{
		Students: []common.Student{
			{ID: "a", Name: "Ana", Notes: strPtr(`{"favoriteColor":"blue","familyRelationships":[{"relatedStudentId":"b","relationshipType":"SIBLING"}]}`)},
			{ID: "b", Name: "Bia", Notes: strPtr(`{"familyRelationships":[{"relatedStudentId":"a","relationshipType":"SIBLING"},{"relatedStudentId":"c","relationshipType":"SIBLING"}]}`)},
			{ID: "c", Name: "Caio", Notes: strPtr(`{"familyRelationships":[{"relatedStudentId":"b","relationshipType":"SIBLING"},{"relatedStudentId":"c","relationshipType":"GODPARENT_GODCHILD"}]}`)},
		},
		Guardians: []common.Guardian{
			{ID: "m1", StudentID: "a", Name: "Maria", Relation: common.GuardianMother, Email: "maria@example.com"},
			{ID: "m2", StudentID: "b", Name: "Maria", Relation: common.GuardianMother, Email: "maria@example.com"},
			{ID: "m3", StudentID: "c", Name: "Maria", Relation: common.GuardianMother, Email: "MARIA@example.com"},
		},
	}
}

func TestClientPropagateAndApply(t *testing.T) {
	w := &memoryWriter{}
	c := NewClient(NewClientParams{Writer: w, Now: func() time.Time { return fixedNow }})
	s := snapshot()

	res := c.Propagate(s)
	if res.Count != 2 {
		t.Fatalf("expected a->c and c->a, got %d", res.Count)
	}

	report, err := c.ApplyPropagation(context.Background(), s, res)
	if err != nil {
		t.Fatalf("ApplyPropagation() error = %v", err)
	}
	if report.Updated != 2 || report.Added != 2 {
		t.Fatalf("unexpected report %#v", report)
	}

	n := notes.ParseString(w.blobs["a"])
	if n == nil || len(n.FamilyRelationships) != 2 {
		t.Fatalf("a notes = %q", w.blobs["a"])
	}
	if _, ok := n.Extra["favoriteColor"]; !ok {
		t.Errorf("unknown field lost: %q", w.blobs["a"])
	}

	// Applying the merged roster again infers nothing new.
	s.Students[0].Notes = strPtr(w.blobs["a"])
	s.Students[2].Notes = strPtr(w.blobs["c"])
	if again := c.Propagate(s); again.Count != 0 {
		t.Errorf("expected nothing after merge, got %d", again.Count)
	}
}

func TestClientApplyWithoutWriter(t *testing.T) {
	c := NewClient(NewClientParams{})
	if _, err := c.ApplyPropagation(context.Background(), snapshot(), c.Propagate(snapshot())); !errors.Is(err, cleaner.ErrNoWriter) {
		t.Fatalf("expected ErrNoWriter, got %v", err)
	}
	if _, err := c.Clean(context.Background(), snapshot()); !errors.Is(err, cleaner.ErrNoWriter) {
		t.Fatalf("expected ErrNoWriter from Clean, got %v", err)
	}
}

func TestClientApplyRecordsFailures(t *testing.T) {
	w := &memoryWriter{fail: errors.New("db down")}
	c := NewClient(NewClientParams{Writer: w, MaxRetries: 2})
	s := snapshot()

	report, err := c.ApplyPropagation(context.Background(), s, c.Propagate(s))
	if err != nil {
		t.Fatalf("ApplyPropagation() error = %v", err)
	}
	if report.Updated != 0 || len(report.Skipped) != 2 {
		t.Fatalf("unexpected report %#v", report)
	}
}

func TestClientDiagnoseAndClean(t *testing.T) {
	w := &memoryWriter{}
	c := NewClient(NewClientParams{Writer: w, Now: func() time.Time { return fixedNow }})
	s := snapshot()

	diag := c.Diagnose(s)
	if diag.TotalIssues != 0 {
		t.Errorf("expected a clean diagnosis, got %#v", diag.Issues)
	}
	if !diag.Timestamp.Equal(fixedNow) {
		t.Errorf("timestamp = %v", diag.Timestamp)
	}

	report, err := c.Clean(context.Background(), s)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if report.Updated != 1 || len(report.Fixes) != 1 {
		t.Fatalf("unexpected clean report %#v", report)
	}
	if _, ok := w.blobs["c"]; !ok {
		t.Errorf("cleaned notes not written")
	}
}

func TestClientBuildTree(t *testing.T) {
	c := NewClient(NewClientParams{})
	res := c.BuildTree(snapshot(), nil)

	// One merged mother, three students, three responsible edges and the
	// two declared sibling pairs.
	if len(res.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(res.Nodes))
	}
	if len(res.Edges) != 5 {
		t.Fatalf("expected 5 edges, got %#v", res.Edges)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", res.Warnings)
	}
}

package store

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
)

type fakeStorage struct {
	mu          sync.Mutex
	students    []common.Student
	guardians   []common.Guardian
	guardianErr error
	calls       int
}

func (f *fakeStorage) ListStudents(_ context.Context, _ string) ([]common.Student, error) {
	return f.students, nil
}

func (f *fakeStorage) GetStudent(_ context.Context, _, id string) (common.Student, error) {
	for _, s := range f.students {
		if s.ID == id {
			return s, nil
		}
	}
	return common.Student{}, ErrNotFound
}

func (f *fakeStorage) ListGuardians(_ context.Context, ids []string) ([]common.Guardian, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.guardianErr != nil {
		return nil, f.guardianErr
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []common.Guardian
	for _, g := range f.guardians {
		if want[g.StudentID] {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeStorage) UpdateStudentNotes(context.Context, string, string) error { return nil }

func TestChunkRange(t *testing.T) {
	var got [][2]int
	err := ChunkRange(5, 2, func(start, end int) error {
		got = append(got, [2]int{start, end})
		return nil
	})
	if err != nil {
		t.Fatalf("ChunkRange() error = %v", err)
	}
	want := [][2]int{{0, 2}, {2, 4}, {4, 5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ChunkRange() = %v, want %v", got, want)
	}
}

func TestDedupeStrings(t *testing.T) {
	got := DedupeStrings([]string{"a", "", "b", "a"})
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("DedupeStrings() = %v", got)
	}
}

func TestLoadSnapshot(t *testing.T) {
	old := GuardianChunkSize
	GuardianChunkSize = 1
	defer func() { GuardianChunkSize = old }()

	f := &fakeStorage{
		students: []common.Student{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		guardians: []common.Guardian{
			{ID: "g3", StudentID: "c"},
			{ID: "g1", StudentID: "a"},
			{ID: "g2", StudentID: "b"},
		},
	}

	snap, err := LoadSnapshot(context.Background(), f, "school")
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if f.calls != 3 {
		t.Errorf("expected 3 guardian queries, got %d", f.calls)
	}
	var ids []string
	for _, g := range snap.Guardians {
		ids = append(ids, g.ID)
	}
	if !reflect.DeepEqual(ids, []string{"g1", "g2", "g3"}) {
		t.Errorf("guardians not in chunk order: %v", ids)
	}
}

func TestLoadSnapshotError(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeStorage{students: []common.Student{{ID: "a"}}, guardianErr: boom}
	if _, err := LoadSnapshot(context.Background(), f, "school"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

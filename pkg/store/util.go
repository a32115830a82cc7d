package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/family"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// GuardianChunkSize bounds the number of student IDs per guardian query.
var GuardianChunkSize = 500

func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

func DedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// LoadSnapshot fetches every student of a school and then their guardians,
// querying guardian chunks concurrently. Nothing is computed until the
// whole roster has been read.
func LoadSnapshot(ctx context.Context, s RosterStorage, schoolID string) (family.Snapshot, error) {
	students, err := s.ListStudents(ctx, schoolID)
	if err != nil {
		return family.Snapshot{}, fmt.Errorf("failed to list students: %w", err)
	}

	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	ids = DedupeStrings(ids)

	var (
		mu        sync.Mutex
		chunks    = make(map[int][]common.Guardian)
		chunkKeys []int
	)
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	_ = ChunkRange(len(ids), GuardianChunkSize, func(start, end int) error {
		chunkKeys = append(chunkKeys, start)
		part := ids[start:end]
		eg.Go(func() error {
			guardians, err := s.ListGuardians(ectx, part)
			if err != nil {
				return err
			}
			mu.Lock()
			chunks[start] = guardians
			mu.Unlock()
			return nil
		})
		return nil
	})
	if err := eg.Wait(); err != nil {
		return family.Snapshot{}, fmt.Errorf("failed to list guardians: %w", err)
	}

	var guardians []common.Guardian
	for _, k := range chunkKeys {
		guardians = append(guardians, chunks[k]...)
	}

	logger.Debug("[Store] Loaded roster", "school_id", schoolID, "students", len(students), "guardians", len(guardians))
	return family.Snapshot{Students: students, Guardians: guardians}, nil
}

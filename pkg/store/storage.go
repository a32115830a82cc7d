package store

import (
	"context"
	"errors"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// RosterStorage reads school rosters and writes student notes. The notes
// blob is opaque to the storage layer.
type RosterStorage interface {
	ListStudents(ctx context.Context, schoolID string) ([]common.Student, error)
	GetStudent(ctx context.Context, schoolID, studentID string) (common.Student, error)
	ListGuardians(ctx context.Context, studentIDs []string) ([]common.Guardian, error)
	UpdateStudentNotes(ctx context.Context, studentID, blob string) error
}

// Package cleaner strips relationship entries whose type is outside the
// closed taxonomy, chiefly legacy GODPARENT_GODCHILD values written on
// student to student records.
package cleaner

import (
	"context"
	"errors"
	"fmt"

	"github.com/projectklase/comunika-nexus-64-78-sub002/internal/util"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/notes"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/taxonomy"
)

const (
	ActionRemovedInvalidType         = "removed_invalid_type"
	ActionRemovedSelfReference       = "removed_self_reference"
	ActionRemovedInvalidGuardianType = "removed_invalid_guardian_type"
)

// ErrNoWriter is returned by operations that persist notes when no
// NotesWriter was configured.
var ErrNoWriter = errors.New("no notes writer configured")

// NotesWriter persists a student's annotation blob.
type NotesWriter interface {
	UpdateStudentNotes(ctx context.Context, studentID string, blob string) error
}

// Cleaner filters and persists annotations one student at a time. There is
// no transaction around the loop; running it again after a partial run is
// safe because already cleaned students have nothing left to remove.
type Cleaner struct {
	writer     NotesWriter
	maxRetries int
}

// NewCleanerParams configures a Cleaner. MaxRetries defaults to 3.
type NewCleanerParams struct {
	Writer     NotesWriter
	MaxRetries int
}

func NewCleaner(params NewCleanerParams) *Cleaner {
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Cleaner{writer: params.Writer, maxRetries: maxRetries}
}

// Report is the outcome of a cleaning run.
type Report struct {
	Fixes   []common.FixResult `json:"fixes"`
	Skipped []common.Skipped   `json:"skipped,omitempty"`
	Updated int                `json:"updated"`
}

// Migration is the dry-run result for one blob.
type Migration struct {
	NeedsMigration bool               `json:"needsMigration"`
	MigratedBlob   *string            `json:"migratedBlob,omitempty"`
	Removed        []common.FixResult `json:"removed,omitempty"`
}

// IsValidStudentRelationship reports whether t belongs to the student to
// student vocabulary.
func IsValidStudentRelationship(t string) bool {
	return taxonomy.IsValidStudentRelationship(t)
}

// filter returns a cleaned copy of n and the entries it removed. The copy is
// nil when nothing had to be removed.
func filter(student common.Student, n *notes.Notes) (*notes.Notes, []common.FixResult) {
	if n == nil {
		return nil, nil
	}

	var removed []common.FixResult
	fix := func(invalidType, action string) {
		removed = append(removed, common.FixResult{
			StudentID:   student.ID,
			StudentName: student.Name,
			InvalidType: invalidType,
			Action:      action,
		})
	}

	family := make([]common.FamilyRelationship, 0, len(n.FamilyRelationships))
	for _, rel := range n.FamilyRelationships {
		switch {
		case !IsValidStudentRelationship(rel.RelationshipType):
			fix(rel.RelationshipType, ActionRemovedInvalidType)
		case student.ID != "" && rel.RelatedStudentID == student.ID:
			fix(rel.RelationshipType, ActionRemovedSelfReference)
		default:
			family = append(family, rel)
		}
	}

	guardians := make([]common.GuardianRelationship, 0, len(n.GuardianRelationships))
	for _, rel := range n.GuardianRelationships {
		if !taxonomy.IsValidGuardianRelationship(rel.RelationshipType) {
			fix(rel.RelationshipType, ActionRemovedInvalidGuardianType)
			continue
		}
		guardians = append(guardians, rel)
	}

	if len(removed) == 0 {
		return nil, nil
	}

	cleaned := n.Clone()
	if n.FamilyRelationships != nil {
		cleaned.FamilyRelationships = family
	}
	if n.GuardianRelationships != nil {
		cleaned.GuardianRelationships = guardians
	}
	return cleaned, removed
}

// MigrateInvalidRelationships reports whether blob needs cleaning and, if so,
// the cleaned blob. Nothing is persisted.
func MigrateInvalidRelationships(blob *string) Migration {
	n := notes.Parse(blob)
	cleaned, removed := filter(common.Student{}, n)
	if cleaned == nil {
		return Migration{}
	}
	out := notes.Stringify(cleaned)
	return Migration{NeedsMigration: true, MigratedBlob: &out, Removed: removed}
}

// CleanInvalidRelationships filters every student's annotations and persists
// the ones that changed. A student whose notes cannot be parsed, or whose
// write fails, is recorded in Skipped and the run continues. The returned
// error is ErrNoWriter when the cleaner cannot persist, or ctx's error when
// it is cancelled; in the latter case the report still describes the
// students handled before that. Use MigrateInvalidRelationships to preview.
func (c *Cleaner) CleanInvalidRelationships(ctx context.Context, students []common.Student) (Report, error) {
	report := Report{Fixes: []common.FixResult{}}
	if c.writer == nil {
		return report, ErrNoWriter
	}

	for _, student := range students {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		n := notes.Parse(student.Notes)
		if n == nil {
			if student.Notes != nil && *student.Notes != "" {
				logger.Warn("[Cleaner] Skipping student with unparsable notes", "student_id", student.ID)
				report.Skipped = append(report.Skipped, common.Skipped{StudentID: student.ID, Reason: "notes could not be parsed"})
			}
			continue
		}

		cleaned, removed := filter(student, n)
		if cleaned == nil {
			continue
		}

		blob := notes.Stringify(cleaned)
		if blob == "" {
			logger.Error("[Cleaner] Cleaned notes failed to serialize", "student_id", student.ID)
			report.Skipped = append(report.Skipped, common.Skipped{StudentID: student.ID, Reason: "cleaned notes failed to serialize"})
			continue
		}

		err := util.RetryErrWithContext(ctx, c.maxRetries, func(ctx context.Context) error {
			return c.writer.UpdateStudentNotes(ctx, student.ID, blob)
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			logger.Error("[Cleaner] Failed to persist cleaned notes", "student_id", student.ID, "err", err)
			report.Skipped = append(report.Skipped, common.Skipped{StudentID: student.ID, Reason: fmt.Sprintf("persist failed: %v", err)})
			continue
		}

		for _, fix := range removed {
			logger.Info("[Cleaner] Removed relationship", "student_id", fix.StudentID, "type", fix.InvalidType, "action", fix.Action)
		}
		report.Fixes = append(report.Fixes, removed...)
		report.Updated++
	}

	return report, nil
}

// Package roster indexes a snapshot of students and guardians so the engine
// can look records up by ID instead of scanning slices.
package roster

import (
	"sort"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/notes"
)

// Index is an immutable view over one roster snapshot.
type Index struct {
	ids       []string
	students  map[string]common.Student
	notes     map[string]*notes.Notes
	guardians map[string][]common.Guardian

	// Skipped lists students whose notes could not be parsed.
	Skipped []common.Skipped
}

// New builds an index. Students with malformed notes are kept in the roster
// without annotations and recorded in Skipped. Duplicate student IDs keep
// the first record.
func New(students []common.Student, guardians []common.Guardian) *Index {
	idx := &Index{
		ids:       make([]string, 0, len(students)),
		students:  make(map[string]common.Student, len(students)),
		notes:     make(map[string]*notes.Notes, len(students)),
		guardians: make(map[string][]common.Guardian),
	}

	for _, s := range students {
		if _, ok := idx.students[s.ID]; ok {
			logger.Warn("[Roster] Duplicate student ignored", "student_id", s.ID)
			continue
		}
		idx.ids = append(idx.ids, s.ID)
		idx.students[s.ID] = s

		n := notes.Parse(s.Notes)
		if n == nil && s.Notes != nil && *s.Notes != "" {
			idx.Skipped = append(idx.Skipped, common.Skipped{
				StudentID: s.ID,
				Reason:    "notes could not be parsed",
			})
		}
		idx.notes[s.ID] = n
	}
	sort.Strings(idx.ids)

	for _, g := range guardians {
		idx.guardians[g.StudentID] = append(idx.guardians[g.StudentID], g)
	}

	return idx
}

// StudentIDs returns the IDs of all students in ascending order.
func (idx *Index) StudentIDs() []string {
	out := make([]string, len(idx.ids))
	copy(out, idx.ids)
	return out
}

func (idx *Index) Len() int {
	return len(idx.ids)
}

func (idx *Index) Student(id string) (common.Student, bool) {
	s, ok := idx.students[id]
	return s, ok
}

// Name returns the student's name or the ID when the student is unknown.
func (idx *Index) Name(id string) string {
	if s, ok := idx.students[id]; ok && s.Name != "" {
		return s.Name
	}
	return id
}

// Notes returns the parsed notes of a student, nil when it has none.
func (idx *Index) Notes(id string) *notes.Notes {
	return idx.notes[id]
}

// Relationships returns the declared family relationships of a student.
func (idx *Index) Relationships(id string) []common.FamilyRelationship {
	if n := idx.notes[id]; n != nil {
		return n.FamilyRelationships
	}
	return nil
}

// GuardianRelationships returns the guardian relationships declared on a student.
func (idx *Index) GuardianRelationships(id string) []common.GuardianRelationship {
	if n := idx.notes[id]; n != nil {
		return n.GuardianRelationships
	}
	return nil
}

// Guardians returns the guardians attached to a student.
func (idx *Index) Guardians(id string) []common.Guardian {
	return idx.guardians[id]
}

// Guardian finds a guardian record by ID.
func (idx *Index) Guardian(id string) (common.Guardian, bool) {
	for _, sid := range idx.ids {
		for _, g := range idx.guardians[sid] {
			if g.ID == id {
				return g, true
			}
		}
	}
	return common.Guardian{}, false
}

// Declared returns the relationship declared on a towards b, falling back to
// one declared on b towards a.
func (idx *Index) Declared(a, b string) (common.FamilyRelationship, bool) {
	for _, r := range idx.Relationships(a) {
		if r.RelatedStudentID == b {
			return r, true
		}
	}
	for _, r := range idx.Relationships(b) {
		if r.RelatedStudentID == a {
			return r, true
		}
	}
	return common.FamilyRelationship{}, false
}

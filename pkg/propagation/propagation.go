// Package propagation infers student relationships by composing declared
// ones along paths A -> B -> C. Explicit declarations are never overwritten.
package propagation

import (
	"fmt"
	"time"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/roster"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/taxonomy"
)

// Detail is one line of the audit trace.
type Detail struct {
	StudentAID       string `json:"studentAId"`
	StudentCID       string `json:"studentCId"`
	StudentA         string `json:"studentA"`
	StudentC         string `json:"studentC"`
	ViaStudent       string `json:"viaStudent"`
	RelationshipType string `json:"relationshipType"`
}

func (d Detail) String() string {
	return fmt.Sprintf("%s -> %s via %s (%s)", d.StudentA, d.StudentC, d.ViaStudent, d.RelationshipType)
}

// Result holds relationships inferred in one pass. Nothing in it has been
// merged into storage.
type Result struct {
	NewRelationships map[string][]common.FamilyRelationship `json:"newRelationships"`
	Count            int                                    `json:"count"`
	Details          []Detail                               `json:"details"`
	Skipped          []common.Skipped                       `json:"skipped,omitempty"`
}

// Engine runs one hop of transitive inference per call.
type Engine struct {
	table *taxonomy.Table
	now   func() time.Time
}

// NewEngineParams configures an Engine. Table defaults to taxonomy.NewTable
// and Now to time.Now.
type NewEngineParams struct {
	Table *taxonomy.Table
	Now   func() time.Time
}

func NewEngine(params NewEngineParams) *Engine {
	table := params.Table
	if table == nil {
		table = taxonomy.NewTable()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{table: table, now: now}
}

// Propagate computes, for every student A, the relationships A -> C implied
// by A -> B and B -> C. A pair is emitted at most once per run, and never
// when A already declares a relationship to C.
func (e *Engine) Propagate(idx *roster.Index) Result {
	res := Result{
		NewRelationships: make(map[string][]common.FamilyRelationship),
		Details:          []Detail{},
		Skipped:          append([]common.Skipped(nil), idx.Skipped...),
	}
	createdAt := e.now().UTC().Format(time.RFC3339)
	missing := make(map[string]bool)

	for _, aID := range idx.StudentIDs() {
		declared := idx.Relationships(aID)
		if len(declared) == 0 {
			continue
		}

		existing := make(map[string]bool, len(declared))
		for _, r := range declared {
			existing[r.RelatedStudentID] = true
		}
		added := make(map[string]bool)

		for _, ab := range declared {
			bID := ab.RelatedStudentID
			if bID == aID {
				continue
			}
			if _, ok := idx.Student(bID); !ok {
				key := aID + "|" + bID
				if !missing[key] {
					missing[key] = true
					logger.Warn("[Propagation] Related student not in roster", "student_id", aID, "related_id", bID)
					res.Skipped = append(res.Skipped, common.Skipped{StudentID: aID, RelatedID: bID, Reason: "related student not found"})
				}
				continue
			}

			for _, bc := range idx.Relationships(bID) {
				cID := bc.RelatedStudentID
				if cID == aID || cID == bID {
					continue
				}
				inferred, ok := e.table.Compose(taxonomy.RelationshipType(ab.RelationshipType), taxonomy.RelationshipType(bc.RelationshipType))
				if !ok {
					continue
				}
				if existing[cID] || added[cID] {
					continue
				}
				c, ok := idx.Student(cID)
				if !ok {
					continue
				}
				added[cID] = true

				via := idx.Name(bID)
				res.NewRelationships[aID] = append(res.NewRelationships[aID], common.FamilyRelationship{
					RelatedStudentID:   cID,
					RelatedStudentName: c.Name,
					RelationshipType:   string(inferred),
					Confidence:         string(taxonomy.TransitiveConfidence()),
					InferredFrom:       "via " + via,
					CreatedAt:          createdAt,
				})
				res.Details = append(res.Details, Detail{
					StudentAID:       aID,
					StudentCID:       cID,
					StudentA:         idx.Name(aID),
					StudentC:         c.Name,
					ViaStudent:       via,
					RelationshipType: string(inferred),
				})
				res.Count++
			}
		}
	}

	logger.Debug("[Propagation] Pass finished", "students", idx.Len(), "inferred", res.Count)
	return res
}

// PropagateForStudent runs a full pass and keeps only what concerns one
// student: relationships inferred for it and relationships other students
// gain towards it.
func (e *Engine) PropagateForStudent(idx *roster.Index, studentID string) Result {
	full := e.Propagate(idx)

	res := Result{
		NewRelationships: make(map[string][]common.FamilyRelationship),
		Details:          []Detail{},
		Skipped:          full.Skipped,
	}
	for _, aID := range idx.StudentIDs() {
		for _, rel := range full.NewRelationships[aID] {
			if aID != studentID && rel.RelatedStudentID != studentID {
				continue
			}
			res.NewRelationships[aID] = append(res.NewRelationships[aID], rel)
			res.Count++
		}
	}
	for _, d := range full.Details {
		if d.StudentAID == studentID || d.StudentCID == studentID {
			res.Details = append(res.Details, d)
		}
	}
	return res
}

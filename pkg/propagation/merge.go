package propagation

import (
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/notes"
)

// Merge appends inferred relationships to a copy of n, skipping any pair n
// already holds. It returns the merged notes and how many entries were added.
func Merge(n *notes.Notes, inferred []common.FamilyRelationship) (*notes.Notes, int) {
	merged := n.Clone()
	if merged == nil {
		merged = &notes.Notes{}
	}

	present := make(map[string]bool, len(merged.FamilyRelationships))
	for _, r := range merged.FamilyRelationships {
		present[r.RelatedStudentID] = true
	}

	added := 0
	for _, r := range inferred {
		if present[r.RelatedStudentID] {
			continue
		}
		present[r.RelatedStudentID] = true
		merged.FamilyRelationships = append(merged.FamilyRelationships, r)
		added++
	}
	return merged, added
}

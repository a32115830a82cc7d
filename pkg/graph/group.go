package graph

import (
	"sort"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
)

// UnassignedGroupName names the group of students without a primary guardian.
const UnassignedGroupName = "Sem responsável"

// primaryKinds are the guardian kinds that head a family group, in order of
// preference.
var primaryKinds = []common.GuardianKind{
	common.GuardianMother,
	common.GuardianFather,
	common.GuardianResponsible,
	common.GuardianSibling,
}

func primaryGuardian(guardians []common.Guardian) (common.Guardian, bool) {
	for _, kind := range primaryKinds {
		for _, g := range guardians {
			if g.Relation == kind {
				return g, true
			}
		}
	}
	return common.Guardian{}, false
}

// GroupByGuardian clusters students into family groups, one per distinct
// primary guardian. Guardian records of different students are the same
// person when they share relation and email or phone. Each student joins the
// group of its preferred primary guardian; students without one end up in a
// trailing group with an empty GuardianID.
func GroupByGuardian(students []common.Student, guardians []common.Guardian) []common.FamilyGroup {
	byStudent := make(map[string][]common.Guardian)
	for _, g := range guardians {
		byStudent[g.StudentID] = append(byStudent[g.StudentID], g)
	}

	sorted := make([]common.Student, len(students))
	copy(sorted, students)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].ID < sorted[j].ID
	})

	type entry struct {
		head  common.Guardian
		group common.FamilyGroup
	}
	var entries []*entry
	var unassigned []common.Student

	for _, s := range sorted {
		g, ok := primaryGuardian(byStudent[s.ID])
		if !ok {
			unassigned = append(unassigned, s)
			continue
		}

		var target *entry
		for _, e := range entries {
			if e.head.ID == g.ID || common.SameGuardian(e.head, g) {
				target = e
				break
			}
		}
		if target == nil {
			target = &entry{
				head: g,
				group: common.FamilyGroup{
					GuardianID:    g.ID,
					GuardianName:  g.Name,
					GuardianEmail: g.Email,
					GuardianPhone: g.Phone,
				},
			}
			entries = append(entries, target)
		}
		target.group.Students = append(target.group.Students, s)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].group.GuardianName != entries[j].group.GuardianName {
			return entries[i].group.GuardianName < entries[j].group.GuardianName
		}
		return entries[i].group.GuardianID < entries[j].group.GuardianID
	})

	groups := make([]common.FamilyGroup, 0, len(entries)+1)
	for _, e := range entries {
		groups = append(groups, e.group)
	}
	if len(unassigned) > 0 {
		groups = append(groups, common.FamilyGroup{
			GuardianName: UnassignedGroupName,
			Students:     unassigned,
		})
	}
	return groups
}

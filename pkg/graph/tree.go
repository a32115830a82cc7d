package graph

import (
	"fmt"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/roster"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/taxonomy"
)

// Result is the positioned graph handed to the renderer. Warnings lists the
// references that could not be drawn.
type Result struct {
	Nodes    []common.Node `json:"nodes"`
	Edges    []common.Edge `json:"edges"`
	Warnings []string      `json:"warnings,omitempty"`
}

// GuardianNodeID returns the node ID of a guardian.
func GuardianNodeID(guardianID string) string {
	return "guardian-" + guardianID
}

// StudentNodeID returns the node ID of a student.
func StudentNodeID(studentID string) string {
	return "student-" + studentID
}

// RelationshipEdgeID returns the edge ID shared by both directions of a
// student relationship.
func RelationshipEdgeID(a, b string) string {
	return "relationship-" + common.PairKey(a, b)
}

type tree struct {
	b      *Builder
	groups []common.FamilyGroup
	idx    *roster.Index
	res    Result

	positions map[string]common.Position
	groupOf   map[string]int
	nodes     map[string]bool
	seen      map[string]bool
}

// Build lays out the groups and draws every edge the roster declares.
// Missing references become warnings; Build never fails.
func (b *Builder) Build(groups []common.FamilyGroup, idx *roster.Index) Result {
	if idx == nil {
		idx = roster.New(nil, nil)
	}
	t := &tree{
		b:         b,
		groups:    groups,
		idx:       idx,
		positions: make(map[string]common.Position),
		groupOf:   make(map[string]int),
		nodes:     make(map[string]bool),
		seen:      make(map[string]bool),
	}
	t.res.Nodes = []common.Node{}
	t.res.Edges = []common.Edge{}

	for gi, g := range groups {
		t.placeGroup(gi, g)
	}
	for _, g := range groups {
		t.connectGroup(g)
	}
	t.connectGuardianRelationships()
	t.connectCrossFamily()

	logger.Debug("[FamilyTree] Built tree",
		"groups", len(groups),
		"nodes", len(t.res.Nodes),
		"edges", len(t.res.Edges),
		"warnings", len(t.res.Warnings),
	)
	return t.res
}

func (t *tree) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Warn("[FamilyTree] " + msg)
	t.res.Warnings = append(t.res.Warnings, msg)
}

func (t *tree) addEdge(e common.Edge) {
	if t.seen[e.ID] {
		return
	}
	t.seen[e.ID] = true
	t.res.Edges = append(t.res.Edges, e)
}

// placeGroup adds the guardian node centered above its row of students and
// the responsible edges between them. A student already placed by an
// earlier group keeps its first position.
func (t *tree) placeGroup(gi int, g common.FamilyGroup) {
	l := t.b.layout
	baseY := float64(gi) * l.GroupSpacing

	guardianNode := ""
	if g.GuardianID != "" {
		guardianNode = GuardianNodeID(g.GuardianID)
		if !t.nodes[guardianNode] {
			t.nodes[guardianNode] = true
			t.res.Nodes = append(t.res.Nodes, common.Node{
				ID:       guardianNode,
				Kind:     common.NodeGuardian,
				Position: common.Position{X: 0, Y: baseY},
				Data: map[string]any{
					"label":        g.GuardianName,
					"guardianId":   g.GuardianID,
					"email":        g.GuardianEmail,
					"phone":        g.GuardianPhone,
					"studentCount": len(g.Students),
				},
			})
		}
	}

	n := len(g.Students)
	for i, s := range g.Students {
		studentNode := StudentNodeID(s.ID)
		if !t.nodes[studentNode] {
			pos := common.Position{
				X: (float64(i) - float64(n-1)/2) * l.StudentSpacing,
				Y: baseY + l.StudentOffsetY,
			}
			name := s.Name
			if name == "" {
				name = t.idx.Name(s.ID)
			}
			t.nodes[studentNode] = true
			t.positions[s.ID] = pos
			t.groupOf[s.ID] = gi
			t.res.Nodes = append(t.res.Nodes, common.Node{
				ID:       studentNode,
				Kind:     common.NodeStudent,
				Position: pos,
				Data: map[string]any{
					"label":     name,
					"studentId": s.ID,
				},
			})
		}

		if guardianNode == "" {
			continue
		}
		t.addEdge(common.Edge{
			ID:           fmt.Sprintf("responsible-%s-%s", g.GuardianID, s.ID),
			Source:       guardianNode,
			Target:       studentNode,
			SourceHandle: "bottom",
			TargetHandle: "top",
			Style:        t.b.styles[StyleResponsible],
			Data:         common.EdgeData{RelationshipLabel: ResponsibleLabel},
		})
	}
}

// connectGroup draws the declared relationships between students of the
// same group with side handles.
func (t *tree) connectGroup(g common.FamilyGroup) {
	for i := 0; i < len(g.Students); i++ {
		for j := i + 1; j < len(g.Students); j++ {
			a, b := g.Students[i].ID, g.Students[j].ID
			if a == b {
				continue
			}
			rel, ok := t.idx.Declared(a, b)
			if !ok {
				logger.Debug("[FamilyTree] No relationship declared", "student_a", a, "student_b", b)
				continue
			}
			t.relationshipEdge(a, b, rel, false)
		}
	}
}

// connectGuardianRelationships draws godparent and extended family edges from
// the node of the group the guardian primarily belongs to.
func (t *tree) connectGuardianRelationships() {
	for _, sid := range t.idx.StudentIDs() {
		for _, gr := range t.idx.GuardianRelationships(sid) {
			target := gr.StudentID
			if target == "" {
				target = sid
			}
			if !t.nodes[StudentNodeID(target)] {
				t.warn("guardian %s is related to student %s which is not in the tree", gr.GuardianID, target)
				continue
			}
			source, ok := t.guardianNodeFor(gr)
			if !ok {
				t.warn("guardian %s of relationship with student %s has no family group", gr.GuardianID, target)
				continue
			}

			label := taxonomy.GuardianLabel(taxonomy.GuardianRelationshipType(gr.RelationshipType))
			if gr.CustomRelationship != "" {
				label = gr.CustomRelationship
			}
			t.addEdge(common.Edge{
				ID:           fmt.Sprintf("guardian-relationship-%s-%s", gr.GuardianID, target),
				Source:       source,
				Target:       StudentNodeID(target),
				SourceHandle: "bottom",
				TargetHandle: "top",
				Style:        t.b.styles[StyleGuardianRelationship],
				Data: common.EdgeData{
					RelationshipType:  gr.RelationshipType,
					RelationshipLabel: label,
				},
			})
		}
	}
}

func (t *tree) guardianNodeFor(gr common.GuardianRelationship) (string, bool) {
	if id := GuardianNodeID(gr.GuardianID); t.nodes[id] {
		return id, true
	}
	primary := gr.GuardianOf
	if primary == "" {
		if g, ok := t.idx.Guardian(gr.GuardianID); ok {
			primary = g.StudentID
		}
	}
	gi, ok := t.groupOf[primary]
	if !ok || t.groups[gi].GuardianID == "" {
		return "", false
	}
	return GuardianNodeID(t.groups[gi].GuardianID), true
}

// connectCrossFamily draws declared relationships between students placed in
// different groups with vertical handles.
func (t *tree) connectCrossFamily() {
	for _, sid := range t.idx.StudentIDs() {
		for _, rel := range t.idx.Relationships(sid) {
			rid := rel.RelatedStudentID
			if rid == sid {
				continue
			}
			if _, ok := t.idx.Student(rid); !ok {
				t.warn("student %s references unknown student %s", sid, rid)
				continue
			}
			if !t.nodes[StudentNodeID(sid)] || !t.nodes[StudentNodeID(rid)] {
				t.warn("relationship between %s and %s has a student outside the tree", sid, rid)
				continue
			}
			if t.groupOf[sid] == t.groupOf[rid] {
				continue
			}
			t.relationshipEdge(sid, rid, rel, true)
		}
	}
}

func (t *tree) relationshipEdge(a, b string, rel common.FamilyRelationship, vertical bool) {
	id := RelationshipEdgeID(a, b)
	if t.seen[id] {
		return
	}

	pa, pb := t.positions[a], t.positions[b]
	var source, target, sourceHandle, targetHandle string
	if vertical {
		source, target = a, b
		if pb.Y < pa.Y || (pb.Y == pa.Y && pb.X < pa.X) {
			source, target = b, a
		}
		sourceHandle, targetHandle = "bottom", "top"
	} else {
		source, target = a, b
		if pb.X < pa.X {
			source, target = b, a
		}
		sourceHandle, targetHandle = "right", "left"
	}

	label := taxonomy.Label(taxonomy.RelationshipType(rel.RelationshipType))
	if rel.CustomRelationship != "" {
		label = rel.CustomRelationship
	}
	t.addEdge(common.Edge{
		ID:           id,
		Source:       StudentNodeID(source),
		Target:       StudentNodeID(target),
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
		Style:        t.b.relationshipStyle(rel.RelationshipType),
		Data: common.EdgeData{
			RelationshipType:  rel.RelationshipType,
			RelationshipLabel: label,
		},
	})
}

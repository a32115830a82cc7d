package graph

import (
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/taxonomy"
)

// Style is the stroke of an edge.
type Style = common.EdgeStyle

const (
	// StyleResponsible keys the guardian to student edge style.
	StyleResponsible = "RESPONSIBLE"
	// StyleGuardianRelationship keys the godparent and extended family edge style.
	StyleGuardianRelationship = "GUARDIAN_RELATIONSHIP"
)

// ResponsibleLabel is the label of guardian to student edges.
const ResponsibleLabel = "Responsável"

// Styles is the default style table keyed by relationship type.
var Styles = map[string]Style{
	string(taxonomy.Sibling):       {Stroke: "#3b82f6", StrokeWidth: 2, StrokeDasharray: "5,5"},
	string(taxonomy.Cousin):        {Stroke: "#10b981", StrokeWidth: 2, StrokeDasharray: "10,5"},
	string(taxonomy.UncleNephew):   {Stroke: "#f59e0b", StrokeWidth: 2, StrokeDasharray: "2,4"},
	string(taxonomy.Other):         {Stroke: "#9ca3af", StrokeWidth: 1.5, StrokeDasharray: "3,3", Opacity: 0.6},
	string(taxonomy.NotRegistered): {Stroke: "#d1d5db", StrokeWidth: 1, StrokeDasharray: "1,4", Opacity: 0.4},
	StyleResponsible:               {Stroke: "#64748b", StrokeWidth: 2},
	StyleGuardianRelationship:      {Stroke: "#a855f7", StrokeWidth: 2, StrokeDasharray: "8,4"},
}

// relationshipStyle returns the style of a student relationship type,
// falling back to the NOT_REGISTERED style for anything unknown.
func (b *Builder) relationshipStyle(typ string) Style {
	if s, ok := b.styles[typ]; ok {
		return s
	}
	return b.styles[string(taxonomy.NotRegistered)]
}

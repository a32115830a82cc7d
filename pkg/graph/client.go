package graph

// Layout holds the spacing used to position nodes, in rendering units.
type Layout struct {
	GroupSpacing   float64
	StudentOffsetY float64
	StudentSpacing float64
}

// DefaultLayout is used for every zero field of a Layout.
var DefaultLayout = Layout{
	GroupSpacing:   400,
	StudentOffsetY: 150,
	StudentSpacing: 200,
}

// Builder turns family groups and a roster into a positioned graph for an
// external renderer.
//
// A Builder should be created using NewBuilder.
type Builder struct {
	layout Layout
	styles map[string]Style
}

// NewBuilderParams defines the configuration parameters for creating
// a new Builder.
//
// Layout overrides the default spacing; zero fields keep the default.
// Styles overrides or extends the default edge style table.
type NewBuilderParams struct {
	Layout Layout
	Styles map[string]Style
}

// NewBuilder creates and returns a new Builder configured with
// the provided parameters.
//
// Example:
//
//	b := graph.NewBuilder(graph.NewBuilderParams{
//		Layout: graph.Layout{GroupSpacing: 600},
//	})
//	res := b.Build(groups, idx)
func NewBuilder(params NewBuilderParams) *Builder {
	layout := params.Layout
	if layout.GroupSpacing <= 0 {
		layout.GroupSpacing = DefaultLayout.GroupSpacing
	}
	if layout.StudentOffsetY <= 0 {
		layout.StudentOffsetY = DefaultLayout.StudentOffsetY
	}
	if layout.StudentSpacing <= 0 {
		layout.StudentSpacing = DefaultLayout.StudentSpacing
	}

	styles := make(map[string]Style, len(Styles)+len(params.Styles))
	for k, v := range Styles {
		styles[k] = v
	}
	for k, v := range params.Styles {
		styles[k] = v
	}

	return &Builder{layout: layout, styles: styles}
}

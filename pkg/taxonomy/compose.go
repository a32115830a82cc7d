package taxonomy

type step struct {
	ab RelationshipType
	bc RelationshipType
}

// Table is an immutable composition table. The zero value composes nothing;
// use NewTable.
type Table struct {
	rules map[step]RelationshipType
}

// NewTable returns the composition rules for a directed path A -> B -> C.
// Pairs missing from the table are ambiguous and yield no inference.
func NewTable() *Table {
	return &Table{
		rules: map[step]RelationshipType{
			{Sibling, Sibling}:     Sibling,
			{Sibling, Cousin}:      Cousin,
			{Sibling, UncleNephew}: UncleNephew,
			{Cousin, Sibling}:      Cousin,
			{Cousin, Cousin}:       Cousin,
			{UncleNephew, Sibling}: UncleNephew,
		},
	}
}

// Compose returns the relationship implied between A and C, or false when
// the table draws no inference.
func (t *Table) Compose(ab, bc RelationshipType) (RelationshipType, bool) {
	if t == nil {
		return "", false
	}
	r, ok := t.rules[step{ab, bc}]
	return r, ok
}

// Len returns the number of defined compositions.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

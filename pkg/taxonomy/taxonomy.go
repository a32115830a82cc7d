// Package taxonomy holds the closed relationship vocabulary and the table
// used to compose two relationships along a path A -> B -> C.
package taxonomy

// RelationshipType is a student to student relationship kind.
type RelationshipType string

const (
	Sibling     RelationshipType = "SIBLING"
	Cousin      RelationshipType = "COUSIN"
	UncleNephew RelationshipType = "UNCLE_NEPHEW"
	Other       RelationshipType = "OTHER"

	// NotRegistered is never stored. The tree builder uses it to style a
	// pair without any declared relationship.
	NotRegistered RelationshipType = "NOT_REGISTERED"

	// LegacyGodparentGodchild was once written on student records by mistake.
	// It is only meaningful on guardian relationships and is always stripped.
	LegacyGodparentGodchild RelationshipType = "GODPARENT_GODCHILD"
)

// GuardianRelationshipType is a guardian to student relationship kind.
type GuardianRelationshipType string

const (
	Godparent      GuardianRelationshipType = "GODPARENT"
	ExtendedFamily GuardianRelationshipType = "EXTENDED_FAMILY"
	GuardianOther  GuardianRelationshipType = "OTHER"
)

// Confidence of a relationship. Declared relationships are implicitly HIGH.
type Confidence string

const (
	High   Confidence = "HIGH"
	Medium Confidence = "MEDIUM"
	Low    Confidence = "LOW"
)

var studentTypes = []RelationshipType{Sibling, Cousin, UncleNephew, Other}

var guardianTypes = []GuardianRelationshipType{Godparent, ExtendedFamily, GuardianOther}

// StudentTypes returns the closed student to student vocabulary.
func StudentTypes() []RelationshipType {
	out := make([]RelationshipType, len(studentTypes))
	copy(out, studentTypes)
	return out
}

// GuardianTypes returns the closed guardian to student vocabulary.
func GuardianTypes() []GuardianRelationshipType {
	out := make([]GuardianRelationshipType, len(guardianTypes))
	copy(out, guardianTypes)
	return out
}

// IsValidStudentRelationship reports whether t may be stored on a student
// to student record.
func IsValidStudentRelationship(t string) bool {
	for _, v := range studentTypes {
		if string(v) == t {
			return true
		}
	}
	return false
}

// IsValidGuardianRelationship reports whether t may be stored on a guardian
// to student record.
func IsValidGuardianRelationship(t string) bool {
	for _, v := range guardianTypes {
		if string(v) == t {
			return true
		}
	}
	return false
}

// TransitiveConfidence is the confidence of every inferred relationship.
func TransitiveConfidence() Confidence {
	return Medium
}

var labels = map[RelationshipType]string{
	Sibling:       "Irmãos",
	Cousin:        "Primos",
	UncleNephew:   "Tio/Sobrinho",
	Other:         "Outro",
	NotRegistered: "Não cadastrado",
}

var guardianLabels = map[GuardianRelationshipType]string{
	Godparent:      "Padrinho/Madrinha",
	ExtendedFamily: "Família estendida",
	GuardianOther:  "Outro",
}

// Label returns the display label of a student relationship type.
func Label(t RelationshipType) string {
	if l, ok := labels[t]; ok {
		return l
	}
	return labels[NotRegistered]
}

// GuardianLabel returns the display label of a guardian relationship type.
func GuardianLabel(t GuardianRelationshipType) string {
	if l, ok := guardianLabels[t]; ok {
		return l
	}
	return guardianLabels[GuardianOther]
}

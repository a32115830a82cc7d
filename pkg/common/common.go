package common

import (
	"strings"
	"unicode"
)

// Student is a read-only roster entry. Notes holds the opaque annotation
// blob owned by the storage layer; nil means the student has no annotations.
type Student struct {
	ID       string  `json:"id"`
	SchoolID string  `json:"school_id,omitempty"`
	Name     string  `json:"name"`
	Notes    *string `json:"notes,omitempty"`
}

// GuardianKind is the relation a guardian has to the student it is attached to.
type GuardianKind string

const (
	GuardianMother      GuardianKind = "MAE"
	GuardianFather      GuardianKind = "PAI"
	GuardianUncle       GuardianKind = "TIO"
	GuardianGrandparent GuardianKind = "AVO"
	GuardianSibling     GuardianKind = "IRMAO"
	GuardianResponsible GuardianKind = "RESPONSAVEL"
	GuardianOther       GuardianKind = "OUTRO"
)

// IsParent reports whether the kind denotes a direct parent.
func (k GuardianKind) IsParent() bool {
	return k == GuardianMother || k == GuardianFather
}

// Guardian is an immutable fact tied to one student. Email and Phone are the
// matching keys used to recognize the same person across students.
type Guardian struct {
	ID        string       `json:"id"`
	StudentID string       `json:"student_id"`
	Name      string       `json:"name"`
	Relation  GuardianKind `json:"relation"`
	Email     string       `json:"email,omitempty"`
	Phone     string       `json:"phone,omitempty"`
}

// FamilyRelationship is a directed student to student annotation stored on
// the owning student's notes. CreatedAt is kept as written; older records
// carry date-only or missing values.
type FamilyRelationship struct {
	RelatedStudentID   string    `json:"relatedStudentId" validate:"required"`
	RelatedStudentName string    `json:"relatedStudentName"`
	RelationshipType   string    `json:"relationshipType" validate:"required"`
	Confidence         string    `json:"confidence,omitempty" validate:"omitempty,oneof=HIGH MEDIUM LOW"`
	InferredFrom       string    `json:"inferredFrom,omitempty"`
	CustomRelationship string    `json:"customRelationship,omitempty"`
	CreatedAt          string `json:"createdAt,omitempty"`
}

// GuardianRelationship connects a guardian to a student they are not the
// primary guardian of.
type GuardianRelationship struct {
	GuardianID         string `json:"guardianId" validate:"required"`
	GuardianName       string `json:"guardianName"`
	GuardianOf         string `json:"guardianOf"`
	RelationshipType   string `json:"relationshipType" validate:"required"`
	StudentID          string `json:"studentId" validate:"required"`
	CustomRelationship string `json:"customRelationship,omitempty"`
}

// FamilyGroup is one guardian plus the students it is the primary guardian of.
type FamilyGroup struct {
	GuardianID    string    `json:"guardian_id"`
	GuardianName  string    `json:"guardian_name"`
	GuardianEmail string    `json:"guardian_email,omitempty"`
	GuardianPhone string    `json:"guardian_phone,omitempty"`
	Students      []Student `json:"students"`
}

// Severity ranks a diagnosed issue.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Rank orders severities from most to least severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// IssueStudent identifies one side of an issue.
type IssueStudent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Issue is a mismatch between a declared relationship and the structural
// evidence found in the guardian records.
type Issue struct {
	ID                   string       `json:"id"`
	Severity             Severity     `json:"severity"`
	Student1             IssueStudent `json:"student1"`
	Student2             IssueStudent `json:"student2"`
	CurrentRelationship  string       `json:"currentRelationship"`
	ExpectedRelationship string       `json:"expectedRelationship"`
	Reason               string       `json:"reason"`
	Confidence           string       `json:"confidence"`
	GuardianEvidence     *Guardian    `json:"guardianEvidence,omitempty"`
}

// FixResult records one relationship entry removed by the cleaner.
type FixResult struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	InvalidType string `json:"invalidType"`
	Action      string `json:"action"`
}

// Skipped records an item a batch operation could not process.
type Skipped struct {
	StudentID string `json:"studentId"`
	RelatedID string `json:"relatedId,omitempty"`
	Reason    string `json:"reason"`
}

// NodeKind distinguishes guardian and student nodes.
type NodeKind string

const (
	NodeGuardian NodeKind = "guardian"
	NodeStudent  NodeKind = "student"
)

// Position is an absolute coordinate in rendering units.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a positioned vertex handed to the renderer.
type Node struct {
	ID       string         `json:"id"`
	Kind     NodeKind       `json:"type"`
	Position Position       `json:"position"`
	Data     map[string]any `json:"data"`
}

// EdgeStyle is the stroke description of an edge.
type EdgeStyle struct {
	Stroke          string  `json:"stroke"`
	StrokeWidth     float64 `json:"strokeWidth"`
	StrokeDasharray string  `json:"strokeDasharray,omitempty"`
	Opacity         float64 `json:"opacity,omitempty"`
}

// EdgeData carries the semantics of an edge. Direction is only visual.
type EdgeData struct {
	RelationshipType  string `json:"relationshipType,omitempty"`
	RelationshipLabel string `json:"relationshipLabel"`
}

// Edge connects two nodes.
type Edge struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	TargetHandle string    `json:"targetHandle,omitempty"`
	Style        EdgeStyle `json:"style"`
	Data         EdgeData  `json:"data"`
}

// PairKey returns the order independent key of two student IDs.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SameContact reports whether two guardian records carry the same email or
// the same phone. Names are never compared; they are not unique.
func SameContact(a, b Guardian) bool {
	if e := normalizeEmail(a.Email); e != "" && e == normalizeEmail(b.Email) {
		return true
	}
	if p := normalizePhone(a.Phone); p != "" && p == normalizePhone(b.Phone) {
		return true
	}
	return false
}

// SameGuardian reports whether two records describe the same person in the
// same role.
func SameGuardian(a, b Guardian) bool {
	return a.Relation == b.Relation && SameContact(a, b)
}

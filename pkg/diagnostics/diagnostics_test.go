package diagnostics

import (
	"fmt"
	"testing"
	"time"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/roster"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newDiagnoser() *Diagnoser {
	return NewDiagnoser(NewDiagnoserParams{Now: func() time.Time { return fixedNow }})
}

func notesWith(rels ...string) *string {
	body := ""
	for i := 0; i+1 < len(rels); i += 2 {
		if body != "" {
			body += ","
		}
		body += fmt.Sprintf(`{"relatedStudentId":%q,"relationshipType":%q}`, rels[i], rels[i+1])
	}
	s := `{"familyRelationships":[` + body + `]}`
	return &s
}

func TestSharedFatherDeclaredCousin(t *testing.T) {
	students := []common.Student{
		{ID: "ana", Name: "Ana", Notes: notesWith("bia", "COUSIN")},
		{ID: "bia", Name: "Bia"},
	}
	guardians := []common.Guardian{
		{ID: "g1", StudentID: "ana", Name: "Carlos Silva", Relation: common.GuardianFather, Phone: "(11) 98888-7777"},
		{ID: "g2", StudentID: "bia", Name: "Carlos Silva", Relation: common.GuardianFather, Phone: "11988887777"},
	}

	res := newDiagnoser().Diagnose(roster.New(students, guardians))

	if res.TotalIssues != 1 || res.CriticalIssues != 1 {
		t.Fatalf("expected one critical issue, got %#v", res)
	}
	issue := res.Issues[0]
	if issue.Severity != common.SeverityCritical {
		t.Errorf("severity = %s", issue.Severity)
	}
	if issue.ExpectedRelationship != "SIBLING" || issue.Confidence != "HIGH" {
		t.Errorf("unexpected issue %#v", issue)
	}
	if issue.CurrentRelationship != "COUSIN" {
		t.Errorf("current relationship = %s", issue.CurrentRelationship)
	}
	if issue.GuardianEvidence == nil || issue.GuardianEvidence.Name != "Carlos Silva" {
		t.Errorf("missing guardian evidence: %#v", issue.GuardianEvidence)
	}
	if !res.Timestamp.Equal(fixedNow) {
		t.Errorf("timestamp = %v", res.Timestamp)
	}
}

func TestParentIsUncleDeclaredOther(t *testing.T) {
	students := []common.Student{
		{ID: "dan", Name: "Dan", Notes: notesWith("eli", "OTHER")},
		{ID: "eli", Name: "Eli", Notes: notesWith("dan", "OTHER")},
	}
	guardians := []common.Guardian{
		{ID: "g1", StudentID: "dan", Name: "Rosa", Relation: common.GuardianMother, Email: "rosa@example.com"},
		{ID: "g2", StudentID: "eli", Name: "Rosa", Relation: common.GuardianUncle, Email: " ROSA@example.com "},
	}

	res := newDiagnoser().Diagnose(roster.New(students, guardians))

	if res.TotalIssues != 1 || res.HighIssues != 1 {
		t.Fatalf("expected one high issue, got %#v", res)
	}
	if res.Issues[0].ExpectedRelationship != "COUSIN" {
		t.Errorf("expected COUSIN, got %s", res.Issues[0].ExpectedRelationship)
	}
}

func TestReverseUncleCheck(t *testing.T) {
	students := []common.Student{
		{ID: "eli", Name: "Eli", Notes: notesWith("dan", "SIBLING")},
		{ID: "dan", Name: "Dan"},
	}
	guardians := []common.Guardian{
		{ID: "g1", StudentID: "dan", Name: "Rosa", Relation: common.GuardianMother, Phone: "555-1234"},
		{ID: "g2", StudentID: "eli", Name: "Rosa M.", Relation: common.GuardianUncle, Phone: "5551234"},
	}

	res := newDiagnoser().Diagnose(roster.New(students, guardians))
	if res.HighIssues != 1 || res.Issues[0].CurrentRelationship != "SIBLING" {
		t.Fatalf("expected reverse cousin issue, got %#v", res)
	}
}

func TestUncleNephewWithSharedParent(t *testing.T) {
	students := []common.Student{
		{ID: "a", Name: "A", Notes: notesWith("b", "UNCLE_NEPHEW")},
		{ID: "b", Name: "B", Notes: notesWith("a", "UNCLE_NEPHEW")},
	}
	guardians := []common.Guardian{
		{ID: "g1", StudentID: "a", Relation: common.GuardianMother, Email: "m@x.com"},
		{ID: "g2", StudentID: "b", Relation: common.GuardianMother, Email: "m@x.com"},
	}

	res := newDiagnoser().Diagnose(roster.New(students, guardians))

	if res.CriticalIssues != 2 || res.TotalIssues != 2 {
		t.Fatalf("expected the sibling and uncle-nephew issues, got %#v", res.Issues)
	}
	ids := map[string]bool{}
	for _, issue := range res.Issues {
		ids[issue.ID] = true
		if issue.ExpectedRelationship != "SIBLING" {
			t.Errorf("issue %s expected SIBLING, got %s", issue.ID, issue.ExpectedRelationship)
		}
	}
	if !ids["sibling:a|b"] || !ids["uncle-nephew:a|b"] {
		t.Errorf("unexpected ids %v", ids)
	}
}

func TestNoIssues(t *testing.T) {
	tests := []struct {
		name      string
		students  []common.Student
		guardians []common.Guardian
	}{
		{
			name: "siblings declared correctly",
			students: []common.Student{
				{ID: "a", Notes: notesWith("b", "SIBLING")},
				{ID: "b"},
			},
			guardians: []common.Guardian{
				{StudentID: "a", Relation: common.GuardianFather, Phone: "1"},
				{StudentID: "b", Relation: common.GuardianFather, Phone: "1"},
			},
		},
		{
			name: "same name is not evidence",
			students: []common.Student{
				{ID: "a", Notes: notesWith("b", "OTHER")},
				{ID: "b"},
			},
			guardians: []common.Guardian{
				{StudentID: "a", Name: "Carlos Silva", Relation: common.GuardianFather, Phone: "1"},
				{StudentID: "b", Name: "Carlos Silva", Relation: common.GuardianFather, Phone: "2"},
			},
		},
		{
			name: "different relation kind",
			students: []common.Student{
				{ID: "a", Notes: notesWith("b", "OTHER")},
				{ID: "b"},
			},
			guardians: []common.Guardian{
				{StudentID: "a", Relation: common.GuardianFather, Email: "x@y.z"},
				{StudentID: "b", Relation: common.GuardianGrandparent, Email: "x@y.z"},
			},
		},
		{
			name: "empty contacts never match",
			students: []common.Student{
				{ID: "a", Notes: notesWith("b", "OTHER")},
				{ID: "b"},
			},
			guardians: []common.Guardian{
				{StudentID: "a", Relation: common.GuardianMother},
				{StudentID: "b", Relation: common.GuardianMother},
			},
		},
		{
			name: "cousins declared correctly",
			students: []common.Student{
				{ID: "a", Notes: notesWith("b", "COUSIN")},
				{ID: "b"},
			},
			guardians: []common.Guardian{
				{StudentID: "a", Relation: common.GuardianMother, Email: "r@x"},
				{StudentID: "b", Relation: common.GuardianUncle, Email: "r@x"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newDiagnoser().Diagnose(roster.New(tt.students, tt.guardians))
			if res.TotalIssues != 0 || len(res.Issues) != 0 {
				t.Errorf("expected no issues, got %#v", res.Issues)
			}
		})
	}
}

func TestSkipsMissingAndSelf(t *testing.T) {
	students := []common.Student{
		{ID: "a", Notes: notesWith("a", "SIBLING", "ghost", "COUSIN")},
	}
	res := newDiagnoser().Diagnose(roster.New(students, nil))
	if len(res.Skipped) != 2 {
		t.Fatalf("expected 2 skipped relationships, got %#v", res.Skipped)
	}
	if res.TotalIssues != 0 {
		t.Errorf("expected no issues")
	}
}

func TestIssuesSortedBySeverity(t *testing.T) {
	students := []common.Student{
		{ID: "a", Notes: notesWith("b", "OTHER", "c", "OTHER")},
		{ID: "b"},
		{ID: "c"},
	}
	guardians := []common.Guardian{
		{StudentID: "a", Relation: common.GuardianMother, Email: "m@x"},
		{StudentID: "b", Relation: common.GuardianUncle, Email: "m@x"},
		{StudentID: "a", Relation: common.GuardianFather, Email: "p@x"},
		{StudentID: "c", Relation: common.GuardianFather, Email: "p@x"},
	}

	res := newDiagnoser().Diagnose(roster.New(students, guardians))
	if res.TotalIssues != 2 {
		t.Fatalf("expected 2 issues, got %#v", res.Issues)
	}
	if res.Issues[0].Severity != common.SeverityCritical || res.Issues[1].Severity != common.SeverityHigh {
		t.Errorf("issues not sorted: %s, %s", res.Issues[0].Severity, res.Issues[1].Severity)
	}
}

func TestSameContact(t *testing.T) {
	tests := []struct {
		name string
		a, b common.Guardian
		want bool
	}{
		{"email case", common.Guardian{Email: "A@B.com"}, common.Guardian{Email: "a@b.com"}, true},
		{"phone formatting", common.Guardian{Phone: "+55 (11) 9999-0000"}, common.Guardian{Phone: "5511 99990000"}, true},
		{"email or phone", common.Guardian{Email: "x@y", Phone: "1"}, common.Guardian{Email: "z@y", Phone: "1"}, true},
		{"nothing shared", common.Guardian{Email: "x@y"}, common.Guardian{Email: "z@y"}, false},
		{"both empty", common.Guardian{}, common.Guardian{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := common.SameContact(tt.a, tt.b); got != tt.want {
				t.Errorf("SameContact() = %v, want %v", got, tt.want)
			}
		})
	}
}

package roster

import (
	"reflect"
	"testing"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
)

func strPtr(s string) *string { return &s }

func TestNew(t *testing.T) {
	students := []common.Student{
		{ID: "b", Name: "Bia", Notes: strPtr(`{"familyRelationships":[{"relatedStudentId":"a","relationshipType":"SIBLING"}]}`)},
		{ID: "a", Name: "Ana"},
		{ID: "c", Name: "Caio", Notes: strPtr(`{not json`)},
		{ID: "a", Name: "Duplicate"},
	}
	guardians := []common.Guardian{
		{ID: "g1", StudentID: "a", Relation: common.GuardianFather},
		{ID: "g2", StudentID: "b", Relation: common.GuardianFather},
		{ID: "g3", StudentID: "a", Relation: common.GuardianMother},
	}

	idx := New(students, guardians)

	if got, want := idx.StudentIDs(), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("StudentIDs() = %v, want %v", got, want)
	}
	if idx.Name("a") != "Ana" {
		t.Errorf("duplicate must not replace the first record, got %q", idx.Name("a"))
	}
	if idx.Name("zzz") != "zzz" {
		t.Errorf("unknown student name should fall back to the id")
	}
	if len(idx.Guardians("a")) != 2 {
		t.Errorf("expected 2 guardians for a, got %d", len(idx.Guardians("a")))
	}
	if len(idx.Skipped) != 1 || idx.Skipped[0].StudentID != "c" {
		t.Errorf("expected c to be skipped, got %#v", idx.Skipped)
	}
	if idx.Relationships("c") != nil {
		t.Errorf("malformed notes must yield no relationships")
	}

	r, ok := idx.Declared("a", "b")
	if !ok || r.RelationshipType != "SIBLING" {
		t.Errorf("Declared(a, b) should find the reverse declaration, got %#v %v", r, ok)
	}
	if _, ok := idx.Declared("a", "c"); ok {
		t.Errorf("Declared(a, c) should be absent")
	}

	g, ok := idx.Guardian("g2")
	if !ok || g.StudentID != "b" {
		t.Errorf("Guardian(g2) = %#v, %v", g, ok)
	}
}

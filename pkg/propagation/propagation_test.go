package propagation

import (
	"fmt"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/notes"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/roster"
)

var fixedNow = time.Date(2024, 8, 10, 9, 0, 0, 0, time.UTC)

func newEngine() *Engine {
	return NewEngine(NewEngineParams{Now: func() time.Time { return fixedNow }})
}

func student(id, name string, rels ...string) common.Student {
	body := ""
	for i := 0; i+1 < len(rels); i += 2 {
		if body != "" {
			body += ","
		}
		body += fmt.Sprintf(`{"relatedStudentId":%q,"relationshipType":%q}`, rels[i], rels[i+1])
	}
	blob := `{"familyRelationships":[` + body + `]}`
	return common.Student{ID: id, Name: name, Notes: &blob}
}

type triple struct{ a, c, typ string }

func triples(res Result) []triple {
	var out []triple
	for a, rels := range res.NewRelationships {
		for _, r := range rels {
			out = append(out, triple{a, r.RelatedStudentID, r.RelationshipType})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].a != out[j].a {
			return out[i].a < out[j].a
		}
		return out[i].c < out[j].c
	})
	return out
}

func TestPropagateSiblingChain(t *testing.T) {
	idx := roster.New([]common.Student{
		student("a", "Ana", "b", "SIBLING"),
		student("b", "Bia", "a", "SIBLING", "c", "SIBLING"),
		student("c", "Caio", "b", "SIBLING"),
	}, nil)

	res := newEngine().Propagate(idx)

	want := []triple{{"a", "c", "SIBLING"}, {"c", "a", "SIBLING"}}
	if got := triples(res); !reflect.DeepEqual(got, want) {
		t.Fatalf("triples = %v, want %v", got, want)
	}
	if res.Count != 2 || len(res.Details) != 2 {
		t.Fatalf("count = %d, details = %d", res.Count, len(res.Details))
	}

	rel := res.NewRelationships["a"][0]
	if rel.Confidence != "MEDIUM" {
		t.Errorf("confidence = %s, want MEDIUM", rel.Confidence)
	}
	if rel.InferredFrom != "via Bia" {
		t.Errorf("inferredFrom = %q", rel.InferredFrom)
	}
	if rel.RelatedStudentName != "Caio" {
		t.Errorf("relatedStudentName = %q", rel.RelatedStudentName)
	}
	if rel.CreatedAt != fixedNow.UTC().Format(time.RFC3339) {
		t.Errorf("createdAt = %v", rel.CreatedAt)
	}
	if res.Details[0].ViaStudent != "Bia" {
		t.Errorf("trace = %v", res.Details[0])
	}
}

func TestPropagateComposition(t *testing.T) {
	idx := roster.New([]common.Student{
		student("a", "A", "b", "SIBLING"),
		student("b", "B", "c", "COUSIN", "d", "UNCLE_NEPHEW"),
		student("c", "C", "e", "UNCLE_NEPHEW"),
		student("d", "D"),
		student("e", "E"),
	}, nil)

	got := triples(newEngine().Propagate(idx))
	want := []triple{
		{"a", "c", "COUSIN"},
		{"a", "d", "UNCLE_NEPHEW"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("triples = %v, want %v", got, want)
	}
}

func TestPropagateNeverOverwrites(t *testing.T) {
	idx := roster.New([]common.Student{
		student("a", "A", "b", "SIBLING", "c", "OTHER"),
		student("b", "B", "c", "SIBLING"),
		student("c", "C"),
	}, nil)

	res := newEngine().Propagate(idx)
	for _, rel := range res.NewRelationships["a"] {
		if rel.RelatedStudentID == "c" {
			t.Fatalf("declared OTHER relationship was overwritten by %s", rel.RelationshipType)
		}
	}
}

func TestPropagateOncePerPair(t *testing.T) {
	idx := roster.New([]common.Student{
		student("a", "A", "b", "SIBLING", "c", "SIBLING"),
		student("b", "B", "d", "SIBLING"),
		student("c", "C", "d", "SIBLING"),
		student("d", "D"),
	}, nil)

	res := newEngine().Propagate(idx)
	if len(res.NewRelationships["a"]) != 1 {
		t.Fatalf("expected one inferred edge a->d, got %#v", res.NewRelationships["a"])
	}
}

func TestPropagateIsRepeatable(t *testing.T) {
	idx := roster.New([]common.Student{
		student("a", "A", "b", "SIBLING"),
		student("b", "B", "a", "SIBLING", "c", "COUSIN"),
		student("c", "C", "b", "COUSIN", "d", "SIBLING"),
		student("d", "D", "c", "SIBLING"),
	}, nil)

	e := newEngine()
	first := e.Propagate(idx)
	second := e.Propagate(idx)
	if first.Count != second.Count {
		t.Fatalf("counts differ: %d vs %d", first.Count, second.Count)
	}
	if !reflect.DeepEqual(triples(first), triples(second)) {
		t.Fatalf("triples differ: %v vs %v", triples(first), triples(second))
	}
	if !reflect.DeepEqual(first.Details, second.Details) {
		t.Fatalf("details differ")
	}
}

func TestPropagateNoSelfLoops(t *testing.T) {
	idx := roster.New([]common.Student{
		student("a", "A", "a", "SIBLING", "b", "SIBLING"),
		student("b", "B", "a", "SIBLING", "b", "SIBLING"),
	}, nil)

	res := newEngine().Propagate(idx)
	for aID, rels := range res.NewRelationships {
		for _, r := range rels {
			if r.RelatedStudentID == aID {
				t.Fatalf("self loop emitted for %s", aID)
			}
		}
	}
	if res.Count != 0 {
		t.Fatalf("expected nothing inferred, got %d", res.Count)
	}
}

func TestPropagateSkipsMissingStudents(t *testing.T) {
	idx := roster.New([]common.Student{
		student("a", "A", "ghost", "SIBLING", "b", "SIBLING"),
		student("b", "B", "ghost2", "SIBLING"),
	}, nil)

	res := newEngine().Propagate(idx)
	if res.Count != 0 {
		t.Fatalf("expected nothing inferred, got %v", triples(res))
	}
	if len(res.Skipped) != 2 {
		t.Fatalf("expected 2 skipped references, got %#v", res.Skipped)
	}
}

func TestPropagateForStudent(t *testing.T) {
	idx := roster.New([]common.Student{
		student("a", "A", "b", "SIBLING"),
		student("b", "B", "a", "SIBLING", "c", "SIBLING"),
		student("c", "C", "b", "SIBLING"),
		student("x", "X", "y", "SIBLING"),
		student("y", "Y", "z", "SIBLING"),
		student("z", "Z"),
	}, nil)

	res := newEngine().PropagateForStudent(idx, "a")
	want := []triple{{"a", "c", "SIBLING"}, {"c", "a", "SIBLING"}}
	if got := triples(res); !reflect.DeepEqual(got, want) {
		t.Fatalf("triples = %v, want %v", got, want)
	}
	if res.Count != 2 || len(res.Details) != 2 {
		t.Fatalf("count = %d details = %d", res.Count, len(res.Details))
	}
}

func TestMerge(t *testing.T) {
	n := &notes.Notes{FamilyRelationships: []common.FamilyRelationship{{RelatedStudentID: "b", RelationshipType: "OTHER"}}}
	merged, added := Merge(n, []common.FamilyRelationship{
		{RelatedStudentID: "b", RelationshipType: "SIBLING"},
		{RelatedStudentID: "c", RelationshipType: "COUSIN"},
		{RelatedStudentID: "c", RelationshipType: "COUSIN"},
	})
	if added != 1 || len(merged.FamilyRelationships) != 2 {
		t.Fatalf("added = %d, merged = %#v", added, merged.FamilyRelationships)
	}
	if merged.FamilyRelationships[0].RelationshipType != "OTHER" {
		t.Errorf("existing relationship replaced")
	}
	if len(n.FamilyRelationships) != 1 {
		t.Errorf("input notes mutated")
	}

	fresh, added := Merge(nil, []common.FamilyRelationship{{RelatedStudentID: "z", RelationshipType: "SIBLING"}})
	if added != 1 || len(fresh.FamilyRelationships) != 1 {
		t.Errorf("merge into nil notes failed")
	}
}

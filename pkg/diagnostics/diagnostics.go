// Package diagnostics cross-checks declared student relationships against
// the evidence carried by shared guardians.
package diagnostics

import (
	"fmt"
	"sort"
	"time"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/roster"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/taxonomy"
)

// Result is the outcome of one diagnosis run.
type Result struct {
	TotalIssues    int              `json:"totalIssues"`
	CriticalIssues int              `json:"criticalIssues"`
	HighIssues     int              `json:"highIssues"`
	MediumIssues   int              `json:"mediumIssues"`
	LowIssues      int              `json:"lowIssues"`
	Issues         []common.Issue   `json:"issues"`
	Skipped        []common.Skipped `json:"skipped,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// Diagnoser runs the consistency rules. It never mutates its input.
type Diagnoser struct {
	now func() time.Time
}

// NewDiagnoserParams configures a Diagnoser. Now defaults to time.Now.
type NewDiagnoserParams struct {
	Now func() time.Time
}

func NewDiagnoser(params NewDiagnoserParams) *Diagnoser {
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Diagnoser{now: now}
}

type collector struct {
	seen   map[string]bool
	issues []common.Issue
}

func (c *collector) add(issue common.Issue) {
	if c.seen[issue.ID] {
		return
	}
	c.seen[issue.ID] = true
	c.issues = append(c.issues, issue)
}

// Diagnose checks every declared relationship of the roster.
//
// A pair sharing a mother, father or sibling-guardian must be SIBLING. A
// pair where one student's parent is the other's uncle or aunt should be
// COUSIN. Issue IDs are keyed by the unordered pair so a relationship
// declared on both students is reported once.
func (d *Diagnoser) Diagnose(idx *roster.Index) Result {
	c := &collector{seen: make(map[string]bool)}
	res := Result{Skipped: append([]common.Skipped(nil), idx.Skipped...)}

	for _, aID := range idx.StudentIDs() {
		for _, rel := range idx.Relationships(aID) {
			bID := rel.RelatedStudentID
			if bID == aID {
				logger.Warn("[Diagnostics] Self relationship ignored", "student_id", aID)
				res.Skipped = append(res.Skipped, common.Skipped{StudentID: aID, RelatedID: bID, Reason: "self relationship"})
				continue
			}
			if _, ok := idx.Student(bID); !ok {
				logger.Warn("[Diagnostics] Related student not in roster", "student_id", aID, "related_id", bID)
				res.Skipped = append(res.Skipped, common.Skipped{StudentID: aID, RelatedID: bID, Reason: "related student not found"})
				continue
			}
			d.check(idx, aID, bID, rel, c)
		}
	}

	sort.SliceStable(c.issues, func(i, j int) bool {
		ri, rj := c.issues[i].Severity.Rank(), c.issues[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return c.issues[i].ID < c.issues[j].ID
	})

	res.Issues = c.issues
	if res.Issues == nil {
		res.Issues = []common.Issue{}
	}
	for _, issue := range res.Issues {
		switch issue.Severity {
		case common.SeverityCritical:
			res.CriticalIssues++
		case common.SeverityHigh:
			res.HighIssues++
		case common.SeverityMedium:
			res.MediumIssues++
		case common.SeverityLow:
			res.LowIssues++
		}
	}
	res.TotalIssues = len(res.Issues)
	res.Timestamp = d.now()

	logger.Debug("[Diagnostics] Diagnosis finished",
		"students", idx.Len(),
		"issues", res.TotalIssues,
		"critical", res.CriticalIssues,
		"high", res.HighIssues,
	)

	return res
}

func (d *Diagnoser) check(idx *roster.Index, aID, bID string, rel common.FamilyRelationship, c *collector) {
	declared := taxonomy.RelationshipType(rel.RelationshipType)
	pair := common.PairKey(aID, bID)
	s1 := common.IssueStudent{ID: aID, Name: idx.Name(aID)}
	s2 := common.IssueStudent{ID: bID, Name: idx.Name(bID)}

	if evidence, ok := sharedParent(idx.Guardians(aID), idx.Guardians(bID)); ok {
		if declared != taxonomy.Sibling {
			c.add(common.Issue{
				ID:                   "sibling:" + pair,
				Severity:             common.SeverityCritical,
				Student1:             s1,
				Student2:             s2,
				CurrentRelationship:  rel.RelationshipType,
				ExpectedRelationship: string(taxonomy.Sibling),
				Reason:               fmt.Sprintf("%s and %s share the guardian %s (%s) and must be siblings", s1.Name, s2.Name, evidence.Name, evidence.Relation),
				Confidence:           string(taxonomy.High),
				GuardianEvidence:     evidence,
			})
		}
		if declared == taxonomy.UncleNephew {
			c.add(common.Issue{
				ID:                   "uncle-nephew:" + pair,
				Severity:             common.SeverityCritical,
				Student1:             s1,
				Student2:             s2,
				CurrentRelationship:  rel.RelationshipType,
				ExpectedRelationship: string(taxonomy.Sibling),
				Reason:               fmt.Sprintf("%s and %s are recorded as uncle and nephew but share a direct parent", s1.Name, s2.Name),
				Confidence:           string(taxonomy.High),
				GuardianEvidence:     evidence,
			})
		}
		// A shared direct parent overrides any cousin evidence.
		return
	}

	if declared == taxonomy.Cousin {
		return
	}

	evidence, ok := parentIsUncle(idx.Guardians(aID), idx.Guardians(bID))
	if !ok {
		evidence, ok = parentIsUncle(idx.Guardians(bID), idx.Guardians(aID))
	}
	if !ok {
		return
	}
	c.add(common.Issue{
		ID:                   "cousin:" + pair,
		Severity:             common.SeverityHigh,
		Student1:             s1,
		Student2:             s2,
		CurrentRelationship:  rel.RelationshipType,
		ExpectedRelationship: string(taxonomy.Cousin),
		Reason:               fmt.Sprintf("%s is a parent of one student and an uncle or aunt of the other, so %s and %s should be cousins", evidence.Name, s1.Name, s2.Name),
		Confidence:           string(taxonomy.Medium),
		GuardianEvidence:     evidence,
	})
}

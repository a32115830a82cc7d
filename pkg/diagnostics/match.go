package diagnostics

import (
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
)

// sharedParentKinds are the relation kinds that prove two students are
// siblings when the same person holds them for both.
var sharedParentKinds = map[common.GuardianKind]bool{
	common.GuardianMother:  true,
	common.GuardianFather:  true,
	common.GuardianSibling: true,
}

// sharedParent returns the guardian of the first list that is also a
// parent-like guardian of the second.
func sharedParent(as, bs []common.Guardian) (*common.Guardian, bool) {
	for i := range as {
		if !sharedParentKinds[as[i].Relation] {
			continue
		}
		for j := range bs {
			if common.SameGuardian(as[i], bs[j]) {
				g := as[i]
				return &g, true
			}
		}
	}
	return nil, false
}

// parentIsUncle returns the parent of the first list who appears as an
// uncle or aunt of the second.
func parentIsUncle(parents, uncles []common.Guardian) (*common.Guardian, bool) {
	for i := range parents {
		if !parents[i].Relation.IsParent() {
			continue
		}
		for j := range uncles {
			if uncles[j].Relation != common.GuardianUncle {
				continue
			}
			if common.SameContact(parents[i], uncles[j]) {
				g := parents[i]
				return &g, true
			}
		}
	}
	return nil, false
}

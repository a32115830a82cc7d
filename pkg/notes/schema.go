package notes

import (
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/taxonomy"

	"github.com/invopop/jsonschema"
)

// document mirrors the recognized part of Notes for schema generation.
type document struct {
	FamilyRelationships   []common.FamilyRelationship   `json:"familyRelationships,omitempty" jsonschema_description:"Student to student relationships declared on this student"`
	GuardianRelationships []common.GuardianRelationship `json:"guardianRelationships,omitempty" jsonschema_description:"Guardians related to this student who are not its primary guardian"`
}

// Schema returns the JSON schema of the annotation blob. Additional
// properties are allowed since the blob is shared with other features.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	s := r.Reflect(&document{})
	s.Title = "Student notes"

	studentTypes := []any{}
	for _, t := range taxonomy.StudentTypes() {
		studentTypes = append(studentTypes, string(t))
	}
	guardianTypes := []any{}
	for _, t := range taxonomy.GuardianTypes() {
		guardianTypes = append(guardianTypes, string(t))
	}
	setItemEnum(s, "familyRelationships", "relationshipType", studentTypes)
	setItemEnum(s, "guardianRelationships", "relationshipType", guardianTypes)
	return s
}

// setItemEnum restricts field of the items of the array property list.
func setItemEnum(s *jsonschema.Schema, list, field string, values []any) {
	if s.Properties == nil {
		return
	}
	arr, ok := s.Properties.Get(list)
	if !ok || arr == nil || arr.Items == nil || arr.Items.Properties == nil {
		return
	}
	prop, ok := arr.Items.Properties.Get(field)
	if !ok || prop == nil {
		return
	}
	prop.Enum = values
}

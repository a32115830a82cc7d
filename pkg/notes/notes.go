// Package notes converts the per-student annotation blob to and from a
// typed document. The blob schema is open: fields the codec does not know
// are kept in Extra and written back unchanged.
package notes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/common"
	"github.com/projectklase/comunika-nexus-64-78-sub002/pkg/logger"

	"github.com/go-playground/validator"
)

const (
	fieldFamilyRelationships   = "familyRelationships"
	fieldGuardianRelationships = "guardianRelationships"
)

// Notes is the parsed annotation blob.
type Notes struct {
	FamilyRelationships   []common.FamilyRelationship   `validate:"dive"`
	GuardianRelationships []common.GuardianRelationship `validate:"dive"`

	// Extra holds every top level field the codec does not model.
	Extra map[string]json.RawMessage `validate:"-"`
}

// Partial is a shallow patch applied by Update. Nil fields are left as they are.
type Partial struct {
	FamilyRelationships   []common.FamilyRelationship
	GuardianRelationships []common.GuardianRelationship
	Extra                 map[string]json.RawMessage
}

var validate = validator.New()

func (n *Notes) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("notes must be a JSON object")
	}

	out := Notes{}
	for key, value := range raw {
		switch key {
		case fieldFamilyRelationships:
			if isNull(value) {
				continue
			}
			if err := json.Unmarshal(value, &out.FamilyRelationships); err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
		case fieldGuardianRelationships:
			if isNull(value) {
				continue
			}
			if err := json.Unmarshal(value, &out.GuardianRelationships); err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
		default:
			if out.Extra == nil {
				out.Extra = make(map[string]json.RawMessage)
			}
			out.Extra[key] = value
		}
	}

	*n = out
	return nil
}

func (n Notes) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(n.Extra)+2)
	for key, value := range n.Extra {
		doc[key] = value
	}
	if n.FamilyRelationships != nil {
		doc[fieldFamilyRelationships] = n.FamilyRelationships
	}
	if n.GuardianRelationships != nil {
		doc[fieldGuardianRelationships] = n.GuardianRelationships
	}
	return json.Marshal(doc)
}

// Validate checks the shape of the recognized fields.
func (n *Notes) Validate() error {
	if n == nil {
		return nil
	}
	return validate.Struct(n)
}

// Clone returns a deep enough copy for callers that modify relationship lists.
func (n *Notes) Clone() *Notes {
	if n == nil {
		return nil
	}
	c := &Notes{}
	if n.FamilyRelationships != nil {
		c.FamilyRelationships = append([]common.FamilyRelationship{}, n.FamilyRelationships...)
	}
	if n.GuardianRelationships != nil {
		c.GuardianRelationships = append([]common.GuardianRelationship{}, n.GuardianRelationships...)
	}
	if n.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(n.Extra))
		for k, v := range n.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// Parse returns nil for a missing or empty blob. Malformed JSON and shape
// violations are logged and also yield nil; callers treat nil as
// "no annotations".
func Parse(blob *string) *Notes {
	if blob == nil {
		return nil
	}
	return ParseString(*blob)
}

// ParseString is Parse for a plain string.
func ParseString(blob string) *Notes {
	if strings.TrimSpace(blob) == "" {
		return nil
	}

	var n Notes
	if err := json.Unmarshal([]byte(blob), &n); err != nil {
		logger.Warn("[Notes] Failed to parse notes", "err", err)
		return nil
	}
	if err := n.Validate(); err != nil {
		logger.Warn("[Notes] Notes failed validation", "err", err)
		return nil
	}
	return &n
}

// Stringify returns "" for nil notes and for notes that fail validation.
// It never emits a blob the codec would refuse to parse.
func Stringify(n *Notes) string {
	if n == nil {
		return ""
	}
	if err := n.Validate(); err != nil {
		logger.Warn("[Notes] Refusing to serialize invalid notes", "err", err)
		return ""
	}
	data, err := json.Marshal(n)
	if err != nil {
		logger.Warn("[Notes] Failed to serialize notes", "err", err)
		return ""
	}
	return string(data)
}

// Update parses current, applies partial over it and serializes the result.
// Unknown fields of current survive.
func Update(current *string, partial Partial) string {
	n := Parse(current)
	if n == nil {
		n = &Notes{}
	}
	if partial.FamilyRelationships != nil {
		n.FamilyRelationships = partial.FamilyRelationships
	}
	if partial.GuardianRelationships != nil {
		n.GuardianRelationships = partial.GuardianRelationships
	}
	for key, value := range partial.Extra {
		if key == fieldFamilyRelationships || key == fieldGuardianRelationships {
			continue
		}
		if n.Extra == nil {
			n.Extra = make(map[string]json.RawMessage)
		}
		n.Extra[key] = value
	}
	return Stringify(n)
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

package attrschema

import (
	"encoding/json"
	"sort"

	"github.com/Solvro/web-eventownik-v2-sub001/models"
)

// BlankSentinel is the single-space option value an optional select renders
// so that a once-set value can be cleared again. It exists only at the HTTP
// boundary: Normalize folds it to "absent" before any rule sees it, and
// Serialize never emits it.
const BlankSentinel = " "

// FieldIssue is one client-side validation failure, addressed to the widget
// that must display it.
type FieldIssue struct {
	Attribute models.AttributeID
	Message   string
}

// Schema is a composite validation schema keyed by attribute id. It is pure
// derived data: synthesized from one attribute list snapshot, never cached
// across lists.
type Schema struct {
	rules map[models.AttributeID]Rule
}

// Synthesize builds the schema for an attribute list. Deterministic and
// order-insensitive: the map is keyed by id, not position. Every attribute
// appears exactly once; file/block attributes get passthrough rules so they
// can never block a submission.
func Synthesize(attrs []models.FormAttribute) *Schema {
	rules := make(map[models.AttributeID]Rule, len(attrs))
	for _, attr := range attrs {
		rules[attr.ID] = RuleFor(attr)
	}
	return &Schema{rules: rules}
}

// Len returns the number of keyed rules.
func (s *Schema) Len() int { return len(s.rules) }

// Has reports whether the schema carries a rule for id.
func (s *Schema) Has(id models.AttributeID) bool {
	_, ok := s.rules[id]
	return ok
}

// Rule returns the rule for an attribute id. Ids outside the schema get an
// explicit permissive default instead of a nil dereference somewhere deep in
// a render loop.
func (s *Schema) Rule(id models.AttributeID) Rule {
	if r, ok := s.rules[id]; ok {
		return r
	}
	return rule{required: false}
}

// Validate checks a full value map against the schema and returns all
// failures, sorted by attribute id for stable output. Values are normalized
// first, so blank sentinels and empty strings count as absent.
func (s *Schema) Validate(values map[models.AttributeID]any) []FieldIssue {
	var issues []FieldIssue
	for id, r := range s.rules {
		value, present := Normalize(values[id])
		if !present {
			if r.Required() {
				issues = append(issues, FieldIssue{Attribute: id, Message: ErrRequired.Error()})
			}
			continue
		}
		if err := r.Validate(value); err != nil {
			issues = append(issues, FieldIssue{Attribute: id, Message: err.Error()})
		}
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i].Attribute < issues[j].Attribute })
	return issues
}

// Normalize folds a raw form value into its canonical shape: a string or a
// []string, plus a presence flag. Empty strings, the blank sentinel, empty
// lists and nil all normalize to absent. Booleans become "true"/"false" so
// checkbox values coming off the wire as either shape behave the same.
func Normalize(v any) (any, bool) {
	switch vv := v.(type) {
	case nil:
		return nil, false
	case string:
		if vv == "" || vv == BlankSentinel {
			return nil, false
		}
		return vv, true
	case bool:
		if vv {
			return "true", true
		}
		return "false", true
	case []string:
		out := make([]string, 0, len(vv))
		for _, s := range vv {
			if s != "" && s != BlankSentinel {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	default:
		return nil, false
	}
}

// Serialize renders a value for the multipart payload. Absent values
// (including cleared optional selects) return ok=false and are omitted from
// the payload entirely; multiselect slices are JSON-encoded, preserving the
// user's insertion order.
func Serialize(v any) (string, bool) {
	normalized, present := Normalize(v)
	if !present {
		return "", false
	}
	switch vv := normalized.(type) {
	case string:
		return vv, true
	case []string:
		encoded, err := json.Marshal(vv)
		if err != nil {
			return "", false
		}
		return string(encoded), true
	}
	return "", false
}

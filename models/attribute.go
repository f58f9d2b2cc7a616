package models

import (
	"sort"
	"strconv"
)

// AttributeID identifies one organizer-defined participant field. It is the
// schema key, the HTML field name and the filename of any attachment bound to
// the attribute, so it gets a dedicated type instead of a bare int.
type AttributeID int64

// String returns the wire form of the id (field names, filenames, error
// mapping all use the stringified id).
func (id AttributeID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseAttributeID parses a stringified attribute id, e.g. from a submission
// error's "field" entry. ok is false for anything that is not a plain number.
func ParseAttributeID(s string) (AttributeID, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return AttributeID(n), true
}

// AttributeType is the closed set of input types an organizer can give an
// attribute. The backend owns the set; everything here must dispatch
// exhaustively over it.
type AttributeType string

const (
	AttributeText        AttributeType = "text"
	AttributeNumber      AttributeType = "number"
	AttributeSelect      AttributeType = "select"
	AttributeMultiselect AttributeType = "multiselect"
	AttributeEmail       AttributeType = "email"
	AttributeDate        AttributeType = "date"
	AttributeDatetime    AttributeType = "datetime"
	AttributeTime        AttributeType = "time"
	AttributeColor       AttributeType = "color"
	AttributeTextarea    AttributeType = "textarea"
	AttributeCheckbox    AttributeType = "checkbox"
	AttributeTel         AttributeType = "tel"
	AttributeFile        AttributeType = "file"
	AttributeBlock       AttributeType = "block"
)

// Valid reports whether t is one of the known types.
func (t AttributeType) Valid() bool {
	switch t {
	case AttributeText, AttributeNumber, AttributeSelect, AttributeMultiselect,
		AttributeEmail, AttributeDate, AttributeDatetime, AttributeTime,
		AttributeColor, AttributeTextarea, AttributeCheckbox, AttributeTel,
		AttributeFile, AttributeBlock:
		return true
	}
	return false
}

// HasOptions reports whether the type carries an option list.
func (t AttributeType) HasOptions() bool {
	return t == AttributeSelect || t == AttributeMultiselect
}

// HasScalarValue reports whether a value of this type travels in the scalar
// part of a submission. Files live in the attachment store and nowhere else.
func (t AttributeType) HasScalarValue() bool {
	return t != AttributeFile
}

// Attribute is a server-defined descriptor of one participant-fillable field,
// fetched read-only per event and never mutated by this client.
type Attribute struct {
	ID         AttributeID   `json:"id"`
	Name       string        `json:"name"`
	Type       AttributeType `json:"type"`
	Options    []string      `json:"options,omitempty"`
	IsRequired bool          `json:"isRequired"`
}

// FormAttribute is an Attribute placed on a specific form, with placement
// metadata coming from the form<->attribute pivot.
type FormAttribute struct {
	Attribute
	Order      *int `json:"order,omitempty"`
	IsEditable bool `json:"isEditable"`
}

// SortAttributes orders attributes the single way the whole service uses:
// explicit Order ascending, attributes without Order last, ties broken by ID.
// Both schema iteration and widget rendering go through this, so the two can
// never drift apart. Sorting is stable and done on a copy.
func SortAttributes(attrs []FormAttribute) []FormAttribute {
	sorted := make([]FormAttribute, len(attrs))
	copy(sorted, attrs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.Order != nil && b.Order != nil && *a.Order != *b.Order:
			return *a.Order < *b.Order
		case a.Order != nil && b.Order == nil:
			return true
		case a.Order == nil && b.Order != nil:
			return false
		}
		return a.ID < b.ID
	})
	return sorted
}

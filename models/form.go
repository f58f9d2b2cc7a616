package models

// PublicForm is the participant-facing form definition as the backend returns
// it: a named, described, ordered set of attributes to fill in.
type PublicForm struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Attributes  []FormAttribute `json:"attributes"`
}

// EmailAttributeID returns the id of the form's email-typed attribute, if it
// has one. Submission errors with field "email" are pinned onto it.
func (f *PublicForm) EmailAttributeID() (AttributeID, bool) {
	for _, a := range f.Attributes {
		if a.Type == AttributeEmail {
			return a.ID, true
		}
	}
	return 0, false
}

// BlockAttributes returns the form's block-typed attributes, i.e. the ones
// that need live occupancy data.
func (f *PublicForm) BlockAttributes() []FormAttribute {
	var out []FormAttribute
	for _, a := range f.Attributes {
		if a.Type == AttributeBlock {
			out = append(out, a)
		}
	}
	return out
}

package models

// ParticipantAttributeMeta carries the pivot data of one already-submitted
// attribute value.
type ParticipantAttributeMeta struct {
	PivotValue     string `json:"pivot_value"`
	PivotUpdatedAt string `json:"pivot_updated_at"`
}

// ParticipantAttribute is one attribute value belonging to one participant,
// exactly as the public participants endpoint returns it.
type ParticipantAttribute struct {
	ID   AttributeID              `json:"id"`
	Type AttributeType            `json:"type"`
	Meta ParticipantAttributeMeta `json:"meta"`
}

// PublicParticipant is the participant-facing view of a registration. It
// drives default values when somebody edits an existing submission.
type PublicParticipant struct {
	ID         int64                  `json:"id"`
	Slug       string                 `json:"slug"`
	Attributes []ParticipantAttribute `json:"attributes"`
}

// ValueOf returns the stored pivot value for an attribute, if any.
func (p *PublicParticipant) ValueOf(id AttributeID) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, a := range p.Attributes {
		if a.ID == id {
			return a.Meta.PivotValue, true
		}
	}
	return "", false
}

// UpdatedAt returns the pivot_updated_at timestamp for an attribute. Used by
// the file widget to show when the current attachment was last saved.
func (p *PublicParticipant) UpdatedAt(id AttributeID) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, a := range p.Attributes {
		if a.ID == id && a.Meta.PivotUpdatedAt != "" {
			return a.Meta.PivotUpdatedAt, true
		}
	}
	return "", false
}

package repositories

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Solvro/web-eventownik-v2-sub001/models"
)

// IParticipantRepository fetches a participant's already-submitted attribute
// values, used to seed defaults when editing an existing registration.
type IParticipantRepository interface {
	GetParticipant(ctx context.Context, eventSlug, userSlug string, attributeIDs []models.AttributeID) (*models.PublicParticipant, error)
}

// ParticipantRepository implements IParticipantRepository against the backend
// API.
type ParticipantRepository struct {
	api *Client
}

// NewParticipantRepository creates a ParticipantRepository with the default
// client.
func NewParticipantRepository() IParticipantRepository {
	return &ParticipantRepository{api: NewClient()}
}

// NewParticipantRepositoryWith creates a ParticipantRepository over an
// explicit client.
func NewParticipantRepositoryWith(api *Client) IParticipantRepository {
	return &ParticipantRepository{api: api}
}

// GetParticipant fetches
// GET /events/{eventSlug}/participants/{userSlug}?attributes[]=...
// restricted to the given attribute ids (the ones placed on the form being
// edited).
func (r *ParticipantRepository) GetParticipant(ctx context.Context, eventSlug, userSlug string, attributeIDs []models.AttributeID) (*models.PublicParticipant, error) {
	if eventSlug == "" || userSlug == "" {
		return nil, ErrNotFound
	}

	query := url.Values{}
	for _, id := range attributeIDs {
		query.Add("attributes[]", id.String())
	}
	path := fmt.Sprintf("/events/%s/participants/%s", url.PathEscape(eventSlug), url.PathEscape(userSlug))
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var participant models.PublicParticipant
	if err := r.api.getJSON(ctx, path, &participant); err != nil {
		return nil, err
	}
	return &participant, nil
}

var _ IParticipantRepository = (*ParticipantRepository)(nil)

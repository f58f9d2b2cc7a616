package repositories

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Solvro/web-eventownik-v2-sub001/models"
)

// IFormRepository fetches participant-facing form definitions.
type IFormRepository interface {
	GetForm(ctx context.Context, eventSlug string, formID int64) (*models.PublicForm, error)
}

// FormRepository implements IFormRepository against the backend API.
type FormRepository struct {
	api *Client
}

// NewFormRepository creates a FormRepository with the default client.
func NewFormRepository() IFormRepository {
	return &FormRepository{api: NewClient()}
}

// NewFormRepositoryWith creates a FormRepository over an explicit client.
func NewFormRepositoryWith(api *Client) IFormRepository {
	return &FormRepository{api: api}
}

// GetForm fetches GET /events/{eventSlug}/forms/{formId}. The attribute list
// is returned exactly as the backend orders it; callers sort it through
// models.SortAttributes before use.
func (r *FormRepository) GetForm(ctx context.Context, eventSlug string, formID int64) (*models.PublicForm, error) {
	if eventSlug == "" || formID == 0 {
		return nil, ErrNotFound
	}
	var form models.PublicForm
	path := fmt.Sprintf("/events/%s/forms/%d", url.PathEscape(eventSlug), formID)
	if err := r.api.getJSON(ctx, path, &form); err != nil {
		return nil, err
	}
	return &form, nil
}

var _ IFormRepository = (*FormRepository)(nil)

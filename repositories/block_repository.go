package repositories

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Solvro/web-eventownik-v2-sub001/models"
)

// IBlockRepository fetches capacity-block trees for block-typed attributes.
// The occupancy poller calls this once per tick.
type IBlockRepository interface {
	GetAttributeBlocks(ctx context.Context, eventSlug string, attributeID models.AttributeID) ([]models.PublicBlock, error)
}

// BlockRepository implements IBlockRepository against the backend API.
type BlockRepository struct {
	api *Client
}

// NewBlockRepository creates a BlockRepository with the default client.
func NewBlockRepository() IBlockRepository {
	return &BlockRepository{api: NewClient()}
}

// NewBlockRepositoryWith creates a BlockRepository over an explicit client.
func NewBlockRepositoryWith(api *Client) IBlockRepository {
	return &BlockRepository{api: api}
}

// GetAttributeBlocks fetches GET /events/{eventSlug}/attributes/{id}/blocks.
// The result is the list of root blocks; children are nested inside.
func (r *BlockRepository) GetAttributeBlocks(ctx context.Context, eventSlug string, attributeID models.AttributeID) ([]models.PublicBlock, error) {
	if eventSlug == "" || attributeID == 0 {
		return nil, ErrNotFound
	}
	var blocks []models.PublicBlock
	path := fmt.Sprintf("/events/%s/attributes/%s/blocks", url.PathEscape(eventSlug), attributeID.String())
	if err := r.api.getJSON(ctx, path, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

var _ IBlockRepository = (*BlockRepository)(nil)

package repository

import (
	"context"

	"shortsforge/internal/domain/model"
)

// CampaignRepository persists campaigns as whole documents keyed by name.
// Save rewrites the full record; there are no partial updates.
type CampaignRepository interface {
	Save(ctx context.Context, c *model.Campaign) error
	FindByName(ctx context.Context, name string) (*model.Campaign, error)
	ListNames(ctx context.Context) ([]string, error)
}

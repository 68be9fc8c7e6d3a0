package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"shortsforge/internal/domain"
	"shortsforge/internal/domain/model"
	"shortsforge/internal/domain/ports/repository"
)

var _ repository.CampaignRepository = (*CampaignRepo)(nil)

// CampaignRepo stores campaigns as JSON documents keyed by campaign name.
// Loaded campaigns are repaired from asset presence on disk, so a record
// whose status lags behind the files (an interrupted run, a retry that
// overwrote a clip) comes back consistent.
type CampaignRepo struct {
	store *Store
}

func NewCampaignRepo(store *Store) *CampaignRepo {
	return &CampaignRepo{store: store}
}

func (r *CampaignRepo) Save(ctx context.Context, c *model.Campaign) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal campaign %s: %w", c.Name, err)
	}
	if err := r.store.put(bucketCampaigns, c.Name, doc); err != nil {
		return fmt.Errorf("store campaign %s: %w", c.Name, err)
	}
	return nil
}

func (r *CampaignRepo) FindByName(ctx context.Context, name string) (*model.Campaign, error) {
	doc, err := r.store.get(bucketCampaigns, name)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	var c model.Campaign
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, fmt.Errorf("decode campaign %s: %w", name, err)
	}
	if c.Reconcile(fileExists) {
		if err := r.Save(ctx, &c); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (r *CampaignRepo) ListNames(ctx context.Context) ([]string, error) {
	return r.store.keys(bucketCampaigns)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"shortsforge/internal/domain/model"
	"shortsforge/internal/domain/ports/repository"
)

var _ repository.UsageRepository = (*UsageRepo)(nil)

// UsageRepo stores one small {usage, last_date} document per account id.
type UsageRepo struct {
	store *Store
}

func NewUsageRepo(store *Store) *UsageRepo {
	return &UsageRepo{store: store}
}

func (r *UsageRepo) Load(ctx context.Context) (map[int]model.AccountUsage, error) {
	out := make(map[int]model.AccountUsage)
	ids, err := r.store.keys(bucketUsage)
	if err != nil {
		return nil, err
	}
	for _, key := range ids {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue // unknown key shape, skip
		}
		doc, err := r.store.get(bucketUsage, key)
		if err != nil {
			return nil, err
		}
		var u model.AccountUsage
		if err := json.Unmarshal(doc, &u); err != nil {
			return nil, fmt.Errorf("decode usage for account %d: %w", id, err)
		}
		out[id] = u
	}
	return out, nil
}

func (r *UsageRepo) Save(ctx context.Context, usage map[int]model.AccountUsage) error {
	for id, u := range usage {
		doc, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("marshal usage for account %d: %w", id, err)
		}
		if err := r.store.put(bucketUsage, strconv.Itoa(id), doc); err != nil {
			return fmt.Errorf("store usage for account %d: %w", id, err)
		}
	}
	return nil
}

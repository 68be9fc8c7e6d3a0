package repository

import (
	"context"

	"shortsforge/internal/domain/model"
)

// UsageRepository persists per-account daily usage, one small document per
// account id. Load returns an empty map when nothing was stored yet.
type UsageRepository interface {
	Load(ctx context.Context) (map[int]model.AccountUsage, error)
	Save(ctx context.Context, usage map[int]model.AccountUsage) error
}

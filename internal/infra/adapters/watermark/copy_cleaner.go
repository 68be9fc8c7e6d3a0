package watermark

import (
	"context"

	"shortsforge/internal/domain/ports/adapter"
	"shortsforge/internal/fsutil"
)

var _ adapter.WatermarkCleaner = (*CopyCleaner)(nil)

// CopyCleaner implements adapter.WatermarkCleaner by copying the asset
// unchanged. It stands in for the real inpainting tool in dev setups and
// matches the contract's failure mode: the input is never destroyed.
type CopyCleaner struct{}

func NewCopyCleaner() *CopyCleaner { return &CopyCleaner{} }

func (c *CopyCleaner) CleanImage(ctx context.Context, src, dst string) error {
	return fsutil.CopyFile(src, dst)
}

func (c *CopyCleaner) CleanVideo(ctx context.Context, src, dst string) error {
	return fsutil.CopyFile(src, dst)
}

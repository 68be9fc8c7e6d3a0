package adapter

import "context"

// WatermarkCleaner removes vendor watermarks from generated assets.
// On failure the caller falls back to the unmodified asset; cleaners must
// never destroy their input.
type WatermarkCleaner interface {
	CleanImage(ctx context.Context, src, dst string) error
	CleanVideo(ctx context.Context, src, dst string) error
}

package adapter

import "context"

// GenerationProvider is the port for the external image/video capability.
// Every call is bounded by the caller's context deadline and has a binary
// outcome: an asset path on disk, or an error. Errors are opaque; the
// orchestrator treats all of them as retryable.
type GenerationProvider interface {
	// EnsureSession starts or validates the account's generation session.
	// Sessions are reused across items and closed only on explicit teardown.
	EnsureSession(ctx context.Context, accountID int) error

	// GenerateImage produces an image for the prompt and writes it to outPath.
	GenerateImage(ctx context.Context, accountID int, prompt, outPath string) error

	// GenerateVideo animates imagePath into a clip written to outPath.
	// An empty imagePath means the prompt references an image generated
	// earlier in the same session, skipping the upload.
	GenerateVideo(ctx context.Context, accountID int, imagePath, prompt, outPath string) error

	// ResetContext starts a fresh conversation so state from one item cannot
	// leak into the next item's prompt.
	ResetContext(ctx context.Context, accountID int) error

	// Close tears down the account's session.
	Close(accountID int)
}

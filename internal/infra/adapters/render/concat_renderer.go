package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shortsforge/internal/domain/ports/adapter"
)

var _ adapter.Renderer = (*ConcatRenderer)(nil)

// ConcatRenderer implements adapter.Renderer for dev runs: it writes a
// concat manifest plus the narration text next to the clips and produces a
// placeholder final artifact. The real compositor (TTS, subtitles, muxing)
// lives outside this process and consumes the same manifest.
type ConcatRenderer struct{}

func NewConcatRenderer() *ConcatRenderer { return &ConcatRenderer{} }

func (r *ConcatRenderer) Render(ctx context.Context, req adapter.RenderRequest) (string, error) {
	if len(req.VideoPaths) == 0 {
		return "", fmt.Errorf("no clips to render")
	}
	for _, p := range req.VideoPaths {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("clip missing: %w", err)
		}
	}

	var manifest strings.Builder
	for _, p := range req.VideoPaths {
		fmt.Fprintf(&manifest, "file '%s'\n", p)
	}
	if err := os.WriteFile(filepath.Join(req.OutDir, "concat.txt"), []byte(manifest.String()), 0644); err != nil {
		return "", fmt.Errorf("write concat manifest: %w", err)
	}
	narration := fmt.Sprintf("style=%s words_per_subtitle=%d\n%s\n", req.VoiceStyle, req.WordsPerSubtitle, req.VoiceText)
	if err := os.WriteFile(filepath.Join(req.OutDir, "narration.txt"), []byte(narration), 0644); err != nil {
		return "", fmt.Errorf("write narration: %w", err)
	}

	final := filepath.Join(req.OutDir, "final_video.mp4")
	if err := os.WriteFile(final, []byte(manifest.String()), 0644); err != nil {
		return "", fmt.Errorf("write final video: %w", err)
	}
	return final, nil
}

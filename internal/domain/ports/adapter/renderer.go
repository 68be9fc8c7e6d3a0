package adapter

import "context"

// RenderRequest carries everything the final composition needs: the ordered
// clip list, the narration text and style, and the campaign directory the
// output is written into.
type RenderRequest struct {
	VideoPaths       []string
	VoiceText        string
	VoiceStyle       string
	WordsPerSubtitle int
	OutDir           string
}

// Renderer stitches the clips, narration and subtitles into the final video
// and returns its path.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (string, error)
}

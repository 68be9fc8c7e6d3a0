package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"shortsforge/internal/config"
	"shortsforge/internal/domain"
	"shortsforge/internal/domain/model"
	"shortsforge/internal/domain/ports/adapter"
	"shortsforge/internal/domain/ports/repository"
	"shortsforge/internal/fsutil"
	"shortsforge/internal/infra/logging"
	"shortsforge/internal/infra/metrics"
)

// Format qualifiers appended to prompts so the provider produces assets in
// the campaign's aspect ratio. The wording matters: it is what the external
// capability actually responds to.
var imageFormatDesc = map[string]string{
	"9:16": "vertical 9:16 phone size format like TikTok/Reels",
	"16:9": "horizontal 16:9 landscape format like YouTube",
	"1:1":  "square 1:1 format",
}

var videoFormatDesc = map[string]string{
	"9:16": "IMPORTANT: Create a VERTICAL 9:16 video in phone size format (tall, not wide). This must be vertical like TikTok or Instagram Reels",
	"16:9": "Create a horizontal 16:9 landscape video like YouTube",
	"1:1":  "Create a square 1:1 video",
}

func formatDescFor(m map[string]string, aspect string) string {
	if d, ok := m[aspect]; ok {
		return d
	}
	return m["9:16"]
}

// CreateRequest is one campaign submission.
type CreateRequest struct {
	Name            string             `json:"name"`
	Prompts         []model.PromptPair `json:"prompts"`
	VoiceText       string             `json:"voice_text"`
	AspectFormat    string             `json:"aspect_format"`
	ThumbnailPrompt string             `json:"thumbnail_prompt"`
}

// ItemResult reports the outcome of one item for one pass.
type ItemResult struct {
	Index   int    `json:"index"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// RunResult is the campaign-level outcome of a pass. Success stays true for
// partial campaigns; callers interpret the omissions via Incomplete.
type RunResult struct {
	CampaignName   string       `json:"campaign_name"`
	Success        bool         `json:"success"`
	Error          string       `json:"error,omitempty"`
	Items          []ItemResult `json:"items"`
	Completed      []int        `json:"completed"`
	Incomplete     []int        `json:"incomplete"`
	FinalVideoPath string       `json:"final_video,omitempty"`
	ThumbnailPath  string       `json:"thumbnail,omitempty"`
}

// CampaignUseCase drives a campaign's items through the per-item state
// machine and decides when the final render happens.
type CampaignUseCase struct {
	repo     repository.CampaignRepository
	pool     *AccountPool
	provider adapter.GenerationProvider
	cleaner  adapter.WatermarkCleaner
	renderer adapter.Renderer

	dataDir          string
	dailyCap         int
	timeouts         config.TimeoutsConfig
	wordsPerSubtitle int

	log *zerolog.Logger
	now func() time.Time
}

func NewCampaignUseCase(
	repo repository.CampaignRepository,
	pool *AccountPool,
	provider adapter.GenerationProvider,
	cleaner adapter.WatermarkCleaner,
	renderer adapter.Renderer,
	cfg config.CampaignConfig,
	timeouts config.TimeoutsConfig,
	logger *zerolog.Logger,
) *CampaignUseCase {
	ucLog := logger.With().Str("component", "CampaignUC").Logger()
	return &CampaignUseCase{
		repo:             repo,
		pool:             pool,
		provider:         provider,
		cleaner:          cleaner,
		renderer:         renderer,
		dataDir:          cfg.DataDir,
		dailyCap:         cfg.DailyCap,
		timeouts:         timeouts,
		wordsPerSubtitle: cfg.WordsPerSubtitle,
		log:              &ucLog,
		now:              time.Now,
	}
}

// Create builds a new campaign record, persists it with every item pending,
// then runs a full pass over the items.
func (uc *CampaignUseCase) Create(ctx context.Context, req CreateRequest) (*RunResult, error) {
	defer logging.TraceDuration(uc.log, "CampaignUC.Create")()
	if len(req.Prompts) == 0 {
		return nil, fmt.Errorf("%w: empty prompt list", domain.ErrInvalidArgument)
	}
	if len(req.Prompts) > uc.dailyCap {
		return nil, fmt.Errorf("%w: at most %d items per campaign", domain.ErrTooManyPrompts, uc.dailyCap)
	}
	aspect := req.AspectFormat
	if aspect == "" {
		aspect = "9:16"
	}
	if _, ok := imageFormatDesc[aspect]; !ok {
		return nil, fmt.Errorf("%w: unsupported aspect format %q", domain.ErrInvalidArgument, aspect)
	}

	name := req.Name
	if name == "" {
		name = "shorts_" + uc.now().Format("20060102_150405")
	}
	if _, err := uc.repo.FindByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: campaign %s", domain.ErrAlreadyExists, name)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	dir := filepath.Join(uc.dataDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create campaign directory: %w", err)
	}

	c := model.NewCampaign(name, dir, aspect, req.Prompts, req.VoiceText, req.ThumbnailPrompt)
	if err := uc.save(ctx, c); err != nil {
		return nil, err
	}

	if remaining := uc.pool.RemainingCapacity(); remaining < len(req.Prompts) {
		uc.log.Warn().Int("remaining", remaining).Int("requested", len(req.Prompts)).
			Msg("insufficient capacity for the full campaign; running a partial pass")
	}

	return uc.runPass(ctx, c, allIndices(c.ExpectedCount))
}

// Progress returns the stored campaign record, repaired at load time.
func (uc *CampaignUseCase) Progress(ctx context.Context, name string) (*model.Campaign, error) {
	return uc.repo.FindByName(ctx, name)
}

// List returns the names of all stored campaigns.
func (uc *CampaignUseCase) List(ctx context.Context) ([]string, error) {
	return uc.repo.ListNames(ctx)
}

// Capacity reports today's per-account spare capacity.
func (uc *CampaignUseCase) Capacity() CapacityReport {
	return uc.pool.Capacity()
}

// UpdatePrompt replaces an item's prompts. A new image prompt regresses the
// item to pending; a new video prompt on a completed item regresses it to
// image_done so only the video is redone. This is the single sanctioned
// status regression outside the retry engine.
func (uc *CampaignUseCase) UpdatePrompt(ctx context.Context, name string, index int, imagePrompt, videoPrompt *string) (*model.Campaign, error) {
	c, err := uc.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if index < 1 || index > c.ExpectedCount {
		return nil, fmt.Errorf("%w: index %d out of range", domain.ErrInvalidArgument, index)
	}
	if imagePrompt == nil && videoPrompt == nil {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrInvalidArgument)
	}
	// Invalidated assets must come off disk, or the load-time repair would
	// see them and promote the status right back.
	if imagePrompt != nil {
		c.ImagePrompts[fmt.Sprint(index)] = *imagePrompt
		if c.StatusOf(index) != model.ItemStatusPending {
			c.SetStatus(index, model.ItemStatusPending)
		}
		removeAssets(c.ImagePath(index), c.CleanedImagePath(index), c.VideoPath(index))
		c.FinalVideoPath = ""
	}
	if videoPrompt != nil {
		c.VideoPrompts[fmt.Sprint(index)] = *videoPrompt
		if c.StatusOf(index) == model.ItemStatusCompleted {
			c.SetStatus(index, model.ItemStatusImageDone)
		}
		removeAssets(c.VideoPath(index))
		c.FinalVideoPath = ""
	}
	if err := uc.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateVoice replaces the campaign's narration text.
func (uc *CampaignUseCase) UpdateVoice(ctx context.Context, name, voiceText string) error {
	c, err := uc.repo.FindByName(ctx, name)
	if err != nil {
		return err
	}
	c.Voice.Text = voiceText
	return uc.save(ctx, c)
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func (uc *CampaignUseCase) save(ctx context.Context, c *model.Campaign) error {
	c.UpdatedAt = uc.now()
	return uc.repo.Save(ctx, c)
}

// setStatus persists a single item transition. Persistence failures are
// fatal for the whole operation: losing state silently is not acceptable.
func (uc *CampaignUseCase) setStatus(ctx context.Context, c *model.Campaign, index int, s model.ItemStatus) error {
	c.SetStatus(index, s)
	if err := uc.save(ctx, c); err != nil {
		return fmt.Errorf("persist status of item %d: %w", index, err)
	}
	return nil
}

// runPass processes the given items in index order, then finalizes the
// campaign (render + thumbnail). Items not in the list keep their status.
func (uc *CampaignUseCase) runPass(ctx context.Context, c *model.Campaign, indices []int) (*RunResult, error) {
	result := &RunResult{CampaignName: c.Name, Success: true}
	deadSessions := map[int]bool{}
	report := progressFrom(ctx)

	for k, i := range indices {
		report(fmt.Sprintf("item %d/%d", k+1, len(indices)), k*100/len(indices))
		item, err := uc.processItem(ctx, c, i, deadSessions)
		if err != nil {
			if errors.Is(err, domain.ErrNoCapacity) {
				// Remaining items keep their current status.
				result.Error = err.Error()
				break
			}
			return nil, err
		}
		result.Items = append(result.Items, item)
	}

	if err := uc.finalize(ctx, c, result); err != nil {
		return nil, err
	}
	uc.collectOutcome(c, result)
	return result, nil
}

// processItem runs the full image -> clean -> video -> clean pipeline for one
// item on a reserved account. Stage failures are recorded on the item and do
// not abort the campaign; only capacity exhaustion and persistence failures
// propagate.
func (uc *CampaignUseCase) processItem(ctx context.Context, c *model.Campaign, index int, deadSessions map[int]bool) (ItemResult, error) {
	item := ItemResult{Index: index}

	res, err := uc.acquireWithSession(ctx, deadSessions)
	if err != nil {
		return item, err
	}
	accID := res.AccountID
	log := uc.log.With().Str("campaign", c.Name).Int("item", index).Int("account", accID).Logger()

	fail := func(s model.ItemStatus, msg string) (ItemResult, error) {
		res.Release()
		item.Error = msg
		metrics.IncCampaignItem(string(s))
		if err := uc.setStatus(ctx, c, index, s); err != nil {
			return item, err
		}
		log.Warn().Str("status", string(s)).Msg(msg)
		return item, nil
	}

	// Image stage
	if err := uc.generateImage(ctx, accID, imagePromptFor(c.AspectFormat, c.ImagePrompt(index)), c.ImagePath(index)); err != nil {
		return fail(model.ItemStatusFailed, fmt.Sprintf("image generation: %v", err))
	}
	uc.cleanImageFallback(ctx, c.ImagePath(index), c.CleanedImagePath(index))
	if err := uc.setStatus(ctx, c, index, model.ItemStatusImageDone); err != nil {
		res.Release()
		return item, err
	}

	// Fresh conversation, then animate the cleaned image.
	if err := uc.provider.ResetContext(ctx, accID); err != nil {
		log.Warn().Err(err).Msg("context reset failed")
	}
	prompt := fmt.Sprintf("Create a short cinematic video animation from this image. %s. %s",
		formatDescFor(videoFormatDesc, c.AspectFormat), c.VideoPrompt(index))
	if err := uc.generateVideo(ctx, accID, c.CleanedImagePath(index), prompt, c.VideoPath(index)); err != nil {
		return fail(model.ItemStatusVideoFailed, fmt.Sprintf("video generation: %v", err))
	}
	uc.cleanVideoInPlace(ctx, c.VideoPath(index))

	if err := uc.setStatus(ctx, c, index, model.ItemStatusCompleted); err != nil {
		res.Release()
		return item, err
	}
	if err := res.Commit(ctx); err != nil {
		return item, err
	}
	metrics.IncCampaignItem(string(model.ItemStatusCompleted))
	item.Success = true
	log.Info().Msg("item completed")

	// Clean slate for the next item.
	if err := uc.provider.ResetContext(ctx, accID); err != nil {
		log.Warn().Err(err).Msg("context reset failed")
	}
	return item, nil
}

// acquireWithSession reserves capacity on an account whose session can be
// established. Accounts with dead sessions are skipped for this pass.
func (uc *CampaignUseCase) acquireWithSession(ctx context.Context, deadSessions map[int]bool) (*Reservation, error) {
	for {
		res, err := uc.pool.Acquire(ctx, deadSessions)
		if err != nil {
			return nil, err
		}
		if err := uc.pool.EnsureSession(ctx, res.AccountID); err != nil {
			deadSessions[res.AccountID] = true
			res.Release()
			continue
		}
		return res, nil
	}
}

func imagePromptFor(aspect, prompt string) string {
	return fmt.Sprintf("Create a high quality image in %s: %s", formatDescFor(imageFormatDesc, aspect), prompt)
}

func (uc *CampaignUseCase) generateImage(ctx context.Context, accountID int, prompt, outPath string) error {
	callCtx, cancel := context.WithTimeout(ctx, uc.timeouts.ImageGeneration)
	defer cancel()
	start := time.Now()
	err := uc.provider.GenerateImage(callCtx, accountID, prompt, outPath)
	metrics.ObserveGeneration("image", err == nil, time.Since(start))
	return err
}

func (uc *CampaignUseCase) generateVideo(ctx context.Context, accountID int, imagePath, prompt, outPath string) error {
	callCtx, cancel := context.WithTimeout(ctx, uc.timeouts.VideoGeneration)
	defer cancel()
	start := time.Now()
	err := uc.provider.GenerateVideo(callCtx, accountID, imagePath, prompt, outPath)
	metrics.ObserveGeneration("video", err == nil, time.Since(start))
	return err
}

// cleanImageFallback writes the cleaned asset to dst; on cleaner failure the
// unmodified asset is used instead of aborting the item.
func (uc *CampaignUseCase) cleanImageFallback(ctx context.Context, src, dst string) {
	callCtx, cancel := context.WithTimeout(ctx, uc.timeouts.Clean)
	defer cancel()
	if err := uc.cleaner.CleanImage(callCtx, src, dst); err != nil {
		uc.log.Warn().Err(err).Str("asset", src).Msg("image watermark removal failed; using original")
		if err := fsutil.CopyFile(src, dst); err != nil {
			uc.log.Warn().Err(err).Msg("copy fallback failed")
		}
	}
}

// cleanVideoInPlace replaces the clip with its cleaned version; on cleaner
// failure the raw clip stays.
func (uc *CampaignUseCase) cleanVideoInPlace(ctx context.Context, path string) {
	callCtx, cancel := context.WithTimeout(ctx, uc.timeouts.Clean)
	defer cancel()
	cleaned := path + ".cleaned.mp4"
	if err := uc.cleaner.CleanVideo(callCtx, path, cleaned); err != nil {
		uc.log.Warn().Err(err).Str("asset", path).Msg("video watermark removal failed; keeping original")
		return
	}
	if err := os.Rename(cleaned, path); err != nil {
		uc.log.Warn().Err(err).Msg("replace cleaned video failed")
	}
}

// finalize renders the campaign when every item has a video, then attempts
// the optional thumbnail. Neither failure mode affects the pass outcome.
func (uc *CampaignUseCase) finalize(ctx context.Context, c *model.Campaign, result *RunResult) error {
	if c.RenderReady() && c.FinalVideoPath == "" {
		if err := uc.render(ctx, c); err != nil {
			uc.log.Warn().Err(err).Str("campaign", c.Name).Msg("final render failed")
		}
	}
	result.FinalVideoPath = c.FinalVideoPath

	if c.ThumbnailPrompt != "" && c.ThumbnailStatus != model.ThumbnailStatusCompleted && c.CompletedCount() > 0 {
		if err := uc.generateThumbnail(ctx, c); err != nil {
			return err
		}
	}
	if c.ThumbnailStatus == model.ThumbnailStatusCompleted {
		result.ThumbnailPath = c.ThumbnailPath()
	}
	return nil
}

func (uc *CampaignUseCase) render(ctx context.Context, c *model.Campaign) error {
	progressFrom(ctx)("rendering final video", 95)
	videos := make([]string, 0, c.ExpectedCount)
	for i := 1; i <= c.ExpectedCount; i++ {
		videos = append(videos, c.VideoPath(i))
	}
	voiceText := c.Voice.Text
	if voiceText == "" {
		for i := range videos {
			voiceText += fmt.Sprintf("Scene %d, showing stunning visual content. ", i+1)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.timeouts.Render)
	defer cancel()
	final, err := uc.renderer.Render(callCtx, adapter.RenderRequest{
		VideoPaths:       videos,
		VoiceText:        voiceText,
		VoiceStyle:       c.Voice.Style,
		WordsPerSubtitle: uc.wordsPerSubtitle,
		OutDir:           c.Dir,
	})
	metrics.IncRender(err == nil)
	if err != nil {
		return err
	}
	c.FinalVideoPath = final
	uc.log.Info().Str("campaign", c.Name).Str("final", final).Msg("final video rendered")
	return uc.save(ctx, c)
}

// generateThumbnail runs one extra image generation in landscape thumbnail
// ratio on any account with spare capacity. It never consumes video quota:
// the reservation is always released.
func (uc *CampaignUseCase) generateThumbnail(ctx context.Context, c *model.Campaign) error {
	res, err := uc.pool.Acquire(ctx, nil)
	if err != nil {
		// No spare capacity; leave the thumbnail for a later retry.
		return nil
	}
	defer res.Release()
	if err := uc.pool.EnsureSession(ctx, res.AccountID); err != nil {
		return nil
	}

	prompt := fmt.Sprintf("Create a YouTube thumbnail image in horizontal 16:9 aspect ratio (1920x1080 pixels): %s", c.ThumbnailPrompt)
	callCtx, cancelGen := context.WithTimeout(ctx, uc.timeouts.ImageGeneration)
	start := time.Now()
	genErr := uc.provider.GenerateImage(callCtx, res.AccountID, prompt, c.ThumbnailPath())
	cancelGen()
	metrics.ObserveGeneration("thumbnail", genErr == nil, time.Since(start))
	if genErr != nil {
		c.ThumbnailStatus = model.ThumbnailStatusFailed
	} else {
		cleaned := c.ThumbnailPath() + ".cleaned.png"
		callCtx, cancel := context.WithTimeout(ctx, uc.timeouts.Clean)
		if err := uc.cleaner.CleanImage(callCtx, c.ThumbnailPath(), cleaned); err == nil {
			_ = os.Rename(cleaned, c.ThumbnailPath())
		}
		cancel()
		c.ThumbnailStatus = model.ThumbnailStatusCompleted
	}
	if err := uc.provider.ResetContext(ctx, res.AccountID); err != nil {
		uc.log.Warn().Err(err).Msg("context reset failed")
	}
	return uc.save(ctx, c)
}

func (uc *CampaignUseCase) collectOutcome(c *model.Campaign, result *RunResult) {
	for i := 1; i <= c.ExpectedCount; i++ {
		if c.StatusOf(i) == model.ItemStatusCompleted {
			result.Completed = append(result.Completed, i)
		} else {
			result.Incomplete = append(result.Incomplete, i)
		}
	}
}

func removeAssets(paths ...string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}


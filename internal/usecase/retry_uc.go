package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"shortsforge/internal/domain"
	"shortsforge/internal/domain/model"
	"shortsforge/internal/infra/logging"
	"shortsforge/internal/infra/metrics"
)

// RetryUseCase re-runs only the items not in the terminal success state,
// reusing any sub-artifact that already succeeded: an item that only lost
// its video stage gets its video redone from the cleaned image on disk,
// never a fresh image.
type RetryUseCase struct {
	campaigns *CampaignUseCase
	log       *zerolog.Logger
}

func NewRetryUseCase(campaigns *CampaignUseCase, logger *zerolog.Logger) *RetryUseCase {
	ucLog := logger.With().Str("component", "RetryUC").Logger()
	return &RetryUseCase{campaigns: campaigns, log: &ucLog}
}

// Retry re-attempts the recoverable items of a campaign, filtered to the
// given indices when non-empty, in ascending index order. Afterwards the
// render-ready check runs against the whole campaign, not just the retried
// subset, and renders if newly eligible.
func (uc *RetryUseCase) Retry(ctx context.Context, name string, indices []int) (*RunResult, error) {
	defer logging.TraceDuration(uc.log, "RetryUC.Retry")()
	c, err := uc.campaigns.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	selected := c.RecoverableIndices(indices)
	result := &RunResult{CampaignName: c.Name, Success: true}
	if len(selected) == 0 {
		uc.log.Info().Str("campaign", name).Msg("nothing to retry")
		uc.campaigns.collectOutcome(c, result)
		return result, nil
	}
	uc.log.Info().Str("campaign", name).Ints("indices", selected).Msg("retrying items")

	deadSessions := map[int]bool{}
	report := progressFrom(ctx)
	for k, i := range selected {
		report(fmt.Sprintf("retrying item %d/%d", k+1, len(selected)), k*100/len(selected))
		item, err := uc.retryItem(ctx, c, i, deadSessions)
		if err != nil {
			if errors.Is(err, domain.ErrNoCapacity) {
				result.Error = err.Error()
				break
			}
			return nil, err
		}
		metrics.IncRetry(item.Success)
		result.Items = append(result.Items, item)
	}

	if err := uc.campaigns.finalize(ctx, c, result); err != nil {
		return nil, err
	}
	uc.campaigns.collectOutcome(c, result)
	return result, nil
}

// retryItem redoes the failed stages of one item. Items still needing an
// image get both stages in one session, so the video prompt can reference
// the just-generated image directly instead of re-uploading it.
func (uc *RetryUseCase) retryItem(ctx context.Context, c *model.Campaign, index int, deadSessions map[int]bool) (ItemResult, error) {
	cuc := uc.campaigns
	item := ItemResult{Index: index}
	needsImage := c.StatusOf(index).NeedsImage()

	res, err := cuc.acquireWithSession(ctx, deadSessions)
	if err != nil {
		return item, err
	}
	accID := res.AccountID
	log := uc.log.With().Str("campaign", c.Name).Int("item", index).Int("account", accID).Logger()

	fail := func(s model.ItemStatus, msg string) (ItemResult, error) {
		res.Release()
		item.Error = msg
		if err := cuc.setStatus(ctx, c, index, s); err != nil {
			return item, err
		}
		log.Warn().Str("status", string(s)).Msg(msg)
		return item, nil
	}

	var videoPrompt string
	uploadImage := ""
	if needsImage {
		if err := cuc.generateImage(ctx, accID, imagePromptFor(c.AspectFormat, c.ImagePrompt(index)), c.ImagePath(index)); err != nil {
			return fail(model.ItemStatusFailed, fmt.Sprintf("image generation: %v", err))
		}
		cuc.cleanImageFallback(ctx, c.ImagePath(index), c.CleanedImagePath(index))
		if err := cuc.setStatus(ctx, c, index, model.ItemStatusImageDone); err != nil {
			res.Release()
			return item, err
		}
		// Same session: the video references the image just generated.
		videoPrompt = fmt.Sprintf("Now create a short cinematic video animation from this image you just generated. %s. %s",
			formatDescFor(videoFormatDesc, c.AspectFormat), c.VideoPrompt(index))
	} else {
		// Image already succeeded once; upload the cleaned copy from disk.
		uploadImage = c.CleanedImagePath(index)
		if _, err := os.Stat(uploadImage); err != nil {
			uploadImage = c.ImagePath(index)
		}
		videoPrompt = fmt.Sprintf("Using this image, create a short cinematic video animation. %s. %s",
			formatDescFor(videoFormatDesc, c.AspectFormat), c.VideoPrompt(index))
	}

	if err := cuc.generateVideo(ctx, accID, uploadImage, videoPrompt, c.VideoPath(index)); err != nil {
		return fail(model.ItemStatusVideoFailed, fmt.Sprintf("video generation: %v", err))
	}
	cuc.cleanVideoInPlace(ctx, c.VideoPath(index))

	if err := cuc.setStatus(ctx, c, index, model.ItemStatusCompleted); err != nil {
		res.Release()
		return item, err
	}
	if err := res.Commit(ctx); err != nil {
		return item, err
	}
	item.Success = true
	log.Info().Msg("item recovered")

	if err := cuc.provider.ResetContext(ctx, accID); err != nil {
		log.Warn().Err(err).Msg("context reset failed")
	}
	return item, nil
}

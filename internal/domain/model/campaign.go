package model

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

type ItemStatus string

const (
	ItemStatusPending     ItemStatus = "pending"
	ItemStatusImageDone   ItemStatus = "image_done"
	ItemStatusVideoFailed ItemStatus = "video_failed"
	ItemStatusCompleted   ItemStatus = "completed"
	ItemStatusFailed      ItemStatus = "failed"
)

// Recoverable reports whether a retry may re-attempt the item.
func (s ItemStatus) Recoverable() bool {
	switch s {
	case ItemStatusPending, ItemStatusFailed, ItemStatusImageDone, ItemStatusVideoFailed:
		return true
	}
	return false
}

// NeedsImage reports whether the image stage must be (re)done.
func (s ItemStatus) NeedsImage() bool {
	return s == ItemStatusPending || s == ItemStatusFailed
}

type ThumbnailStatus string

const (
	ThumbnailStatusNone      ThumbnailStatus = "none"
	ThumbnailStatusPending   ThumbnailStatus = "pending"
	ThumbnailStatusCompleted ThumbnailStatus = "completed"
	ThumbnailStatusFailed    ThumbnailStatus = "failed"
)

// PromptPair is the submission unit: one generated image animated into one clip.
type PromptPair struct {
	ImagePrompt string `json:"image_prompt"`
	VideoPrompt string `json:"video_prompt"`
}

type Voice struct {
	Text  string `json:"text"`
	Style string `json:"style"`
}

// Campaign is one batch of items rendered into a single final video.
// Map keys are 1-based item indices as decimal strings; the JSON field names
// round-trip with stores written by earlier versions of the system.
type Campaign struct {
	Name            string                `json:"name"`
	Type            string                `json:"type"`
	Dir             string                `json:"dir"`
	AspectFormat    string                `json:"aspect_format"`
	ExpectedCount   int                   `json:"expected_count"`
	ImagePrompts    map[string]string     `json:"image_prompts"`
	VideoPrompts    map[string]string     `json:"video_prompts"`
	ThumbnailPrompt string                `json:"thumbnail_prompt"`
	ThumbnailStatus ThumbnailStatus       `json:"thumbnail_status"`
	Voice           Voice                 `json:"voice"`
	Status          map[string]ItemStatus `json:"status"`
	FinalVideoPath  string                `json:"final_video,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// NewCampaign builds a pending campaign from an ordered prompt list.
func NewCampaign(name, dir, aspectFormat string, prompts []PromptPair, voiceText, thumbnailPrompt string) *Campaign {
	now := time.Now()
	c := &Campaign{
		Name:            name,
		Type:            "shorts",
		Dir:             dir,
		AspectFormat:    aspectFormat,
		ExpectedCount:   len(prompts),
		ImagePrompts:    make(map[string]string, len(prompts)),
		VideoPrompts:    make(map[string]string, len(prompts)),
		ThumbnailPrompt: thumbnailPrompt,
		ThumbnailStatus: ThumbnailStatusNone,
		Voice:           Voice{Text: voiceText, Style: "friendly"},
		Status:          make(map[string]ItemStatus, len(prompts)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if thumbnailPrompt != "" {
		c.ThumbnailStatus = ThumbnailStatusPending
	}
	for i, p := range prompts {
		k := itemKey(i + 1)
		c.ImagePrompts[k] = p.ImagePrompt
		c.VideoPrompts[k] = p.VideoPrompt
		c.Status[k] = ItemStatusPending
	}
	return c
}

func itemKey(index int) string { return strconv.Itoa(index) }

func (c *Campaign) StatusOf(index int) ItemStatus {
	if s, ok := c.Status[itemKey(index)]; ok {
		return s
	}
	return ItemStatusPending
}

func (c *Campaign) SetStatus(index int, s ItemStatus) {
	c.Status[itemKey(index)] = s
}

func (c *Campaign) ImagePrompt(index int) string { return c.ImagePrompts[itemKey(index)] }
func (c *Campaign) VideoPrompt(index int) string { return c.VideoPrompts[itemKey(index)] }

// Asset locations are derived from the campaign directory and item index.
func (c *Campaign) ImagePath(index int) string {
	return filepath.Join(c.Dir, fmt.Sprintf("image_%d.png", index))
}

func (c *Campaign) CleanedImagePath(index int) string {
	return filepath.Join(c.Dir, fmt.Sprintf("image_%d_cleaned.png", index))
}

func (c *Campaign) VideoPath(index int) string {
	return filepath.Join(c.Dir, fmt.Sprintf("video_%d.mp4", index))
}

func (c *Campaign) ThumbnailPath() string {
	return filepath.Join(c.Dir, "thumbnail.png")
}

// RenderReady reports whether every item has a completed video.
func (c *Campaign) RenderReady() bool {
	if c.ExpectedCount == 0 {
		return false
	}
	for i := 1; i <= c.ExpectedCount; i++ {
		if c.StatusOf(i) != ItemStatusCompleted {
			return false
		}
	}
	return true
}

// CompletedCount counts items in the terminal success state.
func (c *Campaign) CompletedCount() int {
	n := 0
	for i := 1; i <= c.ExpectedCount; i++ {
		if c.StatusOf(i) == ItemStatusCompleted {
			n++
		}
	}
	return n
}

// RecoverableIndices lists items a retry would select, ascending. A non-empty
// filter restricts the selection to the given indices.
func (c *Campaign) RecoverableIndices(filter []int) []int {
	allowed := map[int]bool{}
	for _, i := range filter {
		allowed[i] = true
	}
	var out []int
	for i := 1; i <= c.ExpectedCount; i++ {
		if !c.StatusOf(i).Recoverable() {
			continue
		}
		if len(filter) > 0 && !allowed[i] {
			continue
		}
		out = append(out, i)
	}
	return out
}

// Reconcile repairs item statuses from asset presence on disk. A retry or an
// interrupted run can leave a usable file behind without the matching status;
// statuses are only ever upgraded here, never regressed.
func (c *Campaign) Reconcile(exists func(path string) bool) bool {
	changed := false
	for i := 1; i <= c.ExpectedCount; i++ {
		st := c.StatusOf(i)
		if st != ItemStatusCompleted && exists(c.VideoPath(i)) {
			c.SetStatus(i, ItemStatusCompleted)
			changed = true
			continue
		}
		if st.NeedsImage() && exists(c.ImagePath(i)) {
			c.SetStatus(i, ItemStatusImageDone)
			changed = true
		}
	}
	return changed
}

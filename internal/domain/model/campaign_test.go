package model

import (
	"reflect"
	"testing"
	"time"
)

func TestItemStatus_Recoverable(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status ItemStatus
		want   bool
	}{
		{ItemStatusPending, true},
		{ItemStatusFailed, true},
		{ItemStatusImageDone, true},
		{ItemStatusVideoFailed, true},
		{ItemStatusCompleted, false},
	}
	for _, tc := range cases {
		if got := tc.status.Recoverable(); got != tc.want {
			t.Errorf("%q.Recoverable() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestItemStatus_NeedsImage(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status ItemStatus
		want   bool
	}{
		{ItemStatusPending, true},
		{ItemStatusFailed, true},
		{ItemStatusImageDone, false},
		{ItemStatusVideoFailed, false},
		{ItemStatusCompleted, false},
	}
	for _, tc := range cases {
		if got := tc.status.NeedsImage(); got != tc.want {
			t.Errorf("%q.NeedsImage() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func newTestCampaign(n int) *Campaign {
	prompts := make([]PromptPair, n)
	for i := range prompts {
		prompts[i] = PromptPair{ImagePrompt: "img", VideoPrompt: "vid"}
	}
	return NewCampaign("c", "/tmp/c", "9:16", prompts, "", "")
}

func TestNewCampaign_Defaults(t *testing.T) {
	t.Parallel()
	c := NewCampaign("launch", "/tmp/launch", "16:9", []PromptPair{{ImagePrompt: "a", VideoPrompt: "b"}}, "hello", "thumb prompt")

	if c.Type != "shorts" {
		t.Errorf("Type = %q, want shorts", c.Type)
	}
	if c.Voice.Style != "friendly" {
		t.Errorf("Voice.Style = %q, want friendly", c.Voice.Style)
	}
	if c.ThumbnailStatus != ThumbnailStatusPending {
		t.Errorf("ThumbnailStatus = %q, want pending when a prompt is set", c.ThumbnailStatus)
	}
	if c.StatusOf(1) != ItemStatusPending {
		t.Errorf("item 1 status = %q, want pending", c.StatusOf(1))
	}
	if c.ImagePrompt(1) != "a" || c.VideoPrompt(1) != "b" {
		t.Errorf("prompts = %q/%q, want a/b under 1-based keys", c.ImagePrompt(1), c.VideoPrompt(1))
	}

	plain := NewCampaign("x", "/tmp/x", "9:16", []PromptPair{{}}, "", "")
	if plain.ThumbnailStatus != ThumbnailStatusNone {
		t.Errorf("ThumbnailStatus = %q, want none without a prompt", plain.ThumbnailStatus)
	}
}

func TestCampaign_RenderReady(t *testing.T) {
	t.Parallel()
	c := newTestCampaign(2)
	if c.RenderReady() {
		t.Error("pending campaign reported render-ready")
	}
	c.SetStatus(1, ItemStatusCompleted)
	if c.RenderReady() {
		t.Error("half-finished campaign reported render-ready")
	}
	c.SetStatus(2, ItemStatusCompleted)
	if !c.RenderReady() {
		t.Error("fully completed campaign not render-ready")
	}

	empty := NewCampaign("e", "/tmp/e", "9:16", nil, "", "")
	if empty.RenderReady() {
		t.Error("campaign with zero items must never be render-ready")
	}
}

func TestCampaign_RecoverableIndices(t *testing.T) {
	t.Parallel()
	c := newTestCampaign(5)
	c.SetStatus(1, ItemStatusCompleted)
	c.SetStatus(2, ItemStatusVideoFailed)
	c.SetStatus(3, ItemStatusFailed)
	c.SetStatus(4, ItemStatusImageDone)
	// item 5 stays pending

	if got, want := c.RecoverableIndices(nil), []int{2, 3, 4, 5}; !reflect.DeepEqual(got, want) {
		t.Errorf("RecoverableIndices(nil) = %v, want %v", got, want)
	}
	if got, want := c.RecoverableIndices([]int{1, 3, 5}), []int{3, 5}; !reflect.DeepEqual(got, want) {
		t.Errorf("RecoverableIndices(filter) = %v, want %v (completed item excluded)", got, want)
	}
	if got := c.RecoverableIndices([]int{1}); got != nil {
		t.Errorf("RecoverableIndices([1]) = %v, want none", got)
	}
}

func TestCampaign_Reconcile(t *testing.T) {
	t.Parallel()
	c := newTestCampaign(4)
	c.SetStatus(1, ItemStatusPending)     // video on disk -> completed
	c.SetStatus(2, ItemStatusFailed)      // image on disk -> image_done
	c.SetStatus(3, ItemStatusVideoFailed) // image on disk but status past it
	c.SetStatus(4, ItemStatusPending)     // nothing on disk

	onDisk := map[string]bool{
		c.VideoPath(1): true,
		c.ImagePath(2): true,
		c.ImagePath(3): true,
	}
	changed := c.Reconcile(func(p string) bool { return onDisk[p] })
	if !changed {
		t.Fatal("Reconcile() = false, want true")
	}
	if c.StatusOf(1) != ItemStatusCompleted {
		t.Errorf("item 1 = %q, want completed (video present)", c.StatusOf(1))
	}
	if c.StatusOf(2) != ItemStatusImageDone {
		t.Errorf("item 2 = %q, want image_done (image present)", c.StatusOf(2))
	}
	if c.StatusOf(3) != ItemStatusVideoFailed {
		t.Errorf("item 3 = %q, want unchanged (never regress past video_failed)", c.StatusOf(3))
	}
	if c.StatusOf(4) != ItemStatusPending {
		t.Errorf("item 4 = %q, want unchanged", c.StatusOf(4))
	}

	if c.Reconcile(func(p string) bool { return onDisk[p] }) {
		t.Error("second Reconcile() reported changes, want idempotent")
	}
}

func TestCampaign_AssetPaths(t *testing.T) {
	t.Parallel()
	c := newTestCampaign(1)
	cases := map[string]string{
		c.ImagePath(3):        "/tmp/c/image_3.png",
		c.CleanedImagePath(3): "/tmp/c/image_3_cleaned.png",
		c.VideoPath(3):        "/tmp/c/video_3.mp4",
		c.ThumbnailPath():     "/tmp/c/thumbnail.png",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("asset path = %q, want %q", got, want)
		}
	}
}

func TestDateOf(t *testing.T) {
	t.Parallel()
	ts := time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)
	if got := DateOf(ts); got != "2026-08-30" {
		t.Errorf("DateOf() = %q, want 2026-08-30", got)
	}
}

func TestAccount_RemainingAndRollOver(t *testing.T) {
	t.Parallel()
	a := &Account{ID: 1, DailyUsage: 2, LastUsageDate: "2026-08-29"}

	if got := a.Remaining(3, "2026-08-29"); got != 1 {
		t.Errorf("Remaining(same day) = %d, want 1", got)
	}
	if got := a.Remaining(3, "2026-08-30"); got != 3 {
		t.Errorf("Remaining(next day) = %d, want full quota", got)
	}

	a.RollOver("2026-08-30")
	if a.DailyUsage != 0 || a.LastUsageDate != "2026-08-30" {
		t.Errorf("after RollOver: usage=%d date=%q, want reset to new day", a.DailyUsage, a.LastUsageDate)
	}

	a.DailyUsage = 3
	if a.Available(3, "2026-08-30") {
		t.Error("Available() = true at the limit, want false")
	}
}

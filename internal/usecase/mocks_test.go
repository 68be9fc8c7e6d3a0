package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"shortsforge/internal/config"
	"shortsforge/internal/domain"
	"shortsforge/internal/domain/model"
	"shortsforge/internal/domain/ports/adapter"
)

// testEnv wires the full use case stack over in-memory repos and fakes.
type testEnv struct {
	repo      *memCampaignRepo
	schedules *memScheduleRepo
	usage     *memUsageRepo
	provider  *fakeProvider
	cleaner   *fakeCleaner
	renderer  *fakeRenderer
	pool      *AccountPool
	campaigns *CampaignUseCase
	retries   *RetryUseCase
	weekly    *WeeklyUseCase
}

func newTestEnv(t *testing.T, accounts, dailyLimit int) *testEnv {
	t.Helper()
	log := zerolog.Nop()
	env := &testEnv{
		repo:      newMemCampaignRepo(),
		schedules: newMemScheduleRepo(),
		usage:     newMemUsageRepo(),
		provider:  newFakeProvider(),
		cleaner:   &fakeCleaner{},
		renderer:  &fakeRenderer{},
	}
	pool, err := NewAccountPool(context.Background(), accounts, dailyLimit, env.usage, env.provider, &log)
	if err != nil {
		t.Fatalf("NewAccountPool() error = %v", err)
	}
	env.pool = pool
	campaignCfg := config.CampaignConfig{
		DataDir:          t.TempDir(),
		DailyCap:         accounts * dailyLimit,
		ScheduleDays:     7,
		WordsPerSubtitle: 2,
	}
	timeouts := config.TimeoutsConfig{
		ImageGeneration: 5 * time.Second,
		VideoGeneration: 5 * time.Second,
		Clean:           5 * time.Second,
		Render:          5 * time.Second,
	}
	env.campaigns = NewCampaignUseCase(env.repo, pool, env.provider, env.cleaner, env.renderer, campaignCfg, timeouts, &log)
	env.retries = NewRetryUseCase(env.campaigns, &log)
	env.weekly = NewWeeklyUseCase(env.schedules, env.campaigns, env.retries, campaignCfg.DailyCap, campaignCfg.ScheduleDays, &log)
	return env
}

func promptPairs(n int) []model.PromptPair {
	pairs := make([]model.PromptPair, n)
	for i := range pairs {
		pairs[i] = model.PromptPair{
			ImagePrompt: fmt.Sprintf("img-%d", i),
			VideoPrompt: fmt.Sprintf("vid-%d", i),
		}
	}
	return pairs
}

// memCampaignRepo is a small in-memory implementation used by unit tests.
type memCampaignRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Campaign
	saveErr error // used by tests to simulate persistence failures
	saves   int
}

func newMemCampaignRepo() *memCampaignRepo {
	return &memCampaignRepo{store: make(map[string]*model.Campaign)}
}

func (m *memCampaignRepo) Save(ctx context.Context, c *model.Campaign) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := cloneCampaign(c)
	m.store[c.Name] = cp
	m.saves++
	return nil
}

func (m *memCampaignRepo) FindByName(ctx context.Context, name string) (*model.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneCampaign(c), nil
}

func (m *memCampaignRepo) ListNames(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for n := range m.store {
		names = append(names, n)
	}
	return names, nil
}

func cloneCampaign(c *model.Campaign) *model.Campaign {
	cp := *c
	cp.ImagePrompts = make(map[string]string, len(c.ImagePrompts))
	cp.VideoPrompts = make(map[string]string, len(c.VideoPrompts))
	cp.Status = make(map[string]model.ItemStatus, len(c.Status))
	for k, v := range c.ImagePrompts {
		cp.ImagePrompts[k] = v
	}
	for k, v := range c.VideoPrompts {
		cp.VideoPrompts[k] = v
	}
	for k, v := range c.Status {
		cp.Status[k] = v
	}
	return &cp
}

type memScheduleRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.WeeklySchedule
	saveErr error
}

func newMemScheduleRepo() *memScheduleRepo {
	return &memScheduleRepo{store: make(map[string]*model.WeeklySchedule)}
}

func (m *memScheduleRepo) Save(ctx context.Context, s *model.WeeklySchedule) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.DaySchedule = append([]model.DayBatch(nil), s.DaySchedule...)
	m.store[s.ID] = &cp
	return nil
}

func (m *memScheduleRepo) FindByID(ctx context.Context, id string) (*model.WeeklySchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	cp.DaySchedule = append([]model.DayBatch(nil), s.DaySchedule...)
	return &cp, nil
}

func (m *memScheduleRepo) ListIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id := range m.store {
		ids = append(ids, id)
	}
	return ids, nil
}

type memUsageRepo struct {
	mu      sync.RWMutex
	usage   map[int]model.AccountUsage
	saveErr error
	saves   int
}

func newMemUsageRepo() *memUsageRepo {
	return &memUsageRepo{usage: make(map[int]model.AccountUsage)}
}

func (m *memUsageRepo) Load(ctx context.Context) (map[int]model.AccountUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int]model.AccountUsage, len(m.usage))
	for k, v := range m.usage {
		out[k] = v
	}
	return out, nil
}

func (m *memUsageRepo) Save(ctx context.Context, usage map[int]model.AccountUsage) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range usage {
		m.usage[k] = v
	}
	m.saves++
	return nil
}

// fakeProvider implements adapter.GenerationProvider, recording calls and
// writing placeholder assets. Failures are injected by prompt substring or
// by account id.
type fakeProvider struct {
	mu sync.Mutex

	imageCalls   int
	videoCalls   int
	resetCalls   int
	sessionCalls int

	// imagePath argument of each GenerateVideo call; "" means in-session.
	videoSources []string
	// account id of each successful video generation.
	videoAccounts []int

	failImageSubstr []string
	failVideoSubstr []string
	failSessions    map[int]bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{failSessions: make(map[int]bool)}
}

func (p *fakeProvider) EnsureSession(ctx context.Context, accountID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessionCalls++
	if p.failSessions[accountID] {
		return fmt.Errorf("login timeout for account %d", accountID)
	}
	return nil
}

func (p *fakeProvider) GenerateImage(ctx context.Context, accountID int, prompt, outPath string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.imageCalls++
	for _, s := range p.failImageSubstr {
		if strings.Contains(prompt, s) {
			return fmt.Errorf("image generation timeout")
		}
	}
	return writeFakeAsset(outPath)
}

func (p *fakeProvider) GenerateVideo(ctx context.Context, accountID int, imagePath, prompt, outPath string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.videoCalls++
	p.videoSources = append(p.videoSources, imagePath)
	for _, s := range p.failVideoSubstr {
		if strings.Contains(prompt, s) {
			return fmt.Errorf("video generation timeout")
		}
	}
	p.videoAccounts = append(p.videoAccounts, accountID)
	return writeFakeAsset(outPath)
}

func (p *fakeProvider) ResetContext(ctx context.Context, accountID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetCalls++
	return nil
}

func (p *fakeProvider) Close(accountID int) {}

func (p *fakeProvider) counts() (images, videos int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.imageCalls, p.videoCalls
}

func writeFakeAsset(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("asset"), 0644)
}

// fakeCleaner copies assets through, optionally failing to exercise the
// fall-back-to-original behavior.
type fakeCleaner struct {
	mu    sync.Mutex
	fail  bool
	calls int
}

func (c *fakeCleaner) CleanImage(ctx context.Context, src, dst string) error {
	return c.clean(src, dst)
}

func (c *fakeCleaner) CleanVideo(ctx context.Context, src, dst string) error {
	return c.clean(src, dst)
}

func (c *fakeCleaner) clean(src, dst string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.fail {
		return fmt.Errorf("inpainting failed")
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}

// fakeRenderer records render requests and produces a placeholder final video.
type fakeRenderer struct {
	mu        sync.Mutex
	calls     int
	lastPaths []string
	lastVoice string
	fail      bool
}

func (r *fakeRenderer) Render(ctx context.Context, req adapter.RenderRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.lastPaths = append([]string(nil), req.VideoPaths...)
	r.lastVoice = req.VoiceText
	if r.fail {
		return "", fmt.Errorf("render pipeline failed")
	}
	out := filepath.Join(req.OutDir, "final_video.mp4")
	if err := writeFakeAsset(out); err != nil {
		return "", err
	}
	return out, nil
}

package generation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"shortsforge/internal/domain/ports/adapter"
)

var _ adapter.GenerationProvider = (*ScriptedProvider)(nil)

// ScriptedProvider implements adapter.GenerationProvider for local/dev runs.
// It writes placeholder assets instead of driving a real generation session,
// simulating a small per-call delay.
type ScriptedProvider struct {
	mu       sync.Mutex
	sessions map[int]bool
	delay    time.Duration
}

func NewScriptedProvider(delay time.Duration) *ScriptedProvider {
	return &ScriptedProvider{sessions: make(map[int]bool), delay: delay}
}

func (p *ScriptedProvider) EnsureSession(ctx context.Context, accountID int) error {
	if err := p.sleep(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	p.sessions[accountID] = true
	p.mu.Unlock()
	return nil
}

func (p *ScriptedProvider) GenerateImage(ctx context.Context, accountID int, prompt, outPath string) error {
	if err := p.requireSession(accountID); err != nil {
		return err
	}
	if err := p.sleep(ctx); err != nil {
		return err
	}
	return writeAsset(outPath, fmt.Sprintf("image account=%d prompt=%s", accountID, prompt))
}

func (p *ScriptedProvider) GenerateVideo(ctx context.Context, accountID int, imagePath, prompt, outPath string) error {
	if err := p.requireSession(accountID); err != nil {
		return err
	}
	if imagePath != "" {
		if _, err := os.Stat(imagePath); err != nil {
			return fmt.Errorf("source image missing: %w", err)
		}
	}
	if err := p.sleep(ctx); err != nil {
		return err
	}
	return writeAsset(outPath, fmt.Sprintf("video account=%d image=%s prompt=%s", accountID, imagePath, prompt))
}

func (p *ScriptedProvider) ResetContext(ctx context.Context, accountID int) error {
	return p.requireSession(accountID)
}

func (p *ScriptedProvider) Close(accountID int) {
	p.mu.Lock()
	delete(p.sessions, accountID)
	p.mu.Unlock()
}

func (p *ScriptedProvider) requireSession(accountID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.sessions[accountID] {
		return fmt.Errorf("no session for account %d", accountID)
	}
	return nil
}

func (p *ScriptedProvider) sleep(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(p.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func writeAsset(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

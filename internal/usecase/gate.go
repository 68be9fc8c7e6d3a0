package usecase

import (
	"sync"

	"github.com/google/uuid"

	"shortsforge/internal/domain"
)

// ProgressSnapshot is the externally visible state of the current (or last)
// long-running operation.
type ProgressSnapshot struct {
	Running bool        `json:"running"`
	Label   string      `json:"label,omitempty"`
	Message string      `json:"message,omitempty"`
	Percent int         `json:"progress"`
	Results interface{} `json:"results,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RunGate is a single-slot admission gate: at most one campaign, retry, or
// batch operation runs at a time. It is owned by the orchestrator instance,
// not ambient global state, so independent instances never interfere.
type RunGate struct {
	mu    sync.Mutex
	token string
	snap  ProgressSnapshot
}

func NewRunGate() *RunGate { return &RunGate{} }

// Begin claims the gate. Returns ErrBusy while another operation holds it.
// The returned token must be handed back via Finish.
func (g *RunGate) Begin(label string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token != "" {
		return "", domain.ErrBusy
	}
	g.token = uuid.NewString()
	g.snap = ProgressSnapshot{Running: true, Label: label}
	return g.token, nil
}

// Update records progress for the running operation. Calls with a stale
// token are ignored.
func (g *RunGate) Update(token, message string, percent int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if token != g.token {
		return
	}
	g.snap.Message = message
	g.snap.Percent = percent
}

// Finish releases the gate and freezes the final snapshot.
func (g *RunGate) Finish(token string, results interface{}, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if token != g.token {
		return
	}
	g.token = ""
	g.snap.Running = false
	g.snap.Percent = 100
	g.snap.Results = results
	if err != nil {
		g.snap.Error = err.Error()
	}
}

// Progress returns the current snapshot.
func (g *RunGate) Progress() ProgressSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snap
}

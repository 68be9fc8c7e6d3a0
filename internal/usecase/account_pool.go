package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shortsforge/internal/domain"
	"shortsforge/internal/domain/model"
	"shortsforge/internal/domain/ports/adapter"
	"shortsforge/internal/domain/ports/repository"
	"shortsforge/internal/infra/metrics"
)

// AccountPool owns the fixed set of generation accounts and their daily
// usage accounting. Capacity is reserved at acquisition time and either
// committed (video confirmed) or released (attempt failed), so two passes
// racing for the last slot of an account can never both be admitted.
type AccountPool struct {
	mu       sync.Mutex
	accounts []*model.Account
	reserved map[int]int // account id -> in-flight reservations
	limit    int

	usageRepo repository.UsageRepository
	provider  adapter.GenerationProvider
	log       *zerolog.Logger
	now       func() time.Time
}

// NewAccountPool creates one account per configured slot and reloads the
// persisted usage counters. Counters from a previous calendar date reload
// as zero.
func NewAccountPool(ctx context.Context, count, dailyLimit int, usageRepo repository.UsageRepository, provider adapter.GenerationProvider, logger *zerolog.Logger) (*AccountPool, error) {
	poolLog := logger.With().Str("component", "AccountPool").Logger()
	p := &AccountPool{
		reserved:  make(map[int]int),
		limit:     dailyLimit,
		usageRepo: usageRepo,
		provider:  provider,
		log:       &poolLog,
		now:       time.Now,
	}

	stored, err := usageRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load account usage: %w", err)
	}
	today := model.DateOf(p.now())
	for id := 1; id <= count; id++ {
		acc := &model.Account{ID: id, LastUsageDate: today}
		if u, ok := stored[id]; ok && u.LastDate == today {
			acc.DailyUsage = u.Usage
		}
		p.accounts = append(p.accounts, acc)
		metrics.SetAccountUsage(acc.ID, acc.DailyUsage)
	}
	return p, nil
}

func (p *AccountPool) today() string { return model.DateOf(p.now()) }

// Reservation is one unit of capacity held on an account for the duration of
// a generation attempt. Exactly one of Commit or Release must be called.
type Reservation struct {
	pool      *AccountPool
	AccountID int
	done      bool
}

// Acquire scans accounts in configured order and reserves one unit on the
// first account with spare capacity. Excluded accounts (dead sessions this
// pass) are skipped. Returns ErrNoCapacity when every account is at its limit.
func (p *AccountPool) Acquire(ctx context.Context, exclude map[int]bool) (*Reservation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	today := p.today()
	for _, acc := range p.accounts {
		if exclude[acc.ID] {
			continue
		}
		if acc.Remaining(p.limit, today)-p.reserved[acc.ID] > 0 {
			p.reserved[acc.ID]++
			return &Reservation{pool: p, AccountID: acc.ID}, nil
		}
	}
	metrics.IncCapacityExhausted()
	return nil, domain.ErrNoCapacity
}

// Commit converts the reservation into recorded usage and persists the
// usage snapshot. A persistence failure is fatal for the operation.
func (r *Reservation) Commit(ctx context.Context) error {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	if r.done {
		return nil
	}
	r.done = true
	p.reserved[r.AccountID]--

	today := p.today()
	for _, acc := range p.accounts {
		if acc.ID == r.AccountID {
			acc.RollOver(today)
			acc.DailyUsage++
			metrics.SetAccountUsage(acc.ID, acc.DailyUsage)
			break
		}
	}
	return p.persistLocked(ctx)
}

// Release returns the reserved unit without recording usage.
func (r *Reservation) Release() {
	p := r.pool
	p.mu.Lock()
	defer p.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	p.reserved[r.AccountID]--
}

func (p *AccountPool) persistLocked(ctx context.Context) error {
	snapshot := make(map[int]model.AccountUsage, len(p.accounts))
	for _, acc := range p.accounts {
		snapshot[acc.ID] = model.AccountUsage{Usage: acc.DailyUsage, LastDate: acc.LastUsageDate}
	}
	if err := p.usageRepo.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("persist account usage: %w", err)
	}
	return nil
}

// EnsureSession lazily starts or validates the account's generation session.
// A failure means the account is skipped for the current pass, not retired.
func (p *AccountPool) EnsureSession(ctx context.Context, accountID int) error {
	if err := p.provider.EnsureSession(ctx, accountID); err != nil {
		p.mu.Lock()
		for _, acc := range p.accounts {
			if acc.ID == accountID {
				acc.SessionAlive = false
			}
		}
		p.mu.Unlock()
		p.log.Warn().Int("account", accountID).Err(err).Msg("session unavailable")
		return fmt.Errorf("%w: account %d: %v", domain.ErrSessionFailed, accountID, err)
	}
	p.mu.Lock()
	for _, acc := range p.accounts {
		if acc.ID == accountID {
			acc.SessionAlive = true
		}
	}
	p.mu.Unlock()
	return nil
}

// AccountCapacity is one row of the daily capacity report.
type AccountCapacity struct {
	AccountID    int  `json:"account_id"`
	Used         int  `json:"used"`
	Remaining    int  `json:"remaining"`
	SessionAlive bool `json:"session_alive"`
}

// CapacityReport summarizes remaining capacity across all accounts.
type CapacityReport struct {
	Date           string            `json:"date"`
	TotalRemaining int               `json:"total_remaining"`
	Accounts       []AccountCapacity `json:"accounts"`
}

// Capacity reports per-account usage and spare capacity for today.
// In-flight reservations count as used.
func (p *AccountPool) Capacity() CapacityReport {
	p.mu.Lock()
	defer p.mu.Unlock()

	today := p.today()
	report := CapacityReport{Date: today}
	for _, acc := range p.accounts {
		remaining := acc.Remaining(p.limit, today) - p.reserved[acc.ID]
		if remaining < 0 {
			remaining = 0
		}
		report.TotalRemaining += remaining
		report.Accounts = append(report.Accounts, AccountCapacity{
			AccountID:    acc.ID,
			Used:         acc.DailyUsage + p.reserved[acc.ID],
			Remaining:    remaining,
			SessionAlive: acc.SessionAlive,
		})
	}
	return report
}

// RemainingCapacity sums spare capacity over all accounts.
func (p *AccountPool) RemainingCapacity() int {
	return p.Capacity().TotalRemaining
}

// CloseAll tears down every account session.
func (p *AccountPool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, acc := range p.accounts {
		p.provider.Close(acc.ID)
		acc.SessionAlive = false
	}
}

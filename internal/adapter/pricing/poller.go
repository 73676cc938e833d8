package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RefreshFunc refreshes the prices of one user's holdings and reports how many changed
type RefreshFunc func(ctx context.Context, userID string) (int, error)

// Poller refreshes holding prices on an interval for users that are actively looking
// at them. A user stays active for Idle after the last Touch. Run stops when its
// context is canceled.
type Poller struct {
	Interval time.Duration
	Idle     time.Duration
	Refresh  RefreshFunc
	Log      zerolog.Logger
	Now      func() time.Time

	mu     sync.Mutex
	active map[string]time.Time
}

// NewPoller creates a new Poller instance
func NewPoller(interval time.Duration, refresh RefreshFunc, log zerolog.Logger) *Poller {
	return &Poller{
		Interval: interval,
		Idle:     5 * time.Minute,
		Refresh:  refresh,
		Log:      log,
		Now:      time.Now,
		active:   make(map[string]time.Time),
	}
}

// Touch marks userID as active
func (p *Poller) Touch(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		p.active = make(map[string]time.Time)
	}
	p.active[userID] = p.Now()
}

// Active returns the users that were touched within Idle, dropping the others
func (p *Poller) Active() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.Now()
	users := make([]string, 0, len(p.active))
	for id, seen := range p.active {
		if now.Sub(seen) > p.Idle {
			delete(p.active, id)
			continue
		}
		users = append(users, id)
	}
	return users
}

// Tick runs one refresh round
func (p *Poller) Tick(ctx context.Context) {
	for _, userID := range p.Active() {
		if ctx.Err() != nil {
			return
		}
		n, err := p.Refresh(ctx, userID)
		if err != nil {
			p.Log.Warn().Err(err).Str("user_id", userID).Msg("price refresh failed")
			continue
		}
		p.Log.Debug().Str("user_id", userID).Int("updated", n).Msg("prices refreshed")
	}
}

// Run ticks every Interval until ctx is canceled
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	p.Log.Info().Dur("interval", p.Interval).Msg("price poller started")
	for {
		select {
		case <-ctx.Done():
			p.Log.Info().Msg("price poller stopped")
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Package social is the boundary to social network providers (post a
// status, like a page, invite friends).
package social

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/AccelByte/extend-levelup-common/pkg/errors"
	"github.com/AccelByte/extend-levelup-common/pkg/events"
)

// Action is a social action to perform. Payload is echoed back in
// events.SocialActionFinished so the caller can recognize its own action.
type Action struct {
	Provider string
	Name     string
	Payload  string
}

// Provider performs social actions. Completion may be reported
// asynchronously; implementations publish events.SocialActionFinished once
// the action has actually happened.
type Provider interface {
	Perform(ctx context.Context, action Action) error
}

// MemoryProvider completes every action synchronously and records it.
// Actions for providers listed in Unavailable fail.
type MemoryProvider struct {
	mu          sync.Mutex
	performed   []Action
	unavailable map[string]bool
	bus         *events.Bus
	logger      *slog.Logger
}

// NewMemoryProvider creates a provider publishing on bus.
func NewMemoryProvider(bus *events.Bus, logger *slog.Logger) *MemoryProvider {
	return &MemoryProvider{
		unavailable: make(map[string]bool),
		bus:         bus,
		logger:      logger,
	}
}

// SetUnavailable makes every action for provider fail.
func (p *MemoryProvider) SetUnavailable(provider string, unavailable bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unavailable[provider] = unavailable
}

// Perform implements Provider.
func (p *MemoryProvider) Perform(ctx context.Context, action Action) error {
	if err := ctx.Err(); err != nil {
		return errors.ErrSocialActionFailed(action.Name, err)
	}

	p.mu.Lock()
	if p.unavailable[action.Provider] {
		p.mu.Unlock()
		return errors.ErrSocialActionFailed(action.Name, fmt.Errorf("provider %s is unavailable", action.Provider))
	}
	p.performed = append(p.performed, action)
	p.mu.Unlock()

	p.logger.Debug("Social action performed",
		"provider", action.Provider,
		"action", action.Name,
		"payload", action.Payload,
	)
	p.bus.SocialActionFinished.Publish(events.SocialActionFinished{
		Provider: action.Provider,
		Action:   action.Name,
		Payload:  action.Payload,
	})
	return nil
}

// Performed returns the actions performed so far, in order.
func (p *MemoryProvider) Performed() []Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Action, len(p.performed))
	copy(out, p.performed)
	return out
}

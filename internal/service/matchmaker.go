package service

import (
	"context"
	"errors"
	"fmt"

	"regionchatbot/internal/core"
	"regionchatbot/internal/repository"
	"regionchatbot/pkg/logging"
)

type Matchmaker struct {
	users UserStore
	log   logging.Logger
}

func NewMatchmaker(users UserStore, log logging.Logger) *Matchmaker {
	return &Matchmaker{users: users, log: log}
}

// FindPartner pairs me with the longest-idle user of its region. A pairing
// attempt that loses a race is retried once with a fresh read, then
// reported as ErrNoCandidate.
func (m *Matchmaker) FindPartner(ctx context.Context, me *core.User, exclude int64) (*core.User, error) {
	if me.IsPaired() {
		return nil, core.ErrAlreadyPaired
	}

	for attempt := 1; ; attempt++ {
		partner, err := m.users.Pair(ctx, me.ID, exclude)
		if !errors.Is(err, repository.ErrConflict) {
			return partner, err
		}
		if attempt == 2 {
			m.log.Warn(ctx, "pairing conflict persisted", "user_id", me.ID, "error", err)
			return nil, core.ErrNoCandidate
		}
		m.log.Debug(ctx, "pairing conflict, retrying", "user_id", me.ID, "error", err)
	}
}

// Connect finds a partner and runs notify for it. When notify fails the
// pairing is undone and ErrDeliveryFailure is returned.
func (m *Matchmaker) Connect(ctx context.Context, me *core.User, exclude int64, notify func(partner *core.User) error) (*core.User, error) {
	partner, err := m.FindPartner(ctx, me, exclude)
	if err != nil {
		return nil, err
	}

	if err := notify(partner); err != nil {
		m.log.Warn(ctx, "partner unreachable, rolling back pairing",
			"user_id", me.ID, "partner_id", partner.ID, "error", err)
		if berr := m.users.BreakPair(ctx, me.ID, partner.ID); berr != nil {
			return nil, fmt.Errorf("rollback pairing %d/%d: %w", me.ID, partner.ID, berr)
		}
		return nil, fmt.Errorf("%w: %v", core.ErrDeliveryFailure, err)
	}

	m.log.Info(ctx, "users paired", "user_id", me.ID, "partner_id", partner.ID, "region", me.Region)
	return partner, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"regionchatbot/internal/core"
	"regionchatbot/pkg/i18n"
	"regionchatbot/pkg/logging"
)

// Profile is the sender identity carried by every inbound event.
type Profile struct {
	ID           int64
	FirstName    string
	LanguageCode string
}

type SessionConfig struct {
	MiniAppURL  string
	SendTimeout time.Duration
}

// SessionController drives the per-user Idle/Paired state machine.
type SessionController struct {
	users   UserStore
	matcher *Matchmaker
	bot     Transport
	i18n    *i18n.I18nService
	log     logging.Logger
	cfg     SessionConfig
	prompts *promptSet
}

func NewSessionController(users UserStore, matcher *Matchmaker, bot Transport, i18n *i18n.I18nService, log logging.Logger, cfg SessionConfig) *SessionController {
	return &SessionController{
		users:   users,
		matcher: matcher,
		bot:     bot,
		i18n:    i18n,
		log:     log,
		cfg:     cfg,
		prompts: newPromptSet(),
	}
}

// Menu returns the keyboard for u. Set Region is offered to premium users
// only.
func (c *SessionController) Menu(u *core.User) core.Menu {
	lang := u.LanguageCode
	menu := core.Menu{
		{Label: c.i18n.Get(lang, "btn_find"), Action: core.ActionFind},
		{Label: c.i18n.Get(lang, "btn_next"), Action: core.ActionNext},
		{Label: c.i18n.Get(lang, "btn_stop"), Action: core.ActionStop},
	}
	if u.Premium {
		menu = append(menu, core.Button{Label: c.i18n.Get(lang, "btn_region"), Action: core.ActionSetRegion})
	}
	if c.cfg.MiniAppURL != "" {
		menu = append(menu, core.Button{Label: c.i18n.Get(lang, "btn_miniapp"), URL: c.cfg.MiniAppURL})
	}
	return menu
}

func (c *SessionController) Start(ctx context.Context, p Profile) error {
	u, err := c.load(ctx, p)
	if err != nil {
		return err
	}
	if err := c.users.TouchActivity(ctx, u.ID); err != nil {
		return err
	}
	return c.sendMenu(ctx, u, c.i18n.Format(u.LanguageCode, "welcome", p.FirstName, u.Region))
}

func (c *SessionController) Help(ctx context.Context, p Profile) error {
	u, err := c.load(ctx, p)
	if err != nil {
		return err
	}
	return c.sendMenu(ctx, u, c.i18n.Get(u.LanguageCode, "help_text"))
}

func (c *SessionController) Status(ctx context.Context, p Profile) error {
	u, err := c.load(ctx, p)
	if err != nil {
		return err
	}
	lang := u.LanguageCode
	premium := c.i18n.Get(lang, "answer_no")
	if u.Premium {
		premium = c.i18n.Get(lang, "answer_yes")
	}
	state := c.i18n.Get(lang, "state_"+string(u.State()))
	return c.sendText(ctx, u.ID, c.i18n.Format(lang, "status", u.Region, premium, state))
}

// Find moves an idle user into a pairing, or leaves it waiting.
func (c *SessionController) Find(ctx context.Context, p Profile) error {
	u, err := c.load(ctx, p)
	if err != nil {
		return err
	}
	return c.find(ctx, u, 0)
}

func (c *SessionController) find(ctx context.Context, u *core.User, exclude int64) error {
	lang := u.LanguageCode
	if u.IsPaired() {
		return c.sendText(ctx, u.ID, c.i18n.Get(lang, "already_paired"))
	}
	if err := c.users.TouchActivity(ctx, u.ID); err != nil {
		return err
	}

	_, err := c.matcher.Connect(ctx, u, exclude, func(partner *core.User) error {
		return c.sendText(ctx, partner.ID, c.i18n.Get(partner.LanguageCode, "partner_found"))
	})
	switch {
	case err == nil:
		return c.sendText(ctx, u.ID, c.i18n.Get(lang, "partner_found"))
	case errors.Is(err, core.ErrNoCandidate):
		return c.sendText(ctx, u.ID, c.i18n.Get(lang, "waiting"))
	case errors.Is(err, core.ErrAlreadyPaired):
		return c.sendText(ctx, u.ID, c.i18n.Get(lang, "already_paired"))
	case errors.Is(err, core.ErrDeliveryFailure):
		return c.sendText(ctx, u.ID, c.i18n.Get(lang, "partner_unreachable"))
	default:
		return err
	}
}

// Stop dissolves the requester's pairing. Calling it while idle only repeats
// the "not in chat" notice.
func (c *SessionController) Stop(ctx context.Context, p Profile) error {
	u, err := c.load(ctx, p)
	if err != nil {
		return err
	}

	_, err = c.unlink(ctx, u, "partner_left")
	if errors.Is(err, core.ErrNotPaired) {
		return c.sendMenu(ctx, u, c.i18n.Get(u.LanguageCode, "not_in_chat"))
	}
	if err != nil {
		return err
	}
	return c.sendMenu(ctx, u, c.i18n.Get(u.LanguageCode, "left_chat"))
}

// Next leaves the current pairing, if any, and searches again. The partner
// just left is not offered back.
func (c *SessionController) Next(ctx context.Context, p Profile) error {
	u, err := c.load(ctx, p)
	if err != nil {
		return err
	}

	prev, err := c.unlink(ctx, u, "partner_skipped")
	if err != nil && !errors.Is(err, core.ErrNotPaired) {
		return err
	}
	if prev != 0 {
		if u, err = c.users.GetByID(ctx, u.ID); err != nil {
			return err
		}
	}

	if err := c.sendText(ctx, u.ID, c.i18n.Get(u.LanguageCode, "searching")); err != nil {
		return err
	}
	return c.find(ctx, u, prev)
}

// unlink clears u's pairing and notifies the partner with noticeKey when the
// link was reciprocal. It returns the former partner id.
func (c *SessionController) unlink(ctx context.Context, u *core.User, noticeKey string) (int64, error) {
	unlink, err := c.users.Unpair(ctx, u.ID)
	if err != nil {
		return 0, err
	}
	if !unlink.Reciprocal {
		c.log.Warn(ctx, "unlinked one-sided pairing", "user_id", u.ID, "partner_id", unlink.PartnerID)
		return unlink.PartnerID, nil
	}

	partner, err := c.users.GetByID(ctx, unlink.PartnerID)
	if err != nil {
		return unlink.PartnerID, err
	}
	if err := c.sendMenu(ctx, partner, c.i18n.Get(partner.LanguageCode, noticeKey)); err != nil {
		c.log.Warn(ctx, "failed to notify former partner", "partner_id", partner.ID, "error", err)
	}
	return unlink.PartnerID, nil
}

// RequestRegion asks a premium user for a region; the answer arrives as the
// next text message.
func (c *SessionController) RequestRegion(ctx context.Context, p Profile) error {
	u, err := c.load(ctx, p)
	if err != nil {
		return err
	}
	if !u.Premium {
		return c.sendText(ctx, u.ID, c.i18n.Get(u.LanguageCode, "premium_only"))
	}
	c.prompts.Mark(u.ID)
	return c.sendText(ctx, u.ID, c.i18n.Format(u.LanguageCode, "ask_region", core.RegionNames()))
}

// AwaitingRegion reports whether the user's next text answers a region
// prompt.
func (c *SessionController) AwaitingRegion(userID int64) bool {
	return c.prompts.Pending(userID)
}

// PendingPrompts counts users with an unanswered region prompt.
func (c *SessionController) PendingPrompts() int {
	return c.prompts.Len()
}

// HandleText answers a pending region prompt or relays text to the partner.
func (c *SessionController) HandleText(ctx context.Context, p Profile, text string) error {
	u, err := c.load(ctx, p)
	if err != nil {
		return err
	}
	if c.prompts.Pending(u.ID) {
		return c.answerRegion(ctx, u, text)
	}
	return c.relay(ctx, u, text)
}

func (c *SessionController) answerRegion(ctx context.Context, u *core.User, text string) error {
	lang := u.LanguageCode
	if !u.Premium {
		c.prompts.Clear(u.ID)
		return c.sendText(ctx, u.ID, c.i18n.Get(lang, "premium_only"))
	}

	region, err := core.ParseRegion(text)
	if err != nil {
		return c.sendText(ctx, u.ID, c.i18n.Format(lang, "invalid_region", core.RegionNames()))
	}
	if err := c.users.SetRegion(ctx, u.ID, region); err != nil {
		return err
	}
	c.prompts.Clear(u.ID)

	updated, err := c.users.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	return c.sendMenu(ctx, updated, c.i18n.Format(lang, "region_updated", region))
}

func (c *SessionController) relay(ctx context.Context, u *core.User, text string) error {
	lang := u.LanguageCode
	if !u.IsPaired() {
		return c.sendMenu(ctx, u, c.i18n.Get(lang, "not_in_chat"))
	}

	partner, err := c.users.GetByID(ctx, u.Partner())
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return err
	}
	if err != nil || partner.Partner() != u.ID {
		c.log.Warn(ctx, "dangling partner link", "user_id", u.ID, "partner_id", u.Partner(), "error", core.ErrDanglingPartner)
		if _, err := c.users.Unpair(ctx, u.ID); err != nil && !errors.Is(err, core.ErrNotPaired) {
			return err
		}
		return c.sendText(ctx, u.ID, c.i18n.Get(lang, "partner_missing"))
	}

	if err := c.users.TouchActivity(ctx, u.ID); err != nil {
		return err
	}
	if err := c.sendText(ctx, partner.ID, text); err != nil {
		c.log.Warn(ctx, "relay failed", "user_id", u.ID, "partner_id", partner.ID, "error", err)
		return c.sendText(ctx, u.ID, c.i18n.Get(lang, "delivery_failed"))
	}
	return nil
}

func (c *SessionController) load(ctx context.Context, p Profile) (*core.User, error) {
	u, err := c.users.GetOrCreate(ctx, p.ID, p.LanguageCode)
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", p.ID, err)
	}
	return u, nil
}

func (c *SessionController) sendText(ctx context.Context, chatID int64, text string) error {
	ctx, cancel := c.sendContext(ctx)
	defer cancel()
	return c.bot.SendText(ctx, chatID, text)
}

func (c *SessionController) sendMenu(ctx context.Context, u *core.User, text string) error {
	ctx, cancel := c.sendContext(ctx)
	defer cancel()
	return c.bot.SendMenu(ctx, u.ID, text, c.Menu(u))
}

func (c *SessionController) sendContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.SendTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.SendTimeout)
}

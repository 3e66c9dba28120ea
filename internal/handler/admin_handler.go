package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"regionchatbot/config"
	"regionchatbot/internal/core"
	"regionchatbot/internal/repository"
	"regionchatbot/pkg/i18n"
)

type AdminStore interface {
	GetByID(ctx context.Context, id int64) (*core.User, error)
	SetPremium(ctx context.Context, id int64, premium bool) error
	Stats(ctx context.Context) (*repository.Stats, error)
}

type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// PromptCounter reports in-memory region prompts awaiting an answer.
type PromptCounter interface {
	PendingPrompts() int
}

type AdminHandler struct {
	Users   AdminStore
	Bot     Notifier
	I18n    *i18n.I18nService
	Config  *config.Config
	Prompts PromptCounter
}

func NewAdminHandler(users AdminStore, bot Notifier, i18n *i18n.I18nService, cfg *config.Config, prompts PromptCounter) *AdminHandler {
	return &AdminHandler{
		Users:   users,
		Bot:     bot,
		I18n:    i18n,
		Config:  cfg,
		Prompts: prompts,
	}
}

func (h *AdminHandler) IsAdmin(userID int64) bool {
	return h.Config.IsAdmin(userID)
}

func (h *AdminHandler) Handles(command string) bool {
	return command == "stats" || command == "premium"
}

func (h *AdminHandler) HandleCommand(ctx context.Context, chatID int64, command, args string) error {
	switch command {
	case "stats":
		return h.handleStats(ctx, chatID)
	case "premium":
		return h.handlePremium(ctx, chatID, strings.Fields(args))
	}
	return nil
}

func (h *AdminHandler) handleStats(ctx context.Context, chatID int64) error {
	stats, err := h.Users.Stats(ctx)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 STATS\n\n"+
		"👥 Total Users: %d\n"+
		"💬 Chatting Pairs: %d\n"+
		"⏳ Idle: %d\n"+
		"🌟 Premium: %d\n"+
		"🌍 Awaiting region: %d\n",
		stats.Total, stats.Paired/2, stats.Total-stats.Paired, stats.Premium, h.Prompts.PendingPrompts())
	for _, r := range stats.Regions {
		fmt.Fprintf(&b, "\n%s: %d users, %d chatting", r.Region, r.Users, r.Paired)
	}
	return h.Bot.SendText(ctx, chatID, b.String())
}

func (h *AdminHandler) handlePremium(ctx context.Context, chatID int64, args []string) error {
	// Format: /premium 12345678 on
	if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
		return h.Bot.SendText(ctx, chatID, "⚠️ Usage: /premium [user_id] on|off")
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return h.Bot.SendText(ctx, chatID, "❌ Invalid User ID.")
	}
	premium := args[1] == "on"

	if err := h.Users.SetPremium(ctx, targetID, premium); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return h.Bot.SendText(ctx, chatID, "❌ User not found in database.")
		}
		return err
	}

	state := "disabled"
	key := "premium_revoked"
	if premium {
		state = "enabled"
		key = "premium_granted"
	}
	if err := h.Bot.SendText(ctx, chatID, fmt.Sprintf("✅ Premium %s for %d.", state, targetID)); err != nil {
		return err
	}

	user, err := h.Users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	// the user may have blocked the bot; the change stands either way
	_ = h.Bot.SendText(ctx, targetID, h.I18n.Get(user.LanguageCode, key))
	return nil
}

package handler

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"regionchatbot/internal/core"
	"regionchatbot/internal/service"
	"regionchatbot/pkg/i18n"
	"regionchatbot/pkg/logging"
)

// Session is the state machine the handler drives.
// *service.SessionController implements it.
type Session interface {
	Start(ctx context.Context, p service.Profile) error
	Find(ctx context.Context, p service.Profile) error
	Next(ctx context.Context, p service.Profile) error
	Stop(ctx context.Context, p service.Profile) error
	RequestRegion(ctx context.Context, p service.Profile) error
	Status(ctx context.Context, p service.Profile) error
	Help(ctx context.Context, p service.Profile) error
	HandleText(ctx context.Context, p service.Profile, text string) error
}

type Bot interface {
	SendText(ctx context.Context, chatID int64, text string) error
	AnswerCallback(callbackID, text string) error
}

type BotHandler struct {
	Session Session
	Admin   *AdminHandler
	Bot     Bot
	I18n    *i18n.I18nService
	Log     logging.Logger
}

func NewBotHandler(session Session, admin *AdminHandler, bot Bot, i18n *i18n.I18nService, log logging.Logger) *BotHandler {
	return &BotHandler{
		Session: session,
		Admin:   admin,
		Bot:     bot,
		I18n:    i18n,
		Log:     log,
	}
}

// HandleUpdate processes one inbound event to completion. Only private chats
// with human senders are served.
func (h *BotHandler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	from := update.SentFrom()
	if from == nil || from.IsBot {
		return
	}

	p := service.Profile{ID: from.ID, FirstName: from.FirstName, LanguageCode: from.LanguageCode}
	log := h.Log.With("event_id", uuid.NewString(), "user_id", from.ID)

	var err error
	switch {
	case update.CallbackQuery != nil:
		err = h.handleCallback(ctx, log, update.CallbackQuery, p)
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		err = h.handleMessage(ctx, log, update.Message, p)
	default:
		return
	}

	if err != nil {
		log.Error(ctx, "update failed", "error", err)
		if serr := h.Bot.SendText(ctx, from.ID, h.I18n.Get(from.LanguageCode, "error_generic")); serr != nil {
			log.Warn(ctx, "failed to report error to user", "error", serr)
		}
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, log logging.Logger, msg *tgbotapi.Message, p service.Profile) error {
	if !msg.IsCommand() {
		if msg.Text == "" {
			return h.Bot.SendText(ctx, p.ID, h.I18n.Get(p.LanguageCode, "text_only"))
		}
		return h.Session.HandleText(ctx, p, msg.Text)
	}

	command := msg.Command()
	log.Debug(ctx, "command received", "command", command)

	switch command {
	case "start":
		return h.Session.Start(ctx, p)
	case "find", "search":
		return h.Session.Find(ctx, p)
	case "next":
		return h.Session.Next(ctx, p)
	case "stop":
		return h.Session.Stop(ctx, p)
	case "region":
		return h.Session.RequestRegion(ctx, p)
	case "status":
		return h.Session.Status(ctx, p)
	case "help":
		return h.Session.Help(ctx, p)
	}

	if h.Admin != nil && h.Admin.IsAdmin(p.ID) && h.Admin.Handles(command) {
		log.Info(ctx, "admin command", "command", command)
		return h.Admin.HandleCommand(ctx, p.ID, command, msg.CommandArguments())
	}
	return h.Session.Help(ctx, p)
}

func (h *BotHandler) handleCallback(ctx context.Context, log logging.Logger, cb *tgbotapi.CallbackQuery, p service.Profile) error {
	if err := h.Bot.AnswerCallback(cb.ID, ""); err != nil {
		log.Warn(ctx, "failed to answer callback", "error", err)
	}

	log.Debug(ctx, "button pressed", "data", cb.Data)
	switch cb.Data {
	case core.ActionFind:
		return h.Session.Find(ctx, p)
	case core.ActionNext:
		return h.Session.Next(ctx, p)
	case core.ActionStop:
		return h.Session.Stop(ctx, p)
	case core.ActionSetRegion:
		return h.Session.RequestRegion(ctx, p)
	default:
		log.Warn(ctx, "unknown callback data", "data", cb.Data)
		return nil
	}
}

// Commands returns the public command list in lang.
func Commands(tr *i18n.I18nService, lang string) []tgbotapi.BotCommand {
	names := []string{"start", "find", "next", "stop", "region", "status", "help"}
	cmds := make([]tgbotapi.BotCommand, 0, len(names))
	for _, name := range names {
		cmds = append(cmds, tgbotapi.BotCommand{Command: name, Description: tr.Get(lang, "cmd_"+name)})
	}
	return cmds
}

// Package telegram adapts the Bot API client to the bot's transport needs.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"regionchatbot/internal/core"
)

type ClientConfig struct {
	Token string
	// Endpoint defaults to tgbotapi.APIEndpoint.
	Endpoint string
	// PollTimeout is the long-polling timeout in seconds.
	PollTimeout int
	HTTPClient  *http.Client
}

type Client struct {
	api         *tgbotapi.BotAPI
	pollTimeout int
}

// NewClient verifies the token with getMe before returning.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = tgbotapi.APIEndpoint
	}
	if cfg.HTTPClient == nil {
		// long polls must outlive the server-side timeout
		cfg.HTTPClient = &http.Client{Timeout: time.Duration(cfg.PollTimeout+30) * time.Second}
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.Endpoint, cfg.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("telegram auth error: %w", err)
	}
	return &Client{api: api, pollTimeout: cfg.PollTimeout}, nil
}

func (c *Client) Username() string {
	return c.api.Self.UserName
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (c *Client) SendMenu(ctx context.Context, chatID int64, text string, menu core.Menu) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = Keyboard(menu)
	return c.send(ctx, msg)
}

// send gives up when ctx ends; the request itself still finishes in the
// background under the HTTP client timeout.
func (c *Client) send(ctx context.Context, msg tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrDeliveryFailure, err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.api.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrDeliveryFailure, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", core.ErrDeliveryFailure, ctx.Err())
	}
}

// AnswerCallback stops the client-side spinner on a pressed button.
func (c *Client) AnswerCallback(callbackID, text string) error {
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// RegisterCommands publishes the command list for users with language lang,
// or for everyone when lang is empty.
func (c *Client) RegisterCommands(lang string, commands []tgbotapi.BotCommand) error {
	cfg := tgbotapi.NewSetMyCommands(commands...)
	if lang != "" {
		cfg = tgbotapi.NewSetMyCommandsWithScopeAndLanguage(tgbotapi.NewBotCommandScopeDefault(), lang, commands...)
	}
	if _, err := c.api.Request(cfg); err != nil {
		return fmt.Errorf("set commands (%q): %w", lang, err)
	}
	return nil
}

// Updates long-polls until ctx is cancelled, after which the channel is
// closed once the in-flight poll returns.
func (c *Client) Updates(ctx context.Context) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.pollTimeout

	ch := c.api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		c.api.StopReceivingUpdates()
	}()
	return ch
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pdiddy/paperbot/pkg/types"
)

// maxTelegramDescription keeps messages under Telegram's 4096 character
// limit once the header lines and escaping are added.
const maxTelegramDescription = 3000

// TelegramSender is the part of *tgbotapi.BotAPI the notifier uses.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts HTML messages to a list of chats.
type Telegram struct {
	Sender  TelegramSender
	ChatIDs []int64
}

// NewTelegram authenticates the bot token and returns a notifier for the
// configured chats.
func NewTelegram(cfg types.TelegramConfig, client *http.Client) (*Telegram, error) {
	if client == nil {
		client = http.DefaultClient
	}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &Telegram{Sender: api, ChatIDs: cfg.ChatIDs}, nil
}

// Name returns the notifier identifier.
func (t *Telegram) Name() string { return "telegram" }

// Destinations names each chat as "telegram:<chat id>".
func (t *Telegram) Destinations() []string {
	dests := make([]string, len(t.ChatIDs))
	for i, id := range t.ChatIDs {
		dests[i] = telegramDestination(id)
	}
	return dests
}

func telegramDestination(id int64) string {
	return "telegram:" + strconv.FormatInt(id, 10)
}

// Notify sends p to every chat and joins the failures.
func (t *Telegram) Notify(ctx context.Context, p Post) ([]string, error) {
	text := FormatTelegramHTML(p)
	var sent []string
	var errs []error
	for _, id := range t.ChatIDs {
		if err := ctx.Err(); err != nil {
			return sent, errors.Join(append(errs, err)...)
		}
		dest := telegramDestination(id)
		if p.Delivered[dest] {
			continue
		}
		msg := tgbotapi.NewMessage(id, text)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := t.Sender.Send(msg); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", id, err))
			continue
		}
		sent = append(sent, dest)
	}
	return sent, errors.Join(errs...)
}

// FormatTelegramHTML renders a post with Telegram's HTML subset.
func FormatTelegramHTML(p Post) string {
	var b strings.Builder
	b.WriteString("<b>")
	b.WriteString(html.EscapeString(p.DisplayTitle()))
	b.WriteString("</b>\n")
	if p.Record.URL != "" {
		u := html.EscapeString(p.Record.URL)
		fmt.Fprintf(&b, "<a href=\"%s\">%s</a>\n", u, u)
	}
	if authors := p.Record.AuthorList(); authors != "" {
		fmt.Fprintf(&b, "<i>%s</i>\n", html.EscapeString(authors))
	}
	fmt.Fprintf(&b, "%s (%s)\n", html.EscapeString(strings.Join(p.Tags(), " ")), html.EscapeString(p.Origin()))
	if p.Description != "" {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(truncateRunes(p.Description, maxTelegramDescription)))
	}
	return b.String()
}

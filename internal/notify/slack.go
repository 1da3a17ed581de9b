// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/pdiddy/paperbot/pkg/types"
)

// Slack block text limits.
const (
	maxHeaderRunes  = 150
	maxSectionRunes = 3000
)

// SlackPoster is the part of *slack.Client the notifier uses.
type SlackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackWorkspace is one credential and the channels posted with it.
type SlackWorkspace struct {
	Name     string
	Client   SlackPoster
	Channels []string
}

// Slack posts to every channel of every workspace.
type Slack struct {
	Workspaces []SlackWorkspace
}

// NewSlack creates one client per configured workspace. opts are passed to
// every client.
func NewSlack(cfg types.SlackConfig, opts ...slack.Option) *Slack {
	s := &Slack{}
	for _, ws := range cfg.Workspaces {
		s.Workspaces = append(s.Workspaces, SlackWorkspace{
			Name:     ws.Name,
			Client:   slack.New(ws.Token, opts...),
			Channels: ws.Channels,
		})
	}
	return s
}

// Name returns the notifier identifier.
func (s *Slack) Name() string { return "slack" }

// Destinations names each channel as "slack:<workspace>/<channel>".
func (s *Slack) Destinations() []string {
	var dests []string
	for _, ws := range s.Workspaces {
		for _, ch := range ws.Channels {
			dests = append(dests, slackDestination(ws.Name, ch))
		}
	}
	return dests
}

func slackDestination(workspace, channel string) string {
	return "slack:" + workspace + "/" + channel
}

// Notify posts p to each channel. Delivery continues past a failed channel;
// the returned error joins every failure.
func (s *Slack) Notify(ctx context.Context, p Post) ([]string, error) {
	opts := []slack.MsgOption{
		slack.MsgOptionText(SlackFallbackText(p), false),
		slack.MsgOptionBlocks(SlackBlocks(p)...),
		slack.MsgOptionDisableLinkUnfurl(),
		slack.MsgOptionDisableMediaUnfurl(),
	}

	var sent []string
	var errs []error
	for _, ws := range s.Workspaces {
		for _, ch := range ws.Channels {
			dest := slackDestination(ws.Name, ch)
			if p.Delivered[dest] {
				continue
			}
			if _, _, err := ws.Client.PostMessageContext(ctx, ch, opts...); err != nil {
				errs = append(errs, fmt.Errorf("workspace %s channel %s: %w", ws.Name, ch, err))
				continue
			}
			sent = append(sent, dest)
		}
	}
	return sent, errors.Join(errs...)
}

// SlackFallbackText is the notification text shown where blocks are not
// rendered.
func SlackFallbackText(p Post) string {
	text := fmt.Sprintf("*%s*\n%s\n", p.DisplayTitle(), p.Record.URL)
	if authors := p.Record.AuthorList(); authors != "" {
		text += authors + "\n"
	}
	return text
}

// SlackBlocks lays out a post: divider, title header, link, tags with
// origin, and the description.
func SlackBlocks(p Post) []slack.Block {
	blocks := []slack.Block{
		slack.NewDividerBlock(),
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, truncateRunes(p.DisplayTitle(), maxHeaderRunes), false, false)),
	}

	link := p.Record.URL
	if authors := p.Record.AuthorList(); authors != "" {
		link += "\n" + authors
	}
	if strings.TrimSpace(link) != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, truncateRunes(link, maxSectionRunes), false, false), nil, nil))
	}

	meta := strings.Join(append(p.Tags(), "("+p.Origin()+")"), " ")
	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, meta, false, false)))

	if strings.TrimSpace(p.Description) != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, truncateRunes(p.Description, maxSectionRunes), false, false), nil, nil))
	}
	return blocks
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// Package messages renders the Slack messages the router sends.
package messages

import (
	"fmt"
	"strings"

	"github.com/jagadeesh/activity-router/internal/slack"
)

const (
	colorOpen    = "#36a64f"
	colorClosed  = "#cb2431"
	colorMerged  = "#6f42c1"
	colorNeutral = "#24292f"
)

type Repo struct {
	FullName string
	HTMLURL  string
}

func (r Repo) link() string {
	if r.HTMLURL == "" {
		return r.FullName
	}
	return fmt.Sprintf("<%s|%s>", r.HTMLURL, r.FullName)
}

// ReEnableSubscription tells a channel that its subscription was removed
// because the person who created it can no longer see the repository.
func ReEnableSubscription(channel string, repo Repo, creatorSlackID string) slack.Message {
	who := "The person who created this subscription"
	if creatorSlackID != "" {
		who = fmt.Sprintf("<@%s>", creatorSlackID)
	}
	text := fmt.Sprintf("%s no longer has access to %s, so this channel will no longer receive its notifications.", who, repo.link())
	return slack.Message{
		Channel: channel,
		Text:    text,
		Attachments: []slack.Attachment{{
			Fallback:   text,
			Color:      colorNeutral,
			Text:       fmt.Sprintf("Someone with access can subscribe again with `/github subscribe %s`.", repo.FullName),
			MarkdownIn: []string{"text"},
		}},
	}
}

// Item is an issue or pull request as shown in a notification.
type Item struct {
	Kind    string // "issue" or "pull request"
	Number  int
	Title   string
	HTMLURL string
	State   string
	Merged  bool
	Author  string
	Labels  []string
}

// ItemEvent renders an issue or pull request activity.
func ItemEvent(channel string, repo Repo, action, actor string, it Item) slack.Message {
	pretext := fmt.Sprintf("[%s] %s %s by %s", repo.link(), capitalize(it.Kind), action, actor)
	att := slack.Attachment{
		Fallback:   fmt.Sprintf("[%s] %s #%d %s: %s", repo.FullName, it.Kind, it.Number, action, it.Title),
		Color:      itemColor(it),
		Pretext:    pretext,
		Title:      fmt.Sprintf("#%d %s", it.Number, it.Title),
		TitleLink:  it.HTMLURL,
		MarkdownIn: []string{"pretext", "text"},
	}
	if len(it.Labels) > 0 {
		att.Footer = "Labels: " + strings.Join(it.Labels, ", ")
	}
	return slack.Message{Channel: channel, Text: att.Fallback, Attachments: []slack.Attachment{att}}
}

// Generic renders any event without a dedicated template.
func Generic(channel string, repo Repo, eventName, actor string) slack.Message {
	text := fmt.Sprintf("[%s] %s", repo.link(), eventName)
	if actor != "" {
		text += " by " + actor
	}
	return slack.Message{Channel: channel, Text: text}
}

func itemColor(it Item) string {
	switch {
	case it.Merged:
		return colorMerged
	case it.State == "closed":
		return colorClosed
	case it.State == "open":
		return colorOpen
	default:
		return colorNeutral
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

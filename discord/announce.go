package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/kprdev/Dububot/tracker"
)

const (
	embedImageWidth  = 1024
	embedImageHeight = 576
)

// messageSender is the slice of the session the announcer uses.
type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer turns poll events into messages on the announce channel. It
// implements tracker.EventHandler.
type Announcer struct {
	sender    messageSender
	channelID string
}

func NewAnnouncer(sender messageSender, channelID string) *Announcer {
	return &Announcer{sender: sender, channelID: channelID}
}

// HandleEvents posts one message per started, stopped, and updated stream.
// Send failures are logged and do not stop the remaining announcements.
func (a *Announcer) HandleEvents(ctx context.Context, res tracker.PollResult) {
	if a.channelID == "" {
		return
	}
	for _, s := range res.Started {
		_, err := a.sender.ChannelMessageSendComplex(a.channelID, &discordgo.MessageSend{
			Content: startMessage(s),
			Embed:   startEmbed(s),
		})
		if err != nil {
			slog.Error("failed to announce stream start",
				slog.String("channel", s.UserLogin), slog.Any("err", err))
		}
	}
	for _, s := range res.Stopped {
		if _, err := a.sender.ChannelMessageSend(a.channelID, stopMessage(s)); err != nil {
			slog.Error("failed to announce stream stop",
				slog.String("channel", s.UserLogin), slog.Any("err", err))
		}
	}
	for _, s := range res.Updated {
		if _, err := a.sender.ChannelMessageSend(a.channelID, updateMessage(s)); err != nil {
			slog.Error("failed to announce stream update",
				slog.String("channel", s.UserLogin), slog.Any("err", err))
		}
	}
}

func startMessage(s tracker.Stream) string {
	return fmt.Sprintf("**%s** just went live! https://twitch.tv/%s", s.UserName, s.UserLogin)
}

func stopMessage(s tracker.Stream) string {
	return fmt.Sprintf("**%s** has stopped streaming.", s.UserName)
}

func updateMessage(s tracker.Stream) string {
	return fmt.Sprintf("**%s** is now playing **%s** — %s", s.UserName, s.Game.Name, s.Title)
}

// startEmbed renders the rich announcement card for a stream start.
func startEmbed(s tracker.Stream) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name:    fmt.Sprintf("%s is now live!", s.UserName),
			URL:     "https://twitch.tv/" + s.UserLogin,
			IconURL: s.User.ProfileImageURL,
		},
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: s.User.ProfileImageURL},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Now Playing", Value: orUnknown(s.Game.Name), Inline: true},
			{Name: "Viewers", Value: formatCount(s.ViewerCount), Inline: true},
			{Name: "Stream Title", Value: orUnknown(s.Title)},
		},
		Image:     &discordgo.MessageEmbedImage{URL: thumbnailURL(s.ThumbnailURL, embedImageWidth, embedImageHeight)},
		Timestamp: s.StartedAt.Format(time.RFC3339),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// thumbnailURL fills the {width}x{height} placeholders of a Helix thumbnail
// template.
func thumbnailURL(template string, w, h int) string {
	out := strings.ReplaceAll(template, "{width}", fmt.Sprintf("%d", w))
	return strings.ReplaceAll(out, "{height}", fmt.Sprintf("%d", h))
}

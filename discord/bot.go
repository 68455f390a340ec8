// Package discord contains the chat-side glue of the bot: the gateway
// session, a static command registry, the moderation word filter, and the
// announcer that renders live-stream events into messages and embeds.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/kprdev/Dububot/config"
	"github.com/kprdev/Dububot/twitchapi"
)

// followerAPI is the slice of the Helix client the command handlers need.
type followerAPI interface {
	GetUsersByLogin(ctx context.Context, logins []string) ([]twitchapi.User, error)
	GetFollowerCount(ctx context.Context, userID string) (int, error)
}

// commandFunc handles one chat command and returns the reply text, or empty
// for no reply.
type commandFunc func(b *Bot, m *discordgo.MessageCreate, args []string) string

// Bot wraps the Discord session with the bot's message handling. Commands
// live in a static registry populated at construction; there is no runtime
// handler discovery.
type Bot struct {
	session  *discordgo.Session
	cfg      *config.Config
	filter   *WordFilter
	api      followerAPI
	commands map[string]commandFunc
}

// New creates the bot and registers its handlers. The session is not opened
// yet; call Start.
func New(cfg *config.Config, api followerAPI) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	b := &Bot{
		session: session,
		cfg:     cfg,
		filter:  NewWordFilter(cfg.FilterWords, cfg.FilterBypass),
		api:     api,
		commands: map[string]commandFunc{
			"PING":      cmdPing,
			"SAY":       cmdSay,
			"AMIADMIN":  cmdAmIAdmin,
			"FOLLOWERS": cmdFollowers,
		},
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessage)
	return b, nil
}

// Session exposes the underlying gateway session for message sending.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// Start opens the gateway connection and closes it when ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}
	go func() {
		<-ctx.Done()
		if err := b.session.Close(); err != nil {
			slog.Error("discord session close error", slog.Any("err", err))
		}
	}()
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("bot is online and connected to discord", slog.String("user", r.User.Username))
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	if word, hit := b.filter.Match(m.Content); hit && !b.filter.Bypassed(m.Author.ID) {
		if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
			slog.Warn("failed to delete filtered message", slog.Any("err", err))
			return
		}
		slog.Info("deleted filtered message", slog.String("user", m.Author.ID), slog.String("word", word))
		b.reply(s, m.ChannelID, "**Hey!** You're not allowed to use that word here!")
		return
	}

	if greetsBack(m.Content) {
		b.reply(s, m.ChannelID, fmt.Sprintf("<@%s> 안녕 :heartbeat:", m.Author.ID))
	}

	name, args, ok := parseCommand(m.Content)
	if !ok {
		return
	}
	handler, known := b.commands[name]
	if !known {
		return
	}
	if out := handler(b, m, args); out != "" {
		b.reply(s, m.ChannelID, out)
	}
}

func (b *Bot) reply(s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		slog.Error("failed to send message", slog.Any("err", err))
	}
}

var greetings = map[string]struct{}{"HELLO": {}, "HI": {}}

// greetsBack reports whether any word of the message is a known greeting.
func greetsBack(content string) bool {
	for _, word := range strings.Fields(content) {
		if _, ok := greetings[strings.ToUpper(word)]; ok {
			return true
		}
	}
	return false
}

// parseCommand splits "!name arg arg" into its upper-cased name and args.
func parseCommand(content string) (string, []string, bool) {
	if !strings.HasPrefix(content, "!") {
		return "", nil, false
	}
	fields := strings.Fields(content[1:])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToUpper(fields[0]), fields[1:], true
}

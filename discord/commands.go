package discord

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const commandTimeout = 10 * time.Second

func cmdPing(b *Bot, m *discordgo.MessageCreate, args []string) string {
	return "pong"
}

func cmdSay(b *Bot, m *discordgo.MessageCreate, args []string) string {
	if len(args) == 0 {
		return "Say what?"
	}
	return strings.Join(args, " ")
}

func cmdAmIAdmin(b *Bot, m *discordgo.MessageCreate, args []string) string {
	var roles []string
	if m.Member != nil {
		roles = m.Member.Roles
	}
	return adminReply(m.Author.ID, roles, b.cfg.AdminRoleID)
}

func cmdFollowers(b *Bot, m *discordgo.MessageCreate, args []string) string {
	if len(args) == 0 {
		return "Usage: !followers <channel>"
	}
	login := strings.ToLower(args[0])

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	users, err := b.api.GetUsersByLogin(ctx, []string{login})
	if err != nil {
		slog.Warn("follower lookup failed", slog.String("login", login), slog.Any("err", err))
		return "Couldn't reach Twitch right now, try again later."
	}
	if len(users) == 0 {
		return "No such channel: " + login
	}
	total, err := b.api.GetFollowerCount(ctx, users[0].ID)
	if err != nil {
		slog.Warn("follower count failed", slog.String("login", login), slog.Any("err", err))
		return "Couldn't reach Twitch right now, try again later."
	}
	return followerReply(users[0].DisplayName, total)
}

func adminReply(userID string, roles []string, adminRole string) string {
	if adminRole == "" {
		return "No admin role is configured."
	}
	for _, r := range roles {
		if r == adminRole {
			return "<@" + userID + "> Yes, you are an admin!"
		}
	}
	return "<@" + userID + "> No, you are not an admin."
}

func followerReply(name string, total int) string {
	return "**" + name + "** has **" + formatCount(total) + "** followers."
}

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		s = "-" + s
	}
	return s
}

// Package discord implements the Guild port and the /verify command
// against the Discord API.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/human-tech/signatory/core"
	"github.com/human-tech/signatory/ports"
)

// Guild is the Discord implementation of the Guild port.
type Guild struct {
	session *discordgo.Session
	guildID string
}

// NewGuild creates a Guild bound to a single Discord guild.
func NewGuild(session *discordgo.Session, guildID string) ports.Guild {
	return &Guild{session: session, guildID: guildID}
}

// MemberName returns the member's username.
func (g *Guild) MemberName(ctx context.Context, userID string) (string, error) {
	member, err := g.session.GuildMember(g.guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to fetch member: %w", err)
	}
	return member.User.Username, nil
}

// CreatePrivateChannel creates a text channel hidden from everyone except
// the user and the bot.
func (g *Guild) CreatePrivateChannel(ctx context.Context, userID, name string) (string, error) {
	botID := g.session.State.User.ID

	channel, err := g.session.GuildChannelCreateComplex(g.guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildText,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{
				// The @everyone role shares the guild's ID.
				ID:   g.guildID,
				Type: discordgo.PermissionOverwriteTypeRole,
				Deny: discordgo.PermissionViewChannel,
			},
			{
				ID:    userID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
			},
			{
				ID:    botID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
			},
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to create channel: %w", err)
	}

	return channel.ID, nil
}

// SendMessage posts content into a channel.
func (g *Guild) SendMessage(ctx context.Context, channelID, content string) error {
	if _, err := g.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// DeleteChannel removes a channel.
func (g *Guild) DeleteChannel(ctx context.Context, channelID string) error {
	if _, err := g.session.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	return nil
}

// GrantRole grants the named role to the member. Discord treats adding a
// role the member already holds as a no-op, which keeps this idempotent.
func (g *Guild) GrantRole(ctx context.Context, userID, roleName string) error {
	roles, err := g.session.GuildRoles(g.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to list roles: %w", err)
	}

	var roleID string
	for _, role := range roles {
		if role.Name == roleName {
			roleID = role.ID
			break
		}
	}
	if roleID == "" {
		return core.ErrRoleNotFound
	}

	if err := g.session.GuildMemberRoleAdd(g.guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to grant role %q: %w", roleName, err)
	}

	return nil
}

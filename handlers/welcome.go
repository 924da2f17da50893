package handlers

import (
	"fmt"
	"log"
	"time"

	"discord-ticket-bot/storage"

	"github.com/bwmarrin/discordgo"
)

func welcomeCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "setup-welcome",
			Description:              "Configure welcome messages and the auto role",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Channel for welcome messages", Required: true},
				{Type: discordgo.ApplicationCommandOptionRole, Name: "auto-role", Description: "Role given to every new member"},
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "log-channel", Description: "Channel for join logs"},
			},
		},
	}
}

func handleSetupWelcome(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	cfg := &storage.WelcomeConfig{
		GuildID:   i.GuildID,
		ChannelID: opts["channel"].ChannelValue(s).ID,
	}
	if r, ok := opts["auto-role"]; ok {
		cfg.AutoRoleID = r.RoleValue(s, i.GuildID).ID
	}
	if c, ok := opts["log-channel"]; ok {
		cfg.LogChannelID = c.ChannelValue(s).ID
	}

	if err := Store.SaveWelcomeConfig(cfg); err != nil {
		respond(s, i, fmt.Sprintf("❌ Failed to save the welcome configuration: %v", err), true)
		return
	}
	respond(s, i, fmt.Sprintf("✅ Welcome messages configured for <#%s>.", cfg.ChannelID), true)
}

func handleMemberJoin(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	cfg, err := Store.WelcomeConfigFor(m.GuildID)
	if err != nil {
		return
	}

	guildName := m.GuildID
	memberCount := 0
	if g, err := s.State.Guild(m.GuildID); err == nil {
		guildName = g.Name
		memberCount = g.MemberCount
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("👋 Welcome to %s!", guildName),
		Description: fmt.Sprintf("%s just joined the server. Make yourself at home!", m.User.Mention()),
		Color:       0x57F287,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: m.User.AvatarURL("256")},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if memberCount > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Member #%d", memberCount)}
	}
	if _, err := s.ChannelMessageSendEmbed(cfg.ChannelID, embed); err != nil {
		log.Printf("[WELCOME] send message: %v", err)
	}

	if cfg.AutoRoleID != "" {
		if err := s.GuildMemberRoleAdd(m.GuildID, m.User.ID, cfg.AutoRoleID); err != nil {
			log.Printf("[WELCOME] assign auto role to %s: %v", m.User.Username, err)
		}
	}

	if cfg.LogChannelID != "" {
		msg := fmt.Sprintf("📥 **%s** joined (<@%s>)", m.User.Username, m.User.ID)
		if _, err := s.ChannelMessageSend(cfg.LogChannelID, msg); err != nil {
			log.Printf("[WELCOME] join log: %v", err)
		}
	}
}

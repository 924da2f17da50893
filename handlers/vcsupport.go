package handlers

import (
	"fmt"
	"log"
	"sync"
	"time"

	"discord-ticket-bot/storage"

	"github.com/bwmarrin/discordgo"
)

// Active temp support channels, channel ID -> session info. Process
// local; an orphaned channel after a restart has to be removed by hand.
var (
	supportVCsMu sync.Mutex
	supportVCs   = make(map[string]supportVC)
)

type supportVC struct {
	userID    string
	createdAt time.Time
}

func vcSupportCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "setup-vc-support",
			Description:              "Configure the voice support lobby",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "voice-channel", Description: "Lobby channel users join to request support", Required: true},
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "staff-channel", Description: "Text channel for staff pings", Required: true},
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "category", Description: "Category for temporary support channels"},
			},
		},
	}
}

func handleSetupVcSupport(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	cfg := &storage.VcSupportConfig{
		GuildID:            i.GuildID,
		VoiceChannelID:     opts["voice-channel"].ChannelValue(s).ID,
		StaffPingChannelID: opts["staff-channel"].ChannelValue(s).ID,
	}
	if c, ok := opts["category"]; ok {
		cfg.CategoryID = c.ChannelValue(s).ID
	}

	if err := Store.SaveVcSupportConfig(cfg); err != nil {
		respond(s, i, fmt.Sprintf("❌ Failed to save the voice support configuration: %v", err), true)
		return
	}
	respond(s, i, fmt.Sprintf("✅ Voice support configured. Joining <#%s> now opens a private support channel.", cfg.VoiceChannelID), true)
}

func handleVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	cfg, err := Store.VcSupportConfigFor(v.GuildID)
	if err != nil {
		return
	}

	prevChannel := ""
	if v.BeforeUpdate != nil {
		prevChannel = v.BeforeUpdate.ChannelID
	}

	if v.ChannelID == cfg.VoiceChannelID && prevChannel != cfg.VoiceChannelID {
		spawnSupportVC(s, v, cfg)
	}
	if prevChannel != "" && prevChannel != v.ChannelID {
		cleanupSupportVC(s, v.GuildID, prevChannel, cfg)
	}
}

func spawnSupportVC(s *discordgo.Session, v *discordgo.VoiceStateUpdate, cfg *storage.VcSupportConfig) {
	member, err := s.GuildMember(v.GuildID, v.UserID)
	if err != nil {
		log.Printf("[VC] fetch member %s: %v", v.UserID, err)
		return
	}
	username := member.User.Username

	ch, err := s.GuildChannelCreateComplex(v.GuildID, discordgo.GuildChannelCreateData{
		Name:     fmt.Sprintf("📞| Support-%s", username),
		Type:     discordgo.ChannelTypeGuildVoice,
		ParentID: cfg.CategoryID,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{ID: v.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
			{
				ID:    v.UserID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: discordgo.PermissionViewChannel | discordgo.PermissionVoiceConnect | discordgo.PermissionVoiceSpeak,
			},
		},
	})
	if err != nil {
		log.Printf("[VC] create support channel: %v", err)
		return
	}

	if err := s.GuildMemberMove(v.GuildID, v.UserID, &ch.ID); err != nil {
		log.Printf("[VC] move %s into %s: %v", username, ch.ID, err)
	}

	supportVCsMu.Lock()
	supportVCs[ch.ID] = supportVC{userID: v.UserID, createdAt: time.Now()}
	supportVCsMu.Unlock()
	log.Printf("[VC] support channel %s created for %s", ch.ID, username)

	embed := &discordgo.MessageEmbed{
		Title:       "🎤 New Voice Support Request",
		Description: fmt.Sprintf("<@%s> is requesting voice support!", v.UserID),
		Color:       0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👤 User", Value: username, Inline: true},
			{Name: "📞 Channel", Value: fmt.Sprintf("<#%s>", ch.ID), Inline: true},
			{Name: "⏰ Time", Value: fmt.Sprintf("<t:%d:R>", time.Now().Unix()), Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Join the voice channel to assist!"},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	_, err = s.ChannelMessageSendComplex(cfg.StaffPingChannelID, &discordgo.MessageSend{
		Content: "@here",
		Embeds:  []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		log.Printf("[VC] staff notification: %v", err)
	}
}

func cleanupSupportVC(s *discordgo.Session, guildID, channelID string, cfg *storage.VcSupportConfig) {
	supportVCsMu.Lock()
	info, tracked := supportVCs[channelID]
	supportVCsMu.Unlock()
	if !tracked {
		return
	}

	// Only tear the channel down once the last participant left.
	g, err := s.State.Guild(guildID)
	if err == nil {
		for _, vs := range g.VoiceStates {
			if vs.ChannelID == channelID {
				return
			}
		}
	}

	if _, err := s.ChannelDelete(channelID); err != nil {
		log.Printf("[VC] delete support channel %s: %v", channelID, err)
		return
	}
	supportVCsMu.Lock()
	delete(supportVCs, channelID)
	supportVCsMu.Unlock()

	duration := time.Since(info.createdAt).Round(time.Second)
	log.Printf("[VC] support channel %s removed (lasted %s)", channelID, duration)

	embed := &discordgo.MessageEmbed{
		Title:       "🔒 Voice Support Session Ended",
		Description: "The support session has ended.",
		Color:       0x95A5A6,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👤 User", Value: fmt.Sprintf("<@%s>", info.userID), Inline: true},
			{Name: "⏱️ Duration", Value: duration.String(), Inline: true},
			{Name: "⏰ Ended", Value: fmt.Sprintf("<t:%d:R>", time.Now().Unix()), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if _, err := s.ChannelMessageSendEmbed(cfg.StaffPingChannelID, embed); err != nil {
		log.Printf("[VC] closure notification: %v", err)
	}
}

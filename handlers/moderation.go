package handlers

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

var modPermission = int64(discordgo.PermissionKickMembers)

func moderationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "kick",
			Description:              "Kick a member from the server",
			DefaultMemberPermissions: &modPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User to kick", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason for kick"},
			},
		},
		{
			Name:                     "clear",
			Description:              "Delete a number of messages from the channel",
			DefaultMemberPermissions: &modPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "amount", Description: "Number of messages to delete (1-100)", Required: true},
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Only delete messages from this user"},
			},
		},
	}
}

func handleKick(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	target := opts["user"].UserValue(s)
	reason := optStr(opts, "reason", "No reason provided")

	if err := s.GuildMemberDeleteWithReason(i.GuildID, target.ID, reason); err != nil {
		respond(s, i, fmt.Sprintf("❌ Failed to kick: %v", err), true)
		return
	}
	log.Printf("[MOD] %s kicked %s: %s", i.Member.User.Username, target.Username, reason)

	respond(s, i, fmt.Sprintf("👢 **%s** has been kicked. Reason: %s", target.Username, reason), false)
}

func handleClear(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	amount := int(optInt(opts, "amount", 0))
	if amount < 1 || amount > 100 {
		respond(s, i, "❌ Amount must be between 1 and 100.", true)
		return
	}

	deferEphemeral(s, i)

	msgs, err := s.ChannelMessages(i.ChannelID, amount, "", "", "")
	if err != nil {
		editDeferred(s, i, fmt.Sprintf("❌ Failed to fetch messages: %v", err))
		return
	}

	var filterUser *discordgo.User
	if u, ok := opts["user"]; ok {
		filterUser = u.UserValue(s)
	}

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if filterUser != nil && m.Author.ID != filterUser.ID {
			continue
		}
		ids = append(ids, m.ID)
	}

	if len(ids) == 0 {
		editDeferred(s, i, "No messages found matching criteria.")
		return
	}

	if len(ids) == 1 {
		err = s.ChannelMessageDelete(i.ChannelID, ids[0])
	} else {
		err = s.ChannelMessagesBulkDelete(i.ChannelID, ids)
	}
	if err != nil {
		editDeferred(s, i, fmt.Sprintf("❌ Failed to delete messages: %v", err))
		return
	}
	log.Printf("[MOD] %s cleared %d messages in %s", i.Member.User.Username, len(ids), i.ChannelID)

	editDeferred(s, i, fmt.Sprintf("🗑️ Deleted **%d** messages.", len(ids)))
}

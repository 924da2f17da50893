package handlers

import (
	"log"
	"strings"

	"discord-ticket-bot/config"
	"discord-ticket-bot/storage"
	"discord-ticket-bot/tickets"

	"github.com/bwmarrin/discordgo"
)

// Package wiring, set once from main before the session opens.
var (
	Cfg     *config.Config
	Store   storage.Store
	Tickets *tickets.Manager
)

var adminPerm = int64(discordgo.PermissionAdministrator)

func Commands() []*discordgo.ApplicationCommand {
	cmds := make([]*discordgo.ApplicationCommand, 0)
	cmds = append(cmds, ticketCommands()...)
	cmds = append(cmds, reactionRoleCommands()...)
	cmds = append(cmds, legitCommands()...)
	cmds = append(cmds, vcSupportCommands()...)
	cmds = append(cmds, welcomeCommands()...)
	cmds = append(cmds, emojiCommands()...)
	cmds = append(cmds, moderationCommands()...)
	cmds = append(cmds, utilityCommands()...)
	return cmds
}

func Register(s *discordgo.Session) {
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.GuildID == "" {
			return
		}

		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			handleSlashCommand(s, i)
		case discordgo.InteractionMessageComponent:
			handleComponent(s, i)
		}
	})
}

// RegisterEvents wires the gateway events that are not interactions:
// member joins for welcome automation and voice state changes for the
// support lobby.
func RegisterEvents(s *discordgo.Session) {
	s.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		handleMemberJoin(s, m)
	})
	s.AddHandler(func(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		handleVoiceStateUpdate(s, v)
	})
}

func handleSlashCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name

	switch name {
	case "setup-ticket":
		handleSetupTicket(s, i)
	case "setup-reactionroles":
		handleReactionRolesCommand(s, i)
	case "setup-legit":
		handleSetupLegit(s, i)
	case "legit-votes":
		handleLegitVotes(s, i)
	case "setup-vc-support":
		handleSetupVcSupport(s, i)
	case "setup-welcome":
		handleSetupWelcome(s, i)
	case "my-emoji":
		handleMyEmoji(s, i)
	case "del-db":
		handleDelDB(s, i)
	case "ping":
		handlePing(s, i)
	case "userinfo":
		handleUserinfo(s, i)
	case "kick":
		handleKick(s, i)
	case "clear":
		handleClear(s, i)

	default:
		log.Printf("Unknown command: %s", name)
	}
}

func handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	switch {
	case customID == tickets.CustomIDCategorySelect:
		handleTicketCategorySelect(s, i)
	case customID == tickets.CustomIDViewMyTickets:
		handleViewMyTickets(s, i)
	case customID == tickets.CustomIDClaim:
		handleClaimButton(s, i)
	case customID == tickets.CustomIDUnclaim:
		handleUnclaimButton(s, i)
	case customID == tickets.CustomIDClose:
		handleCloseButton(s, i)

	case strings.HasPrefix(customID, "feedback_edit_"):
		handleFeedbackEdit(s, i, customID)
	case strings.HasPrefix(customID, "feedback_q"):
		handleFeedbackRating(s, i, customID)
	case strings.HasPrefix(customID, "feedback_submit_"):
		handleFeedbackSubmit(s, i)
	case strings.HasPrefix(customID, "feedback_skip_"):
		handleFeedbackSkip(s, i)
	case strings.HasPrefix(customID, "placeholder_"):
		// Disabled placeholders never reach us, but be safe.

	case strings.HasPrefix(customID, "rr_"):
		handleReactionRoleButton(s, i, customID)

	case customID == "legit_vote_yes":
		handleLegitVote(s, i, "yes")
	case customID == "legit_vote_no":
		handleLegitVote(s, i, "no")
	case strings.HasPrefix(customID, "legit_page_"):
		handleLegitPage(s, i, customID)

	default:
		log.Printf("Unknown component: %s", customID)
	}
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
	if err != nil {
		log.Printf("Failed to respond: %v", err)
	}
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}

func followup(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, _ = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

// deferEphemeral acknowledges within the interaction deadline so slow
// work (database, history paging) can follow before editDeferred.
func deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		log.Printf("Failed to defer: %v", err)
	}
}

// deferUpdate acknowledges a component press whose outcome is an edit
// of the pressed message itself.
func deferUpdate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Printf("Failed to defer update: %v", err)
	}
}

func editDeferred(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	if err != nil {
		log.Printf("Failed to edit deferred response: %v", err)
	}
}

func editDeferredPanel(s *discordgo.Session, i *discordgo.InteractionCreate, p tickets.Panel) {
	content, components := renderPanel(p)
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Components: &components,
	})
	if err != nil {
		log.Printf("Failed to edit deferred panel: %v", err)
	}
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range i.ApplicationCommandData().Options {
		m[opt.Name] = opt
	}
	return m
}

func subOptMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func optStr(m map[string]*discordgo.ApplicationCommandInteractionDataOption, key, def string) string {
	if o, ok := m[key]; ok {
		return o.StringValue()
	}
	return def
}

func optInt(m map[string]*discordgo.ApplicationCommandInteractionDataOption, key string, def int64) int64 {
	if o, ok := m[key]; ok {
		return o.IntValue()
	}
	return def
}

func isAdmin(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// interactionMember translates the invoking member into the lifecycle
// manager's actor type.
func interactionMember(i *discordgo.InteractionCreate) tickets.Member {
	m := tickets.Member{}
	if i.Member == nil {
		return m
	}
	m.User = tickets.User{ID: i.Member.User.ID, Username: i.Member.User.Username}
	m.Roles = i.Member.Roles
	m.ManageChannels = i.Member.Permissions&discordgo.PermissionManageChannels != 0
	return m
}

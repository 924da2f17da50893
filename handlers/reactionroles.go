package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"discord-ticket-bot/storage"
	"discord-ticket-bot/tickets"

	"github.com/bwmarrin/discordgo"
)

// Exclusive categories: picking one role drops the member's other roles
// of the same category.
var exclusiveRoleCategories = map[string]bool{
	"color": true,
	"age":   true,
}

func reactionRoleCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "setup-reactionroles",
			Description:              "Manage self-assignable role buttons",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name: "add", Description: "Register a role button",
					Type: discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "Role the button toggles", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "category", Description: "Group (e.g. color, age, notification)", Required: true},
					},
				},
				{
					Name: "publish", Description: "Post (or repost) the role panel",
					Type: discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Channel to post the panel in", Required: true},
					},
				},
				{
					Name: "reset", Description: "Remove every registered role button",
					Type: discordgo.ApplicationCommandOptionSubCommand,
				},
			},
		},
	}
}

func handleReactionRolesCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub := i.ApplicationCommandData().Options[0]
	switch sub.Name {
	case "add":
		handleReactionRoleAdd(s, i, sub.Options)
	case "publish":
		handleReactionRolePublish(s, i, sub.Options)
	case "reset":
		handleReactionRoleReset(s, i)
	}
}

func handleReactionRoleAdd(s *discordgo.Session, i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	om := subOptMap(opts)
	role := om["role"].RoleValue(s, i.GuildID)
	category := strings.ToLower(om["category"].StringValue())

	err := Store.SaveReactionRole(&storage.ReactionRole{
		GuildID:  i.GuildID,
		ButtonID: "rr_" + role.ID,
		RoleID:   role.ID,
		RoleName: role.Name,
		Category: category,
	})
	if err != nil {
		respond(s, i, fmt.Sprintf("❌ Failed to save role button: %v", err), true)
		return
	}
	respond(s, i, fmt.Sprintf("✅ Button for **%s** (`%s`) registered. Run `/setup-reactionroles publish` to post the panel.", role.Name, category), true)
}

func handleReactionRolePublish(s *discordgo.Session, i *discordgo.InteractionCreate, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	deferEphemeral(s, i)

	om := subOptMap(opts)
	channelID := om["channel"].ChannelValue(s).ID

	roles, err := Store.ReactionRolesFor(i.GuildID)
	if err != nil {
		editDeferred(s, i, "❌ Could not load the registered role buttons.")
		return
	}
	if len(roles) == 0 {
		editDeferred(s, i, "No role buttons registered yet. Use `/setup-reactionroles add` first.")
		return
	}

	// One button row per category, five buttons per row max.
	byCategory := make(map[string][]storage.ReactionRole)
	var order []string
	for _, r := range roles {
		if _, seen := byCategory[r.Category]; !seen {
			order = append(order, r.Category)
		}
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}

	elements := []tickets.Element{
		{Text: "# 🎭 Self-Assignable Roles"},
		{Text: "Click a button to toggle the role. Color and age roles replace each other."},
	}
	for _, cat := range order {
		elements = append(elements, tickets.Element{Text: fmt.Sprintf("**%s**", titleCase(cat))})
		var buttons []tickets.Button
		for _, r := range byCategory[cat] {
			buttons = append(buttons, tickets.Button{
				ID:    r.ButtonID,
				Label: r.RoleName,
				Style: tickets.StyleSecondary,
			})
			if len(buttons) == 5 {
				elements = append(elements, tickets.Element{Buttons: buttons})
				buttons = nil
			}
		}
		if len(buttons) > 0 {
			elements = append(elements, tickets.Element{Buttons: buttons})
		}
	}

	platform := NewDiscordPlatform(s)
	messageID, err := platform.SendPanel(channelID, tickets.Panel{Elements: elements})
	if err != nil {
		editDeferred(s, i, fmt.Sprintf("❌ Failed to post the role panel: %v", err))
		return
	}

	for _, r := range byCategory {
		for _, rr := range r {
			rr.MessageID = messageID
			if err := Store.SaveReactionRole(&rr); err != nil {
				log.Printf("[RR] save message id for %s: %v", rr.ButtonID, err)
			}
		}
	}

	editDeferred(s, i, fmt.Sprintf("✅ Role panel posted in <#%s> with %d buttons.", channelID, len(roles)))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func handleReactionRoleReset(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := Store.DeleteReactionRoles(i.GuildID); err != nil {
		respond(s, i, fmt.Sprintf("❌ Failed to reset role buttons: %v", err), true)
		return
	}
	respond(s, i, "🗑️ All role buttons removed. Old panels will stop working.", true)
}

func handleReactionRoleButton(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	deferEphemeral(s, i)

	rr, err := Store.ReactionRoleByButton(i.GuildID, customID)
	if errors.Is(err, storage.ErrNotFound) {
		editDeferred(s, i, "❌ This reaction role is not configured. Please ask an administrator to run `/setup-reactionroles` again.")
		return
	}
	if err != nil {
		editDeferred(s, i, "❌ An error occurred while processing your request. Please try again.")
		return
	}

	member := i.Member
	has := false
	for _, id := range member.Roles {
		if id == rr.RoleID {
			has = true
			break
		}
	}

	if has {
		if err := s.GuildMemberRoleRemove(i.GuildID, member.User.ID, rr.RoleID); err != nil {
			editDeferred(s, i, fmt.Sprintf("❌ I could not remove the **%s** role.", rr.RoleName))
			return
		}
		log.Printf("[RR] %s removed role %s", member.User.Username, rr.RoleName)
		editDeferred(s, i, fmt.Sprintf("✅ **Role Removed!**\n\nYou no longer have the **%s** role.\n\n*Click the button again to get it back.*", rr.RoleName))
		return
	}

	// Exclusive categories drop the member's other roles of the group.
	if exclusiveRoleCategories[rr.Category] {
		all, err := Store.ReactionRolesFor(i.GuildID)
		if err == nil {
			memberRoles := make(map[string]bool, len(member.Roles))
			for _, id := range member.Roles {
				memberRoles[id] = true
			}
			for _, other := range all {
				if other.Category == rr.Category && other.RoleID != rr.RoleID && memberRoles[other.RoleID] {
					if err := s.GuildMemberRoleRemove(i.GuildID, member.User.ID, other.RoleID); err != nil {
						log.Printf("[RR] drop exclusive role %s: %v", other.RoleName, err)
					}
				}
			}
		}
	}

	if err := s.GuildMemberRoleAdd(i.GuildID, member.User.ID, rr.RoleID); err != nil {
		editDeferred(s, i, fmt.Sprintf("❌ I could not assign the **%s** role. It may be above my highest role.", rr.RoleName))
		return
	}
	log.Printf("[RR] %s added role %s", member.User.Username, rr.RoleName)

	msg := fmt.Sprintf("✅ **Role Added!**\n\nYou now have the **%s** role!", rr.RoleName)
	switch rr.Category {
	case "color":
		msg += "\n\n*Your name color has been updated!*"
	case "notification":
		msg += "\n\n*You will now receive notifications for this category.*"
	case "age":
		msg += "\n\n*Your age category has been set.*"
	}
	msg += "\n\n*Click the button again to remove this role.*"
	editDeferred(s, i, msg)
}

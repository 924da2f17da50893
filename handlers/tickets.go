package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"discord-ticket-bot/lang"
	"discord-ticket-bot/storage"
	"discord-ticket-bot/tickets"

	"github.com/bwmarrin/discordgo"
)

func ticketCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "setup-ticket",
			Description:              "Configure the ticket system and post the creation panel",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "panel-channel", Description: "Channel to post the ticket panel in", Required: true},
				{Type: discordgo.ApplicationCommandOptionRole, Name: "support-role", Description: "Role that handles tickets", Required: true},
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "category", Description: "Discord category for ticket channels"},
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "review-channel", Description: "Channel for feedback reviews"},
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "logs-channel", Description: "Channel for transcripts and logs"},
				{Type: discordgo.ApplicationCommandOptionBoolean, Name: "enable-claim", Description: "Show a claim button on new tickets (default true)"},
			},
		},
	}
}

func handleSetupTicket(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferEphemeral(s, i)

	opts := optionMap(i)
	cfg := &storage.TicketConfig{
		GuildID:       i.GuildID,
		SupportRoleID: opts["support-role"].RoleValue(s, i.GuildID).ID,
		EnableClaim:   true,
	}
	if c, ok := opts["category"]; ok {
		cfg.CategoryID = c.ChannelValue(s).ID
	}
	if c, ok := opts["review-channel"]; ok {
		cfg.ReviewChannelID = c.ChannelValue(s).ID
	}
	if c, ok := opts["logs-channel"]; ok {
		cfg.LogsChannelID = c.ChannelValue(s).ID
	}
	if c, ok := opts["enable-claim"]; ok {
		cfg.EnableClaim = c.BoolValue()
	}

	if err := Store.SaveTicketConfig(cfg); err != nil {
		editDeferred(s, i, lang.T("ticket_setup_save_failed", "error", err.Error()))
		return
	}

	panelCh := opts["panel-channel"].ChannelValue(s).ID
	platform := NewDiscordPlatform(s)
	if _, err := platform.SendPanel(panelCh, tickets.CategoryPanel()); err != nil {
		editDeferred(s, i, lang.T("ticket_setup_panel_failed", "error", err.Error()))
		return
	}

	editDeferred(s, i, lang.T("ticket_setup_done", "channel", panelCh))
}

func handleTicketCategorySelect(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	if len(data.Values) == 0 {
		return
	}
	deferEphemeral(s, i)

	requester := tickets.User{ID: i.Member.User.ID, Username: i.Member.User.Username}
	ticket, err := Tickets.Create(i.GuildID, requester, data.Values[0])
	switch {
	case errors.Is(err, tickets.ErrCanceled):
		editDeferred(s, i, lang.T("ticket_create_cancelled"))
	case errors.Is(err, tickets.ErrNotConfigured):
		editDeferred(s, i, lang.T("ticket_not_configured"))
	case errors.Is(err, tickets.ErrUnknownCategory):
		editDeferred(s, i, lang.T("ticket_unknown_category"))
	case err != nil:
		editDeferred(s, i, lang.T("ticket_create_failed"))
	default:
		editDeferred(s, i, lang.T("ticket_created", "number", fmt.Sprintf("%04d", ticket.TicketNumber), "channel", ticket.ChannelID))
	}
}

func handleViewMyTickets(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferEphemeral(s, i)

	ts, err := Tickets.Tickets(i.GuildID, i.Member.User.ID)
	if err != nil {
		editDeferred(s, i, lang.T("tickets_load_failed"))
		return
	}
	if len(ts) == 0 {
		editDeferred(s, i, lang.T("tickets_none"))
		return
	}

	var open, closed int
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Your Tickets** (%d):\n", len(ts)))
	for _, t := range ts {
		if t.Status == storage.TicketStatusClosed {
			closed++
			sb.WriteString(fmt.Sprintf("• #%04d — %s — closed\n", t.TicketNumber, t.Category))
			continue
		}
		open++
		sb.WriteString(fmt.Sprintf("• #%04d — %s — %s — <#%s>\n", t.TicketNumber, t.Category, t.Status, t.ChannelID))
	}
	sb.WriteString(fmt.Sprintf("\n**Open:** %d · **Closed:** %d", open, closed))

	editDeferred(s, i, sb.String())
}

func handleClaimButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferUpdate(s, i)

	_, err := Tickets.Claim(i.ChannelID, interactionMember(i))
	switch {
	case errors.Is(err, tickets.ErrTicketNotFound):
		followup(s, i, lang.T("ticket_invalid_channel"))
	case errors.Is(err, tickets.ErrForbidden):
		followup(s, i, lang.T("claim_need_role"))
	case errors.Is(err, tickets.ErrTicketClosed):
		followup(s, i, lang.T("ticket_already_closed"))
	case err != nil:
		followup(s, i, lang.T("claim_failed"))
	}
}

func handleUnclaimButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferUpdate(s, i)

	_, err := Tickets.Unclaim(i.ChannelID, interactionMember(i))
	switch {
	case errors.Is(err, tickets.ErrTicketNotFound):
		followup(s, i, lang.T("ticket_invalid_channel"))
	case errors.Is(err, tickets.ErrForbidden):
		followup(s, i, lang.T("unclaim_only_claimer"))
	case errors.Is(err, tickets.ErrTicketClosed):
		followup(s, i, lang.T("ticket_already_closed"))
	case err != nil:
		followup(s, i, lang.T("unclaim_failed"))
	}
}

func handleCloseButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferEphemeral(s, i)

	_, form, err := Tickets.InitiateClose(i.ChannelID, interactionMember(i))
	switch {
	case errors.Is(err, tickets.ErrTicketNotFound):
		editDeferred(s, i, lang.T("ticket_invalid_channel"))
	case errors.Is(err, tickets.ErrForbidden):
		editDeferred(s, i, lang.T("close_forbidden"))
	case errors.Is(err, tickets.ErrTicketClosed):
		editDeferred(s, i, lang.T("ticket_already_closed"))
	case err != nil:
		editDeferred(s, i, lang.T("close_failed"))
	default:
		editDeferredPanel(s, i, form)
	}
}

// feedback_q<question>_<rating>_<ticketID>
func handleFeedbackRating(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	deferUpdate(s, i)

	parts := strings.Split(customID, "_")
	if len(parts) != 4 {
		return
	}
	question, err1 := strconv.Atoi(strings.TrimPrefix(parts[1], "q"))
	rating, err2 := strconv.Atoi(parts[2])
	ticketID, err3 := strconv.ParseInt(parts[3], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return
	}

	form, err := Tickets.Rate(ticketID, question, rating)
	if err != nil {
		followup(s, i, lang.T("rating_failed"))
		return
	}
	editDeferredPanel(s, i, form)
}

// feedback_edit_q<question>_<ticketID>
func handleFeedbackEdit(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	deferUpdate(s, i)

	parts := strings.Split(customID, "_")
	if len(parts) != 4 {
		return
	}
	question, err1 := strconv.Atoi(strings.TrimPrefix(parts[2], "q"))
	ticketID, err2 := strconv.ParseInt(parts[3], 10, 64)
	if err1 != nil || err2 != nil {
		return
	}

	form, err := Tickets.EditAnswer(ticketID, question)
	if err != nil {
		followup(s, i, lang.T("edit_failed"))
		return
	}
	editDeferredPanel(s, i, form)
}

func handleFeedbackSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferUpdate(s, i)

	finalizer := tickets.User{ID: i.Member.User.ID, Username: i.Member.User.Username}
	_, sess, err := Tickets.Submit(i.ChannelID, finalizer)
	switch {
	case errors.Is(err, tickets.ErrNoRatings):
		followup(s, i, lang.T("feedback_need_rating"))
	case errors.Is(err, tickets.ErrTicketNotFound):
		followup(s, i, lang.T("ticket_invalid_channel"))
	case err != nil:
		followup(s, i, lang.T("submit_failed"))
	default:
		// Swap the form for the static summary.
		editDeferredPanel(s, i, tickets.FeedbackSummary(sess))
	}
}

func handleFeedbackSkip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferUpdate(s, i)

	finalizer := tickets.User{ID: i.Member.User.ID, Username: i.Member.User.Username}
	_, err := Tickets.Skip(i.ChannelID, finalizer)
	switch {
	case errors.Is(err, tickets.ErrTicketNotFound):
		followup(s, i, lang.T("ticket_invalid_channel"))
	case err != nil:
		followup(s, i, lang.T("submit_failed"))
	default:
		// Replace the form, dropping its buttons.
		editDeferredPanel(s, i, tickets.Panel{Elements: []tickets.Element{
			{Text: lang.T("skip_closed")},
		}})
	}
}

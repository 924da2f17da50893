package handlers

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"discord-ticket-bot/tickets"

	"github.com/bwmarrin/discordgo"
)

// DiscordPlatform adapts a discordgo session to the surface the ticket
// lifecycle drives.
type DiscordPlatform struct {
	Session *discordgo.Session
}

func NewDiscordPlatform(s *discordgo.Session) *DiscordPlatform {
	return &DiscordPlatform{Session: s}
}

func (p *DiscordPlatform) CreateTicketChannel(guildID, parentID, name, requesterID, supportRoleID string) (string, error) {
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{
			ID:    requesterID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionAttachFiles | discordgo.PermissionReadMessageHistory,
		},
		{
			ID:    supportRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionAttachFiles | discordgo.PermissionReadMessageHistory | discordgo.PermissionManageMessages,
		},
	}

	ch, err := p.Session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             parentID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

func (p *DiscordPlatform) DeleteChannel(channelID string) error {
	_, err := p.Session.ChannelDelete(channelID)
	return err
}

func (p *DiscordPlatform) SendMessage(channelID, content string) error {
	_, err := p.Session.ChannelMessageSend(channelID, content)
	return err
}

func (p *DiscordPlatform) SendPanel(channelID string, panel tickets.Panel) (string, error) {
	content, components := renderPanel(panel)
	msg, err := p.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    content,
		Components: components,
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (p *DiscordPlatform) UpdatePanel(channelID, messageID string, panel tickets.Panel) error {
	content, components := renderPanel(panel)
	_, err := p.Session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Content:    &content,
		Components: &components,
	})
	return err
}

func (p *DiscordPlatform) SendFile(channelID, content, filename string, data []byte) error {
	_, err := p.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Files: []*discordgo.File{
			{Name: filename, ContentType: "text/plain", Reader: bytes.NewReader(data)},
		},
	})
	return err
}

func (p *DiscordPlatform) PostReview(channelID string, r tickets.Review) error {
	fields := []*discordgo.MessageEmbedField{
		{
			Name: "🎫 Ticket Information",
			Value: fmt.Sprintf("**Ticket #%d**\n**Category:** %s\n**Created:** <t:%d:R>",
				r.Ticket.TicketNumber, r.Ticket.Category, r.Ticket.CreatedAt.Unix()),
		},
		{Name: "👤 Customer", Value: fmt.Sprintf("%s\n<@%s>", r.Ticket.Username, r.Ticket.UserID), Inline: true},
	}
	if r.Ticket.ClaimedBy != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "🎯 Claimed By", Value: fmt.Sprintf("<@%s>", r.Ticket.ClaimedBy), Inline: true,
		})
	}
	fields = append(fields, &discordgo.MessageEmbedField{
		Name: "🔒 Closed By", Value: fmt.Sprintf("%s\n<@%s>", r.ClosedBy.Username, r.ClosedBy.ID), Inline: true,
	})
	fields = append(fields,
		&discordgo.MessageEmbedField{Name: "⏱️ Response Time Rating", Value: tickets.StarDisplay(r.Q1)},
		&discordgo.MessageEmbedField{Name: "👥 Staff Helpfulness Rating", Value: tickets.StarDisplay(r.Q2)},
		&discordgo.MessageEmbedField{Name: "✅ Solution Satisfaction Rating", Value: tickets.StarDisplay(r.Q3)},
		&discordgo.MessageEmbedField{Name: "📈 Average Rating", Value: fmt.Sprintf("**%.1f⭐** out of 5.0", r.Average)},
	)

	embed := &discordgo.MessageEmbed{
		Title:       "📊 New Ticket Feedback Received",
		Description: "A ticket has been closed with customer feedback.",
		Color:       r.Color,
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Ticket ID: %d", r.Ticket.ID)},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	_, err := p.Session.ChannelMessageSendEmbed(channelID, embed)
	return err
}

// FetchHistory pages backward through the channel until exhausted and
// returns the messages oldest first.
func (p *DiscordPlatform) FetchHistory(channelID string) ([]tickets.Message, error) {
	var all []tickets.Message
	beforeID := ""

	for {
		batch, err := p.Session.ChannelMessages(channelID, 100, beforeID, "", "")
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		for _, m := range batch {
			msg := tickets.Message{
				Timestamp: m.Timestamp,
				Author:    m.Author.Username,
				Content:   m.Content,
			}
			for _, a := range m.Attachments {
				msg.Attachments = append(msg.Attachments, tickets.Attachment{Name: a.Filename, URL: a.URL})
			}
			all = append(all, msg)
		}
		beforeID = batch[len(batch)-1].ID
		if len(batch) < 100 {
			break
		}
	}

	// Batches arrive newest first, flip to chronological order.
	for l, r := 0, len(all)-1; l < r; l, r = l+1, r-1 {
		all[l], all[r] = all[r], all[l]
	}
	return all, nil
}

// renderPanel converts the declarative panel into message content plus
// component rows. Text elements become markdown content, button and
// select elements become action rows.
func renderPanel(p tickets.Panel) (string, []discordgo.MessageComponent) {
	var texts []string
	var components []discordgo.MessageComponent

	for _, el := range p.Elements {
		switch {
		case el.Text != "":
			texts = append(texts, el.Text)

		case len(el.Buttons) > 0:
			buttons := make([]discordgo.MessageComponent, 0, len(el.Buttons))
			for _, b := range el.Buttons {
				buttons = append(buttons, discordgo.Button{
					CustomID: b.ID,
					Label:    b.Label,
					Style:    buttonStyle(b.Style),
					Disabled: b.Disabled,
					Emoji:    parseComponentEmoji(b.Emoji),
				})
			}
			components = append(components, discordgo.ActionsRow{Components: buttons})

		case el.Select != nil:
			options := make([]discordgo.SelectMenuOption, 0, len(el.Select.Options))
			for _, o := range el.Select.Options {
				options = append(options, discordgo.SelectMenuOption{
					Label:       o.Label,
					Value:       o.Value,
					Description: o.Description,
					Emoji:       parseComponentEmoji(o.Emoji),
				})
			}
			components = append(components, discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						MenuType:    discordgo.StringSelectMenu,
						CustomID:    el.Select.ID,
						Placeholder: el.Select.Placeholder,
						Options:     options,
					},
				},
			})
		}
	}

	return strings.Join(texts, "\n\n"), components
}

func buttonStyle(s tickets.ButtonStyle) discordgo.ButtonStyle {
	switch s {
	case tickets.StylePrimary:
		return discordgo.PrimaryButton
	case tickets.StyleSuccess:
		return discordgo.SuccessButton
	case tickets.StyleDanger:
		return discordgo.DangerButton
	default:
		return discordgo.SecondaryButton
	}
}

func parseComponentEmoji(emoji string) *discordgo.ComponentEmoji {
	if emoji == "" {
		return nil
	}
	return &discordgo.ComponentEmoji{Name: emoji}
}

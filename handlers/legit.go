package handlers

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"discord-ticket-bot/storage"

	"github.com/bwmarrin/discordgo"
)

const legitVotesPerPage = 15

func legitCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "setup-legit",
			Description:              "Post the legit verification poll",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Channel to post the poll in", Required: true},
			},
		},
		{
			Name:                     "legit-votes",
			Description:              "Browse the recorded legit votes",
			DefaultMemberPermissions: &adminPerm,
		},
	}
}

func legitEmbed(guildName string, total, yes, no int64) *discordgo.MessageEmbed {
	yesPct, noPct := 0, 0
	if total > 0 {
		yesPct = int(yes * 100 / total)
		noPct = int(no * 100 / total)
	}

	return &discordgo.MessageEmbed{
		Title: "🛡️ Legit Verification",
		Description: "**Help us build trust in our community!**\n\n" +
			"We value transparency and want to know what you think about our services. " +
			"Your honest feedback helps us improve and shows potential clients that we're trustworthy.\n\n" +
			"**Are we legit?** Vote below! 👇",
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "✅ Yes - We're Legit!", Value: fmt.Sprintf("%s **%d** votes (%d%%)", progressBar(yesPct, 20), yes, yesPct)},
			{Name: "❌ No - Not Legit", Value: fmt.Sprintf("%s **%d** votes (%d%%)", progressBar(noPct, 20), no, noPct)},
			{Name: "📊 Total Votes", Value: fmt.Sprintf("**%d** community members have voted", total)},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: guildName + " • Your vote matters!"},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func progressBar(percentage, length int) string {
	filled := percentage * length / 100
	if filled > length {
		filled = length
	}
	return "`" + strings.Repeat("█", filled) + strings.Repeat("░", length-filled) + "`"
}

func handleSetupLegit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferEphemeral(s, i)

	opts := optionMap(i)
	channelID := opts["channel"].ChannelValue(s).ID

	guildName := i.GuildID
	if g, err := s.State.Guild(i.GuildID); err == nil {
		guildName = g.Name
	}

	total, yes, no, err := Store.LegitVoteStats(i.GuildID)
	if err != nil {
		editDeferred(s, i, "❌ Could not load the vote stats.")
		return
	}

	msg, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{legitEmbed(guildName, total, yes, no)},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{CustomID: "legit_vote_yes", Label: "Yes, Legit!", Style: discordgo.SuccessButton, Emoji: parseComponentEmoji("✅")},
					discordgo.Button{CustomID: "legit_vote_no", Label: "No, Not Legit", Style: discordgo.DangerButton, Emoji: parseComponentEmoji("❌")},
				},
			},
		},
	})
	if err != nil {
		editDeferred(s, i, fmt.Sprintf("❌ Failed to post the poll: %v", err))
		return
	}

	err = Store.SaveLegitConfig(&storage.LegitConfig{
		GuildID:   i.GuildID,
		ChannelID: channelID,
		MessageID: msg.ID,
	})
	if err != nil {
		log.Printf("[LEGIT] save config: %v", err)
	}

	editDeferred(s, i, fmt.Sprintf("✅ Legit verification poll posted in <#%s>.", channelID))
}

func handleLegitVote(s *discordgo.Session, i *discordgo.InteractionCreate, vote string) {
	deferEphemeral(s, i)

	user := i.Member.User
	err := Store.SaveLegitVote(&storage.LegitVote{
		GuildID:    i.GuildID,
		UserID:     user.ID,
		Username:   user.Username,
		UserAvatar: user.AvatarURL("128"),
		Vote:       vote,
	})
	if err != nil {
		editDeferred(s, i, "❌ Failed to save your vote. Please try again!")
		return
	}
	log.Printf("[LEGIT] %s voted %s", user.Username, vote)

	// Refresh the poll tally in the background, the vote is already in.
	go refreshLegitMessage(s, i.GuildID)

	voteText := "Yes, Legit! ✅"
	if vote == "no" {
		voteText = "No, Not Legit ❌"
	}
	editDeferred(s, i, fmt.Sprintf(
		"**Your vote has been recorded!**\n\nYou voted: **%s**\n\n*You can change your vote anytime by clicking a different button.*",
		voteText,
	))
}

func refreshLegitMessage(s *discordgo.Session, guildID string) {
	cfg, err := Store.LegitConfigFor(guildID)
	if err != nil {
		return
	}
	total, yes, no, err := Store.LegitVoteStats(guildID)
	if err != nil {
		log.Printf("[LEGIT] load stats: %v", err)
		return
	}

	guildName := guildID
	if g, err := s.State.Guild(guildID); err == nil {
		guildName = g.Name
	}

	embed := legitEmbed(guildName, total, yes, no)
	_, err = s.ChannelMessageEditEmbed(cfg.ChannelID, cfg.MessageID, embed)
	if err != nil {
		log.Printf("[LEGIT] update poll message: %v", err)
	}
}

func handleLegitVotes(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferEphemeral(s, i)
	renderLegitVotesPage(s, i, 0)
}

// legit_page_<n>
func handleLegitPage(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	deferUpdate(s, i)

	page, err := strconv.Atoi(strings.TrimPrefix(customID, "legit_page_"))
	if err != nil {
		return
	}
	renderLegitVotesPage(s, i, page)
}

func renderLegitVotesPage(s *discordgo.Session, i *discordgo.InteractionCreate, page int) {
	votes, err := Store.LegitVotes(i.GuildID)
	if err != nil {
		editDeferred(s, i, "❌ An error occurred while loading votes.")
		return
	}
	if len(votes) == 0 {
		editDeferred(s, i, "📊 No votes have been cast yet!")
		return
	}

	totalPages := (len(votes) + legitVotesPerPage - 1) / legitVotesPerPage
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}
	start := page * legitVotesPerPage
	end := start + legitVotesPerPage
	if end > len(votes) {
		end = len(votes)
	}
	pageVotes := votes[start:end]

	var yesList, noList []storage.LegitVote
	for _, v := range pageVotes {
		if v.Vote == "yes" {
			yesList = append(yesList, v)
		} else {
			noList = append(noList, v)
		}
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "**All votes from community members**\n\nShowing %d-%d of %d votes\n\n", start+1, end, len(votes))
	if len(yesList) > 0 {
		fmt.Fprintf(&desc, "**✅ Yes Votes (%d)**\n", len(yesList))
		for _, v := range yesList {
			fmt.Fprintf(&desc, "<@%s> **%s**\n", v.UserID, v.Username)
		}
		desc.WriteString("\n")
	}
	if len(noList) > 0 {
		fmt.Fprintf(&desc, "**❌ No Votes (%d)**\n", len(noList))
		for _, v := range noList {
			fmt.Fprintf(&desc, "<@%s> **%s**\n", v.UserID, v.Username)
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       "📊 Vote Preview",
		Description: desc.String(),
		Color:       0x5865F2,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d of %d", page+1, totalPages)},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if pageVotes[0].UserAvatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: pageVotes[0].UserAvatar}
	}

	var components []discordgo.MessageComponent
	if totalPages > 1 {
		prev, next := page-1, page+1
		if prev < 0 {
			prev = 0
		}
		if next > totalPages-1 {
			next = totalPages - 1
		}
		components = append(components, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{CustomID: fmt.Sprintf("legit_page_%d", prev), Label: "◀️ Previous", Style: discordgo.SecondaryButton, Disabled: page == 0},
				discordgo.Button{CustomID: fmt.Sprintf("legit_page_%d_cur", page), Label: fmt.Sprintf("Page %d/%d", page+1, totalPages), Style: discordgo.PrimaryButton, Disabled: true},
				discordgo.Button{CustomID: fmt.Sprintf("legit_page_%d", next), Label: "Next ▶️", Style: discordgo.SecondaryButton, Disabled: page == totalPages-1},
			},
		})
	}

	embeds := []*discordgo.MessageEmbed{embed}
	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds:     &embeds,
		Components: &components,
	})
	if err != nil {
		log.Printf("[LEGIT] render votes page: %v", err)
	}
}

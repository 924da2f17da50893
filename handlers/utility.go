package handlers

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

func utilityCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "ping",
			Description: "Check the bot's latency",
		},
		{
			Name:        "userinfo",
			Description: "Show information about a user",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User to inspect (defaults to you)"},
			},
		},
		{
			Name:                     "del-db",
			Description:              "Delete ALL bot data for every guild",
			DefaultMemberPermissions: &adminPerm,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "confirm", Description: "Type DELETE to confirm", Required: true},
			},
		},
	}
}

func handlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	latency := s.HeartbeatLatency().Round(time.Millisecond)
	respond(s, i, fmt.Sprintf("🏓 Pong! Gateway latency: **%s**", latency), true)
}

func handleUserinfo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	user := i.Member.User
	if u, ok := opts["user"]; ok {
		user = u.UserValue(s)
	}

	member, err := s.GuildMember(i.GuildID, user.ID)
	if err != nil {
		respond(s, i, "❌ Could not fetch that member.", true)
		return
	}

	created, _ := discordgo.SnowflakeTimestamp(user.ID)

	roles := make([]string, 0, len(member.Roles))
	for _, id := range member.Roles {
		roles = append(roles, "<@&"+id+">")
	}
	roleText := "None"
	if len(roles) > 0 {
		roleText = strings.Join(roles, " ")
	}

	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("👤 %s", user.Username),
		Color:     0x5865F2,
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("256")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "ID", Value: user.ID, Inline: true},
			{Name: "Account Created", Value: fmt.Sprintf("<t:%d:R>", created.Unix()), Inline: true},
			{Name: "Joined Server", Value: fmt.Sprintf("<t:%d:R>", member.JoinedAt.Unix()), Inline: true},
			{Name: fmt.Sprintf("Roles (%d)", len(roles)), Value: roleText},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	respondEmbed(s, i, embed, true)
}

func handleDelDB(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !isAdmin(i) {
		respond(s, i, "❌ Administrator permission required.", true)
		return
	}
	opts := optionMap(i)
	if opts["confirm"].StringValue() != "DELETE" {
		respond(s, i, "⚠️ Aborted. Pass `confirm: DELETE` to wipe the database.", true)
		return
	}

	deferEphemeral(s, i)

	counts, err := Store.ResetAll()
	if err != nil {
		log.Printf("[DB] reset: %v", err)
		editDeferred(s, i, fmt.Sprintf("❌ Database reset failed: %v", err))
		return
	}
	log.Printf("[DB] full reset by %s", i.Member.User.Username)

	tables := make([]string, 0, len(counts))
	for t := range counts {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	var sb strings.Builder
	sb.WriteString("🗑️ **Database wiped.** Rows removed:\n")
	var total int64
	for _, t := range tables {
		fmt.Fprintf(&sb, "• `%s`: %d\n", t, counts[t])
		total += counts[t]
	}
	fmt.Fprintf(&sb, "\n**Total:** %d rows", total)
	editDeferred(s, i, sb.String())
}

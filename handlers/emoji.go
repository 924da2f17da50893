package handlers

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Discord rejects emoji images above 256 KiB; a 128px PNG stays well
// under that.
const emojiSize = 128

func emojiCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "my-emoji",
			Description: "Turn your avatar into a server emoji",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type: discordgo.ApplicationCommandOptionString, Name: "style",
					Description: "Shape of the emoji", Required: true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Circle", Value: "circle"},
						{Name: "Square", Value: "square"},
					},
				},
				{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Emoji name (defaults to your username)"},
			},
		},
	}
}

func handleMyEmoji(s *discordgo.Session, i *discordgo.InteractionCreate) {
	deferEphemeral(s, i)

	user := i.Member.User
	opts := optionMap(i)
	style := opts["style"].StringValue()
	name := sanitizeEmojiName(optStr(opts, "name", user.Username))

	if free, limit := emojiSlotsFree(s, i.GuildID); free <= 0 {
		editDeferred(s, i, fmt.Sprintf("❌ This server has used all %d of its emoji slots.", limit))
		return
	}

	img, err := fetchAvatar(user.AvatarURL("128"))
	if err != nil {
		log.Printf("[EMOJI] fetch avatar for %s: %v", user.Username, err)
		editDeferred(s, i, "❌ Could not download your avatar. Please try again later.")
		return
	}

	out := scaleSquare(img, emojiSize)
	if style == "circle" {
		out = circleCrop(out)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		editDeferred(s, i, "❌ Failed to process your avatar.")
		return
	}
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	emoji, err := s.GuildEmojiCreate(i.GuildID, &discordgo.EmojiParams{
		Name:  name,
		Image: dataURI,
	})
	if err != nil {
		log.Printf("[EMOJI] create %q in %s: %v", name, i.GuildID, err)
		editDeferred(s, i, "❌ Could not create the emoji. The server may be out of emoji slots, or I lack the Manage Emojis permission.")
		return
	}
	log.Printf("[EMOJI] %s created :%s:", user.Username, emoji.Name)

	editDeferred(s, i, fmt.Sprintf("✅ Your avatar is now an emoji: <:%s:%s> `:%s:`", emoji.Name, emoji.ID, emoji.Name))
}

// emojiSlotsFree counts static emoji slots left. The limit scales with
// the guild's boost tier. A failed lookup reports slots as available
// and lets the create call surface the real error.
func emojiSlotsFree(s *discordgo.Session, guildID string) (free, limit int) {
	g, err := s.State.Guild(guildID)
	if err != nil {
		g, err = s.Guild(guildID)
		if err != nil {
			return 1, 0
		}
	}

	limit = 50
	switch g.PremiumTier {
	case discordgo.PremiumTier1:
		limit = 100
	case discordgo.PremiumTier2:
		limit = 150
	case discordgo.PremiumTier3:
		limit = 250
	}

	static := 0
	for _, e := range g.Emojis {
		if !e.Animated {
			static++
		}
	}
	return limit - static, limit
}

// sanitizeEmojiName keeps the 2-32 chars of [a-zA-Z0-9_] Discord allows.
func sanitizeEmojiName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 32 {
		out = out[:32]
	}
	if len(out) < 2 {
		out = "my_emoji"
	}
	return out
}

func fetchAvatar(url string) (image.Image, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("avatar fetch: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	return img, err
}

// scaleSquare resizes to size x size with nearest-neighbour sampling.
// Avatars are already square so no aspect handling is needed.
func scaleSquare(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	b := src.Bounds()
	for y := 0; y < size; y++ {
		sy := b.Min.Y + y*b.Dy()/size
		for x := 0; x < size; x++ {
			sx := b.Min.X + x*b.Dx()/size
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

// circleMask is an alpha mask for draw.DrawMask, opaque inside the
// inscribed circle.
type circleMask struct {
	r image.Rectangle
}

func (c circleMask) ColorModel() color.Model { return color.AlphaModel }
func (c circleMask) Bounds() image.Rectangle { return c.r }

func (c circleMask) At(x, y int) color.Color {
	cx := float64(c.r.Min.X+c.r.Max.X) / 2
	cy := float64(c.r.Min.Y+c.r.Max.Y) / 2
	radius := float64(c.r.Dx()) / 2
	dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
	if dx*dx+dy*dy <= radius*radius {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}

func circleCrop(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	draw.DrawMask(dst, dst.Bounds(), src, src.Bounds().Min, circleMask{r: src.Bounds()}, src.Bounds().Min, draw.Over)
	return dst
}

package tickets

import (
	"fmt"
	"strings"
	"time"

	"discord-ticket-bot/storage"
)

// Message is one channel message for the transcript, already fetched
// and sorted oldest first by the caller.
type Message struct {
	Timestamp   time.Time
	Author      string
	Content     string
	Attachments []Attachment
}

type Attachment struct {
	Name string
	URL  string
}

const transcriptBar = "═══════════════════════════════════════════════════════════════"

func transcriptHeading(title string) []string {
	return []string{transcriptBar, "                    " + title, transcriptBar}
}

// Transcript renders a ticket and its conversation as plain text. It is
// pure: same ticket and messages always produce the same output.
func Transcript(t *storage.Ticket, messages []Message) string {
	var lines []string

	lines = append(lines, transcriptHeading("TICKET TRANSCRIPT")...)
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("Ticket Number: #%d", t.TicketNumber))
	lines = append(lines, fmt.Sprintf("Category: %s", t.Category))
	lines = append(lines, fmt.Sprintf("Status: %s", t.Status))
	lines = append(lines, fmt.Sprintf("Created By: %s (%s)", t.Username, t.UserID))
	lines = append(lines, fmt.Sprintf("Created At: %s", t.CreatedAt.Format(time.RFC1123)))

	if t.ClaimedBy != "" {
		lines = append(lines, fmt.Sprintf("Claimed By: %s", t.ClaimedBy))
	}
	if t.ClosedAt != nil {
		lines = append(lines, fmt.Sprintf("Closed At: %s", t.ClosedAt.Format(time.RFC1123)))
		lines = append(lines, fmt.Sprintf("Closed By: %s", t.ClosedBy))
	}

	lines = append(lines, "")
	lines = append(lines, transcriptHeading("CONVERSATION HISTORY")...)
	lines = append(lines, "")

	for _, msg := range messages {
		content := msg.Content
		if content == "" {
			content = "[No text content]"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s:", msg.Timestamp.Format(time.RFC1123), msg.Author))
		lines = append(lines, content)
		if len(msg.Attachments) > 0 {
			lines = append(lines, "  Attachments:")
			for _, att := range msg.Attachments {
				lines = append(lines, fmt.Sprintf("    - %s (%s)", att.Name, att.URL))
			}
		}
		lines = append(lines, "")
	}

	lines = append(lines, transcriptHeading("END OF TRANSCRIPT")...)

	return strings.Join(lines, "\n")
}

// TranscriptFilename is the attachment name for a ticket's transcript.
func TranscriptFilename(t *storage.Ticket) string {
	return fmt.Sprintf("ticket-%d-transcript.txt", t.TicketNumber)
}

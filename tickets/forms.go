package tickets

import (
	"fmt"
	"strings"
)

// Custom IDs dispatched by the interaction handlers. Rating and edit
// buttons carry question and ticket ID suffixes, see feedbackRatingID.
const (
	CustomIDCategorySelect = "ticket_category_select"
	CustomIDViewMyTickets  = "view_my_tickets"
	CustomIDClaim          = "ticket_claim"
	CustomIDUnclaim        = "ticket_unclaim"
	CustomIDClose          = "ticket_close"
)

var questionTitles = [3]string{
	"How would you rate the response time?",
	"How helpful was the support staff?",
	"How satisfied are you with the solution?",
}

var questionNames = [3]string{"Response Time", "Staff Helpfulness", "Solution Satisfaction"}

func feedbackRatingID(question, rating int, ticketID int64) string {
	return fmt.Sprintf("feedback_q%d_%d_%d", question, rating, ticketID)
}

func feedbackEditID(question int, ticketID int64) string {
	return fmt.Sprintf("feedback_edit_q%d_%d", question, ticketID)
}

func FeedbackSubmitID(ticketID int64) string { return fmt.Sprintf("feedback_submit_%d", ticketID) }
func FeedbackSkipID(ticketID int64) string   { return fmt.Sprintf("feedback_skip_%d", ticketID) }

// StarDisplay renders a rating as filled and empty star runes, the way
// review embeds show it.
func StarDisplay(rating int) string {
	if rating <= 0 {
		return "⚫⚫⚫⚫⚫ (Not rated)"
	}
	if rating > 5 {
		rating = 5
	}
	return fmt.Sprintf("%s%s (%d/5)", strings.Repeat("⭐", rating), strings.Repeat("⚫", 5-rating), rating)
}

// CategoryPanel is the persistent creation surface posted by the setup
// command: a banner, the category select and a "my tickets" shortcut.
func CategoryPanel() Panel {
	options := make([]SelectOption, 0, len(categories)+1)
	for _, c := range categories {
		options = append(options, SelectOption{
			Label:       c.Name,
			Value:       c.ID,
			Description: c.Description,
			Emoji:       c.Emoji,
		})
	}
	options = append(options, SelectOption{
		Label:       "Cancel",
		Value:       CancelCategory,
		Description: "Close this menu without creating a ticket",
		Emoji:       "❌",
	})

	return Panel{Elements: []Element{
		text("# 🎫 Support Tickets"),
		text("Need help? Pick a category below and we'll open a private channel for you."),
		selectRow(SelectMenu{
			ID:          CustomIDCategorySelect,
			Placeholder: "Select a ticket category...",
			Options:     options,
		}),
		row(Button{
			ID:    CustomIDViewMyTickets,
			Label: "View My Tickets",
			Emoji: "📂",
			Style: StyleSecondary,
		}),
	}}
}

func claimButton() Button {
	return Button{ID: CustomIDClaim, Label: "Claim Ticket", Emoji: "🎯", Style: StylePrimary}
}

func unclaimButton() Button {
	return Button{ID: CustomIDUnclaim, Label: "Unclaim Ticket", Emoji: "🔓", Style: StyleSecondary}
}

// TicketPanel is the initial in-channel surface of a freshly created
// ticket. Claim and close drive the lifecycle from here.
func TicketPanel(cat Category, requesterID string, number int, enableClaim bool) Panel {
	buttons := []Button{}
	if enableClaim {
		buttons = append(buttons, claimButton())
	}
	buttons = append(buttons, Button{
		ID:    CustomIDClose,
		Label: "Close Ticket",
		Emoji: "🔒",
		Style: StyleDanger,
	})

	return Panel{Elements: []Element{
		text(fmt.Sprintf("# %s Ticket #%04d", cat.Emoji, number)),
		text(fmt.Sprintf("**Category:** %s\n**Opened by:** <@%s>\n\nDescribe your issue and the support team will be with you shortly.", cat.Name, requesterID)),
		row(buttons...),
	}}
}

// ClaimedPanel patches the creation-time panel so only the claim button
// changes, everything else stays byte-identical.
func ClaimedPanel(cat Category, requesterID string, number int) Panel {
	return TicketPanel(cat, requesterID, number, true).WithButton(CustomIDClaim, unclaimButton())
}

func UnclaimedPanel(cat Category, requesterID string, number int) Panel {
	return TicketPanel(cat, requesterID, number, true).WithButton(CustomIDUnclaim, claimButton())
}

// FeedbackForm renders the 3-question close form for the current
// session state. Answering a question turns its rating row green and
// disabled and swaps the placeholder for an edit button; clearing the
// answer re-enables the row.
func FeedbackForm(ticketID int64, number int, sess FeedbackSession) Panel {
	elements := []Element{
		text("# 🎫 Ticket Feedback"),
		text(fmt.Sprintf("**Ticket #%d** is being closed. Please rate your experience:\n\nThank you for using our support system! We'd love to hear about your experience.", number)),
	}

	// Messages carry at most five button rows: three rating rows, one
	// edit row and the submit row.
	editRow := make([]Button, 0, 3)
	for q := 1; q <= 3; q++ {
		answered := sess.Rating(q)

		elements = append(elements, text(fmt.Sprintf("## ❓ Question %d: %s", q, questionTitles[q-1])))

		stars := make([]Button, 0, 5)
		for r := 1; r <= 5; r++ {
			style := StyleSecondary
			if answered == r {
				style = StyleSuccess
			}
			stars = append(stars, Button{
				ID:       feedbackRatingID(q, r, ticketID),
				Label:    fmt.Sprintf("%d⭐", r),
				Style:    style,
				Disabled: answered > 0 && answered != r,
			})
		}
		elements = append(elements, row(stars...))

		if answered > 0 {
			editRow = append(editRow, Button{
				ID:    feedbackEditID(q, ticketID),
				Label: fmt.Sprintf("Edit Q%d", q),
				Emoji: "✏️",
				Style: StyleSecondary,
			})
		} else {
			editRow = append(editRow, Button{
				ID:       fmt.Sprintf("placeholder_q%d", q),
				Label:    fmt.Sprintf("Q%d: rate above", q),
				Style:    StyleSecondary,
				Disabled: true,
			})
		}
	}

	elements = append(elements,
		text("*Your feedback helps us improve our support service!*"),
		row(editRow...),
		row(
			Button{ID: FeedbackSkipID(ticketID), Label: "Skip Feedback", Emoji: "⏭️", Style: StyleSecondary},
			Button{ID: FeedbackSubmitID(ticketID), Label: "Submit & Close", Emoji: "✅", Style: StyleSuccess},
		),
	)

	return Panel{Elements: elements}
}

// FeedbackSummary is the static panel that replaces the form once the
// ratings are committed.
func FeedbackSummary(sess FeedbackSession) Panel {
	var b strings.Builder
	for q := 1; q <= 3; q++ {
		fmt.Fprintf(&b, "**%s:** %s\n", questionNames[q-1], StarDisplay(sess.Rating(q)))
	}
	fmt.Fprintf(&b, "\n**Average Rating:** %.1f⭐ out of 5.0", sess.Average())

	return Panel{Elements: []Element{
		text("# ✅ Feedback Submitted Successfully!"),
		text("Thank you for taking the time to rate your support experience!"),
		text("## ⭐ Your Ratings"),
		text(b.String()),
		text("*Your feedback helps us improve our support service. This ticket will be closed shortly.*"),
	}}
}

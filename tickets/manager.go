package tickets

import (
	"errors"
	"fmt"
	"log"
	"time"

	"discord-ticket-bot/storage"
)

// User is the minimal identity the lifecycle needs about an actor.
type User struct {
	ID       string
	Username string
}

// Member is a guild member invoking an operation, with just enough
// authority information to check preconditions.
type Member struct {
	User           User
	Roles          []string
	ManageChannels bool
}

func (m Member) HasRole(roleID string) bool {
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// Review is the feedback summary posted to the review channel after a
// submit-close.
type Review struct {
	Ticket     *storage.Ticket
	Q1, Q2, Q3 int
	Average    float64
	Color      int
	ClosedBy   User
}

// Review embed colors by rating band.
const (
	ColorGood    = 0x57F287
	ColorAverage = 0xFEE75C
	ColorPoor    = 0xED4245
)

func ReviewColor(average float64) int {
	switch {
	case average >= 4:
		return ColorGood
	case average >= 3:
		return ColorAverage
	default:
		return ColorPoor
	}
}

// Platform is the chat surface the lifecycle drives. The discordgo
// adapter lives in the handlers package; tests use a fake.
type Platform interface {
	CreateTicketChannel(guildID, parentID, name, requesterID, supportRoleID string) (channelID string, err error)
	DeleteChannel(channelID string) error
	SendMessage(channelID, content string) error
	SendPanel(channelID string, p Panel) (messageID string, err error)
	UpdatePanel(channelID, messageID string, p Panel) error
	SendFile(channelID, content, filename string, data []byte) error
	PostReview(channelID string, r Review) error
	FetchHistory(channelID string) ([]Message, error)
}

// Manager enforces the ticket state machine: open, claimed and closed,
// with closed terminal. It is the sole writer of ticket rows.
type Manager struct {
	store    storage.Store
	platform Platform
	sessions *SessionStore

	submitDelay time.Duration
	skipDelay   time.Duration

	now func() time.Time
}

func NewManager(store storage.Store, platform Platform, submitDelay, skipDelay time.Duration) *Manager {
	return &Manager{
		store:       store,
		platform:    platform,
		sessions:    NewSessionStore(),
		submitDelay: submitDelay,
		skipDelay:   skipDelay,
		now:         time.Now,
	}
}

func (m *Manager) config(guildID string) (*storage.TicketConfig, error) {
	cfg, err := m.store.TicketConfigFor(guildID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotConfigured
	}
	return cfg, err
}

func (m *Manager) ticket(channelID string) (*storage.Ticket, error) {
	t, err := m.store.TicketByChannel(channelID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrTicketNotFound
	}
	return t, err
}

// Create provisions a ticket: a private channel for the requester and
// the support role, the in-channel panel, and the persisted row. The
// cancel pseudo-category aborts with no side effects at all.
func (m *Manager) Create(guildID string, requester User, categoryID string) (*storage.Ticket, error) {
	cfg, err := m.config(guildID)
	if err != nil {
		return nil, err
	}
	if categoryID == CancelCategory {
		return nil, ErrCanceled
	}
	cat, ok := CategoryByID(categoryID)
	if !ok {
		return nil, ErrUnknownCategory
	}

	number, err := m.store.NextTicketNumber(guildID)
	if err != nil {
		return nil, fmt.Errorf("assign ticket number: %w", err)
	}

	channelID, err := m.platform.CreateTicketChannel(
		guildID, cfg.CategoryID, fmt.Sprintf("ticket-%04d", number),
		requester.ID, cfg.SupportRoleID,
	)
	if err != nil {
		return nil, fmt.Errorf("create ticket channel: %w", err)
	}

	panelID, err := m.platform.SendPanel(channelID, TicketPanel(cat, requester.ID, number, cfg.EnableClaim))
	if err != nil {
		return nil, fmt.Errorf("send ticket panel: %w", err)
	}

	t := &storage.Ticket{
		TicketNumber:   number,
		GuildID:        guildID,
		ChannelID:      channelID,
		UserID:         requester.ID,
		Username:       requester.Username,
		Category:       cat.ID,
		Status:         storage.TicketStatusOpen,
		PanelMessageID: panelID,
		CreatedAt:      m.now(),
	}
	if err := m.store.CreateTicket(t); err != nil {
		return nil, fmt.Errorf("persist ticket: %w", err)
	}

	if err := m.store.SavePanelMessage(t.ID, panelID); err != nil {
		log.Printf("[TICKET] save panel message for #%d: %v", number, err)
	}
	m.log(t.ID, requester.ID, "created", fmt.Sprintf("Ticket created in category %s", cat.ID))

	log.Printf("[TICKET] #%d created by %s in guild %s", number, requester.Username, guildID)
	return t, nil
}

// Claim assigns a staff member to an open ticket and flips the panel's
// claim button to unclaim. Re-claiming overwrites claimed_by; the panel
// hides the button once claimed so this stays a corner case.
func (m *Manager) Claim(channelID string, staff Member) (*storage.Ticket, error) {
	t, err := m.ticket(channelID)
	if err != nil {
		return nil, err
	}
	if t.Status == storage.TicketStatusClosed {
		return nil, ErrTicketClosed
	}
	cfg, err := m.config(t.GuildID)
	if err != nil {
		return nil, err
	}
	if !staff.HasRole(cfg.SupportRoleID) {
		return nil, ErrForbidden
	}

	t, err = m.store.SetClaimed(channelID, staff.User.ID)
	if err != nil {
		return nil, fmt.Errorf("claim ticket: %w", err)
	}
	m.log(t.ID, staff.User.ID, "claimed", "Ticket claimed")

	m.notify(t.ChannelID, fmt.Sprintf("## 🎯 Ticket Claimed\n<@%s> has claimed this ticket and will assist you.", staff.User.ID))
	m.patchPanel(t, ClaimedPanel(m.category(t), t.UserID, t.TicketNumber))

	log.Printf("[TICKET] #%d claimed by %s", t.TicketNumber, staff.User.Username)
	return t, nil
}

// Unclaim releases a claimed ticket back to open. Only the staff member
// who claimed it may release it.
func (m *Manager) Unclaim(channelID string, staff Member) (*storage.Ticket, error) {
	t, err := m.ticket(channelID)
	if err != nil {
		return nil, err
	}
	if t.Status == storage.TicketStatusClosed {
		return nil, ErrTicketClosed
	}
	if t.ClaimedBy != staff.User.ID {
		return nil, ErrForbidden
	}

	t, err = m.store.SetUnclaimed(channelID)
	if err != nil {
		return nil, fmt.Errorf("unclaim ticket: %w", err)
	}
	m.log(t.ID, staff.User.ID, "unclaimed", "Ticket unclaimed")

	m.notify(t.ChannelID, fmt.Sprintf("## 🔓 Ticket Unclaimed\n<@%s> has unclaimed this ticket. It's now available for other staff members.", staff.User.ID))
	m.patchPanel(t, UnclaimedPanel(m.category(t), t.UserID, t.TicketNumber))

	log.Printf("[TICKET] #%d unclaimed by %s", t.TicketNumber, staff.User.Username)
	return t, nil
}

// InitiateClose starts the close flow: it opens (or resumes) the
// feedback session and returns the rating form for the caller to
// render. Only the requester or a member with manage-channels may
// close.
func (m *Manager) InitiateClose(channelID string, caller Member) (*storage.Ticket, Panel, error) {
	t, err := m.ticket(channelID)
	if err != nil {
		return nil, Panel{}, err
	}
	if t.Status == storage.TicketStatusClosed {
		return nil, Panel{}, ErrTicketClosed
	}
	if caller.User.ID != t.UserID && !caller.ManageChannels {
		return nil, Panel{}, ErrForbidden
	}

	sess := m.sessions.Get(t.ID)
	return t, FeedbackForm(t.ID, t.TicketNumber, sess), nil
}

// Rate records one star rating and returns the re-rendered form.
func (m *Manager) Rate(ticketID int64, question, rating int) (Panel, error) {
	if question < 1 || question > 3 || rating < 1 || rating > 5 {
		return Panel{}, fmt.Errorf("tickets: rating out of range (q%d=%d)", question, rating)
	}
	t, err := m.store.TicketByID(ticketID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Panel{}, ErrTicketNotFound
		}
		return Panel{}, err
	}
	sess := m.sessions.SetRating(ticketID, question, rating)
	return FeedbackForm(ticketID, t.TicketNumber, sess), nil
}

// EditAnswer clears a single question back to unanswered so its rating
// buttons re-enable. The other answers keep their values.
func (m *Manager) EditAnswer(ticketID int64, question int) (Panel, error) {
	t, err := m.store.TicketByID(ticketID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Panel{}, ErrTicketNotFound
		}
		return Panel{}, err
	}
	sess := m.sessions.ClearRating(ticketID, question)
	return FeedbackForm(ticketID, t.TicketNumber, sess), nil
}

// Submit commits the feedback and closes the ticket. At least one
// question must be answered; the average counts answered questions
// only. Auxiliary deliveries (transcript, review) are best-effort and
// never block closure.
func (m *Manager) Submit(channelID string, finalizer User) (*storage.Ticket, FeedbackSession, error) {
	t, err := m.ticket(channelID)
	if err != nil {
		return nil, FeedbackSession{}, err
	}
	if t.Status == storage.TicketStatusClosed {
		return nil, FeedbackSession{}, ErrTicketClosed
	}

	sess := m.sessions.Get(t.ID)
	if !sess.Answered() {
		return nil, sess, ErrNoRatings
	}
	avg := sess.Average()

	m.log(t.ID, finalizer.ID, "feedback_submitted", fmt.Sprintf(
		"Response Time: %d⭐, Staff Helpfulness: %d⭐, Solution Satisfaction: %d⭐, Average: %.1f⭐",
		sess.Q1, sess.Q2, sess.Q3, avg,
	))

	closed, err := m.store.CloseTicket(channelID, finalizer.ID, m.now())
	if err != nil {
		return nil, sess, fmt.Errorf("close ticket: %w", err)
	}
	m.sessions.Delete(t.ID)

	m.notify(closed.ChannelID, fmt.Sprintf(
		"## ✅ Ticket Closed with Feedback\nThank you for your feedback! Closed by <@%s>.\n*This channel will be deleted in %d seconds...*",
		finalizer.ID, int(m.submitDelay.Seconds()),
	))
	m.deliverTranscript(closed)
	m.deliverReview(closed, sess, avg, finalizer)
	m.scheduleDeletion(closed, m.submitDelay)

	log.Printf("[TICKET] #%d closed with feedback by %s (avg %.1f)", closed.TicketNumber, finalizer.Username, avg)
	return closed, sess, nil
}

// Skip closes the ticket without feedback. Same closure sequence as
// Submit minus the review post, with a shorter deletion delay.
func (m *Manager) Skip(channelID string, finalizer User) (*storage.Ticket, error) {
	t, err := m.ticket(channelID)
	if err != nil {
		return nil, err
	}
	if t.Status == storage.TicketStatusClosed {
		return nil, ErrTicketClosed
	}

	m.log(t.ID, finalizer.ID, "feedback_skipped", "User chose to skip feedback")

	closed, err := m.store.CloseTicket(channelID, finalizer.ID, m.now())
	if err != nil {
		return nil, fmt.Errorf("close ticket: %w", err)
	}
	m.sessions.Delete(t.ID)

	m.notify(closed.ChannelID, fmt.Sprintf(
		"## 🔒 Ticket Closed\nThis ticket has been closed without feedback by <@%s>.\n*This channel will be deleted in %d seconds...*",
		finalizer.ID, int(m.skipDelay.Seconds()),
	))
	m.deliverTranscript(closed)
	m.scheduleDeletion(closed, m.skipDelay)

	log.Printf("[TICKET] #%d closed without feedback by %s", closed.TicketNumber, finalizer.Username)
	return closed, nil
}

// Tickets lists a user's tickets in the guild, newest first.
func (m *Manager) Tickets(guildID, userID string) ([]storage.Ticket, error) {
	return m.store.TicketsByUser(guildID, userID)
}

func (m *Manager) category(t *storage.Ticket) Category {
	if cat, ok := CategoryByID(t.Category); ok {
		return cat
	}
	return Category{ID: t.Category, Name: t.Category, Emoji: "🎫"}
}

func (m *Manager) log(ticketID int64, userID, action, details string) {
	err := m.store.AppendLog(&storage.TicketLog{
		TicketID: ticketID,
		UserID:   userID,
		Action:   action,
		Details:  details,
	})
	if err != nil {
		log.Printf("[TICKET] append %s log for ticket %d: %v", action, ticketID, err)
	}
}

func (m *Manager) notify(channelID, content string) {
	if err := m.platform.SendMessage(channelID, content); err != nil {
		log.Printf("[TICKET] send notice to %s: %v", channelID, err)
	}
}

func (m *Manager) patchPanel(t *storage.Ticket, p Panel) {
	if t.PanelMessageID == "" {
		return
	}
	if err := m.platform.UpdatePanel(t.ChannelID, t.PanelMessageID, p); err != nil {
		log.Printf("[TICKET] update panel for #%d: %v", t.TicketNumber, err)
	}
}

func (m *Manager) deliverTranscript(t *storage.Ticket) {
	cfg, err := m.config(t.GuildID)
	if err != nil || cfg.LogsChannelID == "" {
		return
	}
	messages, err := m.platform.FetchHistory(t.ChannelID)
	if err != nil {
		log.Printf("[TICKET] fetch history for #%d: %v", t.TicketNumber, err)
		return
	}
	err = m.platform.SendFile(
		cfg.LogsChannelID,
		fmt.Sprintf("📋 **Ticket Transcript** - Ticket #%d", t.TicketNumber),
		TranscriptFilename(t),
		[]byte(Transcript(t, messages)),
	)
	if err != nil {
		log.Printf("[TICKET] send transcript for #%d: %v", t.TicketNumber, err)
		return
	}
	log.Printf("[TICKET] transcript sent for ticket #%d", t.TicketNumber)
}

func (m *Manager) deliverReview(t *storage.Ticket, sess FeedbackSession, avg float64, closedBy User) {
	cfg, err := m.config(t.GuildID)
	if err != nil || cfg.ReviewChannelID == "" {
		return
	}
	err = m.platform.PostReview(cfg.ReviewChannelID, Review{
		Ticket:   t,
		Q1:       sess.Q1,
		Q2:       sess.Q2,
		Q3:       sess.Q3,
		Average:  avg,
		Color:    ReviewColor(avg),
		ClosedBy: closedBy,
	})
	if err != nil {
		log.Printf("[TICKET] post review for #%d: %v", t.TicketNumber, err)
	}
}

func (m *Manager) scheduleDeletion(t *storage.Ticket, delay time.Duration) {
	err := m.store.ScheduleDeletion(&storage.ScheduledDeletion{
		TicketID:  t.ID,
		ChannelID: t.ChannelID,
		FireAt:    m.now().Add(delay),
	})
	if err != nil {
		log.Printf("[TICKET] schedule deletion for #%d: %v", t.TicketNumber, err)
	}
}

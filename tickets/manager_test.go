package tickets

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"discord-ticket-bot/storage"
)

type sentFile struct {
	channelID string
	filename  string
	data      string
}

type fakePlatform struct {
	nextChannel int
	deleted     []string
	messages    map[string][]string
	panels      map[string]Panel
	files       []sentFile
	reviews     []Review
	history     map[string][]Message

	failCreateChannel bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		messages: make(map[string][]string),
		panels:   make(map[string]Panel),
		history:  make(map[string][]Message),
	}
}

func (p *fakePlatform) CreateTicketChannel(guildID, parentID, name, requesterID, supportRoleID string) (string, error) {
	if p.failCreateChannel {
		return "", errors.New("channel create refused")
	}
	p.nextChannel++
	return fmt.Sprintf("chan-%d", p.nextChannel), nil
}

func (p *fakePlatform) DeleteChannel(channelID string) error {
	p.deleted = append(p.deleted, channelID)
	return nil
}

func (p *fakePlatform) SendMessage(channelID, content string) error {
	p.messages[channelID] = append(p.messages[channelID], content)
	return nil
}

func (p *fakePlatform) SendPanel(channelID string, panel Panel) (string, error) {
	id := fmt.Sprintf("panel-%s", channelID)
	p.panels[channelID+"/"+id] = panel
	return id, nil
}

func (p *fakePlatform) UpdatePanel(channelID, messageID string, panel Panel) error {
	p.panels[channelID+"/"+messageID] = panel
	return nil
}

func (p *fakePlatform) SendFile(channelID, content, filename string, data []byte) error {
	p.files = append(p.files, sentFile{channelID: channelID, filename: filename, data: string(data)})
	return nil
}

func (p *fakePlatform) PostReview(channelID string, r Review) error {
	p.reviews = append(p.reviews, r)
	return nil
}

func (p *fakePlatform) FetchHistory(channelID string) ([]Message, error) {
	return p.history[channelID], nil
}

func testStore(t *testing.T) storage.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// In-memory sqlite is per connection, keep the pool at one.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	s, err := storage.NewGormStore(db)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func testManager(t *testing.T) (*Manager, storage.Store, *fakePlatform) {
	t.Helper()
	store := testStore(t)
	platform := newFakePlatform()
	m := NewManager(store, platform, 15*time.Second, 10*time.Second)
	return m, store, platform
}

func configureGuild(t *testing.T, store storage.Store, guildID string) *storage.TicketConfig {
	t.Helper()
	cfg := &storage.TicketConfig{
		GuildID:         guildID,
		CategoryID:      "cat-1",
		SupportRoleID:   "role-support",
		ReviewChannelID: "chan-reviews",
		LogsChannelID:   "chan-logs",
		EnableClaim:     true,
	}
	if err := store.SaveTicketConfig(cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return cfg
}

func staffMember(id string) Member {
	return Member{User: User{ID: id, Username: "staff-" + id}, Roles: []string{"role-support"}}
}

func TestCreateRequiresConfig(t *testing.T) {
	m, _, _ := testManager(t)

	_, err := m.Create("g1", User{ID: "u1"}, "general")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCreateCancelHasNoSideEffects(t *testing.T) {
	m, store, platform := testManager(t)
	configureGuild(t, store, "g1")

	_, err := m.Create("g1", User{ID: "u1"}, CancelCategory)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
	if platform.nextChannel != 0 {
		t.Fatalf("cancel created a channel")
	}
	if ts, _ := store.TicketsByUser("g1", "u1"); len(ts) != 0 {
		t.Fatalf("cancel persisted a ticket: %v", ts)
	}
	// The counter must not burn a number either.
	if n, err := store.NextTicketNumber("g1"); err != nil || n != 1 {
		t.Fatalf("counter advanced on cancel: n=%d err=%v", n, err)
	}
}

func TestCreateUnknownCategory(t *testing.T) {
	m, store, _ := testManager(t)
	configureGuild(t, store, "g1")

	_, err := m.Create("g1", User{ID: "u1"}, "nonsense")
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	m, store, _ := testManager(t)
	configureGuild(t, store, "g1")

	for want := 1; want <= 3; want++ {
		ticket, err := m.Create("g1", User{ID: "u1", Username: "alice"}, "general")
		if err != nil {
			t.Fatalf("create #%d: %v", want, err)
		}
		if ticket.TicketNumber != want {
			t.Fatalf("ticket number = %d, want %d", ticket.TicketNumber, want)
		}
		if ticket.Status != storage.TicketStatusOpen {
			t.Fatalf("new ticket status = %s", ticket.Status)
		}
	}
}

func TestClaimWithoutSupportRoleLeavesTicketUnchanged(t *testing.T) {
	m, store, _ := testManager(t)
	configureGuild(t, store, "g1")

	ticket, err := m.Create("g1", User{ID: "u1", Username: "alice"}, "general")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	intruder := Member{User: User{ID: "u2"}, Roles: []string{"role-member"}}
	if _, err := m.Claim(ticket.ChannelID, intruder); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	got, err := store.TicketByChannel(ticket.ChannelID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != storage.TicketStatusOpen || got.ClaimedBy != "" {
		t.Fatalf("forbidden claim mutated ticket: status=%s claimed_by=%q", got.Status, got.ClaimedBy)
	}
}

func TestClaimUnclaimCycle(t *testing.T) {
	m, store, platform := testManager(t)
	configureGuild(t, store, "g1")

	ticket, err := m.Create("g1", User{ID: "u1", Username: "alice"}, "general")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	claimed, err := m.Claim(ticket.ChannelID, staffMember("s1"))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Status != storage.TicketStatusClaimed || claimed.ClaimedBy != "s1" {
		t.Fatalf("after claim: status=%s claimed_by=%q", claimed.Status, claimed.ClaimedBy)
	}

	// Only the claimer can unclaim.
	if _, err := m.Unclaim(ticket.ChannelID, staffMember("s2")); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign unclaim, got %v", err)
	}

	open, err := m.Unclaim(ticket.ChannelID, staffMember("s1"))
	if err != nil {
		t.Fatalf("unclaim: %v", err)
	}
	if open.Status != storage.TicketStatusOpen || open.ClaimedBy != "" {
		t.Fatalf("after unclaim: status=%s claimed_by=%q", open.Status, open.ClaimedBy)
	}

	key := ticket.ChannelID + "/" + ticket.PanelMessageID
	panel := platform.panels[key]
	if btn, ok := panel.Button(CustomIDClaim); !ok || btn.Label != "Claim Ticket" {
		t.Fatalf("panel not restored to claim state: %+v", panel)
	}
}

func TestClaimPatchesOnlyTheClaimButton(t *testing.T) {
	m, store, platform := testManager(t)
	configureGuild(t, store, "g1")

	ticket, err := m.Create("g1", User{ID: "u1", Username: "alice"}, "general")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	key := ticket.ChannelID + "/" + ticket.PanelMessageID
	before := platform.panels[key]

	if _, err := m.Claim(ticket.ChannelID, staffMember("s1")); err != nil {
		t.Fatalf("claim: %v", err)
	}
	after := platform.panels[key]

	if len(before.Elements) != len(after.Elements) {
		t.Fatalf("element count changed: %d -> %d", len(before.Elements), len(after.Elements))
	}
	for i := range before.Elements {
		b, a := before.Elements[i], after.Elements[i]
		if len(b.Buttons) == 0 {
			if b.Text != a.Text {
				t.Fatalf("non-button element %d changed", i)
			}
			continue
		}
		for j := range b.Buttons {
			if b.Buttons[j].ID == CustomIDClaim {
				if a.Buttons[j].ID != CustomIDUnclaim {
					t.Fatalf("claim button not swapped: %+v", a.Buttons[j])
				}
				continue
			}
			if b.Buttons[j] != a.Buttons[j] {
				t.Fatalf("unrelated button %d.%d changed: %+v -> %+v", i, j, b.Buttons[j], a.Buttons[j])
			}
		}
	}
}

func TestSubmitRequiresAtLeastOneRating(t *testing.T) {
	m, store, _ := testManager(t)
	configureGuild(t, store, "g1")

	ticket, err := m.Create("g1", User{ID: "u1", Username: "alice"}, "general")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := m.InitiateClose(ticket.ChannelID, Member{User: User{ID: "u1"}}); err != nil {
		t.Fatalf("initiate close: %v", err)
	}

	_, _, err = m.Submit(ticket.ChannelID, User{ID: "u1"})
	if !errors.Is(err, ErrNoRatings) {
		t.Fatalf("expected ErrNoRatings, got %v", err)
	}

	// The form stays open: the ticket must still be open.
	got, _ := store.TicketByChannel(ticket.ChannelID)
	if got.Status != storage.TicketStatusOpen {
		t.Fatalf("empty submit closed the ticket: %s", got.Status)
	}
}

func TestInitiateClosePermissions(t *testing.T) {
	m, store, _ := testManager(t)
	configureGuild(t, store, "g1")

	ticket, err := m.Create("g1", User{ID: "u1", Username: "alice"}, "general")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, _, err := m.InitiateClose(ticket.ChannelID, Member{User: User{ID: "u2"}}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for stranger, got %v", err)
	}
	if _, _, err := m.InitiateClose(ticket.ChannelID, Member{User: User{ID: "u2"}, ManageChannels: true}); err != nil {
		t.Fatalf("manage-channels close refused: %v", err)
	}
}

func TestHappyPathSubmit(t *testing.T) {
	m, store, platform := testManager(t)
	configureGuild(t, store, "g1")

	ticket, err := m.Create("g1", User{ID: "u1", Username: "alice"}, "general")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	staff := staffMember("s1")
	if _, err := m.Claim(ticket.ChannelID, staff); err != nil {
		t.Fatalf("claim: %v", err)
	}

	platform.history[ticket.ChannelID] = []Message{
		{Timestamp: time.Now().Add(-2 * time.Minute), Author: "alice", Content: "it broke"},
		{Timestamp: time.Now().Add(-1 * time.Minute), Author: "staff-s1", Content: "fixed now"},
	}

	if _, _, err := m.InitiateClose(ticket.ChannelID, Member{User: staff.User, ManageChannels: true}); err != nil {
		t.Fatalf("initiate close: %v", err)
	}
	for q, r := range map[int]int{1: 5, 2: 4, 3: 5} {
		if _, err := m.Rate(ticket.ID, q, r); err != nil {
			t.Fatalf("rate q%d: %v", q, err)
		}
	}

	closed, sess, err := m.Submit(ticket.ChannelID, staff.User)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if closed.Status != storage.TicketStatusClosed || closed.ClosedBy != "s1" || closed.ClosedAt == nil {
		t.Fatalf("closure fields wrong: %+v", closed)
	}
	if avg := sess.Average(); avg < 4.66 || avg > 4.67 {
		t.Fatalf("average = %v, want 4.67", avg)
	}

	// Transcript delivered to the logs channel, in order.
	if len(platform.files) != 1 {
		t.Fatalf("transcript files = %d", len(platform.files))
	}
	f := platform.files[0]
	if f.channelID != "chan-logs" {
		t.Fatalf("transcript went to %s", f.channelID)
	}
	first := strings.Index(f.data, "it broke")
	second := strings.Index(f.data, "fixed now")
	if first < 0 || second < 0 || second < first {
		t.Fatalf("transcript out of order:\n%s", f.data)
	}

	// Review posted with the green band.
	if len(platform.reviews) != 1 {
		t.Fatalf("reviews = %d", len(platform.reviews))
	}
	if r := platform.reviews[0]; r.Color != ColorGood || r.Q1 != 5 || r.Q2 != 4 || r.Q3 != 5 {
		t.Fatalf("review = %+v", r)
	}

	// Deletion scheduled with the submit delay.
	due, err := store.DueDeletions(time.Now().Add(time.Minute))
	if err != nil || len(due) != 1 {
		t.Fatalf("deletions = %v err=%v", due, err)
	}
	if due[0].ChannelID != ticket.ChannelID {
		t.Fatalf("deletion targets %s", due[0].ChannelID)
	}

	// Closed is terminal.
	if _, err := m.Claim(ticket.ChannelID, staff); !errors.Is(err, ErrTicketClosed) {
		t.Fatalf("claim on closed = %v", err)
	}
	if _, _, err := m.InitiateClose(ticket.ChannelID, Member{User: staff.User, ManageChannels: true}); !errors.Is(err, ErrTicketClosed) {
		t.Fatalf("close on closed = %v", err)
	}
}

func TestSkipPath(t *testing.T) {
	m, store, platform := testManager(t)
	configureGuild(t, store, "g1")

	ticket, err := m.Create("g1", User{ID: "u1", Username: "alice"}, "billing")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := m.InitiateClose(ticket.ChannelID, Member{User: User{ID: "u1"}}); err != nil {
		t.Fatalf("initiate close: %v", err)
	}

	closed, err := m.Skip(ticket.ChannelID, User{ID: "u1", Username: "alice"})
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if closed.Status != storage.TicketStatusClosed {
		t.Fatalf("status = %s", closed.Status)
	}
	if len(platform.reviews) != 0 {
		t.Fatalf("skip posted a review")
	}

	logs, err := store.LogsFor(ticket.ID)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	var skipped bool
	for _, l := range logs {
		if l.Action == "feedback_submitted" {
			t.Fatalf("skip recorded a feedback_submitted log")
		}
		if l.Action == "feedback_skipped" {
			skipped = true
		}
	}
	if !skipped {
		t.Fatalf("no feedback_skipped log: %v", logs)
	}
}

func TestEditAnswerLastValueWins(t *testing.T) {
	m, store, _ := testManager(t)
	configureGuild(t, store, "g1")

	ticket, err := m.Create("g1", User{ID: "u1", Username: "alice"}, "general")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := m.InitiateClose(ticket.ChannelID, Member{User: User{ID: "u1"}}); err != nil {
		t.Fatalf("initiate close: %v", err)
	}

	if _, err := m.Rate(ticket.ID, 1, 3); err != nil {
		t.Fatalf("rate: %v", err)
	}
	panel, err := m.EditAnswer(ticket.ID, 1)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	// After edit the rating buttons are live again.
	if btn, ok := panel.Button(feedbackRatingID(1, 5, ticket.ID)); !ok || btn.Disabled {
		t.Fatalf("q1 buttons not re-enabled after edit: %+v", btn)
	}
	if _, err := m.Rate(ticket.ID, 1, 5); err != nil {
		t.Fatalf("re-rate: %v", err)
	}

	_, sess, err := m.Submit(ticket.ChannelID, User{ID: "u1"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sess.Q1 != 5 {
		t.Fatalf("q1 = %d, want 5 (last value wins)", sess.Q1)
	}
}

func TestReviewColorBands(t *testing.T) {
	cases := []struct {
		avg  float64
		want int
	}{
		{5, ColorGood},
		{4, ColorGood},
		{3.9, ColorAverage},
		{3, ColorAverage},
		{2.9, ColorPoor},
		{1, ColorPoor},
	}
	for _, c := range cases {
		if got := ReviewColor(c.avg); got != c.want {
			t.Errorf("ReviewColor(%v) = %#x, want %#x", c.avg, got, c.want)
		}
	}
}

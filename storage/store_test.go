package storage

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// A pooled second connection would see its own empty in-memory
	// database, so pin the pool to one connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	s, err := NewGormStore(db)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestTicketConfigUpsertKeepsOneRowPerGuild(t *testing.T) {
	s := testStore(t)

	if err := s.SaveTicketConfig(&TicketConfig{GuildID: "g1", CategoryID: "c1", SupportRoleID: "r1"}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.SaveTicketConfig(&TicketConfig{GuildID: "g1", CategoryID: "c2", SupportRoleID: "r2", EnableClaim: true}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	cfg, err := s.TicketConfigFor("g1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CategoryID != "c2" || cfg.SupportRoleID != "r2" || !cfg.EnableClaim {
		t.Fatalf("second save did not win: %+v", cfg)
	}

	var count int64
	if err := s.db.Model(&TicketConfig{}).Where("guild_id = ?", "g1").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("config rows = %d, want 1", count)
	}
}

func TestTicketConfigForMissingGuild(t *testing.T) {
	s := testStore(t)
	if _, err := s.TicketConfigFor("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNextTicketNumberMonotonic(t *testing.T) {
	s := testStore(t)

	for want := 1; want <= 5; want++ {
		n, err := s.NextTicketNumber("g1")
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if n != want {
			t.Fatalf("number = %d, want %d", n, want)
		}
	}

	// Counters are per guild.
	if n, _ := s.NextTicketNumber("g2"); n != 1 {
		t.Fatalf("g2 starts at %d", n)
	}
}

func TestNextTicketNumberConcurrent(t *testing.T) {
	s := testStore(t)

	const workers = 16
	var wg sync.WaitGroup
	seen := make(chan int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.NextTicketNumber("g1")
			if err != nil {
				t.Errorf("next: %v", err)
				return
			}
			seen <- n
		}()
	}
	wg.Wait()
	close(seen)

	got := make(map[int]bool)
	for n := range seen {
		if got[n] {
			t.Fatalf("duplicate ticket number %d", n)
		}
		got[n] = true
	}
}

func TestTicketLifecycleFields(t *testing.T) {
	s := testStore(t)

	tk := &Ticket{TicketNumber: 1, GuildID: "g1", ChannelID: "ch1", UserID: "u1", Username: "alice", Category: "general"}
	if err := s.CreateTicket(tk); err != nil {
		t.Fatalf("create: %v", err)
	}
	if tk.Status != TicketStatusOpen {
		t.Fatalf("default status = %s", tk.Status)
	}

	claimed, err := s.SetClaimed("ch1", "s1")
	if err != nil || claimed.Status != TicketStatusClaimed || claimed.ClaimedBy != "s1" {
		t.Fatalf("claim: %+v err=%v", claimed, err)
	}

	open, err := s.SetUnclaimed("ch1")
	if err != nil || open.Status != TicketStatusOpen || open.ClaimedBy != "" {
		t.Fatalf("unclaim: %+v err=%v", open, err)
	}

	at := time.Now()
	closed, err := s.CloseTicket("ch1", "s1", at)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != TicketStatusClosed || closed.ClosedBy != "s1" || closed.ClosedAt == nil {
		t.Fatalf("close fields: %+v", closed)
	}
}

func TestUpdateMissingTicket(t *testing.T) {
	s := testStore(t)
	if _, err := s.SetClaimed("missing", "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTicketsByUserNewestFirst(t *testing.T) {
	s := testStore(t)

	for i, ch := range []string{"ch1", "ch2", "ch3"} {
		err := s.CreateTicket(&Ticket{
			TicketNumber: i + 1, GuildID: "g1", ChannelID: ch,
			UserID: "u1", Category: "general",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("create %s: %v", ch, err)
		}
	}

	ts, err := s.TicketsByUser("g1", "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ts) != 3 || ts[0].ChannelID != "ch3" {
		t.Fatalf("order wrong: %+v", ts)
	}
}

func TestLogsAppendOnlyAndOrdered(t *testing.T) {
	s := testStore(t)

	for _, action := range []string{"created", "claimed", "feedback_submitted"} {
		if err := s.AppendLog(&TicketLog{TicketID: 1, UserID: "u1", Action: action}); err != nil {
			t.Fatalf("append %s: %v", action, err)
		}
	}

	logs, err := s.LogsFor(1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 3 || logs[0].Action != "created" || logs[2].Action != "feedback_submitted" {
		t.Fatalf("log order: %+v", logs)
	}
}

func TestDueDeletions(t *testing.T) {
	s := testStore(t)
	now := time.Now()

	if err := s.ScheduleDeletion(&ScheduledDeletion{TicketID: 1, ChannelID: "ch1", FireAt: now.Add(-time.Second)}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := s.ScheduleDeletion(&ScheduledDeletion{TicketID: 2, ChannelID: "ch2", FireAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	due, err := s.DueDeletions(now)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 1 || due[0].ChannelID != "ch1" {
		t.Fatalf("due = %+v", due)
	}

	if err := s.RemoveDeletion(due[0].ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if left, _ := s.DueDeletions(now); len(left) != 0 {
		t.Fatalf("deletion not removed: %+v", left)
	}
}

func TestLegitVoteUpsertAndStats(t *testing.T) {
	s := testStore(t)

	if err := s.SaveLegitVote(&LegitVote{GuildID: "g1", UserID: "u1", Username: "alice", Vote: "yes"}); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := s.SaveLegitVote(&LegitVote{GuildID: "g1", UserID: "u2", Username: "bob", Vote: "no"}); err != nil {
		t.Fatalf("vote: %v", err)
	}
	// Re-voting overwrites, never duplicates.
	if err := s.SaveLegitVote(&LegitVote{GuildID: "g1", UserID: "u1", Username: "alice", Vote: "no"}); err != nil {
		t.Fatalf("revote: %v", err)
	}

	total, yes, no, err := s.LegitVoteStats("g1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if total != 2 || yes != 0 || no != 2 {
		t.Fatalf("stats = total %d yes %d no %d", total, yes, no)
	}
}

func TestReactionRoleLookup(t *testing.T) {
	s := testStore(t)

	if err := s.SaveReactionRole(&ReactionRole{GuildID: "g1", ButtonID: "rr_red", RoleID: "role-red", RoleName: "Red", Category: "color"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveReactionRole(&ReactionRole{GuildID: "g1", ButtonID: "rr_blue", RoleID: "role-blue", RoleName: "Blue", Category: "color"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	r, err := s.ReactionRoleByButton("g1", "rr_red")
	if err != nil || r.RoleID != "role-red" {
		t.Fatalf("lookup: %+v err=%v", r, err)
	}

	all, err := s.ReactionRolesFor("g1")
	if err != nil || len(all) != 2 {
		t.Fatalf("list: %v err=%v", all, err)
	}

	if err := s.DeleteReactionRoles("g1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.ReactionRoleByButton("g1", "rr_red"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestResetAllWipesEverything(t *testing.T) {
	s := testStore(t)

	if err := s.SaveTicketConfig(&TicketConfig{GuildID: "g1", CategoryID: "c1", SupportRoleID: "r1"}); err != nil {
		t.Fatalf("config: %v", err)
	}
	if err := s.CreateTicket(&Ticket{TicketNumber: 1, GuildID: "g1", ChannelID: "ch1", UserID: "u1", Category: "general"}); err != nil {
		t.Fatalf("ticket: %v", err)
	}
	if err := s.AppendLog(&TicketLog{TicketID: 1, UserID: "u1", Action: "created"}); err != nil {
		t.Fatalf("log: %v", err)
	}

	counts, err := s.ResetAll()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if counts["tickets"] != 1 || counts["ticket_configs"] != 1 || counts["ticket_logs"] != 1 {
		t.Fatalf("counts = %v", counts)
	}

	if _, err := s.TicketConfigFor("g1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("config survived reset: %v", err)
	}
	if ts, _ := s.TicketsByUser("g1", "u1"); len(ts) != 0 {
		t.Fatalf("tickets survived reset: %+v", ts)
	}
}

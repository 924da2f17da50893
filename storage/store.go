package storage

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"discord-ticket-bot/config"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("storage: record not found")

// Store is the persistence gateway. Every method maps to record-level
// operations; failed calls surface as errors for the caller to report,
// never as crashes.
type Store interface {
	SaveTicketConfig(c *TicketConfig) error
	TicketConfigFor(guildID string) (*TicketConfig, error)

	NextTicketNumber(guildID string) (int, error)
	CreateTicket(t *Ticket) error
	TicketByChannel(channelID string) (*Ticket, error)
	TicketByID(id int64) (*Ticket, error)
	TicketsByUser(guildID, userID string) ([]Ticket, error)
	SetClaimed(channelID, staffID string) (*Ticket, error)
	SetUnclaimed(channelID string) (*Ticket, error)
	CloseTicket(channelID, closedBy string, at time.Time) (*Ticket, error)
	TicketStats(guildID string) (total, open, closed int64, err error)

	AppendLog(l *TicketLog) error
	LogsFor(ticketID int64) ([]TicketLog, error)
	SavePanelMessage(ticketID int64, messageID string) error

	ScheduleDeletion(d *ScheduledDeletion) error
	DueDeletions(now time.Time) ([]ScheduledDeletion, error)
	RemoveDeletion(id int64) error

	SaveVcSupportConfig(c *VcSupportConfig) error
	VcSupportConfigFor(guildID string) (*VcSupportConfig, error)

	SaveWelcomeConfig(c *WelcomeConfig) error
	WelcomeConfigFor(guildID string) (*WelcomeConfig, error)

	SaveLegitConfig(c *LegitConfig) error
	LegitConfigFor(guildID string) (*LegitConfig, error)
	SaveLegitVote(v *LegitVote) error
	LegitVotes(guildID string) ([]LegitVote, error)
	LegitVoteStats(guildID string) (total, yes, no int64, err error)

	SaveReactionRole(r *ReactionRole) error
	ReactionRoleByButton(guildID, buttonID string) (*ReactionRole, error)
	ReactionRolesFor(guildID string) ([]ReactionRole, error)
	DeleteReactionRoles(guildID string) error

	ResetAll() (map[string]int64, error)
	Close() error
}

// InitStore opens the configured database and migrates the schema.
func InitStore(cfg *config.DatabaseConfig) (Store, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Postgres.DSN)
	case "sqlite":
		_ = os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0755)
		dialector = sqlite.Open(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (use \"postgres\" or \"sqlite\")", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", cfg.Driver, err)
	}

	s := &GormStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("%s migrate: %w", cfg.Driver, err)
	}
	log.Printf("[DB] %s store initialised", cfg.Driver)
	return s, nil
}

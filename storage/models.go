package storage

import "time"

type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusClaimed TicketStatus = "claimed"
	TicketStatusClosed  TicketStatus = "closed"
)

// TicketConfig holds the per-guild ticket system setup. At most one row
// per guild, enforced by the unique index on guild_id.
type TicketConfig struct {
	ID              uint   `gorm:"primaryKey"`
	GuildID         string `gorm:"uniqueIndex;size:32;not null"`
	CategoryID      string `gorm:"size:32;not null"`
	SupportRoleID   string `gorm:"size:32;not null"`
	ReviewChannelID string `gorm:"size:32"`
	LogsChannelID   string `gorm:"size:32"`
	EnableClaim     bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Ticket struct {
	ID             int64        `gorm:"primaryKey"`
	TicketNumber   int          `gorm:"uniqueIndex:idx_tickets_guild_number;not null"`
	GuildID        string       `gorm:"uniqueIndex:idx_tickets_guild_number;index;size:32;not null"`
	ChannelID      string       `gorm:"uniqueIndex;size:32;not null"`
	UserID         string       `gorm:"index;size:32;not null"`
	Username       string       `gorm:"size:100"`
	Category       string       `gorm:"size:32;not null"`
	Status         TicketStatus `gorm:"type:varchar(16);index;not null"`
	ClaimedBy      string       `gorm:"size:32"`
	PanelMessageID string       `gorm:"size:32"`
	CreatedAt      time.Time
	ClosedAt       *time.Time
	ClosedBy       string `gorm:"size:32"`
}

// TicketLog is an append-only audit entry. Rows are never updated or
// deleted outside of a full data reset.
type TicketLog struct {
	ID        int64  `gorm:"primaryKey"`
	TicketID  int64  `gorm:"index;not null"`
	UserID    string `gorm:"size:32;not null"`
	Action    string `gorm:"size:32;not null"`
	Details   string `gorm:"type:text"`
	CreatedAt time.Time
}

// TicketMessage records the initial panel message of a ticket so the UI
// surface can be edited later.
type TicketMessage struct {
	ID          int64  `gorm:"primaryKey"`
	TicketID    int64  `gorm:"index;not null"`
	MessageID   string `gorm:"size:32;not null"`
	MessageType string `gorm:"size:16;default:panel"`
	CreatedAt   time.Time
}

// GuildCounter backs atomic per-guild ticket numbering.
type GuildCounter struct {
	GuildID       string `gorm:"primaryKey;size:32"`
	TicketCounter int    `gorm:"not null"`
}

// ScheduledDeletion is a durable one-shot task: delete channel_id at
// fire_at. Surviving rows are picked up again after a restart.
type ScheduledDeletion struct {
	ID        int64     `gorm:"primaryKey"`
	TicketID  int64     `gorm:"index;not null"`
	ChannelID string    `gorm:"size:32;not null"`
	FireAt    time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

type VcSupportConfig struct {
	ID                 uint   `gorm:"primaryKey"`
	GuildID            string `gorm:"uniqueIndex;size:32;not null"`
	VoiceChannelID     string `gorm:"size:32;not null"`
	StaffPingChannelID string `gorm:"size:32;not null"`
	CategoryID         string `gorm:"size:32;not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type WelcomeConfig struct {
	ID           uint   `gorm:"primaryKey"`
	GuildID      string `gorm:"uniqueIndex;size:32;not null"`
	ChannelID    string `gorm:"size:32;not null"`
	AutoRoleID   string `gorm:"size:32"`
	LogChannelID string `gorm:"size:32"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type LegitConfig struct {
	ID        uint   `gorm:"primaryKey"`
	GuildID   string `gorm:"uniqueIndex;size:32;not null"`
	ChannelID string `gorm:"size:32;not null"`
	MessageID string `gorm:"size:32;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LegitVote is one user's yes/no vote; re-voting overwrites the row
// (unique per guild+user).
type LegitVote struct {
	ID         int64  `gorm:"primaryKey"`
	GuildID    string `gorm:"uniqueIndex:idx_legit_votes_guild_user;size:32;not null"`
	UserID     string `gorm:"uniqueIndex:idx_legit_votes_guild_user;size:32;not null"`
	Username   string `gorm:"size:100"`
	UserAvatar string `gorm:"size:255"`
	Vote       string `gorm:"size:8;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type ReactionRole struct {
	ID        int64  `gorm:"primaryKey"`
	GuildID   string `gorm:"uniqueIndex:idx_reaction_roles_guild_button;size:32;not null"`
	ButtonID  string `gorm:"uniqueIndex:idx_reaction_roles_guild_button;size:64;not null"`
	MessageID string `gorm:"size:32"`
	RoleID    string `gorm:"size:32;not null"`
	RoleName  string `gorm:"size:100"`
	Category  string `gorm:"size:32"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

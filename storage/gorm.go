package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an already-open gorm handle. Used by tests; the
// bot itself goes through InitStore.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	s := &GormStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *GormStore) migrate() error {
	return s.db.AutoMigrate(
		&TicketConfig{},
		&Ticket{},
		&TicketLog{},
		&TicketMessage{},
		&GuildCounter{},
		&ScheduledDeletion{},
		&VcSupportConfig{},
		&WelcomeConfig{},
		&LegitConfig{},
		&LegitVote{},
		&ReactionRole{},
	)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- ticket config ---

func (s *GormStore) SaveTicketConfig(c *TicketConfig) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"category_id", "support_role_id", "review_channel_id",
			"logs_channel_id", "enable_claim", "updated_at",
		}),
	}).Create(c).Error
}

func (s *GormStore) TicketConfigFor(guildID string) (*TicketConfig, error) {
	var c TicketConfig
	if err := s.db.Where("guild_id = ?", guildID).First(&c).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &c, nil
}

// --- tickets ---

// NextTicketNumber increments the per-guild counter atomically. The
// single UPDATE serialises concurrent creations on the counter row, so
// numbers are unique and increasing even under concurrent use.
func (s *GormStore) NextTicketNumber(guildID string) (int, error) {
	var c GuildCounter
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(GuildCounter{GuildID: guildID}).FirstOrCreate(&c).Error; err != nil {
			return err
		}
		if err := tx.Model(&GuildCounter{}).
			Where("guild_id = ?", guildID).
			UpdateColumn("ticket_counter", gorm.Expr("ticket_counter + 1")).Error; err != nil {
			return err
		}
		return tx.Where("guild_id = ?", guildID).First(&c).Error
	})
	if err != nil {
		return 0, err
	}
	return c.TicketCounter, nil
}

func (s *GormStore) CreateTicket(t *Ticket) error {
	if t.Status == "" {
		t.Status = TicketStatusOpen
	}
	return s.db.Create(t).Error
}

func (s *GormStore) TicketByChannel(channelID string) (*Ticket, error) {
	var t Ticket
	if err := s.db.Where("channel_id = ?", channelID).First(&t).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &t, nil
}

func (s *GormStore) TicketByID(id int64) (*Ticket, error) {
	var t Ticket
	if err := s.db.First(&t, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &t, nil
}

func (s *GormStore) TicketsByUser(guildID, userID string) ([]Ticket, error) {
	var ts []Ticket
	err := s.db.
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Order("created_at DESC").
		Find(&ts).Error
	return ts, err
}

func (s *GormStore) SetClaimed(channelID, staffID string) (*Ticket, error) {
	return s.updateTicket(channelID, map[string]interface{}{
		"status":     TicketStatusClaimed,
		"claimed_by": staffID,
	})
}

func (s *GormStore) SetUnclaimed(channelID string) (*Ticket, error) {
	return s.updateTicket(channelID, map[string]interface{}{
		"status":     TicketStatusOpen,
		"claimed_by": "",
	})
}

func (s *GormStore) CloseTicket(channelID, closedBy string, at time.Time) (*Ticket, error) {
	return s.updateTicket(channelID, map[string]interface{}{
		"status":    TicketStatusClosed,
		"closed_at": at,
		"closed_by": closedBy,
	})
}

func (s *GormStore) updateTicket(channelID string, fields map[string]interface{}) (*Ticket, error) {
	res := s.db.Model(&Ticket{}).Where("channel_id = ?", channelID).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.TicketByChannel(channelID)
}

func (s *GormStore) TicketStats(guildID string) (total, open, closed int64, err error) {
	base := func() *gorm.DB { return s.db.Model(&Ticket{}).Where("guild_id = ?", guildID) }
	if err = base().Count(&total).Error; err != nil {
		return
	}
	if err = base().Where("status = ?", TicketStatusOpen).Count(&open).Error; err != nil {
		return
	}
	err = base().Where("status = ?", TicketStatusClosed).Count(&closed).Error
	return
}

// --- logs & messages ---

func (s *GormStore) AppendLog(l *TicketLog) error {
	return s.db.Create(l).Error
}

func (s *GormStore) LogsFor(ticketID int64) ([]TicketLog, error) {
	var ls []TicketLog
	err := s.db.Where("ticket_id = ?", ticketID).Order("created_at ASC, id ASC").Find(&ls).Error
	return ls, err
}

func (s *GormStore) SavePanelMessage(ticketID int64, messageID string) error {
	return s.db.Create(&TicketMessage{
		TicketID:    ticketID,
		MessageID:   messageID,
		MessageType: "panel",
	}).Error
}

// --- scheduled deletions ---

func (s *GormStore) ScheduleDeletion(d *ScheduledDeletion) error {
	return s.db.Create(d).Error
}

func (s *GormStore) DueDeletions(now time.Time) ([]ScheduledDeletion, error) {
	var ds []ScheduledDeletion
	err := s.db.Where("fire_at <= ?", now).Order("fire_at ASC").Find(&ds).Error
	return ds, err
}

func (s *GormStore) RemoveDeletion(id int64) error {
	return s.db.Delete(&ScheduledDeletion{}, id).Error
}

// --- vc support ---

func (s *GormStore) SaveVcSupportConfig(c *VcSupportConfig) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"voice_channel_id", "staff_ping_channel_id", "category_id", "updated_at",
		}),
	}).Create(c).Error
}

func (s *GormStore) VcSupportConfigFor(guildID string) (*VcSupportConfig, error) {
	var c VcSupportConfig
	if err := s.db.Where("guild_id = ?", guildID).First(&c).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &c, nil
}

// --- welcome ---

func (s *GormStore) SaveWelcomeConfig(c *WelcomeConfig) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"channel_id", "auto_role_id", "log_channel_id", "updated_at",
		}),
	}).Create(c).Error
}

func (s *GormStore) WelcomeConfigFor(guildID string) (*WelcomeConfig, error) {
	var c WelcomeConfig
	if err := s.db.Where("guild_id = ?", guildID).First(&c).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &c, nil
}

// --- legit verification ---

func (s *GormStore) SaveLegitConfig(c *LegitConfig) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"channel_id", "message_id", "updated_at",
		}),
	}).Create(c).Error
}

func (s *GormStore) LegitConfigFor(guildID string) (*LegitConfig, error) {
	var c LegitConfig
	if err := s.db.Where("guild_id = ?", guildID).First(&c).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &c, nil
}

func (s *GormStore) SaveLegitVote(v *LegitVote) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "guild_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "user_avatar", "vote", "updated_at",
		}),
	}).Create(v).Error
}

func (s *GormStore) LegitVotes(guildID string) ([]LegitVote, error) {
	var vs []LegitVote
	err := s.db.Where("guild_id = ?", guildID).Order("created_at DESC").Find(&vs).Error
	return vs, err
}

func (s *GormStore) LegitVoteStats(guildID string) (total, yes, no int64, err error) {
	base := func() *gorm.DB { return s.db.Model(&LegitVote{}).Where("guild_id = ?", guildID) }
	if err = base().Count(&total).Error; err != nil {
		return
	}
	if err = base().Where("vote = ?", "yes").Count(&yes).Error; err != nil {
		return
	}
	err = base().Where("vote = ?", "no").Count(&no).Error
	return
}

// --- reaction roles ---

func (s *GormStore) SaveReactionRole(r *ReactionRole) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "guild_id"}, {Name: "button_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"message_id", "role_id", "role_name", "category", "updated_at",
		}),
	}).Create(r).Error
}

func (s *GormStore) ReactionRoleByButton(guildID, buttonID string) (*ReactionRole, error) {
	var r ReactionRole
	if err := s.db.Where("guild_id = ? AND button_id = ?", guildID, buttonID).First(&r).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &r, nil
}

func (s *GormStore) ReactionRolesFor(guildID string) ([]ReactionRole, error) {
	var rs []ReactionRole
	err := s.db.Where("guild_id = ?", guildID).Find(&rs).Error
	return rs, err
}

func (s *GormStore) DeleteReactionRoles(guildID string) error {
	return s.db.Where("guild_id = ?", guildID).Delete(&ReactionRole{}).Error
}

// --- full reset ---

// ResetAll wipes every table, children before parents, and reports the
// number of rows removed per table.
func (s *GormStore) ResetAll() (map[string]int64, error) {
	counts := make(map[string]int64)
	order := []struct {
		name  string
		model interface{}
	}{
		{"ticket_logs", &TicketLog{}},
		{"ticket_messages", &TicketMessage{}},
		{"scheduled_deletions", &ScheduledDeletion{}},
		{"tickets", &Ticket{}},
		{"guild_counters", &GuildCounter{}},
		{"ticket_configs", &TicketConfig{}},
		{"vc_support_configs", &VcSupportConfig{}},
		{"welcome_configs", &WelcomeConfig{}},
		{"legit_votes", &LegitVote{}},
		{"legit_configs", &LegitConfig{}},
		{"reaction_roles", &ReactionRole{}},
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, step := range order {
			res := tx.Where("1 = 1").Delete(step.model)
			if res.Error != nil {
				return res.Error
			}
			counts[step.name] = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

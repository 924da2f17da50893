package tickets

import (
	"context"
	"log"
	"time"

	"discord-ticket-bot/storage"
)

// Scheduler deletes ticket channels whose grace period has elapsed.
// Deletions are durable rows, so pending ones survive a restart and
// are picked up on the next tick.
type Scheduler struct {
	store    storage.Store
	platform Platform
	interval time.Duration
	now      func() time.Time
}

func NewScheduler(store storage.Store, platform Platform) *Scheduler {
	return &Scheduler{
		store:    store,
		platform: platform,
		interval: 5 * time.Second,
		now:      time.Now,
	}
}

// Run blocks until ctx is done, sweeping due deletions every tick. An
// immediate first sweep recovers deletions left over from before a
// restart.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep deletes every due channel. Channel deletion is fire-and-forget;
// a failure is logged and the row is removed anyway so a vanished
// channel cannot wedge the queue.
func (s *Scheduler) sweep() {
	due, err := s.store.DueDeletions(s.now())
	if err != nil {
		log.Printf("[SCHED] list due deletions: %v", err)
		return
	}
	for _, d := range due {
		if err := s.platform.DeleteChannel(d.ChannelID); err != nil {
			log.Printf("[SCHED] delete channel %s (ticket %d): %v", d.ChannelID, d.TicketID, err)
		} else {
			log.Printf("[SCHED] deleted channel %s (ticket %d)", d.ChannelID, d.TicketID)
		}
		if err := s.store.RemoveDeletion(d.ID); err != nil {
			log.Printf("[SCHED] remove deletion %d: %v", d.ID, err)
		}
	}
}

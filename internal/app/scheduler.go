package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pointdeck/pointdeck/internal/domain"
)

// Broadcast delivers a committed snapshot to every subscriber of its
// room. Wired to the websocket gateway in main.
type Broadcast func(*domain.RoomState)

// ResetScheduler is the out-of-band half of the reset countdown: the
// engine only stores the target time, the scheduler polls for elapsed
// targets and triggers the actual reset.
type ResetScheduler struct {
	store     *RoomStore
	engine    *Engine
	interval  time.Duration
	broadcast Broadcast
}

func NewResetScheduler(store *RoomStore, engine *Engine, interval time.Duration, broadcast Broadcast) *ResetScheduler {
	return &ResetScheduler{store: store, engine: engine, interval: interval, broadcast: broadcast}
}

// Run ticks until ctx is cancelled.
func (s *ResetScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Info().Str("module", "app.scheduler").Dur("interval", s.interval).Msg("reset scheduler started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.scheduler").Msg("reset scheduler stopped")
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick fires every pending reset whose countdown has elapsed.
func (s *ResetScheduler) Tick() {
	now := s.engine.now()
	for _, r := range s.store.Snapshots() {
		if r.ResetVotesRequestedAt == nil || now.Before(*r.ResetVotesRequestedAt) {
			continue
		}
		if next := s.engine.fireElapsedReset(r.RoomID); next != nil {
			log.Info().Str("module", "app.scheduler").Str("room", RoomKey(r.RoomID)).Msg("reset countdown elapsed")
			s.broadcast(next)
		}
	}
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hackmate/hackathon-helper/internal/notify"
	"github.com/hackmate/hackathon-helper/internal/settings"
	"github.com/hackmate/hackathon-helper/internal/storage"
	"github.com/hackmate/hackathon-helper/internal/timezone"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTickInterval  = 20 * time.Second
	DefaultFireTolerance = 30 * time.Second
)

type Config struct {
	TickInterval  time.Duration
	FireTolerance time.Duration
}

type store interface {
	storage.EventStorage
	storage.UserStorage
}

// Scheduler polls for due reminders. Each (user, event, offset) triple
// fires at most once; the marker is written only after a successful
// dispatch, so a failed send stays pending and retries on the next tick
// while the fire window is still open.
type Scheduler struct {
	store      store
	settings   *settings.Service
	dedup      storage.DedupStorage
	dispatcher notify.Dispatcher

	tickInterval  time.Duration
	fireTolerance time.Duration
	now           func() time.Time
}

func New(
	config Config,
	store store,
	settingsSvc *settings.Service,
	dedup storage.DedupStorage,
	dispatcher notify.Dispatcher,
) *Scheduler {
	interval := config.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	tolerance := config.FireTolerance
	if tolerance <= 0 {
		tolerance = DefaultFireTolerance
	}
	// A tolerance below the tick interval would let fire instants fall
	// into the gap between two polls.
	if tolerance < interval {
		log.Warnf("fire tolerance %s is below tick interval %s, clamping", tolerance, interval)
		tolerance = interval
	}
	return &Scheduler{
		store:         store,
		settings:      settingsSvc,
		dedup:         dedup,
		dispatcher:    dispatcher,
		tickInterval:  interval,
		fireTolerance: tolerance,
		now:           time.Now,
	}
}

// Run polls until the context is cancelled; an in-flight tick always
// finishes.
func (s *Scheduler) Run(ctx context.Context) {
	log.Infof("reminder scheduler running, tick %s, tolerance %s", s.tickInterval, s.fireTolerance)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("reminder scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick processes every active user once. Failures are isolated per user:
// one broken user never blocks the rest and never stops the loop.
func (s *Scheduler) Tick(ctx context.Context) {
	users, err := s.store.ListActiveUsers(ctx)
	if err != nil {
		log.Errorf("failed to list users: %v", err)
		return
	}
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		log.Errorf("failed to list events: %v", err)
		return
	}

	for _, u := range users {
		if err := s.processUser(ctx, u, events); err != nil {
			log.Errorf("failed to process reminders for user %q: %v", u.ID, err)
		}
	}
}

func (s *Scheduler) processUser(ctx context.Context, u storage.User, events []storage.Event) error {
	userSettings, err := s.settings.GetOrCreate(ctx, u.ID, u.Role)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.EnabledFor(userSettings, storage.CategoryReminder) {
		return nil
	}

	now := s.now().UTC()
	for _, e := range events {
		if !e.IsActive || !e.VisibleTo(u.Role) {
			continue
		}
		if err := s.processEvent(ctx, u, e, userSettings.ReminderOffsets, now); err != nil {
			log.Errorf("failed to process event %q for user %q: %v", e.ID, u.ID, err)
		}
	}
	return nil
}

func (s *Scheduler) processEvent(
	ctx context.Context,
	u storage.User,
	e storage.Event,
	offsets []int,
	now time.Time,
) error {
	// All comparisons happen on the UTC wall clock so creator zones
	// cannot drift against the scheduler's clock.
	startUTC := timezone.ToUTC(e.StartTime, e.CreatorTimezone)
	untilStart := startUTC.Sub(now)
	if untilStart <= 0 {
		return nil
	}

	for _, offset := range offsets {
		delta := untilStart - time.Duration(offset)*time.Minute
		if delta > 0 || delta < -s.fireTolerance {
			continue
		}

		sent, err := s.dedup.HasSent(ctx, u.ID, e.ID, offset)
		if err != nil {
			return fmt.Errorf("failed to check marker for offset %d: %w", offset, err)
		}
		if sent {
			continue
		}

		body := notify.FormatReminder(e, offset)
		if err := s.dispatcher.Send(ctx, u.ID, "⏰ Reminder: "+e.Title, body); err != nil {
			// Stays pending; the next tick retries while still in
			// the tolerance window.
			log.Errorf("failed to send reminder to user %q for event %q offset %d: %v", u.ID, e.ID, offset, err)
			continue
		}
		inserted, err := s.dedup.MarkSent(ctx, u.ID, e.ID, offset, startUTC)
		if err != nil {
			return fmt.Errorf("failed to mark reminder sent for offset %d: %w", offset, err)
		}
		if !inserted {
			log.Warnf("reminder for user %q event %q offset %d was already marked by another instance",
				u.ID, e.ID, offset)
		}
	}
	return nil
}

// CleanupMarkers drops dedup markers for events that already started.
func (s *Scheduler) CleanupMarkers(ctx context.Context) {
	if err := s.dedup.RemoveMarkersBefore(ctx, s.now().UTC()); err != nil {
		log.Errorf("failed to clean up reminder markers: %v", err)
	}
}

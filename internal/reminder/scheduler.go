package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gracebay/prayerwall/internal/email"
	"github.com/gracebay/prayerwall/internal/model"
	"github.com/gracebay/prayerwall/internal/store"
	"github.com/gracebay/prayerwall/internal/timeline"
	"github.com/gracebay/prayerwall/internal/websocket"
)

const defaultInterval = time.Hour

// Scheduler is the job behind the timeline's reminder-sent and archived
// events: it emails follow-up nudges on quiet prayers and archives the
// ones nobody responded to. The timeline itself only reads the
// last_reminder_sent and status columns this job writes.
type Scheduler struct {
	mu       sync.RWMutex
	prayers  *store.PrayerStore
	users    *store.UserStore
	settings *store.SettingsStore
	mailer   *email.Client
	hub      *websocket.Hub
	logger   *slog.Logger
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(ps *store.PrayerStore, us *store.UserStore, ss *store.SettingsStore, mailer *email.Client, hub *websocket.Hub, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		prayers:  ps,
		users:    us,
		settings: ss,
		mailer:   mailer,
		hub:      hub,
		logger:   logger,
		interval: defaultInterval,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(now time.Time) {
	settings := timeline.Settings{
		ReminderIntervalDays: s.settings.IntSetting("reminder_interval_days", 30),
		DaysBeforeArchive:    s.settings.IntSetting("days_before_archive", 30),
		MissedGraceDays:      s.settings.IntSetting("missed_grace_days", 2),
	}
	tz, _ := s.settings.Get("timezone")
	loc := timeline.LoadZone(tz)
	today := timeline.DateOf(now, loc)

	prayers, err := s.prayers.ListByStatus(model.StatusCurrent)
	if err != nil {
		s.logger.Error("reminder tick: list prayers", "error", err)
		return
	}
	latest, err := s.prayers.LatestUpdateTimes()
	if err != nil {
		s.logger.Error("reminder tick: latest updates", "error", err)
		return
	}

	for _, p := range prayers {
		var latestUpdate *time.Time
		if at, ok := latest[p.ID]; ok {
			t := at
			latestUpdate = &t
		}

		if archiveDue(p, latestUpdate, settings, today, loc) {
			if _, err := s.prayers.SetStatus(p.ID, model.StatusArchived); err != nil {
				s.logger.Error("archive prayer", "prayer_id", p.ID, "error", err)
				continue
			}
			s.logger.Info("archived stale prayer", "prayer_id", p.ID, "title", p.Title)
			s.broadcast(websocket.NewMessage("prayer", "archived", p.ID, nil))
			continue
		}

		if reminderDue(p, latestUpdate, settings, today, loc) {
			s.sendReminder(p, settings, now)
		}
	}
}

// reminderDue reports whether a prayer's quiet period has run out and no
// reminder has gone out yet.
func reminderDue(p model.Prayer, latestUpdate *time.Time, settings timeline.Settings, today timeline.Date, loc *time.Location) bool {
	if p.LastReminderSent != nil {
		return false
	}
	base := timeline.DateOf(p.CreatedAt, loc)
	if latestUpdate != nil {
		base = timeline.DateOf(*latestUpdate, loc)
	}
	due := base.AddDays(settings.ReminderIntervalDays)
	return !due.After(today)
}

// archiveDue reports whether the archive window after a reminder has
// elapsed with no new activity.
func archiveDue(p model.Prayer, latestUpdate *time.Time, settings timeline.Settings, today timeline.Date, loc *time.Location) bool {
	if p.LastReminderSent == nil {
		return false
	}
	reminderDate := timeline.DateOf(*p.LastReminderSent, loc)
	if latestUpdate != nil && timeline.DateOf(*latestUpdate, loc).After(reminderDate) {
		return false
	}
	archiveDate := reminderDate.AddDays(settings.DaysBeforeArchive)
	return !archiveDate.After(today)
}

func (s *Scheduler) sendReminder(p model.Prayer, settings timeline.Settings, now time.Time) {
	if p.SubmittedBy == nil {
		// Nobody to nudge; stamp it so the archive countdown still starts.
		s.markSent(p, now)
		return
	}

	user, err := s.users.GetByID(*p.SubmittedBy)
	if err != nil || user == nil {
		s.logger.Warn("reminder: submitter not found", "prayer_id", p.ID, "error", err)
		s.markSent(p, now)
		return
	}

	if s.mailer.Configured() {
		if err := s.mailer.SendReminder(user.Email, p.Title, settings.ReminderIntervalDays); err != nil {
			s.logger.Error("send reminder", "prayer_id", p.ID, "error", err)
			return
		}
	}

	s.markSent(p, now)
	s.logger.Info("sent reminder", "prayer_id", p.ID, "title", p.Title)
	s.broadcast(websocket.NewMessage("prayer", "reminder_sent", p.ID, nil))
}

func (s *Scheduler) markSent(p model.Prayer, now time.Time) {
	if err := s.prayers.MarkReminderSent(p.ID, now); err != nil {
		s.logger.Error("mark reminder sent", "prayer_id", p.ID, "error", err)
	}
}

func (s *Scheduler) broadcast(msg websocket.Message) {
	if s.hub != nil {
		s.hub.Broadcast(msg)
	}
}

package timeline

import (
	"log/slog"
	"sync"
	"time"
)

// Source supplies the prayer snapshots the timeline is derived from.
type Source interface {
	Snapshots() ([]Snapshot, error)
}

// SettingsProvider supplies the projection intervals.
type SettingsProvider interface {
	TimelineSettings() (Settings, error)
}

// Service owns the most recent timeline state and recomputes it on
// demand. Recomputation is idempotent and cheap enough to run on every
// upstream change; the service never mutates prayers.
type Service struct {
	mu       sync.RWMutex
	source   Source
	settings SettingsProvider
	loc      *time.Location
	logger   *slog.Logger
	state    *State
}

func NewService(source Source, settings SettingsProvider, timezone string, logger *slog.Logger) *Service {
	return &Service{
		source:   source,
		settings: settings,
		loc:      LoadZone(timezone),
		logger:   logger,
	}
}

// Recompute rebuilds the full timeline state: derive events, recompute
// month bounds, re-clamp the viewed month. Settings failures fall back
// to defaults; snapshot failures fall back to the last good event set so
// a transient fetch error never blanks the timeline.
func (s *Service) Recompute(now time.Time) *State {
	settings, err := s.settings.TimelineSettings()
	if err != nil {
		s.logger.Warn("timeline settings unavailable, using defaults", "error", err)
		settings = DefaultSettings()
	}

	today := DateOf(now, s.loc)

	s.mu.Lock()
	defer s.mu.Unlock()

	var events []Event
	prayers, err := s.source.Snapshots()
	if err != nil {
		if s.state == nil {
			s.logger.Error("prayer fetch failed with no prior timeline", "error", err)
			events = nil
		} else {
			s.logger.Warn("prayer fetch failed, serving last derived timeline", "error", err)
			events = s.state.Events
		}
	} else {
		events = DeriveEvents(prayers, settings, now, s.loc)
	}

	bounds := MonthBoundsOf(events)

	month := today.FirstOfMonth()
	if s.state != nil {
		month = s.state.CurrentMonth
	}

	s.state = &State{
		Events:       events,
		Bounds:       bounds,
		CurrentMonth: clampMonth(month, bounds),
		Today:        today,
		Settings:     settings,
		Timezone:     s.loc.String(),
	}
	return s.snapshotStateLocked()
}

// State returns a copy of the current timeline state, recomputing first
// if nothing has been derived yet.
func (s *Service) State(now time.Time) *State {
	s.mu.RLock()
	if s.state != nil {
		defer s.mu.RUnlock()
		return s.snapshotStateLocked()
	}
	s.mu.RUnlock()
	return s.Recompute(now)
}

// TimelineForMonth jumps the view to the given month (clamped to the
// navigable range) and returns that month's day groups.
func (s *Service) TimelineForMonth(month Date, now time.Time) []Day {
	st := s.State(now)

	s.mu.Lock()
	s.state.CurrentMonth = clampMonth(month.FirstOfMonth(), st.Bounds)
	days := s.state.Days()
	s.mu.Unlock()
	return days
}

// PreviousMonth steps the view back one month and returns the new state.
func (s *Service) PreviousMonth(now time.Time) *State {
	s.State(now)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PreviousMonth()
	return s.snapshotStateLocked()
}

// NextMonth steps the view forward one month and returns the new state.
func (s *Service) NextMonth(now time.Time) *State {
	s.State(now)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.NextMonth()
	return s.snapshotStateLocked()
}

// Summary is the settings display block shown above the timeline.
type Summary struct {
	ReminderIntervalDays int    `json:"reminder_interval_days"`
	DaysBeforeArchive    int    `json:"days_before_archive"`
	Timezone             string `json:"timezone"`
}

func (s *Service) SettingsSummary() Summary {
	settings, err := s.settings.TimelineSettings()
	if err != nil {
		settings = DefaultSettings()
	}
	return Summary{
		ReminderIntervalDays: settings.ReminderIntervalDays,
		DaysBeforeArchive:    settings.DaysBeforeArchive,
		Timezone:             s.loc.String(),
	}
}

// snapshotStateLocked copies the state value so callers can't race the
// next recompute. The event slice is shared but never mutated.
func (s *Service) snapshotStateLocked() *State {
	if s.state == nil {
		return nil
	}
	copied := *s.state
	return &copied
}

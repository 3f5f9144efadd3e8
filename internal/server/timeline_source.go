package server

import (
	"fmt"
	"strconv"

	"github.com/gracebay/prayerwall/internal/store"
	"github.com/gracebay/prayerwall/internal/timeline"
)

// prayerSnapshotSource feeds the timeline from the prayer store. One
// query for the prayers, one for the latest update per prayer.
type prayerSnapshotSource struct {
	prayers *store.PrayerStore
}

func (s *prayerSnapshotSource) Snapshots() ([]timeline.Snapshot, error) {
	prayers, err := s.prayers.List()
	if err != nil {
		return nil, fmt.Errorf("timeline snapshots: %w", err)
	}
	latest, err := s.prayers.LatestUpdateTimes()
	if err != nil {
		return nil, fmt.Errorf("timeline latest updates: %w", err)
	}

	snapshots := make([]timeline.Snapshot, 0, len(prayers))
	for _, p := range prayers {
		snap := timeline.Snapshot{
			ID:               p.ID,
			Title:            p.Title,
			Status:           p.Status,
			CreatedAt:        p.CreatedAt,
			UpdatedAt:        p.UpdatedAt,
			LastReminderSent: p.LastReminderSent,
		}
		if at, ok := latest[p.ID]; ok {
			t := at
			snap.LatestUpdateAt = &t
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// storedSettings reads the projection intervals from the settings table,
// falling back to the defaults for any missing or unparsable key.
type storedSettings struct {
	settings *store.SettingsStore
}

func (s *storedSettings) TimelineSettings() (timeline.Settings, error) {
	values, err := s.settings.GetTimelineSettings()
	if err != nil {
		return timeline.Settings{}, err
	}

	out := timeline.DefaultSettings()
	if n, ok := intValue(values, "reminder_interval_days"); ok {
		out.ReminderIntervalDays = n
	}
	if n, ok := intValue(values, "days_before_archive"); ok {
		out.DaysBeforeArchive = n
	}
	if n, ok := intValue(values, "missed_grace_days"); ok {
		out.MissedGraceDays = n
	}
	return out, nil
}

func intValue(values map[string]string, key string) (int, bool) {
	raw, ok := values[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

package timeline

import (
	"log/slog"
	"time"

	"github.com/gracebay/prayerwall/internal/model"
)

// Snapshot is a read-only view of a stored prayer, the unit of input for
// event derivation. LatestUpdateAt is the created_at of the prayer's
// most recent update, when it has any.
type Snapshot struct {
	ID               int64
	Title            string
	Status           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastReminderSent *time.Time
	LatestUpdateAt   *time.Time
}

// Settings are the projection intervals, in days. MissedGraceDays is how
// far past a reminder/archive date we wait before flagging it missed,
// giving the reminder job a window to run.
type Settings struct {
	ReminderIntervalDays int `json:"reminder_interval_days"`
	DaysBeforeArchive    int `json:"days_before_archive"`
	MissedGraceDays      int `json:"missed_grace_days"`
}

func DefaultSettings() Settings {
	return Settings{
		ReminderIntervalDays: 30,
		DaysBeforeArchive:    30,
		MissedGraceDays:      2,
	}
}

// DeriveEvents projects every prayer onto zero or more timeline events.
// Pure: identical inputs and now always produce identical output. A
// prayer with unusable timestamps is skipped with a warning rather than
// failing the batch.
func DeriveEvents(prayers []Snapshot, settings Settings, now time.Time, loc *time.Location) []Event {
	today := DateOf(now, loc)
	var events []Event
	for _, p := range prayers {
		events = append(events, deriveForPrayer(p, settings, today, loc)...)
	}
	return events
}

func deriveForPrayer(p Snapshot, settings Settings, today Date, loc *time.Location) []Event {
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		slog.Warn("skipping prayer with missing timestamps", "prayer_id", p.ID)
		return nil
	}

	ref := PrayerRef{ID: p.ID, Title: p.Title}

	switch p.Status {
	case model.StatusAnswered:
		return []Event{{Date: DateOf(p.UpdatedAt, loc), Prayer: ref, Type: EventAnswered}}
	case model.StatusArchived:
		return []Event{{Date: DateOf(p.UpdatedAt, loc), Prayer: ref, Type: EventArchived}}
	case model.StatusCurrent:
		// fall through to the reminder/archive projection
	default:
		return nil
	}

	grace := settings.MissedGraceDays

	if p.LastReminderSent != nil {
		reminderDate := DateOf(*p.LastReminderSent, loc)
		if reminderDate.After(today) {
			// A reminder can't be sent ahead of time. Bad data; drop the
			// whole projection for this prayer but leave a trace.
			slog.Warn("prayer has future-dated last_reminder_sent",
				"prayer_id", p.ID, "reminder_date", reminderDate.String())
			return nil
		}

		events := []Event{{Date: reminderDate, Prayer: ref, Type: EventReminderSent}}

		// An update after the reminder resets the archive timer.
		hasUpdateAfterReminder := p.LatestUpdateAt != nil &&
			DateOf(*p.LatestUpdateAt, loc).After(reminderDate)
		if !hasUpdateAfterReminder {
			events = append(events, archiveEvents(ref, reminderDate, today, settings.DaysBeforeArchive, grace)...)
		}
		return events
	}

	// No reminder sent yet: the countdown runs from the latest activity.
	baseDate := DateOf(p.CreatedAt, loc)
	if p.LatestUpdateAt != nil {
		baseDate = DateOf(*p.LatestUpdateAt, loc)
	}
	nextReminderDate := baseDate.AddDays(settings.ReminderIntervalDays)
	reminderDaysUntil := DaysBetween(nextReminderDate, today)

	if reminderDaysUntil <= -grace {
		events := []Event{{Date: nextReminderDate, Prayer: ref, Type: EventReminderMissed}}
		events = append(events, archiveEvents(ref, nextReminderDate, today, settings.DaysBeforeArchive, grace)...)
		return events
	}
	return []Event{{
		Date:      nextReminderDate,
		Prayer:    ref,
		Type:      EventReminderUpcoming,
		DaysUntil: reminderDaysUntil,
	}}
}

// archiveEvents projects the archive date that follows a reminder at
// anchor. Inside the grace window nothing is emitted: the archive is due
// but the external job may simply not have run yet.
func archiveEvents(ref PrayerRef, anchor, today Date, daysBeforeArchive, grace int) []Event {
	archiveDate := anchor.AddDays(daysBeforeArchive)
	daysUntil := DaysBetween(archiveDate, today)

	switch {
	case daysUntil <= -grace:
		return []Event{{Date: archiveDate, Prayer: ref, Type: EventArchiveMissed}}
	case daysUntil > 0:
		return []Event{{Date: archiveDate, Prayer: ref, Type: EventArchiveUpcoming, DaysUntil: daysUntil}}
	default:
		return nil
	}
}

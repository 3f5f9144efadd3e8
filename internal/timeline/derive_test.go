package timeline

import (
	"reflect"
	"testing"
	"time"

	"github.com/gracebay/prayerwall/internal/model"
)

func utc(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func tp(t time.Time) *time.Time { return &t }

func snapshot(id int64, status string, createdAt time.Time) Snapshot {
	return Snapshot{
		ID:        id,
		Title:     "prayer",
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestDeriveReminderUpcoming(t *testing.T) {
	prayers := []Snapshot{snapshot(1, model.StatusCurrent, utc(2026, time.January, 1, 12))}
	now := utc(2026, time.January, 20, 12)

	events := DeriveEvents(prayers, DefaultSettings(), now, time.UTC)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	e := events[0]
	if e.Type != EventReminderUpcoming {
		t.Errorf("Type = %q, want %q", e.Type, EventReminderUpcoming)
	}
	if want := (Date{2026, time.January, 31}); !e.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", e.Date, want)
	}
	if e.DaysUntil != 11 {
		t.Errorf("DaysUntil = %d, want 11", e.DaysUntil)
	}
}

func TestDeriveReminderMissedWithArchiveUpcoming(t *testing.T) {
	prayers := []Snapshot{snapshot(1, model.StatusCurrent, utc(2026, time.January, 1, 12))}
	now := utc(2026, time.February, 5, 12)

	events := DeriveEvents(prayers, DefaultSettings(), now, time.UTC)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	missed := events[0]
	if missed.Type != EventReminderMissed {
		t.Errorf("events[0].Type = %q, want %q", missed.Type, EventReminderMissed)
	}
	if want := (Date{2026, time.January, 31}); !missed.Date.Equal(want) {
		t.Errorf("events[0].Date = %v, want %v", missed.Date, want)
	}
	if missed.DaysUntil != 0 {
		t.Errorf("events[0].DaysUntil = %d, want 0", missed.DaysUntil)
	}

	archive := events[1]
	if archive.Type != EventArchiveUpcoming {
		t.Errorf("events[1].Type = %q, want %q", archive.Type, EventArchiveUpcoming)
	}
	if want := (Date{2026, time.March, 2}); !archive.Date.Equal(want) {
		t.Errorf("events[1].Date = %v, want %v", archive.Date, want)
	}
	if archive.DaysUntil != 25 {
		t.Errorf("events[1].DaysUntil = %d, want 25", archive.DaysUntil)
	}
}

func TestDeriveUpdateAfterReminderResetsArchive(t *testing.T) {
	p := snapshot(1, model.StatusCurrent, utc(2025, time.December, 1, 12))
	p.LastReminderSent = tp(utc(2026, time.January, 5, 12))
	p.LatestUpdateAt = tp(utc(2026, time.January, 10, 12))
	now := utc(2026, time.January, 15, 12)

	events := DeriveEvents([]Snapshot{p}, DefaultSettings(), now, time.UTC)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Type != EventReminderSent {
		t.Errorf("Type = %q, want %q", events[0].Type, EventReminderSent)
	}
	if want := (Date{2026, time.January, 5}); !events[0].Date.Equal(want) {
		t.Errorf("Date = %v, want %v", events[0].Date, want)
	}
}

func TestDeriveReminderSentWithArchiveProjection(t *testing.T) {
	// No update after the reminder: the archive countdown runs.
	p := snapshot(1, model.StatusCurrent, utc(2025, time.December, 1, 12))
	p.LastReminderSent = tp(utc(2026, time.January, 5, 12))
	now := utc(2026, time.January, 15, 12)

	events := DeriveEvents([]Snapshot{p}, DefaultSettings(), now, time.UTC)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != EventReminderSent {
		t.Errorf("events[0].Type = %q, want %q", events[0].Type, EventReminderSent)
	}
	if events[1].Type != EventArchiveUpcoming {
		t.Errorf("events[1].Type = %q, want %q", events[1].Type, EventArchiveUpcoming)
	}
	if want := (Date{2026, time.February, 4}); !events[1].Date.Equal(want) {
		t.Errorf("events[1].Date = %v, want %v", events[1].Date, want)
	}
	if events[1].DaysUntil != 20 {
		t.Errorf("events[1].DaysUntil = %d, want 20", events[1].DaysUntil)
	}
}

func TestDeriveFutureReminderDiscardsProjection(t *testing.T) {
	p := snapshot(1, model.StatusCurrent, utc(2026, time.January, 1, 12))
	p.LastReminderSent = tp(utc(2026, time.February, 1, 12))
	now := utc(2026, time.January, 15, 12)

	events := DeriveEvents([]Snapshot{p}, DefaultSettings(), now, time.UTC)
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0 for future-dated reminder", len(events))
	}
}

func TestDeriveMissedGraceWindow(t *testing.T) {
	tests := []struct {
		name     string
		daysAgo  int
		wantType EventType
		wantLen  int
	}{
		{"due today", 0, EventReminderUpcoming, 1},
		{"one day past stays pending", 1, EventReminderUpcoming, 1},
		{"two days past is missed", 2, EventReminderMissed, 2},
		{"six days past is missed", 6, EventReminderMissed, 2},
	}

	now := utc(2026, time.June, 15, 12)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reminder falls due daysAgo days before now.
			created := now.AddDate(0, 0, -(30 + tt.daysAgo))
			prayers := []Snapshot{snapshot(1, model.StatusCurrent, created)}

			events := DeriveEvents(prayers, DefaultSettings(), now, time.UTC)
			if len(events) != tt.wantLen {
				t.Fatalf("got %d events, want %d", len(events), tt.wantLen)
			}
			if events[0].Type != tt.wantType {
				t.Errorf("Type = %q, want %q", events[0].Type, tt.wantType)
			}
		})
	}
}

func TestDeriveArchiveGraceWindow(t *testing.T) {
	tests := []struct {
		name     string
		daysAgo  int
		wantType EventType
		found    bool
	}{
		{"archive one day past emits nothing", 1, "", false},
		{"archive two days past is missed", 2, EventArchiveMissed, true},
	}

	now := utc(2026, time.June, 15, 12)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := snapshot(1, model.StatusCurrent, utc(2026, time.January, 1, 12))
			// Archive date = reminder date + 30; place it daysAgo before now.
			p.LastReminderSent = tp(now.AddDate(0, 0, -(30 + tt.daysAgo)))

			events := DeriveEvents([]Snapshot{p}, DefaultSettings(), now, time.UTC)

			var archive *Event
			for i := range events {
				if events[i].Type == EventArchiveMissed || events[i].Type == EventArchiveUpcoming {
					archive = &events[i]
				}
			}
			if tt.found {
				if archive == nil {
					t.Fatal("expected an archive event")
				}
				if archive.Type != tt.wantType {
					t.Errorf("Type = %q, want %q", archive.Type, tt.wantType)
				}
			} else if archive != nil {
				t.Fatalf("unexpected archive event %q", archive.Type)
			}
		})
	}
}

func TestDeriveConfigurableGrace(t *testing.T) {
	settings := DefaultSettings()
	settings.MissedGraceDays = 5
	now := utc(2026, time.June, 15, 12)

	// Reminder 4 days past: inside the widened grace window.
	prayers := []Snapshot{snapshot(1, model.StatusCurrent, now.AddDate(0, 0, -34))}
	events := DeriveEvents(prayers, settings, now, time.UTC)
	if len(events) != 1 || events[0].Type != EventReminderUpcoming {
		t.Fatalf("got %+v, want single reminder-upcoming inside grace window", events)
	}

	// Reminder 5 days past: missed.
	prayers = []Snapshot{snapshot(1, model.StatusCurrent, now.AddDate(0, 0, -35))}
	events = DeriveEvents(prayers, settings, now, time.UTC)
	if len(events) == 0 || events[0].Type != EventReminderMissed {
		t.Fatalf("got %+v, want reminder-missed at grace boundary", events)
	}
}

func TestDeriveAnsweredAndArchived(t *testing.T) {
	answered := snapshot(1, model.StatusAnswered, utc(2026, time.January, 1, 12))
	answered.UpdatedAt = utc(2026, time.February, 10, 12)
	answered.LastReminderSent = tp(utc(2026, time.January, 20, 12))

	archived := snapshot(2, model.StatusArchived, utc(2026, time.January, 1, 12))
	archived.UpdatedAt = utc(2026, time.March, 1, 12)

	now := utc(2026, time.March, 15, 12)
	events := DeriveEvents([]Snapshot{answered, archived}, DefaultSettings(), now, time.UTC)
	if len(events) != 2 {
		t.Fatalf("got %d events, want exactly one per resolved prayer", len(events))
	}

	if events[0].Type != EventAnswered || !events[0].Date.Equal(Date{2026, time.February, 10}) {
		t.Errorf("answered event = %+v", events[0])
	}
	if events[0].DaysUntil != 0 {
		t.Errorf("answered DaysUntil = %d, want 0", events[0].DaysUntil)
	}
	if events[1].Type != EventArchived || !events[1].Date.Equal(Date{2026, time.March, 1}) {
		t.Errorf("archived event = %+v", events[1])
	}
}

func TestDeriveSkipsModerationStates(t *testing.T) {
	prayers := []Snapshot{
		snapshot(1, model.StatusPending, utc(2026, time.January, 1, 12)),
		snapshot(2, model.StatusDenied, utc(2026, time.January, 1, 12)),
	}
	events := DeriveEvents(prayers, DefaultSettings(), utc(2026, time.June, 1, 12), time.UTC)
	if len(events) != 0 {
		t.Fatalf("got %d events for pending/denied prayers, want 0", len(events))
	}
}

func TestDeriveSkipsMalformedTimestamps(t *testing.T) {
	bad := Snapshot{ID: 1, Title: "broken", Status: model.StatusCurrent}
	good := snapshot(2, model.StatusCurrent, utc(2026, time.January, 1, 12))

	events := DeriveEvents([]Snapshot{bad, good}, DefaultSettings(), utc(2026, time.January, 20, 12), time.UTC)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (bad prayer skipped, batch intact)", len(events))
	}
	if events[0].Prayer.ID != 2 {
		t.Errorf("surviving event belongs to prayer %d, want 2", events[0].Prayer.ID)
	}
}

func TestDeriveAnsweredLocalDateCrossesMidnight(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	p := snapshot(1, model.StatusAnswered, utc(2026, time.January, 1, 12))
	// 03:00 UTC on Feb 1 is still Jan 31 in the Eastern US. A naive UTC
	// truncation would put the event on the wrong day.
	p.UpdatedAt = utc(2026, time.February, 1, 3)

	events := DeriveEvents([]Snapshot{p}, DefaultSettings(), utc(2026, time.February, 15, 12), loc)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if want := (Date{2026, time.January, 31}); !events[0].Date.Equal(want) {
		t.Errorf("Date = %v, want %v (local calendar day, not UTC)", events[0].Date, want)
	}
}

func TestDeriveBaseDatePrefersLatestUpdate(t *testing.T) {
	p := snapshot(1, model.StatusCurrent, utc(2026, time.January, 1, 12))
	p.LatestUpdateAt = tp(utc(2026, time.January, 10, 12))
	now := utc(2026, time.January, 20, 12)

	events := DeriveEvents([]Snapshot{p}, DefaultSettings(), now, time.UTC)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	// Countdown anchored at the Jan 10 update, not the Jan 1 creation.
	if want := (Date{2026, time.February, 9}); !events[0].Date.Equal(want) {
		t.Errorf("Date = %v, want %v", events[0].Date, want)
	}
}

func TestDeriveIdempotent(t *testing.T) {
	prayers := []Snapshot{
		snapshot(1, model.StatusCurrent, utc(2026, time.January, 1, 12)),
		snapshot(2, model.StatusAnswered, utc(2026, time.January, 5, 12)),
	}
	prayers[0].LastReminderSent = tp(utc(2026, time.February, 1, 12))
	now := utc(2026, time.March, 1, 12)

	first := DeriveEvents(prayers, DefaultSettings(), now, time.UTC)
	second := DeriveEvents(prayers, DefaultSettings(), now, time.UTC)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("derivation not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

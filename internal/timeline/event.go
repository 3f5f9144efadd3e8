package timeline

// EventType identifies a prayer lifecycle event on the timeline.
type EventType string

const (
	EventReminderUpcoming EventType = "reminder-upcoming"
	EventReminderSent     EventType = "reminder-sent"
	EventReminderMissed   EventType = "reminder-missed"
	EventArchiveUpcoming  EventType = "archive-upcoming"
	EventArchiveMissed    EventType = "archive-missed"
	EventAnswered         EventType = "answered"
	EventArchived         EventType = "archived"
)

// typeOrder fixes the display order of events sharing a calendar day.
var typeOrder = map[EventType]int{
	EventReminderUpcoming: 1,
	EventReminderSent:     2,
	EventReminderMissed:   3,
	EventArchiveUpcoming:  4,
	EventArchiveMissed:    5,
	EventAnswered:         6,
	EventArchived:         7,
}

// PrayerRef points back at the prayer an event belongs to. Lookup only;
// the timeline never mutates prayers.
type PrayerRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Event is a single derived lifecycle event, anchored to a local
// calendar day. DaysUntil is the signed offset from today to the event
// date at derivation time; zero for events that already resolved.
type Event struct {
	Date      Date      `json:"date"`
	Prayer    PrayerRef `json:"prayer"`
	Type      EventType `json:"event_type"`
	DaysUntil int       `json:"days_until"`
}

package model

import "time"

// Prayer status values. Only "current" prayers participate in the
// reminder/archive projection; "pending" and "denied" are moderation
// states that never reach the timeline.
const (
	StatusPending  = "pending"
	StatusCurrent  = "current"
	StatusAnswered = "answered"
	StatusArchived = "archived"
	StatusDenied   = "denied"
)

type Prayer struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Body             string     `json:"body"`
	Status           string     `json:"status"`
	SubmittedBy      *int64     `json:"submitted_by"`
	LastReminderSent *time.Time `json:"last_reminder_sent"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type PrayerUpdate struct {
	ID        int64     `json:"id"`
	PrayerID  int64     `json:"prayer_id"`
	Body      string    `json:"body"`
	CreatedBy *int64    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

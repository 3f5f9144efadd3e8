package timeline

import "sort"

// Day is one calendar day's worth of events, ordered by type precedence.
type Day struct {
	Date   Date    `json:"date"`
	Label  string  `json:"label"`
	Events []Event `json:"events"`
}

// MonthBounds are the first-of-month dates spanned by an event set,
// bounding month navigation so it never lands on an empty month.
type MonthBounds struct {
	Min Date `json:"min"`
	Max Date `json:"max"`
}

// GroupByDate buckets events into days, sorted ascending, with events
// inside each day ordered by the fixed type precedence. today drives the
// "Today"/"Tomorrow" labels.
func GroupByDate(events []Event, today Date) []Day {
	byDate := make(map[string][]Event)
	dates := make(map[string]Date)
	for _, e := range events {
		key := e.Date.String()
		byDate[key] = append(byDate[key], e)
		dates[key] = e.Date
	}

	keys := make([]string, 0, len(byDate))
	for key := range byDate {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	days := make([]Day, 0, len(keys))
	for _, key := range keys {
		bucket := byDate[key]
		sort.SliceStable(bucket, func(i, j int) bool {
			return typeOrder[bucket[i].Type] < typeOrder[bucket[j].Type]
		})
		date := dates[key]
		days = append(days, Day{
			Date:   date,
			Label:  dayLabel(date, today),
			Events: bucket,
		})
	}
	return days
}

func dayLabel(date, today Date) string {
	switch {
	case date.Equal(today):
		return "Today"
	case date.Equal(today.AddDays(1)):
		return "Tomorrow"
	default:
		return date.Format("Monday, January 2, 2006")
	}
}

// MonthBoundsOf returns the min/max month spanned by the full event set,
// or nil when there are no events.
func MonthBoundsOf(events []Event) *MonthBounds {
	if len(events) == 0 {
		return nil
	}
	min := events[0].Date.FirstOfMonth()
	max := min
	for _, e := range events[1:] {
		month := e.Date.FirstOfMonth()
		if month.Before(min) {
			min = month
		}
		if month.After(max) {
			max = month
		}
	}
	return &MonthBounds{Min: min, Max: max}
}

// FilterToMonth keeps the events whose date falls in month's calendar
// month.
func FilterToMonth(events []Event, month Date) []Event {
	var filtered []Event
	for _, e := range events {
		if e.Date.SameMonth(month) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// State is the full recomputed timeline: the derived event set, its
// month bounds, and the month currently in view. Values are replaced
// wholesale on every recompute; there is no incremental update.
type State struct {
	Events       []Event     `json:"-"`
	Bounds       *MonthBounds `json:"bounds"`
	CurrentMonth Date        `json:"current_month"`
	Today        Date        `json:"today"`
	Settings     Settings    `json:"settings"`
	Timezone     string      `json:"timezone"`
}

func (s *State) CanGoPrevious() bool {
	return s.Bounds != nil && s.CurrentMonth.After(s.Bounds.Min)
}

func (s *State) CanGoNext() bool {
	return s.Bounds != nil && s.CurrentMonth.Before(s.Bounds.Max)
}

// PreviousMonth steps the view back one month; no-op at the lower bound.
func (s *State) PreviousMonth() {
	if s.CanGoPrevious() {
		s.CurrentMonth = s.CurrentMonth.AddMonths(-1)
	}
}

// NextMonth steps the view forward one month; no-op at the upper bound.
func (s *State) NextMonth() {
	if s.CanGoNext() {
		s.CurrentMonth = s.CurrentMonth.AddMonths(1)
	}
}

// Days returns the current month's view: filtered, grouped, labeled.
func (s *State) Days() []Day {
	return GroupByDate(FilterToMonth(s.Events, s.CurrentMonth), s.Today)
}

// clampMonth pins month inside bounds; with nil bounds it is returned
// unchanged.
func clampMonth(month Date, bounds *MonthBounds) Date {
	if bounds == nil {
		return month
	}
	if month.Before(bounds.Min) {
		return bounds.Min
	}
	if month.After(bounds.Max) {
		return bounds.Max
	}
	return month
}

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/gracebay/prayerwall/internal/model"
)

type PrayerStore struct {
	db *sql.DB
}

func NewPrayerStore(db *sql.DB) *PrayerStore {
	return &PrayerStore{db: db}
}

func scanPrayer(scanner interface{ Scan(...any) error }) (*model.Prayer, error) {
	var p model.Prayer
	var submittedBy sql.NullInt64
	var lastReminder sql.NullTime

	err := scanner.Scan(
		&p.ID, &p.Title, &p.Body, &p.Status, &submittedBy,
		&lastReminder, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if submittedBy.Valid {
		p.SubmittedBy = &submittedBy.Int64
	}
	if lastReminder.Valid {
		t := lastReminder.Time
		p.LastReminderSent = &t
	}
	return &p, nil
}

const prayerCols = `id, title, body, status, submitted_by, last_reminder_sent, created_at, updated_at`

func (s *PrayerStore) Create(title, body string, submittedBy *int64) (*model.Prayer, error) {
	var sBy sql.NullInt64
	if submittedBy != nil {
		sBy = sql.NullInt64{Int64: *submittedBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO prayers (title, body, status, submitted_by) VALUES (?, ?, ?, ?)`,
		title, body, model.StatusPending, sBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert prayer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PrayerStore) GetByID(id int64) (*model.Prayer, error) {
	row := s.db.QueryRow(`SELECT `+prayerCols+` FROM prayers WHERE id = ?`, id)
	p, err := scanPrayer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get prayer: %w", err)
	}
	return p, nil
}

func (s *PrayerStore) List() ([]model.Prayer, error) {
	rows, err := s.db.Query(`SELECT ` + prayerCols + ` FROM prayers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list prayers: %w", err)
	}
	defer rows.Close()

	var prayers []model.Prayer
	for rows.Next() {
		p, err := scanPrayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prayer: %w", err)
		}
		prayers = append(prayers, *p)
	}
	return prayers, rows.Err()
}

func (s *PrayerStore) ListByStatus(status string) ([]model.Prayer, error) {
	rows, err := s.db.Query(
		`SELECT `+prayerCols+` FROM prayers WHERE status = ? ORDER BY created_at DESC`,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("list prayers by status: %w", err)
	}
	defer rows.Close()

	var prayers []model.Prayer
	for rows.Next() {
		p, err := scanPrayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prayer: %w", err)
		}
		prayers = append(prayers, *p)
	}
	return prayers, rows.Err()
}

func (s *PrayerStore) Update(id int64, title, body string) (*model.Prayer, error) {
	_, err := s.db.Exec(
		`UPDATE prayers SET title = ?, body = ?, updated_at = ? WHERE id = ?`,
		title, body, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update prayer: %w", err)
	}
	return s.GetByID(id)
}

// SetStatus transitions a prayer's lifecycle state and bumps updated_at,
// which is what the timeline reads as the answered/archived date.
func (s *PrayerStore) SetStatus(id int64, status string) (*model.Prayer, error) {
	_, err := s.db.Exec(
		`UPDATE prayers SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set prayer status: %w", err)
	}
	return s.GetByID(id)
}

// MarkReminderSent stamps last_reminder_sent without touching updated_at,
// so a delivered reminder does not count as prayer activity.
func (s *PrayerStore) MarkReminderSent(id int64, sentAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE prayers SET last_reminder_sent = ? WHERE id = ?`,
		sentAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}

func (s *PrayerStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM prayers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete prayer: %w", err)
	}
	return nil
}

// --- Update methods ---

func scanUpdate(scanner interface{ Scan(...any) error }) (*model.PrayerUpdate, error) {
	var u model.PrayerUpdate
	var createdBy sql.NullInt64

	err := scanner.Scan(&u.ID, &u.PrayerID, &u.Body, &createdBy, &u.CreatedAt)
	if err != nil {
		return nil, err
	}

	if createdBy.Valid {
		u.CreatedBy = &createdBy.Int64
	}
	return &u, nil
}

const updateCols = `id, prayer_id, body, created_by, created_at`

func (s *PrayerStore) AddUpdate(prayerID int64, body string, createdBy *int64) (*model.PrayerUpdate, error) {
	var cBy sql.NullInt64
	if createdBy != nil {
		cBy = sql.NullInt64{Int64: *createdBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO prayer_updates (prayer_id, body, created_by) VALUES (?, ?, ?)`,
		prayerID, body, cBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert prayer update: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+updateCols+` FROM prayer_updates WHERE id = ?`, id)
	return scanUpdate(row)
}

func (s *PrayerStore) ListUpdates(prayerID int64) ([]model.PrayerUpdate, error) {
	rows, err := s.db.Query(
		`SELECT `+updateCols+` FROM prayer_updates WHERE prayer_id = ? ORDER BY created_at DESC`,
		prayerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list prayer updates: %w", err)
	}
	defer rows.Close()

	var updates []model.PrayerUpdate
	for rows.Next() {
		u, err := scanUpdate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prayer update: %w", err)
		}
		updates = append(updates, *u)
	}
	return updates, rows.Err()
}

// LatestUpdateTimes returns, for every prayer that has at least one
// update, the created_at of its most recent update. One query for the
// whole set; the timeline recomputes over all prayers at once.
func (s *PrayerStore) LatestUpdateTimes() (map[int64]time.Time, error) {
	rows, err := s.db.Query(`SELECT prayer_id, created_at FROM prayer_updates`)
	if err != nil {
		return nil, fmt.Errorf("latest update times: %w", err)
	}
	defer rows.Close()

	latest := make(map[int64]time.Time)
	for rows.Next() {
		var prayerID int64
		var at time.Time
		if err := rows.Scan(&prayerID, &at); err != nil {
			return nil, fmt.Errorf("scan latest update: %w", err)
		}
		if at.After(latest[prayerID]) {
			latest[prayerID] = at
		}
	}
	return latest, rows.Err()
}

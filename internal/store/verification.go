package store

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/gracebay/prayerwall/internal/model"
)

type VerificationCodeStore struct {
	db *sql.DB
}

func NewVerificationCodeStore(db *sql.DB) *VerificationCodeStore {
	return &VerificationCodeStore{db: db}
}

func scanVerificationCode(scanner interface{ Scan(...any) error }) (*model.VerificationCode, error) {
	var vc model.VerificationCode
	var usedAt sql.NullTime

	err := scanner.Scan(
		&vc.ID, &vc.Code, &vc.Email, &vc.ExpiresAt, &usedAt, &vc.Attempts, &vc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if usedAt.Valid {
		vc.UsedAt = &usedAt.Time
	}
	return &vc, nil
}

const verificationCols = `id, code, email, expires_at, used_at, attempts, created_at`

// generateCode returns a 6-digit numeric code (100000-999999).
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Create issues a new verification code with a 15-minute expiry. Any
// pending codes for the same email are invalidated first.
func (s *VerificationCodeStore) Create(email string) (*model.VerificationCode, error) {
	_, err := s.db.Exec(
		`UPDATE verification_codes SET used_at = datetime('now') WHERE email = ? AND used_at IS NULL AND expires_at > datetime('now')`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("invalidate previous codes: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(15 * time.Minute)

	result, err := s.db.Exec(
		`INSERT INTO verification_codes (code, email, expires_at) VALUES (?, ?, ?)`,
		code, email, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert verification code: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+verificationCols+` FROM verification_codes WHERE id = ?`, id)
	return scanVerificationCode(row)
}

// GetByEmailAndCode returns the matching unexpired, unused code, or nil.
func (s *VerificationCodeStore) GetByEmailAndCode(email, code string) (*model.VerificationCode, error) {
	row := s.db.QueryRow(
		`SELECT `+verificationCols+` FROM verification_codes WHERE email = ? AND code = ? AND expires_at > datetime('now') AND used_at IS NULL`,
		email, code,
	)
	vc, err := scanVerificationCode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get verification code: %w", err)
	}
	return vc, nil
}

// IncrementAttempts bumps the attempt count and returns the new value.
func (s *VerificationCodeStore) IncrementAttempts(id int64) (int, error) {
	_, err := s.db.Exec(
		`UPDATE verification_codes SET attempts = attempts + 1 WHERE id = ?`,
		id,
	)
	if err != nil {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}

	var attempts int
	err = s.db.QueryRow(`SELECT attempts FROM verification_codes WHERE id = ?`, id).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("read attempts: %w", err)
	}
	return attempts, nil
}

func (s *VerificationCodeStore) MarkUsed(id int64) error {
	_, err := s.db.Exec(
		`UPDATE verification_codes SET used_at = datetime('now') WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark verification code used: %w", err)
	}
	return nil
}

func (s *VerificationCodeStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM verification_codes WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired verification codes: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

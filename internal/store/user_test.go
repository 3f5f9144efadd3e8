package store

import (
	"testing"

	"github.com/gracebay/prayerwall/internal/database"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreate(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("alice@example.com", "Alice", "secret", true)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "alice@example.com")
	}
	if !u.Admin {
		t.Error("expected admin user")
	}
	if u.PasswordHash == "secret" {
		t.Error("password stored in plain text")
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	us := setupUserTestDB(t)

	us.Create("alice@example.com", "Alice", "secret", false)
	if _, err := us.Create("alice@example.com", "Also Alice", "other", false); err == nil {
		t.Error("expected error for duplicate email")
	}
}

func TestUserCheckPassword(t *testing.T) {
	us := setupUserTestDB(t)

	u, _ := us.Create("alice@example.com", "Alice", "secret", false)

	if !us.CheckPassword(u, "secret") {
		t.Error("expected correct password to verify")
	}
	if us.CheckPassword(u, "wrong") {
		t.Error("expected wrong password to fail")
	}
}

func TestUserGetByEmail(t *testing.T) {
	us := setupUserTestDB(t)

	created, _ := us.Create("alice@example.com", "Alice", "secret", false)

	u, err := us.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.ID != created.ID {
		t.Errorf("id = %d, want %d", u.ID, created.ID)
	}

	missing, err := us.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get missing email: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown email")
	}
}

func TestUserUpdate(t *testing.T) {
	us := setupUserTestDB(t)

	created, _ := us.Create("alice@example.com", "Alice", "secret", false)

	updated, err := us.Update(created.ID, "alice@church.org", "Alice W")
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Email != "alice@church.org" {
		t.Errorf("email = %q, want %q", updated.Email, "alice@church.org")
	}
	if updated.Name != "Alice W" {
		t.Errorf("name = %q, want %q", updated.Name, "Alice W")
	}
}

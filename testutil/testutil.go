package testutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/studyloop/chat_backend/database"
	"github.com/studyloop/chat_backend/models"
	"gorm.io/gorm"
)

// DefaultDSN points at the local development database.
const DefaultDSN = "host=localhost user=postgres password=postgres dbname=studyloop_test port=5432 sslmode=disable TimeZone=UTC"

// SetupTestDB opens a fresh test database with the full schema. Tests
// are skipped when no database is reachable.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = DefaultDSN
	}

	db, err := database.Open(dsn)
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get database handle: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		t.Skipf("test database unavailable: %v", err)
	}

	// Clean slate before each test
	if err := db.Exec(`
		DROP TABLE IF EXISTS poll_votes CASCADE;
		DROP TABLE IF EXISTS poll_options CASCADE;
		DROP TABLE IF EXISTS polls CASCADE;
		DROP TABLE IF EXISTS messages CASCADE;
		DROP TABLE IF EXISTS room_users CASCADE;
		DROP TABLE IF EXISTS rooms CASCADE;
		DROP TABLE IF EXISTS users CASCADE;
	`).Error; err != nil {
		t.Fatalf("clean database: %v", err)
	}

	if err := database.MigrateDB(db); err != nil {
		t.Fatalf("migrate schema: %v", err)
	}

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// CreateTestUser inserts a user and returns it.
func CreateTestUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()

	user := models.User{
		Username: username,
		Tag:      "0001",
		Email:    fmt.Sprintf("%s@example.com", username),
	}
	if err := user.SetPassword("password123"); err != nil {
		t.Fatalf("hash test password: %v", err)
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create test user %q: %v", username, err)
	}
	return user
}

// CreateTestUsers inserts n users named user0..user(n-1).
func CreateTestUsers(t *testing.T, db *gorm.DB, n int) []models.User {
	t.Helper()

	users := make([]models.User, n)
	for i := range users {
		users[i] = CreateTestUser(t, db, fmt.Sprintf("user%d", i))
	}
	return users
}

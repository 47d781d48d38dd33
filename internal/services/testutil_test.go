package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/gatherup/backend/internal/config"
	"github.com/gatherup/backend/internal/database"
	"github.com/gatherup/backend/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testLockTimeout = time.Duration(0)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	return db
}

func testRetryConfig() config.RetryConfig {
	return config.RetryConfig{
		MaxRetries: 3,
		BaseDelay:  5 * time.Millisecond,
		MaxDelay:   50 * time.Millisecond,
	}
}

func seedUser(t *testing.T, db *gorm.DB, nickname string) *models.User {
	t.Helper()

	user := models.User{
		Email:        fmt.Sprintf("%s@test.com", nickname),
		PasswordHash: "x",
		Nickname:     nickname,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed seeding user %s: %v", nickname, err)
	}
	return &user
}

// seedGroup creates a group hosted by the first user with the rest joined as
// companions.
func seedGroup(t *testing.T, db *gorm.DB, name string, host *models.User, companions ...*models.User) *models.Group {
	t.Helper()

	group := models.Group{Name: name, HostID: host.ID}
	if err := db.Create(&group).Error; err != nil {
		t.Fatalf("failed seeding group %s: %v", name, err)
	}

	hostMember := models.GroupMember{GroupID: group.ID, UserID: host.ID, Role: models.GroupRoleHost}
	if err := db.Create(&hostMember).Error; err != nil {
		t.Fatalf("failed seeding host membership: %v", err)
	}

	for _, companion := range companions {
		member := models.GroupMember{GroupID: group.ID, UserID: companion.ID, Role: models.GroupRoleCompanion}
		if err := db.Create(&member).Error; err != nil {
			t.Fatalf("failed seeding companion membership: %v", err)
		}
	}

	return &group
}

func seedTrip(t *testing.T, db *gorm.DB, group *models.Group, date string) *models.Trip {
	t.Helper()

	trip := models.Trip{GroupID: group.ID, Date: date}
	if err := db.Create(&trip).Error; err != nil {
		t.Fatalf("failed seeding trip: %v", err)
	}
	return &trip
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var count int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return count
}

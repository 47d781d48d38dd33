package services

import (
	"errors"
	"testing"

	"github.com/gatherup/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newDepartureService(db *gorm.DB) *DepartureService {
	return NewDepartureService(db, testRetryConfig(), testLockTimeout)
}

// seedFullGroup builds a group with a trip, locations, payments with shares,
// an invite, a background, and calendar entries, so cascade tests can assert
// nothing survives.
func seedFullGroup(t *testing.T, db *gorm.DB, host, companion *models.User) (*models.Group, *models.Trip) {
	t.Helper()

	group := seedGroup(t, db, "full", host, companion)
	trip := seedTrip(t, db, group, "2026-09-01~2026-09-03")

	location := models.Location{TripID: trip.ID, Day: 1, Destination: "Seoul", Name: "market", VisitTime: "10:00"}
	if err := db.Create(&location).Error; err != nil {
		t.Fatalf("failed seeding location: %v", err)
	}

	payment := models.Payment{TripID: trip.ID, Category: "meals", TotalPrice: 30000, PaidByID: host.ID, Version: 1}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("failed seeding payment: %v", err)
	}
	for _, u := range []*models.User{host, companion} {
		share := models.PaymentShare{PaymentID: payment.ID, UserID: u.ID, IsPaid: u.ID == host.ID}
		if err := db.Create(&share).Error; err != nil {
			t.Fatalf("failed seeding payment share: %v", err)
		}
	}

	invite := models.GroupInvite{GroupID: group.ID, CreatedByID: host.ID, Code: uuid.New()}
	if err := db.Create(&invite).Error; err != nil {
		t.Fatalf("failed seeding invite: %v", err)
	}
	background := models.GroupBackground{GroupID: group.ID, BackgroundURL: "https://img/bg.png"}
	if err := db.Create(&background).Error; err != nil {
		t.Fatalf("failed seeding background: %v", err)
	}
	for _, u := range []*models.User{host, companion} {
		entry := models.CalendarEntry{GroupID: group.ID, UserID: u.ID, StartDate: "2026-09-01", EndDate: "2026-09-03"}
		if err := db.Create(&entry).Error; err != nil {
			t.Fatalf("failed seeding calendar entry: %v", err)
		}
	}

	return group, trip
}

func assertGroupGone(t *testing.T, db *gorm.DB, groupID, tripID uint) {
	t.Helper()

	checks := []struct {
		name  string
		model interface{}
		query string
		args  []interface{}
	}{
		{"group", &models.Group{}, "id = ?", []interface{}{groupID}},
		{"members", &models.GroupMember{}, "group_id = ?", []interface{}{groupID}},
		{"calendar entries", &models.CalendarEntry{}, "group_id = ?", []interface{}{groupID}},
		{"invites", &models.GroupInvite{}, "group_id = ?", []interface{}{groupID}},
		{"backgrounds", &models.GroupBackground{}, "group_id = ?", []interface{}{groupID}},
		{"trips", &models.Trip{}, "group_id = ?", []interface{}{groupID}},
		{"locations", &models.Location{}, "trip_id = ?", []interface{}{tripID}},
		{"payments", &models.Payment{}, "trip_id = ?", []interface{}{tripID}},
	}
	for _, check := range checks {
		if n := countRows(t, db, check.model, check.query, check.args...); n != 0 {
			t.Fatalf("expected no %s after cascade, got %d", check.name, n)
		}
	}
	if n := countRows(t, db, &models.PaymentShare{}, ""); n != 0 {
		t.Fatalf("expected no payment shares after cascade, got %d", n)
	}
}

func TestLeaveGroupByTripIDSequentialDepartures(t *testing.T) {
	db := openTestDB(t)
	svc := newDepartureService(db)

	host := seedUser(t, db, "host")
	companion := seedUser(t, db, "companion")
	group, trip := seedFullGroup(t, db, host, companion)

	t.Run("first leave only removes the membership", func(t *testing.T) {
		if err := svc.LeaveGroupByTripID(trip.ID, companion.ID); err != nil {
			t.Fatalf("first leave failed: %v", err)
		}
		if n := countRows(t, db, &models.GroupMember{}, "group_id = ?", group.ID); n != 1 {
			t.Fatalf("expected 1 remaining member, got %d", n)
		}
		if n := countRows(t, db, &models.Group{}, "id = ?", group.ID); n != 1 {
			t.Fatal("group must survive while members remain")
		}
	})

	t.Run("last leave cascades the whole group", func(t *testing.T) {
		if err := svc.LeaveGroupByTripID(trip.ID, host.ID); err != nil {
			t.Fatalf("last leave failed: %v", err)
		}
		assertGroupGone(t, db, group.ID, trip.ID)
	})

	t.Run("leave after cascade reports trip gone", func(t *testing.T) {
		err := svc.LeaveGroupByTripID(trip.ID, host.ID)
		if !errors.Is(err, ErrTripNotFound) {
			t.Fatalf("expected ErrTripNotFound, got %v", err)
		}
	})
}

func TestLeaveGroupByTripIDNonMember(t *testing.T) {
	db := openTestDB(t)
	svc := newDepartureService(db)

	host := seedUser(t, db, "host")
	outsider := seedUser(t, db, "outsider")
	group := seedGroup(t, db, "closed", host)
	trip := seedTrip(t, db, group, "2026-10-01~2026-10-02")

	err := svc.LeaveGroupByTripID(trip.ID, outsider.ID)
	if !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if n := countRows(t, db, &models.GroupMember{}, "group_id = ?", group.ID); n != 1 {
		t.Fatalf("membership must be untouched, got %d rows", n)
	}
}

func TestLeaveGroupHostCascades(t *testing.T) {
	db := openTestDB(t)
	svc := newDepartureService(db)

	host := seedUser(t, db, "host")
	companion := seedUser(t, db, "companion")
	group, trip := seedFullGroup(t, db, host, companion)

	deleted, err := svc.LeaveGroup(group.ID, host.ID)
	if err != nil {
		t.Fatalf("host leave failed: %v", err)
	}
	if !deleted {
		t.Fatal("host departure must report the group deleted")
	}
	assertGroupGone(t, db, group.ID, trip.ID)
}

func TestLeaveGroupCompanionKeepsGroup(t *testing.T) {
	db := openTestDB(t)
	svc := newDepartureService(db)

	host := seedUser(t, db, "host")
	companion := seedUser(t, db, "companion")
	group, _ := seedFullGroup(t, db, host, companion)

	deleted, err := svc.LeaveGroup(group.ID, companion.ID)
	if err != nil {
		t.Fatalf("companion leave failed: %v", err)
	}
	if deleted {
		t.Fatal("companion departure must not delete the group")
	}

	if n := countRows(t, db, &models.GroupMember{}, "group_id = ? AND user_id = ?", group.ID, companion.ID); n != 0 {
		t.Fatal("companion membership must be removed")
	}
	if n := countRows(t, db, &models.CalendarEntry{}, "group_id = ? AND user_id = ?", group.ID, companion.ID); n != 0 {
		t.Fatal("companion calendar entry must be removed")
	}
	if n := countRows(t, db, &models.CalendarEntry{}, "group_id = ? AND user_id = ?", group.ID, host.ID); n != 1 {
		t.Fatal("host calendar entry must survive")
	}
}

func TestDeleteGroup(t *testing.T) {
	db := openTestDB(t)
	svc := newDepartureService(db)

	host := seedUser(t, db, "host")
	companion := seedUser(t, db, "companion")
	group, trip := seedFullGroup(t, db, host, companion)

	t.Run("companion is refused", func(t *testing.T) {
		err := svc.DeleteGroup(group.ID, companion.ID)
		if !errors.Is(err, ErrNotHost) {
			t.Fatalf("expected ErrNotHost, got %v", err)
		}
	})

	t.Run("host cascade-deletes", func(t *testing.T) {
		if err := svc.DeleteGroup(group.ID, host.ID); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		assertGroupGone(t, db, group.ID, trip.ID)
	})
}

package services

import (
	"errors"
	"time"

	"github.com/gatherup/backend/internal/config"
	"github.com/gatherup/backend/internal/database"
	"github.com/gatherup/backend/internal/models"
	"gorm.io/gorm"
)

// DepartureService owns the multi-statement departure and deletion paths:
// a member leaving, the host tearing the whole group down, and the cascade
// that keeps no orphan rows behind. These are the operations most exposed to
// concurrent access, so every entry point runs under the contention retry
// policy and serializes on the group row lock.
type DepartureService struct {
	DB          *gorm.DB
	Retry       config.RetryConfig
	LockTimeout time.Duration
}

func NewDepartureService(db *gorm.DB, retry config.RetryConfig, lockTimeout time.Duration) *DepartureService {
	return &DepartureService{DB: db, Retry: retry, LockTimeout: lockTimeout}
}

// LeaveGroupByTripID removes the user from the group owning the trip. If they
// are the last member the whole group is cascade-deleted. Two members leaving
// at once both race toward the "last member" branch; the row lock on the
// group makes the second transaction observe the first one's delete.
func (s *DepartureService) LeaveGroupByTripID(tripID, userID uint) error {
	return database.WithRetry(s.DB, s.Retry, s.LockTimeout, func(tx *gorm.DB) error {
		var trip models.Trip
		if err := database.LockForUpdate(tx).First(&trip, "id = ?", tripID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTripNotFound
			}
			return err
		}

		var group models.Group
		if err := database.LockForUpdate(tx).First(&group, "id = ?", trip.GroupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return err
		}

		var isMember int64
		if err := tx.Model(&models.GroupMember{}).
			Where("group_id = ? AND user_id = ?", group.ID, userID).
			Count(&isMember).Error; err != nil {
			return err
		}
		if isMember == 0 {
			return ErrNotMember
		}

		var memberCount int64
		if err := tx.Model(&models.GroupMember{}).
			Where("group_id = ?", group.ID).
			Count(&memberCount).Error; err != nil {
			return err
		}

		if memberCount == 1 {
			return cascadeDeleteGroup(tx, group.ID)
		}

		return tx.Where("group_id = ? AND user_id = ?", group.ID, userID).
			Delete(&models.GroupMember{}).Error
	})
}

// LeaveGroup handles an explicit leave request. A departing host takes the
// whole group with them (cascade); a companion only loses their own
// membership and calendar entry. Reports whether the group was deleted.
func (s *DepartureService) LeaveGroup(groupID, userID uint) (groupDeleted bool, err error) {
	err = database.WithRetry(s.DB, s.Retry, s.LockTimeout, func(tx *gorm.DB) error {
		groupDeleted = false

		var group models.Group
		if err := database.LockForUpdate(tx).First(&group, "id = ?", groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return err
		}

		var member models.GroupMember
		if err := tx.First(&member, "group_id = ? AND user_id = ?", groupID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotMember
			}
			return err
		}

		if member.Role == models.GroupRoleHost {
			groupDeleted = true
			return cascadeDeleteGroup(tx, groupID)
		}

		if err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).
			Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Where("group_id = ? AND user_id = ?", groupID, userID).
			Delete(&models.CalendarEntry{}).Error
	})
	return groupDeleted, err
}

// DeleteGroup tears the group down on an explicit delete request. Unlike
// LeaveGroup it re-verifies the HOST role and refuses anyone else.
func (s *DepartureService) DeleteGroup(groupID, userID uint) error {
	return database.WithRetry(s.DB, s.Retry, s.LockTimeout, func(tx *gorm.DB) error {
		var group models.Group
		if err := database.LockForUpdate(tx).First(&group, "id = ?", groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return err
		}

		var member models.GroupMember
		if err := tx.First(&member, "group_id = ? AND user_id = ?", groupID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotMember
			}
			return err
		}
		if member.Role != models.GroupRoleHost {
			return ErrNotHost
		}

		return cascadeDeleteGroup(tx, groupID)
	})
}

// cascadeDeleteGroup removes every row referencing the group, children before
// parents. The order is explicit rather than relying on foreign-key cascades
// so it behaves identically across store engines.
func cascadeDeleteGroup(tx *gorm.DB, groupID uint) error {
	tripIDs := func() *gorm.DB {
		return tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.Trip{}).Select("id").Where("group_id = ?", groupID)
	}
	paymentIDs := func() *gorm.DB {
		return tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.Payment{}).Select("id").Where("trip_id IN (?)", tripIDs())
	}

	steps := []func() error{
		func() error {
			return tx.Where("payment_id IN (?)", paymentIDs()).Delete(&models.PaymentShare{}).Error
		},
		func() error {
			return tx.Where("trip_id IN (?)", tripIDs()).Delete(&models.Payment{}).Error
		},
		func() error {
			return tx.Where("trip_id IN (?)", tripIDs()).Delete(&models.Location{}).Error
		},
		func() error {
			return tx.Where("group_id = ?", groupID).Delete(&models.Trip{}).Error
		},
		func() error {
			return tx.Where("group_id = ?", groupID).Delete(&models.GroupInvite{}).Error
		},
		func() error {
			return tx.Where("group_id = ?", groupID).Delete(&models.GroupBackground{}).Error
		},
		func() error {
			return tx.Where("group_id = ?", groupID).Delete(&models.CalendarEntry{}).Error
		},
		func() error {
			return tx.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error
		},
		func() error {
			return tx.Delete(&models.Group{}, "id = ?", groupID).Error
		},
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

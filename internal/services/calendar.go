package services

import (
	"errors"
	"time"

	"github.com/gatherup/backend/internal/database"
	"github.com/gatherup/backend/internal/models"
	"gorm.io/gorm"
)

// CalendarService keeps each member's available date range for a group while
// the trip is being planned.
type CalendarService struct {
	DB          *gorm.DB
	LockTimeout time.Duration
}

func NewCalendarService(db *gorm.DB, lockTimeout time.Duration) *CalendarService {
	return &CalendarService{DB: db, LockTimeout: lockTimeout}
}

// CalendarDate is one member's range joined with their nickname, shaped for
// broadcast to the planning room.
type CalendarDate struct {
	UserID    uint   `json:"userID"`
	Nickname  string `json:"nickname"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// SetDate records the user's available range for the group. An existing range
// is replaced, not merged: the row is deleted and reinserted so repeated
// submissions always converge on the latest one.
func (s *CalendarService) SetDate(groupID, userID uint, startDate, endDate string) (*CalendarDate, error) {
	if err := s.requireMembership(groupID, userID); err != nil {
		return nil, err
	}

	entry := models.CalendarEntry{
		GroupID:   groupID,
		UserID:    userID,
		StartDate: startDate,
		EndDate:   endDate,
	}

	err := database.RunInTransaction(s.DB, s.LockTimeout, func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).
			Delete(&models.CalendarEntry{}).Error; err != nil {
			return err
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &CalendarDate{
		UserID:    userID,
		Nickname:  user.Nickname,
		StartDate: entry.StartDate,
		EndDate:   entry.EndDate,
	}, nil
}

// ClearDate removes the user's range for the group. Reports whether a row was
// actually removed so callers can skip the broadcast when nothing changed.
func (s *CalendarService) ClearDate(groupID, userID uint) (removed bool, err error) {
	if err := s.requireMembership(groupID, userID); err != nil {
		return false, err
	}

	result := s.DB.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.CalendarEntry{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Dates lists every member's submitted range for the group.
func (s *CalendarService) Dates(groupID uint) ([]CalendarDate, error) {
	var dates []CalendarDate
	err := s.DB.
		Table("calendar_entries").
		Select("calendar_entries.user_id, users.nickname, calendar_entries.start_date, calendar_entries.end_date").
		Joins("JOIN users ON users.id = calendar_entries.user_id").
		Where("calendar_entries.group_id = ?", groupID).
		Order("calendar_entries.created_at ASC").
		Scan(&dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}

func (s *CalendarService) requireMembership(groupID, userID uint) error {
	var count int64
	err := s.DB.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotMember
	}
	return nil
}

package services

import (
	"github.com/gatherup/backend/internal/models"
	"gorm.io/gorm"
)

// HistoryService lists the finished trips a user took part in.
type HistoryService struct {
	DB *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{DB: db}
}

type TripHistory struct {
	GroupID       uint    `json:"groupId"`
	GroupName     string  `json:"groupName"`
	TripID        uint    `json:"tripId"`
	Date          string  `json:"date"`
	BackgroundURL *string `json:"backgroundUrl"`
}

// History returns the user's finished trips newest-first, with the cover
// background when one was uploaded.
func (s *HistoryService) History(userID uint) ([]TripHistory, error) {
	var histories []TripHistory
	err := s.DB.
		Table("groups").
		Select("groups.id AS group_id, groups.name AS group_name, trips.id AS trip_id, trips.date, group_backgrounds.background_url").
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Joins("JOIN trips ON trips.group_id = groups.id").
		Joins("LEFT JOIN group_backgrounds ON group_backgrounds.group_id = groups.id").
		Where("group_members.user_id = ? AND groups.finished = ?", userID, true).
		Order("trips.date DESC").
		Scan(&histories).Error
	if err != nil {
		return nil, err
	}
	return histories, nil
}

// SetBackground records the cover image for a finished group, replacing any
// previous one.
func (s *HistoryService) SetBackground(groupID uint, backgroundURL string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).
			Delete(&models.GroupBackground{}).Error; err != nil {
			return err
		}
		background := models.GroupBackground{
			GroupID:       groupID,
			BackgroundURL: backgroundURL,
		}
		return tx.Create(&background).Error
	})
}

package services

import (
	"errors"
	"strings"
	"time"

	"github.com/gatherup/backend/internal/database"
	"github.com/gatherup/backend/internal/models"
	"gorm.io/gorm"
)

type TripService struct {
	DB          *gorm.DB
	LockTimeout time.Duration
}

func NewTripService(db *gorm.DB, lockTimeout time.Duration) *TripService {
	return &TripService{DB: db, LockTimeout: lockTimeout}
}

type LocationInput struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	VisitTime string  `json:"visitTime"`
	Category  string  `json:"category"`
	Hashtag   string  `json:"hashtag"`
	Thumbnail *string `json:"thumbnail,omitempty"`
}

type DayPlanInput struct {
	Day         int             `json:"day"`
	Destination string          `json:"destination"`
	Locations   []LocationInput `json:"locations"`
}

type CreateTripInput struct {
	GroupID        uint           `json:"groupId"`
	GroupName      string         `json:"groupName"`
	GroupThumbnail *string        `json:"groupThumbnail,omitempty"`
	Date           string         `json:"date"`
	Days           []DayPlanInput `json:"days"`
}

// CreateTrip finalizes a group's scheduling: the group is renamed and marked
// scheduled, the trip row is inserted, and every planned location lands, all
// in one transaction.
func (s *TripService) CreateTrip(userID uint, input CreateTripInput) (*models.Trip, error) {
	if err := s.requireMembership(input.GroupID, userID); err != nil {
		return nil, err
	}

	trip := models.Trip{
		GroupID: input.GroupID,
		Date:    input.Date,
	}

	err := database.RunInTransaction(s.DB, s.LockTimeout, func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"name":      input.GroupName,
			"scheduled": true,
		}
		if input.GroupThumbnail != nil {
			updates["thumbnail"] = *input.GroupThumbnail
		}
		result := tx.Model(&models.Group{}).Where("id = ?", input.GroupID).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrGroupNotFound
		}

		if err := tx.Create(&trip).Error; err != nil {
			return err
		}

		for _, day := range input.Days {
			for _, loc := range day.Locations {
				location := models.Location{
					TripID:      trip.ID,
					Day:         day.Day,
					Destination: day.Destination,
					Name:        loc.Name,
					Address:     loc.Address,
					VisitTime:   loc.VisitTime,
					Category:    loc.Category,
					Hashtag:     loc.Hashtag,
					Thumbnail:   loc.Thumbnail,
				}
				if err := tx.Create(&location).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &trip, nil
}

type DayPlan struct {
	Day         int               `json:"day"`
	Destination string            `json:"destination"`
	Locations   []models.Location `json:"locations"`
}

type TripDetails struct {
	TripID         uint      `json:"tripID"`
	GroupID        uint      `json:"groupID"`
	Date           string    `json:"date"`
	GroupName      string    `json:"groupName"`
	GroupThumbnail *string   `json:"groupThumbnail,omitempty"`
	Days           []DayPlan `json:"days"`
}

// TripDetails returns the trip with its locations grouped per day, ordered by
// day then visit time.
func (s *TripService) TripDetails(tripID uint) (*TripDetails, error) {
	var trip models.Trip
	if err := s.DB.Preload("Group").First(&trip, "id = ?", tripID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	var locations []models.Location
	if err := s.DB.
		Where("trip_id = ?", tripID).
		Order("day ASC, visit_time ASC").
		Find(&locations).Error; err != nil {
		return nil, err
	}

	details := TripDetails{
		TripID:         trip.ID,
		GroupID:        trip.GroupID,
		Date:           trip.Date,
		GroupName:      trip.Group.Name,
		GroupThumbnail: trip.Group.Thumbnail,
	}

	byDay := map[int]int{}
	for _, loc := range locations {
		idx, ok := byDay[loc.Day]
		if !ok {
			details.Days = append(details.Days, DayPlan{Day: loc.Day, Destination: loc.Destination})
			idx = len(details.Days) - 1
			byDay[loc.Day] = idx
		}
		details.Days[idx].Locations = append(details.Days[idx].Locations, loc)
	}

	return &details, nil
}

type TripSummary struct {
	TripID    uint      `json:"tripID"`
	Date      string    `json:"date"`
	GroupName string    `json:"groupName"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *TripService) UserTrips(userID uint) ([]TripSummary, error) {
	var trips []TripSummary
	err := s.DB.
		Table("trips").
		Select("DISTINCT trips.id AS trip_id, trips.date, groups.name AS group_name, trips.created_at").
		Joins("JOIN groups ON groups.id = trips.group_id").
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Order("trips.created_at DESC").
		Scan(&trips).Error
	if err != nil {
		return nil, err
	}
	return trips, nil
}

// UpcomingTrip picks the user's nearest trip that has not started yet. Trip
// dates are stored as "start~end" with ISO dates, so lexicographic comparison
// on the start segment is sufficient.
func (s *TripService) UpcomingTrip(userID uint) (*TripSummary, error) {
	trips, err := s.UserTrips(userID)
	if err != nil {
		return nil, err
	}

	today := time.Now().Format("2006-01-02")
	var upcoming *TripSummary
	for i := range trips {
		start, _, ok := strings.Cut(trips[i].Date, "~")
		if !ok {
			start = trips[i].Date
		}
		if start < today {
			continue
		}
		if upcoming == nil || start < upcomingStart(upcoming) {
			upcoming = &trips[i]
		}
	}
	if upcoming == nil {
		return nil, ErrTripNotFound
	}
	return upcoming, nil
}

func upcomingStart(t *TripSummary) string {
	start, _, ok := strings.Cut(t.Date, "~")
	if !ok {
		return t.Date
	}
	return start
}

// TripIDForGroup resolves the trip a member is redirected to after joining an
// already-scheduled group.
func (s *TripService) TripIDForGroup(groupID uint) (uint, error) {
	var trip models.Trip
	err := s.DB.Where("group_id = ?", groupID).Order("created_at DESC").First(&trip).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrTripNotFound
		}
		return 0, err
	}
	return trip.ID, nil
}

type UpdateLocationInput struct {
	LocationID uint    `json:"locationId"`
	Name       *string `json:"name,omitempty"`
	Address    *string `json:"address,omitempty"`
	Category   *string `json:"category,omitempty"`
	Hashtag    *string `json:"hashtag,omitempty"`
	Thumbnail  *string `json:"thumbnail,omitempty"`
	VisitTime  *string `json:"visitTime,omitempty"`
	// ExpectedVersion, when set, must match the stored version or the update
	// is rejected with ErrVersionConflict. Callers that skip it accept
	// last-write-wins.
	ExpectedVersion *int `json:"expectedVersion,omitempty"`
}

// UpdateLocation edits one itinerary stop under a row lock, bumping the
// version in the same statement that applies the field changes. The caller is
// authorized against the group owning the location's trip, never against a
// group id the caller names.
func (s *TripService) UpdateLocation(userID uint, input UpdateLocationInput) error {
	return database.RunInTransaction(s.DB, s.LockTimeout, func(tx *gorm.DB) error {
		var location models.Location
		if err := database.LockForUpdate(tx).First(&location, "id = ?", input.LocationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLocationNotFound
			}
			return err
		}

		if err := requireOwningGroupMembership(tx, location.TripID, userID); err != nil {
			return err
		}

		if input.ExpectedVersion != nil && *input.ExpectedVersion != location.Version {
			return ErrVersionConflict
		}

		updates := map[string]interface{}{
			"version": location.Version + 1,
		}
		if input.Name != nil {
			updates["name"] = *input.Name
		}
		if input.Address != nil {
			updates["address"] = *input.Address
		}
		if input.Category != nil {
			updates["category"] = *input.Category
		}
		if input.Hashtag != nil {
			updates["hashtag"] = *input.Hashtag
		}
		if input.Thumbnail != nil {
			updates["thumbnail"] = *input.Thumbnail
		}
		if input.VisitTime != nil {
			updates["visit_time"] = *input.VisitTime
		}

		result := tx.Model(&models.Location{}).
			Where("id = ? AND version = ?", location.ID, location.Version).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}
		return nil
	})
}

func (s *TripService) DeleteLocation(userID, locationID uint) error {
	return database.RunInTransaction(s.DB, s.LockTimeout, func(tx *gorm.DB) error {
		var location models.Location
		if err := tx.First(&location, "id = ?", locationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLocationNotFound
			}
			return err
		}

		if err := requireOwningGroupMembership(tx, location.TripID, userID); err != nil {
			return err
		}

		return tx.Delete(&models.Location{}, "id = ?", locationID).Error
	})
}

// requireOwningGroupMembership resolves the group behind a trip and checks the
// user belongs to it. Used by location mutations, where the only identifier
// the caller supplies is the location id.
func requireOwningGroupMembership(tx *gorm.DB, tripID, userID uint) error {
	var trip models.Trip
	if err := tx.Select("group_id").First(&trip, "id = ?", tripID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTripNotFound
		}
		return err
	}

	var count int64
	err := tx.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", trip.GroupID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotMember
	}
	return nil
}

func (s *TripService) requireMembership(groupID, userID uint) error {
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

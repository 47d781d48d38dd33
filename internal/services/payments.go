package services

import (
	"errors"
	"time"

	"github.com/gatherup/backend/internal/config"
	"github.com/gatherup/backend/internal/database"
	"github.com/gatherup/backend/internal/models"
	"gorm.io/gorm"
)

// PaymentService covers the settlement ledger of a trip. Writes go through the
// contention retry policy because members commonly batch-save receipts at the
// same moment, against the same trip row.
type PaymentService struct {
	DB          *gorm.DB
	Retry       config.RetryConfig
	LockTimeout time.Duration
}

func NewPaymentService(db *gorm.DB, retry config.RetryConfig, lockTimeout time.Duration) *PaymentService {
	return &PaymentService{DB: db, Retry: retry, LockTimeout: lockTimeout}
}

type SavePaymentInput struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	TotalPrice  int64  `json:"price"`
	PaidByID    uint   `json:"paidByID"`
	Date        string `json:"date"`
	// ShareUserIDs names the members splitting this payment. Empty means the
	// payer covered it alone and nothing is owed.
	ShareUserIDs []uint `json:"shareUserIDs"`
}

// SavePayments inserts a batch of payments with their shares in a single
// transaction, so a partially recorded receipt list can never be observed. The
// trip row is locked first to serialize against a concurrent cascade delete.
func (s *PaymentService) SavePayments(tripID uint, inputs []SavePaymentInput) ([]models.Payment, error) {
	var saved []models.Payment

	err := database.WithRetry(s.DB, s.Retry, s.LockTimeout, func(tx *gorm.DB) error {
		saved = saved[:0]

		var trip models.Trip
		if err := database.LockForUpdate(tx).First(&trip, "id = ?", tripID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTripNotFound
			}
			return err
		}

		for _, input := range inputs {
			payment := models.Payment{
				TripID:      tripID,
				Category:    input.Category,
				Description: input.Description,
				TotalPrice:  input.TotalPrice,
				PaidByID:    input.PaidByID,
				Date:        input.Date,
				Version:     1,
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}

			for _, shareUserID := range input.ShareUserIDs {
				share := models.PaymentShare{
					PaymentID: payment.ID,
					UserID:    shareUserID,
					// The payer's own slice is settled the moment it exists.
					IsPaid: shareUserID == input.PaidByID,
				}
				if err := tx.Create(&share).Error; err != nil {
					return err
				}
				payment.Shares = append(payment.Shares, share)
			}

			saved = append(saved, payment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

type UpdatePaymentInput struct {
	PaymentID   uint    `json:"paymentId"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	TotalPrice  *int64  `json:"price,omitempty"`
	PaidByID    *uint   `json:"paidByID,omitempty"`
	Date        *string `json:"date,omitempty"`
	// ShareUserIDs nil leaves the share list untouched; non-nil (including
	// empty) replaces it wholesale.
	ShareUserIDs    *[]uint `json:"shareUserIDs,omitempty"`
	ExpectedVersion *int    `json:"expectedVersion,omitempty"`
}

// UpdatePayments applies a batch of partial edits in one transaction. Each
// payment is lock-read, checked against the caller's expected version when one
// is supplied, and bumped in the same statement as the field changes.
func (s *PaymentService) UpdatePayments(tripID uint, inputs []UpdatePaymentInput) error {
	return database.WithRetry(s.DB, s.Retry, s.LockTimeout, func(tx *gorm.DB) error {
		for _, input := range inputs {
			var payment models.Payment
			err := database.LockForUpdate(tx).
				First(&payment, "id = ? AND trip_id = ?", input.PaymentID, tripID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrPaymentNotFound
				}
				return err
			}

			if input.ExpectedVersion != nil && *input.ExpectedVersion != payment.Version {
				return ErrVersionConflict
			}

			updates := map[string]interface{}{
				"version": payment.Version + 1,
			}
			if input.Category != nil {
				updates["category"] = *input.Category
			}
			if input.Description != nil {
				updates["description"] = *input.Description
			}
			if input.TotalPrice != nil {
				updates["total_price"] = *input.TotalPrice
			}
			if input.PaidByID != nil {
				updates["paid_by_id"] = *input.PaidByID
			}
			if input.Date != nil {
				updates["date"] = *input.Date
			}

			result := tx.Model(&models.Payment{}).
				Where("id = ? AND version = ?", payment.ID, payment.Version).
				Updates(updates)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrVersionConflict
			}

			if input.ShareUserIDs != nil {
				if err := tx.Where("payment_id = ?", payment.ID).
					Delete(&models.PaymentShare{}).Error; err != nil {
					return err
				}
				paidByID := payment.PaidByID
				if input.PaidByID != nil {
					paidByID = *input.PaidByID
				}
				for _, shareUserID := range *input.ShareUserIDs {
					share := models.PaymentShare{
						PaymentID: payment.ID,
						UserID:    shareUserID,
						IsPaid:    shareUserID == paidByID,
					}
					if err := tx.Create(&share).Error; err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

// PaymentsByTrip lists a trip's payments oldest-first with payer and share
// rows preloaded.
func (s *PaymentService) PaymentsByTrip(tripID uint) ([]models.Payment, error) {
	var exists int64
	if err := s.DB.Model(&models.Trip{}).Where("id = ?", tripID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrTripNotFound
	}

	var payments []models.Payment
	err := s.DB.
		Preload("PaidBy").
		Preload("Shares").
		Preload("Shares.User").
		Where("trip_id = ?", tripID).
		Order("created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// TripMembers lists the members of a trip's group, for populating the payer
// and split pickers.
func (s *PaymentService) TripMembers(tripID uint) ([]MemberInfo, error) {
	var trip models.Trip
	if err := s.DB.First(&trip, "id = ?", tripID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	var members []MemberInfo
	err := s.DB.
		Table("group_members").
		Select("group_members.user_id, users.nickname, users.profile_image, group_members.role").
		Joins("JOIN users ON users.id = group_members.user_id").
		Where("group_members.group_id = ?", trip.GroupID).
		Order("group_members.role = 'HOST' DESC, group_members.joined_at ASC").
		Scan(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// SettleShare marks one member's slice of a payment as paid back.
func (s *PaymentService) SettleShare(paymentID, userID uint) error {
	result := s.DB.Model(&models.PaymentShare{}).
		Where("payment_id = ? AND user_id = ?", paymentID, userID).
		Update("is_paid", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/shg-marketplace-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SHGRegistry resolves SHG profiles for the bidding workflow
type SHGRegistry interface {
	FindByOwner(ctx context.Context, userID uint) (*models.SHG, error)
	FindByID(ctx context.Context, shgID uint) (*models.SHG, error)
}

// RegisterSHGInput is the data an operator submits to register their group
type RegisterSHGInput struct {
	ShgName            string
	Description        string
	RegistrationNumber string
}

// SHGService manages SHG profiles and their admin approval
type SHGService struct {
	db       *gorm.DB
	notifier Notifier
	logger   *zap.Logger
}

// NewSHGService creates an SHGService
func NewSHGService(db *gorm.DB, notifier Notifier, logger *zap.Logger) *SHGService {
	return &SHGService{db: db, notifier: notifier, logger: logger}
}

// FindByOwner returns the SHG owned by userID in any approval state
func (s *SHGService) FindByOwner(ctx context.Context, userID uint) (*models.SHG, error) {
	var shg models.SHG
	err := s.db.WithContext(ctx).Where("owner_user_id = ?", userID).First(&shg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("SHG_NOT_FOUND", "SHG profile not found")
	}
	if err != nil {
		return nil, dependency("Failed to fetch SHG profile", err)
	}
	return &shg, nil
}

// FindByID returns the SHG with the given id
func (s *SHGService) FindByID(ctx context.Context, shgID uint) (*models.SHG, error) {
	var shg models.SHG
	err := s.db.WithContext(ctx).First(&shg, shgID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("SHG_NOT_FOUND", "SHG not found")
	}
	if err != nil {
		return nil, dependency("Failed to fetch SHG", err)
	}
	return &shg, nil
}

// Register creates a pending SHG profile for the operator
func (s *SHGService) Register(ctx context.Context, ownerID uint, input RegisterSHGInput) (*models.SHG, error) {
	input.ShgName = strings.TrimSpace(input.ShgName)
	input.RegistrationNumber = strings.TrimSpace(input.RegistrationNumber)
	if input.ShgName == "" || input.RegistrationNumber == "" {
		return nil, validationError("shgName and registrationNumber are required")
	}

	shg := models.SHG{
		OwnerUserID:        ownerID,
		ShgName:            input.ShgName,
		Description:        strings.TrimSpace(input.Description),
		RegistrationNumber: input.RegistrationNumber,
		Status:             models.SHGPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.SHG{}).Where("owner_user_id = ?", ownerID).Count(&count).Error; err != nil {
			return dependency("Failed to check existing SHG", err)
		}
		if count > 0 {
			return conflict("SHG_EXISTS", "You have already registered an SHG")
		}

		if err := tx.Create(&shg).Error; err != nil {
			if isUniqueViolation(err) {
				return conflict("SHG_EXISTS", "An SHG with this registration number already exists")
			}
			return dependency("Failed to register SHG", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("SHG registered", zap.Uint("shg_id", shg.ID), zap.Uint("owner_id", ownerID))
	return &shg, nil
}

// ListPending returns SHGs awaiting review, oldest first
func (s *SHGService) ListPending(ctx context.Context) ([]models.SHG, error) {
	shgs := []models.SHG{}
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.SHGPending).
		Order("created_at ASC").
		Find(&shgs).Error; err != nil {
		return nil, dependency("Failed to fetch pending SHGs", err)
	}
	return shgs, nil
}

// Approve marks a pending SHG approved so it can bid
func (s *SHGService) Approve(ctx context.Context, adminID, shgID uint) (*models.SHG, error) {
	now := time.Now()
	shg, err := s.review(ctx, shgID, map[string]interface{}{
		"status":           models.SHGApproved,
		"approved_by":      adminID,
		"approved_at":      now,
		"rejection_reason": nil,
	})
	if err != nil {
		return nil, err
	}

	notifyBestEffort(ctx, s.notifier, s.logger, &models.Notification{
		UserID:  shg.OwnerUserID,
		Message: fmt.Sprintf("Your SHG \"%s\" has been approved. You can now bid on open orders.", shg.ShgName),
		Type:    models.NotificationSuccess,
		Link:    "/shg/profile",
	})
	return shg, nil
}

// Reject marks a pending SHG rejected with the given reason
func (s *SHGService) Reject(ctx context.Context, shgID uint, reason string) (*models.SHG, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationError("reason is required")
	}

	shg, err := s.review(ctx, shgID, map[string]interface{}{
		"status":           models.SHGRejected,
		"rejection_reason": reason,
	})
	if err != nil {
		return nil, err
	}

	notifyBestEffort(ctx, s.notifier, s.logger, &models.Notification{
		UserID:  shg.OwnerUserID,
		Message: fmt.Sprintf("Your SHG \"%s\" registration was rejected: %s", shg.ShgName, reason),
		Type:    models.NotificationWarning,
		Link:    "/shg/profile",
	})
	return shg, nil
}

// review applies an approval decision to a pending SHG
func (s *SHGService) review(ctx context.Context, shgID uint, updates map[string]interface{}) (*models.SHG, error) {
	var shg models.SHG
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&shg, shgID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("SHG_NOT_FOUND", "SHG not found")
		}
		if err != nil {
			return dependency("Failed to fetch SHG", err)
		}

		res := tx.Model(&models.SHG{}).
			Where("id = ? AND status = ?", shgID, models.SHGPending).
			Updates(updates)
		if res.Error != nil {
			return dependency("Failed to update SHG", res.Error)
		}
		if res.RowsAffected == 0 {
			return invalidState("SHG_NOT_PENDING", "SHG has already been reviewed")
		}

		return tx.First(&shg, shgID).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("SHG reviewed", zap.Uint("shg_id", shg.ID), zap.String("status", string(shg.Status)))
	return &shg, nil
}

// ListOrders returns fulfillment orders won by the operator's SHG, newest first
func (s *SHGService) ListOrders(ctx context.Context, ownerID uint) ([]models.FulfillmentOrder, error) {
	shg, err := s.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	orders := []models.FulfillmentOrder{}
	if err := s.db.WithContext(ctx).
		Where("shg_id = ?", shg.ID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, dependency("Failed to fetch orders", err)
	}
	return orders, nil
}

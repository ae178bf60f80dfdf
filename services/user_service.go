package services

import (
	"context"
	"errors"
	"strings"

	"github.com/kendall-kelly/shg-marketplace-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserInfoProvider returns the identity provider's profile for an access token
type UserInfoProvider interface {
	GetUserInfo(ctx context.Context, accessToken string) (*Auth0UserInfo, error)
}

// UserService stores marketplace user profiles
type UserService struct {
	db       *gorm.DB
	userInfo UserInfoProvider
	logger   *zap.Logger
}

// NewUserService creates a UserService
func NewUserService(db *gorm.DB, userInfo UserInfoProvider, logger *zap.Logger) *UserService {
	return &UserService{db: db, userInfo: userInfo, logger: logger}
}

// CreateFromToken creates the profile of the token's subject from its identity provider profile
func (s *UserService) CreateFromToken(ctx context.Context, auth0ID, accessToken string, role models.Role) (*models.User, error) {
	info, err := s.userInfo.GetUserInfo(ctx, accessToken)
	if err != nil {
		s.logger.Error("Failed to fetch user info", zap.String("auth0_id", auth0ID), zap.Error(err))
		return nil, &Error{
			Kind:    KindDependency,
			Code:    "AUTH0_ERROR",
			Message: "Failed to fetch user information from Auth0",
			Err:     err,
		}
	}

	if strings.TrimSpace(info.Email) == "" {
		return nil, &Error{Kind: KindValidation, Code: "MISSING_EMAIL", Message: "Email not provided by Auth0"}
	}
	if strings.TrimSpace(info.Name) == "" {
		return nil, &Error{Kind: KindValidation, Code: "MISSING_NAME", Message: "Name not provided by Auth0"}
	}

	user := models.User{
		Auth0ID: auth0ID,
		Name:    strings.TrimSpace(info.Name),
		Email:   strings.TrimSpace(info.Email),
		Phone:   strings.TrimSpace(info.PhoneNumber),
		Role:    role,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("USER_EXISTS", "A user with this Auth0 ID or email already exists")
		}
		return nil, dependency("Failed to create user", err)
	}

	s.logger.Info("User created", zap.Uint("user_id", user.ID), zap.String("role", string(role)))
	return &user, nil
}

// Get returns the user with the given id
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("USER_NOT_FOUND", "User not found")
	}
	if err != nil {
		return nil, dependency("Failed to fetch user", err)
	}
	return &user, nil
}

// UpdateProfile changes the user's display name and phone; empty values are left as they are
func (s *UserService) UpdateProfile(ctx context.Context, id uint, name, phone string) (*models.User, error) {
	updates := map[string]interface{}{}
	if name = strings.TrimSpace(name); name != "" {
		updates["name"] = name
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		updates["phone"] = phone
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, dependency("Failed to update user profile", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, notFound("USER_NOT_FOUND", "User not found")
		}
	}
	return s.Get(ctx, id)
}

// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/truckzone/truckzone-backend/internal/models"
	"github.com/truckzone/truckzone-backend/internal/utils"
)

type UserService struct {
	db        *gorm.DB
	publisher EventPublisher
}

type RegisterUserRequest struct {
	UID      string `json:"uid" validate:"required,max=128"`
	Name     string `json:"name" validate:"max=255"`
	Email    string `json:"email" validate:"required,email"`
	UserType string `json:"userType" validate:"user_type"`
	PhotoURL string `json:"photoURL,omitempty" validate:"omitempty,url"`
}

func NewUserService(db *gorm.DB, publisher EventPublisher) *UserService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &UserService{
		db:        db,
		publisher: publisher,
	}
}

// Register creates a user on first sign-in. A second registration for the same
// email (or uid) returns ErrEmailExists and leaves the store untouched.
func (s *UserService) Register(ctx context.Context, req *RegisterUserRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR uid = ?", req.Email, req.UID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailExists
	}

	userType := models.UserType(req.UserType)
	if userType == "" {
		userType = models.UserTypeCustomer
	}

	user := &models.User{
		UID:      req.UID,
		Name:     req.Name,
		Email:    req.Email,
		UserType: userType,
		PhotoURL: req.PhotoURL,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	publishEvent(ctx, s.publisher, EventUserRegistered, user)
	return user, nil
}

func (s *UserService) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// ListUsers returns every user, optionally only those of one userType.
func (s *UserService) ListUsers(ctx context.Context, userType string) ([]models.User, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if userType != "" {
		query = query.Where("user_type = ?", userType)
	}

	users := []models.User{}
	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, nil
}

func (s *UserService) MakeAdmin(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.updateUser(ctx, id, map[string]interface{}{"user_type": models.UserTypeAdmin})
}

func (s *UserService) VerifyUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.updateUser(ctx, id, map[string]interface{}{"verified": true})
}

func (s *UserService) updateUser(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// HasRole reports whether uid belongs to a user of the given type. Unknown uids
// are not an error.
func (s *UserService) HasRole(ctx context.Context, uid string, userType models.UserType) (bool, error) {
	user, err := s.GetUserByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.UserType == userType, nil
}

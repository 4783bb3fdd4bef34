// internal/services/booking_service.go
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

type BookingService struct {
	db        *gorm.DB
	products  *ProductService
	publisher EventPublisher
}

type CreateBookingRequest struct {
	ProductID       uuid.UUID `json:"productId" validate:"required"`
	ProductName     string    `json:"productName" validate:"max=255"`
	UserID          string    `json:"userId" validate:"max=128"`
	UserName        string    `json:"userName" validate:"max=255"`
	Email           string    `json:"email" validate:"omitempty,email"`
	Phone           string    `json:"phone" validate:"max=50"`
	MeetingLocation string    `json:"meetingLocation" validate:"max=255"`
	PriceAmount     float64   `json:"priceAmount" validate:"gte=0"`
}

func NewBookingService(db *gorm.DB, products *ProductService, publisher EventPublisher) *BookingService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &BookingService{
		db:        db,
		products:  products,
		publisher: publisher,
	}
}

// CreateBooking books a product for the caller. The buyer defaults to callerUID;
// booking on behalf of someone else is forbidden. A second booking for the same
// (product, buyer) pair returns ErrBookingExists, including when two requests race
// past the pre-check and the unique index rejects the loser.
func (s *BookingService) CreateBooking(ctx context.Context, callerUID string, req *CreateBookingRequest) (*models.Booking, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	userID := req.UserID
	if userID == "" {
		userID = callerUID
	}
	if userID != callerUID {
		return nil, ErrForbidden
	}

	product, err := s.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	// The listing's price is authoritative; a client-sent price may only echo it.
	if req.PriceAmount != 0 && ToCents(req.PriceAmount) != ToCents(product.Price) {
		return nil, ErrPaymentMismatch
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("product_id = ? AND user_id = ?", product.ID, userID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return nil, ErrBookingExists
	}

	booking := &models.Booking{
		ProductID:       product.ID,
		ProductName:     req.ProductName,
		UserID:          userID,
		UserName:        req.UserName,
		Email:           req.Email,
		Phone:           req.Phone,
		MeetingLocation: req.MeetingLocation,
		PriceAmount:     product.Price,
	}
	if booking.ProductName == "" {
		booking.ProductName = product.Name
	}

	if err := s.db.WithContext(ctx).Create(booking).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrBookingExists
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	publishEvent(ctx, s.publisher, EventBookingCreated, booking)
	return booking, nil
}

// ListByUser returns the bookings of one buyer, newest first.
func (s *BookingService) ListByUser(ctx context.Context, uid string) ([]models.Booking, error) {
	bookings := []models.Booking{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", uid).
		Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch bookings: %w", err)
	}
	return bookings, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &booking, nil
}

func (s *BookingService) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Booking{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

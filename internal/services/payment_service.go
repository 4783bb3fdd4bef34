// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/truckzone/truckzone-backend/internal/config"
	"github.com/truckzone/truckzone-backend/internal/database"
	"github.com/truckzone/truckzone-backend/internal/models"
	"github.com/truckzone/truckzone-backend/internal/utils"
)

const (
	IntentStatusSucceeded = "succeeded"

	metadataBookingID = "bookingId"
	metadataProductID = "productId"
)

// PaymentIntent is the processor-neutral view of an intent.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountCents  int64
	Currency     string
	Metadata     map[string]string
}

type IntentParams struct {
	AmountCents    int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// PaymentGateway is the payment processor as seen by the workflow.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, params IntentParams) (*PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*PaymentIntent, error)
}

type PaymentService struct {
	db            *gorm.DB
	gateway       PaymentGateway
	publisher     EventPublisher
	currency      string
	verifyIntents bool
}

type CreatePaymentIntentRequest struct {
	PriceAmount float64 `json:"priceAmount"`
	BookingID   string  `json:"bookingId,omitempty" validate:"omitempty,uuid"`
}

type PaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type ConfirmPaymentRequest struct {
	BookingID     uuid.UUID `json:"bookingId" validate:"required"`
	ProductID     uuid.UUID `json:"productId" validate:"required"`
	TransactionID string    `json:"transactionId" validate:"required,max=255"`
	Price         float64   `json:"price,omitempty" validate:"gte=0"`
	Email         string    `json:"email,omitempty" validate:"omitempty,email"`
}

// PaymentConfirmation reports the recorded payment and whether this call created it.
type PaymentConfirmation struct {
	Payment  *models.Payment `json:"payment"`
	Replayed bool            `json:"replayed"`
}

// gateway may be nil when no processor is configured; intent creation and
// verification then fail with ErrGatewayUnavailable.
func NewPaymentService(db *gorm.DB, gateway PaymentGateway, publisher EventPublisher, cfg config.PaymentConfig) *PaymentService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "usd"
	}
	return &PaymentService{
		db:            db,
		gateway:       gateway,
		publisher:     publisher,
		currency:      currency,
		verifyIntents: cfg.VerifyIntents,
	}
}

// ToCents converts a decimal amount to the smallest currency unit.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreatePaymentIntent asks the processor for an intent. With a bookingId the
// booking's stored price is charged, the intent is tagged with the booking and
// product, and retries for the same booking reuse the same intent.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, req *CreatePaymentIntentRequest) (*PaymentIntentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	cents := ToCents(req.PriceAmount)
	var params IntentParams

	if req.BookingID != "" {
		bookingID, err := uuid.Parse(req.BookingID)
		if err != nil {
			return nil, fmt.Errorf("invalid booking id: %w", err)
		}

		var booking models.Booking
		if err := s.db.WithContext(ctx).First(&booking, "id = ?", bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrBookingNotFound
			}
			return nil, fmt.Errorf("database error: %w", err)
		}

		// The booking's stored price is charged; a client amount may only echo it.
		if req.PriceAmount != 0 && cents != ToCents(booking.PriceAmount) {
			return nil, ErrPaymentMismatch
		}
		cents = ToCents(booking.PriceAmount)

		params.Metadata = map[string]string{
			metadataBookingID: booking.ID.String(),
			metadataProductID: booking.ProductID.String(),
		}
		params.IdempotencyKey = fmt.Sprintf("intent-%s-%d", booking.ID, cents)
	}

	if cents <= 0 {
		return nil, ErrInvalidAmount
	}
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}
	params.AmountCents = cents
	params.Currency = s.currency

	intent, err := s.gateway.CreateIntent(ctx, params)
	if err != nil {
		return nil, err
	}

	return &PaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

// ConfirmPayment records a completed payment. The payment row, the booking's paid
// flag and the product's sold flag are written in one transaction. Replaying the
// same transactionId for a paid booking returns the existing payment.
func (s *PaymentService) ConfirmPayment(ctx context.Context, req *ConfirmPaymentRequest) (*PaymentConfirmation, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", req.BookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if booking.ProductID != req.ProductID {
		return nil, ErrPaymentMismatch
	}
	if req.Price > 0 && ToCents(req.Price) != ToCents(booking.PriceAmount) {
		return nil, ErrPaymentMismatch
	}

	if booking.PaymentStatus {
		return s.replay(ctx, &booking, req.TransactionID)
	}

	if s.verifyIntents {
		if err := s.verifyIntent(ctx, &booking, req.TransactionID); err != nil {
			return nil, err
		}
	}

	email := req.Email
	if email == "" {
		email = booking.Email
	}
	payment := &models.Payment{
		BookingID:     booking.ID,
		ProductID:     booking.ProductID,
		TransactionID: req.TransactionID,
		Amount:        booking.PriceAmount,
		Currency:      s.currency,
		Email:         email,
	}

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		result := tx.Model(&models.Booking{}).
			Where("id = ? AND payment_status = ?", booking.ID, false).
			Updates(map[string]interface{}{
				"payment_status": true,
				"transaction_id": req.TransactionID,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update booking: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyPaid
		}

		result = tx.Model(&models.Product{}).
			Where("id = ? AND sell_status = ?", booking.ProductID, true).
			Update("sell_status", false)
		if result.Error != nil {
			return fmt.Errorf("failed to update product: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&models.Product{}).Where("id = ?", booking.ProductID).Count(&exists).Error; err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			if exists == 0 {
				return ErrProductNotFound
			}
			// Another booking for this product was paid first.
			return ErrProductSold
		}

		return nil
	})
	if err != nil {
		// A concurrent confirmation for the same booking won the race.
		if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrAlreadyPaid) {
			return s.reloadAndReplay(ctx, booking.ID, req.TransactionID)
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"booking_id":     booking.ID,
		"product_id":     booking.ProductID,
		"transaction_id": req.TransactionID,
	}).Info("Payment confirmed")

	publishEvent(ctx, s.publisher, EventPaymentConfirmed, payment)
	return &PaymentConfirmation{Payment: payment}, nil
}

func (s *PaymentService) reloadAndReplay(ctx context.Context, bookingID uuid.UUID, transactionID string) (*PaymentConfirmation, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", bookingID).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !booking.PaymentStatus {
		// The duplicate was the transaction id, used for another booking.
		return nil, ErrPaymentMismatch
	}
	return s.replay(ctx, &booking, transactionID)
}

func (s *PaymentService) replay(ctx context.Context, booking *models.Booking, transactionID string) (*PaymentConfirmation, error) {
	if booking.TransactionID != transactionID {
		return nil, ErrAlreadyPaid
	}

	var payment models.Payment
	if err := s.db.WithContext(ctx).Where("booking_id = ?", booking.ID).First(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	return &PaymentConfirmation{Payment: &payment, Replayed: true}, nil
}

// verifyIntent checks the processor's own record: the intent must have succeeded
// for exactly the booking price and, when tagged, for this booking.
func (s *PaymentService) verifyIntent(ctx context.Context, booking *models.Booking, transactionID string) error {
	if s.gateway == nil {
		return ErrGatewayUnavailable
	}

	intent, err := s.gateway.GetIntent(ctx, transactionID)
	if err != nil {
		if errors.Is(err, ErrGatewayUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPaymentNotVerified, err)
	}

	if intent.Status != IntentStatusSucceeded {
		return fmt.Errorf("%w: intent status is %s", ErrPaymentNotVerified, intent.Status)
	}
	if intent.AmountCents != ToCents(booking.PriceAmount) {
		return fmt.Errorf("%w: intent amount %d does not match booking", ErrPaymentNotVerified, intent.AmountCents)
	}
	if tagged, ok := intent.Metadata[metadataBookingID]; ok && tagged != booking.ID.String() {
		return ErrPaymentMismatch
	}
	return nil
}

// HandleIntentSucceeded confirms the booking an intent was created for. Intents
// without booking metadata are ignored.
func (s *PaymentService) HandleIntentSucceeded(ctx context.Context, intent *PaymentIntent) (*PaymentConfirmation, error) {
	bookingID, err := uuid.Parse(intent.Metadata[metadataBookingID])
	if err != nil {
		return nil, nil
	}
	productID, err := uuid.Parse(intent.Metadata[metadataProductID])
	if err != nil {
		return nil, nil
	}

	return s.ConfirmPayment(ctx, &ConfirmPaymentRequest{
		BookingID:     bookingID,
		ProductID:     productID,
		TransactionID: intent.ID,
	})
}

// internal/models/booking.go
package models

import "github.com/google/uuid"

// Booking is unique per (product, buyer); the index backs the duplicate check.
type Booking struct {
	BaseModel
	ProductID       uuid.UUID `json:"productId" gorm:"type:uuid;not null;uniqueIndex:idx_bookings_product_user"`
	ProductName     string    `json:"productName" gorm:"size:255"`
	UserID          string    `json:"userId" gorm:"size:128;not null;uniqueIndex:idx_bookings_product_user;index"`
	UserName        string    `json:"userName" gorm:"size:255"`
	Email           string    `json:"email" gorm:"size:255"`
	Phone           string    `json:"phone" gorm:"size:50"`
	MeetingLocation string    `json:"meetingLocation" gorm:"size:255"`
	PriceAmount     float64   `json:"priceAmount" gorm:"type:decimal(12,2);not null"`
	PaymentStatus   bool      `json:"paymentStatus" gorm:"not null;default:false"`
	TransactionID   string    `json:"transactionId,omitempty" gorm:"size:255"`
}

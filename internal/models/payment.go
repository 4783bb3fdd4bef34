// internal/models/payment.go
package models

import "github.com/google/uuid"

type Payment struct {
	BaseModel
	BookingID     uuid.UUID `json:"bookingId" gorm:"type:uuid;not null;uniqueIndex"`
	ProductID     uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	TransactionID string    `json:"transactionId" gorm:"size:255;not null;uniqueIndex"`
	Amount        float64   `json:"amount" gorm:"type:decimal(12,2);not null"`
	Currency      string    `json:"currency" gorm:"size:3"`
	Email         string    `json:"email,omitempty" gorm:"size:255"`
}

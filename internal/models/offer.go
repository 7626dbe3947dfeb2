package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "Pending"
	OfferStatusAccepted  OfferStatus = "Accepted"
	OfferStatusRejected  OfferStatus = "Rejected"
	OfferStatusCancelled OfferStatus = "Cancelled"
)

// StatusNotePending is the free-form processing note a new offer starts with.
const StatusNotePending = "Pending mortgage verification"

// Offer represents a bid by a user against a property. At most one
// non-cancelled offer exists per (user, property) pair.
type Offer struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PropertyID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"property_id"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	MortgageImage pq.StringArray  `gorm:"type:text[]" json:"mortgage_image"`
	Status        string          `gorm:"size:255" json:"status"`
	OfferStatus   OfferStatus     `gorm:"size:20;not null;default:Pending;index" json:"offer_status"`
	Signed        bool            `gorm:"default:false" json:"signed"`
	ExpiresAt     *time.Time      `json:"expires_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Offer) TableName() string {
	return "offers"
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ContractStatus string

const (
	ContractStatusAwaitingSignature ContractStatus = "AwaitingSignature"
	ContractStatusAwaitingPayment   ContractStatus = "AwaitingPayment"
	ContractStatusPaid              ContractStatus = "Paid"
	ContractStatusPayoutInitiated   ContractStatus = "PayoutInitiated"
	ContractStatusPayoutComplete    ContractStatus = "PayoutComplete"
	ContractStatusFailed            ContractStatus = "Failed"
)

// Terminal reports whether no further settlement transition is possible.
func (s ContractStatus) Terminal() bool {
	return s == ContractStatusPayoutComplete || s == ContractStatusFailed
}

// Contract represents the generated purchase/lease document tied to exactly
// one accepted offer and drives the settlement state machine.
type Contract struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PropertyID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"property_id"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	OfferID           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"offer_id"`
	ContractPDF       pq.StringArray `gorm:"type:text[]" json:"contract_pdf"`
	Signature         *string        `gorm:"size:255" json:"signature"`
	SignedAt          *time.Time     `json:"signed_at"`
	Status            ContractStatus `gorm:"size:30;not null;default:AwaitingSignature;index" json:"status"`
	Paid              bool           `gorm:"default:false" json:"paid"`
	CheckoutSessionID *string        `gorm:"size:255" json:"checkout_session_id"`
	TransferRef       *string        `gorm:"size:255" json:"transfer_ref"`
	FailureReason     *string        `gorm:"size:500" json:"failure_reason"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (Contract) TableName() string {
	return "contracts"
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// BankDetails holds the seller's registered payout destination. AccountID is
// the payout-account identifier issued by the payments gateway; it is the
// only field that ever leaves the service.
type BankDetails struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	AccountID     string    `gorm:"size:255;not null" json:"account_id"`
	Address       string    `gorm:"size:255" json:"address"`
	City          string    `gorm:"size:100" json:"city"`
	Postcode      string    `gorm:"size:20" json:"postcode"`
	SortCode      string    `gorm:"size:10" json:"sort_code"`
	AccountNumber string    `gorm:"size:20" json:"account_number"`
	CreatedAt     time.Time `json:"created_at"`
}

func (BankDetails) TableName() string {
	return "bank_details"
}

// PayoutAccountDetails carries the individual's details handed to the
// payments gateway when registering a payout account.
type PayoutAccountDetails struct {
	Email         string
	Name          string
	Surname       string
	PhoneNumber   string
	DOBDay        int
	DOBMonth      int
	DOBYear       int
	Address       string
	City          string
	Postcode      string
	SortCode      string
	AccountNumber string
	IP            string
}

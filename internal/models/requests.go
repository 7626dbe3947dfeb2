package models

import (
	"github.com/shopspring/decimal"
)

// SignUpRequest is the payload for POST /api/auth/signup
type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Surname  string `json:"surname" binding:"required"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the payload for POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is the payload for PUT /api/user/profile
type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Username string `json:"username"`
}

// CreateListingRequest is the payload for POST /api/properties. Media fields
// are base64 data URIs, uploaded before the listing row is written.
type CreateListingRequest struct {
	Price           decimal.Decimal `json:"price"`
	Rent            decimal.Decimal `json:"rent"`
	Bedrooms        int             `json:"bedrooms" binding:"required"`
	Bathrooms       int             `json:"bathrooms" binding:"required"`
	HouseType       string          `json:"house_type" binding:"required"`
	Tenure          string          `json:"tenure" binding:"required"`
	TaxBand         string          `json:"tax_band"`
	Address         string          `json:"address" binding:"required"`
	Postcode        string          `json:"postcode" binding:"required"`
	KeyFeatures     []string        `json:"key_features"`
	Description     string          `json:"description"`
	ContactNumber   string          `json:"contact_number"`
	ContactEmail    string          `json:"contact_email"`
	ExteriorImage   []string        `json:"exterior_image"`
	Images          []string        `json:"images"`
	PanoramicImages []string        `json:"panoramic_images"`
	FloorPlan       []string        `json:"floor_plan"`
}

// UpdateListingRequest is the payload for PUT /api/properties/:id
type UpdateListingRequest struct {
	Price         *decimal.Decimal `json:"price"`
	Rent          *decimal.Decimal `json:"rent"`
	Bedrooms      *int             `json:"bedrooms"`
	Bathrooms     *int             `json:"bathrooms"`
	HouseType     *string          `json:"house_type"`
	TaxBand       *string          `json:"tax_band"`
	KeyFeatures   []string         `json:"key_features"`
	Description   *string          `json:"description"`
	ContactNumber *string          `json:"contact_number"`
	ContactEmail  *string          `json:"contact_email"`
}

// CreateOfferRequest is the payload for POST /api/offers
type CreateOfferRequest struct {
	PropertyID string          `json:"property_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Mortgage   []string        `json:"mortgage"`
}

// OfferDecisionRequest is the payload for POST /api/offers/accept and
// POST /api/offers/cancel
type OfferDecisionRequest struct {
	OfferID string `json:"offer_id" binding:"required"`
}

// CreateContractRequest is the payload for POST /api/contracts
type CreateContractRequest struct {
	OfferID string `json:"offer_id" binding:"required"`
}

// SignContractRequest is the payload for POST /api/contracts/sign
type SignContractRequest struct {
	ContractID     string `json:"contract_id" binding:"required"`
	SignedDocument string `json:"signed_document" binding:"required"`
	Signature      string `json:"signature" binding:"required"`
}

// CheckoutRequest is the payload for POST /api/settlement/checkout
type CheckoutRequest struct {
	ContractID string `json:"contract_id" binding:"required"`
}

// ConfirmPaymentRequest is the payment-confirmation callback payload for
// POST /api/settlement/confirm. Delivery is at-least-once.
type ConfirmPaymentRequest struct {
	ContractID string          `json:"contract_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Currency   string          `json:"currency" binding:"required"`
}

// PayoutRequest is the payload for POST /api/settlement/payout
type PayoutRequest struct {
	ContractID string `json:"contract_id" binding:"required"`
}

// AddBankDetailsRequest is the payload for POST /api/bank
type AddBankDetailsRequest struct {
	Name          string `json:"name" binding:"required"`
	Surname       string `json:"surname" binding:"required"`
	PhoneNumber   string `json:"phone_number" binding:"required"`
	DOBDay        int    `json:"dob_day" binding:"required"`
	DOBMonth      int    `json:"dob_month" binding:"required"`
	DOBYear       int    `json:"dob_year" binding:"required"`
	Address       string `json:"address" binding:"required"`
	City          string `json:"city" binding:"required"`
	Postcode      string `json:"postcode" binding:"required"`
	SortCode      string `json:"sort_code" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
}

// VerificationCheckRequest is the payload for POST /api/verification/check
type VerificationCheckRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

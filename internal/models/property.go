package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Tenure string

const (
	TenureSale  Tenure = "sale"
	TenureRent  Tenure = "rent"
	TenureLet   Tenure = "let"
	TenureLease Tenure = "lease"
)

// ForSale reports whether the tenure is priced by a one-off sale price
// rather than a recurring rent.
func (t Tenure) ForSale() bool {
	return t == TenureSale || t == TenureLease
}

// Valid reports whether the tenure is one of the four accepted values.
func (t Tenure) Valid() bool {
	switch t {
	case TenureSale, TenureRent, TenureLet, TenureLease:
		return true
	}
	return false
}

// Property represents a listing on the marketplace. Exactly one of Price or
// Rent is active depending on Tenure; the inactive one stays zero.
type Property struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PropertyNumber  int64           `gorm:"uniqueIndex;not null" json:"property_number"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"price"`
	Rent            decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"rent"`
	Bedrooms        int             `gorm:"not null" json:"bedrooms"`
	Bathrooms       int             `gorm:"not null" json:"bathrooms"`
	HouseType       string          `gorm:"size:50;not null" json:"house_type"`
	Tenure          Tenure          `gorm:"size:20;not null" json:"tenure"`
	TaxBand         string          `gorm:"size:10" json:"tax_band"`
	Address         string          `gorm:"size:255;not null" json:"address"`
	Postcode        string          `gorm:"size:20;not null" json:"postcode"`
	KeyFeatures     pq.StringArray  `gorm:"type:text[]" json:"key_features"`
	Description     string          `gorm:"type:text" json:"description"`
	ContactNumber   string          `gorm:"size:30" json:"contact_number"`
	ContactEmail    string          `gorm:"size:255" json:"contact_email"`
	ExteriorImage   pq.StringArray  `gorm:"type:text[]" json:"exterior_image"`
	Images          pq.StringArray  `gorm:"type:text[]" json:"images"`
	PanoramicImages pq.StringArray  `gorm:"type:text[]" json:"panoramic_images"`
	FloorPlan       pq.StringArray  `gorm:"type:text[]" json:"floor_plan"`
	Sold            bool            `gorm:"default:false;index" json:"sold"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Property) TableName() string {
	return "properties"
}

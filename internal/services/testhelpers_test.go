package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kalhuss/property-manage/internal/models"
	"github.com/kalhuss/property-manage/internal/repository"
)

// TestProperty mirrors models.Property but compatible with SQLite (text
// columns instead of Postgres arrays)
type TestProperty struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PropertyNumber  int64           `gorm:"uniqueIndex;not null"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	Rent            decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	Bedrooms        int             `gorm:"not null"`
	Bathrooms       int             `gorm:"not null"`
	HouseType       string          `gorm:"size:50"`
	Tenure          models.Tenure   `gorm:"size:20"`
	TaxBand         string          `gorm:"size:10"`
	Address         string          `gorm:"size:255"`
	Postcode        string          `gorm:"size:20"`
	KeyFeatures     string          `gorm:"type:text"`
	Description     string          `gorm:"type:text"`
	ContactNumber   string          `gorm:"size:30"`
	ContactEmail    string          `gorm:"size:255"`
	ExteriorImage   string          `gorm:"type:text"`
	Images          string          `gorm:"type:text"`
	PanoramicImages string          `gorm:"type:text"`
	FloorPlan       string          `gorm:"type:text"`
	Sold            bool            `gorm:"default:false;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (TestProperty) TableName() string {
	return "properties"
}

// TestOffer mirrors models.Offer
type TestOffer struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey"`
	PropertyID    uuid.UUID          `gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID          `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal    `gorm:"type:decimal(12,2);not null"`
	MortgageImage string             `gorm:"type:text"`
	Status        string             `gorm:"size:255"`
	OfferStatus   models.OfferStatus `gorm:"size:20;not null;default:Pending;index"`
	Signed        bool               `gorm:"default:false"`
	ExpiresAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (TestOffer) TableName() string {
	return "offers"
}

// TestContract mirrors models.Contract
type TestContract struct {
	ID                uuid.UUID             `gorm:"type:uuid;primaryKey"`
	PropertyID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	UserID            uuid.UUID             `gorm:"type:uuid;not null;index"`
	OfferID           uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex"`
	ContractPDF       string                `gorm:"type:text"`
	Signature         *string               `gorm:"size:255"`
	SignedAt          *time.Time
	Status            models.ContractStatus `gorm:"size:30;not null;default:AwaitingSignature;index"`
	Paid              bool                  `gorm:"default:false"`
	CheckoutSessionID *string               `gorm:"size:255"`
	TransferRef       *string               `gorm:"size:255"`
	FailureReason     *string               `gorm:"size:500"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (TestContract) TableName() string {
	return "contracts"
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.BankDetails{},
		&TestProperty{},
		&TestOffer{},
		&TestContract{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	// Same partial index migrations/001 creates in production
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS offers_active_user_property " +
		"ON offers (user_id, property_id) WHERE offer_status <> 'Cancelled'")

	// Shared in-memory DB persists between tests in the package
	db.Exec("DELETE FROM contracts")
	db.Exec("DELETE FROM offers")
	db.Exec("DELETE FROM properties")
	db.Exec("DELETE FROM bank_details")
	db.Exec("DELETE FROM users")

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string, bankAdded bool) *models.User {
	// Usernames are unique, so derive one from the email's local part.
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Test",
		Surname:      "User",
		Username:     strings.SplitN(email, "@", 2)[0],
		Email:        email,
		PasswordHash: "hash",
		BankAdded:    bankAdded,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func createTestProperty(t *testing.T, db *gorm.DB, ownerID uuid.UUID, number int64) *models.Property {
	property := &models.Property{
		ID:             uuid.New(),
		PropertyNumber: number,
		UserID:         ownerID,
		Price:          decimal.NewFromInt(300000),
		Bedrooms:       3,
		Bathrooms:      2,
		HouseType:      "Detached",
		Tenure:         models.TenureSale,
		Address:        "12 Test Lane",
		Postcode:       "AB1 2CD",
	}
	if err := db.Create(property).Error; err != nil {
		t.Fatalf("failed to create property: %v", err)
	}
	return property
}

func createTestOffer(t *testing.T, db *gorm.DB, propertyID, bidderID uuid.UUID, amount int64, status models.OfferStatus) *models.Offer {
	offer := &models.Offer{
		ID:          uuid.New(),
		PropertyID:  propertyID,
		UserID:      bidderID,
		Amount:      decimal.NewFromInt(amount),
		Status:      models.StatusNotePending,
		OfferStatus: status,
	}
	if err := db.Create(offer).Error; err != nil {
		t.Fatalf("failed to create offer: %v", err)
	}
	return offer
}

func createTestContract(t *testing.T, db *gorm.DB, property *models.Property, offer *models.Offer, status models.ContractStatus) *models.Contract {
	contract := &models.Contract{
		ID:          uuid.New(),
		PropertyID:  property.ID,
		UserID:      offer.UserID,
		OfferID:     offer.ID,
		ContractPDF: pq.StringArray{offer.UserID.String() + "/contracts/doc1"},
		Status:      status,
	}
	if err := db.Create(contract).Error; err != nil {
		t.Fatalf("failed to create contract: %v", err)
	}
	return contract
}

// fakeStorage is an in-memory StorageGateway. onUpload, when set, runs after
// each successful upload so tests can interleave writes mid-operation.
type fakeStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	uploads  int
	failing  bool
	onUpload func()
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	if f.failing {
		f.mu.Unlock()
		return "", fmt.Errorf("storage unavailable")
	}
	f.uploads++
	f.objects[path] = data
	hook := f.onUpload
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return path, nil
}

func (f *fakeStorage) Download(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[path]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", path)
	}
	return data, nil
}

// fakePayments is a scriptable PaymentsGateway that counts calls
type fakePayments struct {
	mu            sync.Mutex
	transfers     int
	checkouts     int
	transferErr   error
	checkoutErr   error
	accountErr    error
	lastTransfer  decimal.Decimal
	lastRecipient string
}

func newFakePayments() *fakePayments {
	return &fakePayments{}
}

func (f *fakePayments) CreateCheckoutSession(ctx context.Context, amount decimal.Decimal, contractID string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkoutErr != nil {
		return "", "", f.checkoutErr
	}
	f.checkouts++
	return "https://pay.example.com/session", "cs_test_" + contractID, nil
}

func (f *fakePayments) CreateTransfer(ctx context.Context, destinationAccountID string, amount decimal.Decimal) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transferErr != nil {
		return "", f.transferErr
	}
	f.transfers++
	f.lastTransfer = amount
	f.lastRecipient = destinationAccountID
	return fmt.Sprintf("tr_test_%d", f.transfers), nil
}

func (f *fakePayments) CreatePayoutAccount(ctx context.Context, details models.PayoutAccountDetails) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accountErr != nil {
		return "", f.accountErr
	}
	return "acct_test_1", nil
}

func (f *fakePayments) CreateVerificationSession(ctx context.Context, accountID, returnURL string) (string, string, error) {
	return "https://verify.example.com/session", "vs_test_1", nil
}

func (f *fakePayments) CheckVerificationSession(ctx context.Context, sessionID string) (bool, error) {
	return true, nil
}

func newTestRepo(t *testing.T) (*repository.Repository, *gorm.DB) {
	db := setupTestDB(t)
	return repository.NewRepository(db), db
}

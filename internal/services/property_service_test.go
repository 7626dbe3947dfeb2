package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kalhuss/property-manage/internal/apperr"
	"github.com/kalhuss/property-manage/internal/models"
)

func saleListingRequest() *models.CreateListingRequest {
	return &models.CreateListingRequest{
		Price:     decimal.NewFromInt(300000),
		Bedrooms:  3,
		Bathrooms: 2,
		HouseType: "Detached",
		Tenure:    "sale",
		Address:   "12 Test Lane",
		Postcode:  "AB1 2CD",
	}
}

func TestCreateListingRequiresBankDetails(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewPropertyService(repo, newFakeStorage())
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", false)

	_, err := service.CreateListing(ctx, seller.ID, saleListingRequest())
	if !apperr.IsKind(err, apperr.Authorization) {
		t.Errorf("expected authorization error without bank details, got %v", err)
	}
}

func TestCreateListingAssignsSequentialNumbers(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewPropertyService(repo, newFakeStorage())
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)

	first, err := service.CreateListing(ctx, seller.ID, saleListingRequest())
	if err != nil {
		t.Fatalf("CreateListing failed: %v", err)
	}

	second, err := service.CreateListing(ctx, seller.ID, saleListingRequest())
	if err != nil {
		t.Fatalf("CreateListing failed: %v", err)
	}

	if second.PropertyNumber != first.PropertyNumber+1 {
		t.Errorf("expected consecutive listing numbers, got %d then %d",
			first.PropertyNumber, second.PropertyNumber)
	}
}

func TestCreatePropertyDuplicateNumberIsDuplicatedKey(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	createTestProperty(t, db, seller.ID, 1)

	// CreateListing retries on this sentinel when two writers pick the
	// same listing number
	err := repo.CreateProperty(ctx, &models.Property{
		ID:             uuid.New(),
		PropertyNumber: 1,
		UserID:         seller.ID,
		Price:          decimal.NewFromInt(250000),
		Bedrooms:       2,
		Bathrooms:      1,
		Tenure:         models.TenureSale,
	})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("expected gorm.ErrDuplicatedKey for a reused listing number, got %v", err)
	}
}

func TestCreateListingUploadsMedia(t *testing.T) {
	repo, db := newTestRepo(t)
	store := newFakeStorage()
	service := NewPropertyService(repo, store)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)

	req := saleListingRequest()
	req.Images = []string{
		"data:image/png;base64,aW1hZ2Ux",
		"data:image/png;base64,aW1hZ2Uy",
	}
	req.FloorPlan = []string{"data:image/png;base64,cGxhbg=="}

	property, err := service.CreateListing(ctx, seller.ID, req)
	if err != nil {
		t.Fatalf("CreateListing failed: %v", err)
	}
	if len(property.Images) != 2 {
		t.Errorf("expected 2 image paths, got %d", len(property.Images))
	}
	if len(property.FloorPlan) != 1 {
		t.Errorf("expected 1 floor plan path, got %d", len(property.FloorPlan))
	}
	if store.uploads != 3 {
		t.Errorf("expected 3 uploads, got %d", store.uploads)
	}

	data, err := store.Download(ctx, property.Images[0])
	if err != nil {
		t.Fatalf("stored image missing: %v", err)
	}
	if string(data) != "image1" {
		t.Errorf("expected first image first, got %q", data)
	}
}

func TestTenurePricingRules(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewPropertyService(repo, newFakeStorage())
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)

	// Sale listing without a price
	req := saleListingRequest()
	req.Price = decimal.Zero
	if _, err := service.CreateListing(ctx, seller.ID, req); !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("expected validation error for sale without price, got %v", err)
	}

	// Sale listing with both price and rent
	req = saleListingRequest()
	req.Rent = decimal.NewFromInt(1200)
	if _, err := service.CreateListing(ctx, seller.ID, req); !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("expected validation error for sale with rent, got %v", err)
	}

	// Rent listing with a rent only
	req = saleListingRequest()
	req.Tenure = "rent"
	req.Price = decimal.Zero
	req.Rent = decimal.NewFromInt(1200)
	if _, err := service.CreateListing(ctx, seller.ID, req); err != nil {
		t.Errorf("expected rent listing to be accepted, got %v", err)
	}

	// Unknown tenure
	req = saleListingRequest()
	req.Tenure = "timeshare"
	if _, err := service.CreateListing(ctx, seller.ID, req); !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("expected validation error for unknown tenure, got %v", err)
	}
}

func TestUpdateListingOwnerOnly(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewPropertyService(repo, newFakeStorage())
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	other := createTestUser(t, db, "other@test.com", true)
	property := createTestProperty(t, db, seller.ID, 1)

	newPrice := decimal.NewFromInt(310000)
	_, err := service.UpdateListing(ctx, other.ID, property.ID, &models.UpdateListingRequest{
		Price: &newPrice,
	})
	if !apperr.IsKind(err, apperr.Authorization) {
		t.Errorf("expected authorization error, got %v", err)
	}

	updated, err := service.UpdateListing(ctx, seller.ID, property.ID, &models.UpdateListingRequest{
		Price: &newPrice,
	})
	if err != nil {
		t.Fatalf("UpdateListing failed: %v", err)
	}
	if !updated.Price.Equal(newPrice) {
		t.Errorf("expected price %s, got %s", newPrice, updated.Price)
	}
}

func TestDeleteListingOwnerOnly(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewPropertyService(repo, newFakeStorage())
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	other := createTestUser(t, db, "other@test.com", true)
	property := createTestProperty(t, db, seller.ID, 1)

	if err := service.DeleteListing(ctx, other.ID, property.ID); !apperr.IsKind(err, apperr.Authorization) {
		t.Errorf("expected authorization error, got %v", err)
	}

	if err := service.DeleteListing(ctx, seller.ID, property.ID); err != nil {
		t.Fatalf("DeleteListing failed: %v", err)
	}

	if _, err := service.GetListing(ctx, property.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("expected not found after deletion, got %v", err)
	}
}

func TestGetListingsHidesSold(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewPropertyService(repo, newFakeStorage())
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	createTestProperty(t, db, seller.ID, 1)
	sold := createTestProperty(t, db, seller.ID, 2)
	db.Model(&models.Property{}).Where("id = ?", sold.ID).Update("sold", true)

	properties, total, err := service.GetListings(ctx, 20, 0)
	if err != nil {
		t.Fatalf("GetListings failed: %v", err)
	}
	if total != 1 || len(properties) != 1 {
		t.Errorf("expected only the unsold listing, got %d (total %d)", len(properties), total)
	}
}

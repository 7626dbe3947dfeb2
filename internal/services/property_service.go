package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kalhuss/property-manage/internal/apperr"
	"github.com/kalhuss/property-manage/internal/models"
	"github.com/kalhuss/property-manage/internal/repository"
)

type PropertyService struct {
	repo  *repository.Repository
	store StorageGateway
}

func NewPropertyService(repo *repository.Repository, store StorageGateway) *PropertyService {
	return &PropertyService{repo: repo, store: store}
}

// CreateListing uploads the listing media and persists a new property.
// Sellers must have registered a payout destination first.
func (s *PropertyService) CreateListing(ctx context.Context, userID uuid.UUID, req *models.CreateListingRequest) (*models.Property, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "User not found")
		}
		return nil, apperr.Wrap(apperr.Persistence, "Error reading user", err)
	}

	if !user.BankAdded {
		return nil, apperr.New(apperr.Authorization, "Bank details must be added before creating a listing")
	}

	tenure := models.Tenure(req.Tenure)
	if err := validateTenurePricing(tenure, req.Price.IsZero(), req.Rent.IsZero()); err != nil {
		return nil, err
	}

	// Media uploads fan out and join before the row is written
	exterior, err := uploadMedia(ctx, s.store, userID, "images", req.ExteriorImage)
	if err != nil {
		return nil, err
	}
	images, err := uploadMedia(ctx, s.store, userID, "images", req.Images)
	if err != nil {
		return nil, err
	}
	panoramic, err := uploadMedia(ctx, s.store, userID, "panoramicImages", req.PanoramicImages)
	if err != nil {
		return nil, err
	}
	floorPlan, err := uploadMedia(ctx, s.store, userID, "floorplans", req.FloorPlan)
	if err != nil {
		return nil, err
	}

	property := &models.Property{
		ID:              uuid.New(),
		UserID:          userID,
		Price:           req.Price,
		Rent:            req.Rent,
		Bedrooms:        req.Bedrooms,
		Bathrooms:       req.Bathrooms,
		HouseType:       req.HouseType,
		Tenure:          tenure,
		TaxBand:         req.TaxBand,
		Address:         req.Address,
		Postcode:        req.Postcode,
		KeyFeatures:     req.KeyFeatures,
		Description:     req.Description,
		ContactNumber:   req.ContactNumber,
		ContactEmail:    req.ContactEmail,
		ExteriorImage:   exterior,
		Images:          images,
		PanoramicImages: panoramic,
		FloorPlan:       floorPlan,
		CreatedAt:       time.Now(),
	}

	// MAX+1 can collide when two listings are created at once; the unique
	// index rejects the loser, which re-reads and tries again.
	for attempt := 0; ; attempt++ {
		err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			number, err := tx.NextPropertyNumber(ctx)
			if err != nil {
				return err
			}
			property.PropertyNumber = number
			return tx.CreateProperty(ctx, property)
		})
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < 2 {
			continue
		}
		return nil, apperr.Wrap(apperr.Persistence, "Error adding entry to database", err)
	}

	log.Printf("Listing %d created by user %s", property.PropertyNumber, userID)

	return property, nil
}

// GetListing retrieves a single listing.
func (s *PropertyService) GetListing(ctx context.Context, propertyID uuid.UUID) (*models.Property, error) {
	property, err := s.repo.GetPropertyByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Property does not exist")
		}
		return nil, apperr.Wrap(apperr.Persistence, "Error reading property", err)
	}
	return property, nil
}

// GetListings retrieves unsold listings, newest first.
func (s *PropertyService) GetListings(ctx context.Context, limit, offset int) ([]*models.Property, int64, error) {
	properties, total, err := s.repo.GetProperties(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Persistence, "Error reading properties", err)
	}
	return properties, total, nil
}

// GetMyListings retrieves the caller's listings.
func (s *PropertyService) GetMyListings(ctx context.Context, userID uuid.UUID) ([]*models.Property, error) {
	properties, err := s.repo.GetPropertiesByOwner(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error reading properties", err)
	}
	return properties, nil
}

// UpdateListing applies owner edits to a listing.
func (s *PropertyService) UpdateListing(ctx context.Context, userID, propertyID uuid.UUID, req *models.UpdateListingRequest) (*models.Property, error) {
	property, err := s.GetListing(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	if property.UserID != userID {
		return nil, apperr.New(apperr.Authorization, "Only the listing owner can edit it")
	}

	if req.Price != nil {
		property.Price = *req.Price
	}
	if req.Rent != nil {
		property.Rent = *req.Rent
	}
	if err := validateTenurePricing(property.Tenure, property.Price.IsZero(), property.Rent.IsZero()); err != nil {
		return nil, err
	}

	if req.Bedrooms != nil {
		property.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		property.Bathrooms = *req.Bathrooms
	}
	if req.HouseType != nil {
		property.HouseType = *req.HouseType
	}
	if req.TaxBand != nil {
		property.TaxBand = *req.TaxBand
	}
	if req.KeyFeatures != nil {
		property.KeyFeatures = req.KeyFeatures
	}
	if req.Description != nil {
		property.Description = *req.Description
	}
	if req.ContactNumber != nil {
		property.ContactNumber = *req.ContactNumber
	}
	if req.ContactEmail != nil {
		property.ContactEmail = *req.ContactEmail
	}

	if err := s.repo.UpdateProperty(ctx, property); err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error updating property", err)
	}

	return property, nil
}

// DeleteListing removes a listing. Owner only.
func (s *PropertyService) DeleteListing(ctx context.Context, userID, propertyID uuid.UUID) error {
	property, err := s.GetListing(ctx, propertyID)
	if err != nil {
		return err
	}

	if property.UserID != userID {
		return apperr.New(apperr.Authorization, "Only the listing owner can delete it")
	}

	if err := s.repo.DeleteProperty(ctx, propertyID); err != nil {
		return apperr.Wrap(apperr.Persistence, "Error deleting entry", err)
	}

	return nil
}

// validateTenurePricing enforces that exactly one of price and rent is set,
// matching the tenure.
func validateTenurePricing(tenure models.Tenure, priceZero, rentZero bool) error {
	if !tenure.Valid() {
		return apperr.New(apperr.Validation, "Tenure must be one of sale, rent, let, lease")
	}

	if tenure.ForSale() {
		if priceZero {
			return apperr.New(apperr.Validation, "Price is required for sale and lease listings")
		}
		if !rentZero {
			return apperr.New(apperr.Validation, "Rent must not be set for sale and lease listings")
		}
		return nil
	}

	if rentZero {
		return apperr.New(apperr.Validation, "Rent is required for rent and let listings")
	}
	if !priceZero {
		return apperr.New(apperr.Validation, "Price must not be set for rent and let listings")
	}
	return nil
}

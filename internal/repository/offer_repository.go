package repository

import (
	"context"
	"time"

	"github.com/kalhuss/property-manage/internal/models"

	"github.com/google/uuid"
)

// CreateOffer creates a new offer
func (r *Repository) CreateOffer(ctx context.Context, offer *models.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

// GetOfferByID retrieves an offer by ID
func (r *Repository) GetOfferByID(ctx context.Context, offerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).Where("id = ?", offerID).First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// GetActiveOffer retrieves the bidder's non-cancelled offer on a property,
// if one exists.
func (r *Repository) GetActiveOffer(ctx context.Context, userID, propertyID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND property_id = ? AND offer_status <> ?",
			userID, propertyID, models.OfferStatusCancelled).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// GetOffersByProperty retrieves all offers against a property, newest first
func (r *Repository) GetOffersByProperty(ctx context.Context, propertyID uuid.UUID) ([]*models.Offer, error) {
	var offers []*models.Offer
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at DESC").
		Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return offers, nil
}

// GetOffersByBidder retrieves all offers made by a user
func (r *Repository) GetOffersByBidder(ctx context.Context, userID uuid.UUID) ([]*models.Offer, error) {
	var offers []*models.Offer
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return offers, nil
}

// UpdateOffer updates an offer
func (r *Repository) UpdateOffer(ctx context.Context, offer *models.Offer) error {
	return r.db.WithContext(ctx).Save(offer).Error
}

// TransitionOfferStatus moves an offer from one status to another as a single
// conditional update. It returns the number of rows changed: zero means the
// offer was no longer in the expected status.
func (r *Repository) TransitionOfferStatus(ctx context.Context, offerID uuid.UUID, from, to models.OfferStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ? AND offer_status = ?", offerID, from).
		Update("offer_status", to)
	return result.RowsAffected, result.Error
}

// RejectSiblingOffers marks every other Pending offer on the property as
// Rejected.
func (r *Repository) RejectSiblingOffers(ctx context.Context, propertyID, acceptedOfferID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("property_id = ? AND id <> ? AND offer_status = ?",
			propertyID, acceptedOfferID, models.OfferStatusPending).
		Update("offer_status", models.OfferStatusRejected)
	return result.RowsAffected, result.Error
}

// SetOfferSigned flips the signed flag for an offer
func (r *Repository) SetOfferSigned(ctx context.Context, offerID uuid.UUID, signed bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ?", offerID).
		Update("signed", signed).Error
}

// ExpirePendingOffers cancels Pending offers whose expiry has passed and
// returns how many were cancelled.
func (r *Repository) ExpirePendingOffers(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("offer_status = ? AND expires_at IS NOT NULL AND expires_at < ?",
			models.OfferStatusPending, time.Now()).
		Update("offer_status", models.OfferStatusCancelled)
	return result.RowsAffected, result.Error
}

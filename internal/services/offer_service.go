package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kalhuss/property-manage/internal/apperr"
	"github.com/kalhuss/property-manage/internal/models"
	"github.com/kalhuss/property-manage/internal/repository"
)

// OfferService owns the offer ledger and the acceptance decision: accepting
// one offer atomically rejects its siblings and marks the listing sold.
type OfferService struct {
	repo        *repository.Repository
	store       StorageGateway
	offerExpiry time.Duration
}

func NewOfferService(repo *repository.Repository, store StorageGateway, offerExpiry time.Duration) *OfferService {
	return &OfferService{
		repo:        repo,
		store:       store,
		offerExpiry: offerExpiry,
	}
}

// CreateOffer records a new Pending offer against a listing. A bidder holds
// at most one non-cancelled offer per listing.
func (s *OfferService) CreateOffer(ctx context.Context, userID uuid.UUID, req *models.CreateOfferRequest) (*models.Offer, error) {
	propertyID, err := uuid.Parse(req.PropertyID)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "Invalid property id")
	}

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.New(apperr.Validation, "Offer amount must be positive")
	}

	property, err := s.repo.GetPropertyByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Property does not exist")
		}
		return nil, apperr.Wrap(apperr.Persistence, "Error reading property", err)
	}

	if property.UserID == userID {
		return nil, apperr.New(apperr.Validation, "Cannot bid on your own listing")
	}

	if property.Sold {
		return nil, apperr.New(apperr.Conflict, "Property is already sold")
	}

	if _, err := s.repo.GetActiveOffer(ctx, userID, propertyID); err == nil {
		return nil, apperr.New(apperr.Conflict, "Offer already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.Persistence, "Error reading offers", err)
	}

	mortgage, err := uploadMedia(ctx, s.store, userID, "mortgages", req.Mortgage)
	if err != nil {
		return nil, err
	}

	offer := &models.Offer{
		ID:            uuid.New(),
		PropertyID:    propertyID,
		UserID:        userID,
		Amount:        req.Amount,
		MortgageImage: mortgage,
		Status:        models.StatusNotePending,
		OfferStatus:   models.OfferStatusPending,
		CreatedAt:     time.Now(),
	}

	if s.offerExpiry > 0 {
		expires := time.Now().Add(s.offerExpiry)
		offer.ExpiresAt = &expires
	}

	if err := s.repo.CreateOffer(ctx, offer); err != nil {
		// A concurrent duplicate slips past the read above and lands on
		// the partial unique index instead.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.New(apperr.Conflict, "Offer already exists")
		}
		return nil, apperr.Wrap(apperr.Persistence, "Error adding entry to database", err)
	}

	log.Printf("Offer %s created on property %s by user %s", offer.ID, propertyID, userID)

	return offer, nil
}

// AcceptOffer resolves the listing in favour of one Pending offer: the offer
// becomes Accepted, every sibling Pending offer becomes Rejected and the
// listing is marked sold, all inside one transaction. Re-invoking with the
// already-accepted offer is a no-op.
func (s *OfferService) AcceptOffer(ctx context.Context, ownerID, offerID uuid.UUID) (*models.AcceptOfferResult, error) {
	var result models.AcceptOfferResult

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		offer, err := tx.GetOfferByID(ctx, offerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "Offer not found")
			}
			return apperr.Wrap(apperr.Persistence, "Error reading offer", err)
		}

		property, err := tx.GetPropertyByID(ctx, offer.PropertyID)
		if err != nil {
			return apperr.Wrap(apperr.Persistence, "Error reading property", err)
		}

		if property.UserID != ownerID {
			return apperr.New(apperr.Authorization, "Only the listing owner can accept offers")
		}

		switch offer.OfferStatus {
		case models.OfferStatusAccepted:
			// Already decided in this offer's favour: idempotent no-op.
			result.Offer = offer
			result.Property = property
			return nil
		case models.OfferStatusPending:
			// proceed
		default:
			return apperr.Newf(apperr.Conflict, "Offer is no longer pending, current status: %s", offer.OfferStatus)
		}

		rows, err := tx.TransitionOfferStatus(ctx, offer.ID, models.OfferStatusPending, models.OfferStatusAccepted)
		if err != nil {
			return apperr.Wrap(apperr.Persistence, "Error updating offer", err)
		}
		if rows == 0 {
			return apperr.New(apperr.Conflict, "Offer was decided concurrently")
		}

		rejected, err := tx.RejectSiblingOffers(ctx, offer.PropertyID, offer.ID)
		if err != nil {
			return apperr.Wrap(apperr.Persistence, "Error rejecting sibling offers", err)
		}

		// Claiming the sold flag is what serializes competing accepts on
		// the same listing: the second one sees zero rows and aborts.
		soldRows, err := tx.SetPropertySold(ctx, offer.PropertyID, true)
		if err != nil {
			return apperr.Wrap(apperr.Persistence, "Error updating property", err)
		}
		if soldRows == 0 {
			return apperr.New(apperr.Conflict, "Another offer was accepted concurrently")
		}

		offer.OfferStatus = models.OfferStatusAccepted
		property.Sold = true
		result.Offer = offer
		result.Property = property
		result.RejectedOffers = rejected
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Offer %s accepted on property %s (%d siblings rejected)",
		result.Offer.ID, result.Property.ID, result.RejectedOffers)

	return &result, nil
}

// CancelOffer lets the bidder withdraw a Pending or Accepted offer. If the
// cancelled offer was the accepted one, the listing goes back on the market.
func (s *OfferService) CancelOffer(ctx context.Context, bidderID, offerID uuid.UUID) (*models.CancelOfferResult, error) {
	var result models.CancelOfferResult

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		offer, err := tx.GetOfferByID(ctx, offerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.NotFound, "Offer not found")
			}
			return apperr.Wrap(apperr.Persistence, "Error reading offer", err)
		}

		if offer.UserID != bidderID {
			return apperr.New(apperr.Authorization, "Only the bidder can cancel an offer")
		}

		switch offer.OfferStatus {
		case models.OfferStatusPending, models.OfferStatusAccepted:
			// proceed
		default:
			return apperr.Newf(apperr.Conflict, "Offer cannot be cancelled, current status: %s", offer.OfferStatus)
		}

		wasAccepted := offer.OfferStatus == models.OfferStatusAccepted

		// A contract still awaiting signature or payment dies with the
		// offer, so a later payment confirmation cannot revive the deal.
		// Once money has moved the offer can no longer be withdrawn.
		var contract *models.Contract
		if wasAccepted {
			contract, err = tx.GetContractByOffer(ctx, offer.ID)
			if err == nil {
				switch contract.Status {
				case models.ContractStatusPaid, models.ContractStatusPayoutInitiated, models.ContractStatusPayoutComplete:
					return apperr.New(apperr.Conflict, "Settlement is already in progress for this offer")
				case models.ContractStatusFailed:
					contract = nil
				}
			} else if errors.Is(err, gorm.ErrRecordNotFound) {
				contract = nil
			} else {
				return apperr.Wrap(apperr.Persistence, "Error reading contract", err)
			}
		}

		rows, err := tx.TransitionOfferStatus(ctx, offer.ID, offer.OfferStatus, models.OfferStatusCancelled)
		if err != nil {
			return apperr.Wrap(apperr.Persistence, "Error updating offer", err)
		}
		if rows == 0 {
			return apperr.New(apperr.Conflict, "Offer was decided concurrently")
		}

		if contract != nil {
			if _, err := tx.FailContract(ctx, contract.ID, "Offer was cancelled by the bidder"); err != nil {
				return apperr.Wrap(apperr.Persistence, "Error failing contract", err)
			}
		}

		property, err := tx.GetPropertyByID(ctx, offer.PropertyID)
		if err != nil {
			return apperr.Wrap(apperr.Persistence, "Error reading property", err)
		}

		if wasAccepted && property.Sold {
			if _, err := tx.SetPropertySold(ctx, offer.PropertyID, false); err != nil {
				return apperr.Wrap(apperr.Persistence, "Error updating property", err)
			}
			property.Sold = false
		}

		offer.OfferStatus = models.OfferStatusCancelled
		result.Offer = offer
		result.Property = property
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Offer %s cancelled by user %s", offerID, bidderID)

	return &result, nil
}

// GetOffersForProperty lists offers against a listing. Owner only.
func (s *OfferService) GetOffersForProperty(ctx context.Context, ownerID, propertyID uuid.UUID) ([]*models.Offer, error) {
	property, err := s.repo.GetPropertyByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Property does not exist")
		}
		return nil, apperr.Wrap(apperr.Persistence, "Error reading property", err)
	}

	if property.UserID != ownerID {
		return nil, apperr.New(apperr.Authorization, "Only the listing owner can view its offers")
	}

	offers, err := s.repo.GetOffersByProperty(ctx, propertyID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error reading offers", err)
	}
	return offers, nil
}

// GetMyOffers lists the caller's offers.
func (s *OfferService) GetMyOffers(ctx context.Context, userID uuid.UUID) ([]*models.Offer, error) {
	offers, err := s.repo.GetOffersByBidder(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error reading offers", err)
	}
	return offers, nil
}

// ExpirePendingOffers cancels Pending offers past their expiry time.
func (s *OfferService) ExpirePendingOffers(ctx context.Context) (int64, error) {
	return s.repo.ExpirePendingOffers(ctx)
}

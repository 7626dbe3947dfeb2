package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kalhuss/property-manage/internal/apperr"
	"github.com/kalhuss/property-manage/internal/models"
)

func TestAcceptOfferRejectsSiblingsAndMarksSold(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewOfferService(repo, newFakeStorage(), 0)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	bidder1 := createTestUser(t, db, "bidder1@test.com", false)
	bidder2 := createTestUser(t, db, "bidder2@test.com", false)
	property := createTestProperty(t, db, seller.ID, 1)

	offer1 := createTestOffer(t, db, property.ID, bidder1.ID, 280000, models.OfferStatusPending)
	offer2 := createTestOffer(t, db, property.ID, bidder2.ID, 290000, models.OfferStatusPending)

	result, err := service.AcceptOffer(ctx, seller.ID, offer2.ID)
	if err != nil {
		t.Fatalf("AcceptOffer failed: %v", err)
	}

	if result.Offer.OfferStatus != models.OfferStatusAccepted {
		t.Errorf("expected accepted offer, got %s", result.Offer.OfferStatus)
	}
	if !result.Property.Sold {
		t.Errorf("expected property to be marked sold")
	}
	if result.RejectedOffers != 1 {
		t.Errorf("expected 1 rejected sibling, got %d", result.RejectedOffers)
	}

	var stored models.Offer
	if err := db.First(&stored, "id = ?", offer1.ID).Error; err != nil {
		t.Fatalf("failed to read sibling offer: %v", err)
	}
	if stored.OfferStatus != models.OfferStatusRejected {
		t.Errorf("expected sibling offer rejected, got %s", stored.OfferStatus)
	}
}

func TestAcceptOfferIdempotent(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewOfferService(repo, newFakeStorage(), 0)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	bidder := createTestUser(t, db, "bidder@test.com", false)
	property := createTestProperty(t, db, seller.ID, 1)
	offer := createTestOffer(t, db, property.ID, bidder.ID, 280000, models.OfferStatusPending)

	if _, err := service.AcceptOffer(ctx, seller.ID, offer.ID); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	result, err := service.AcceptOffer(ctx, seller.ID, offer.ID)
	if err != nil {
		t.Fatalf("repeated accept should be a no-op, got: %v", err)
	}
	if result.Offer.OfferStatus != models.OfferStatusAccepted {
		t.Errorf("expected accepted offer, got %s", result.Offer.OfferStatus)
	}
}

func TestAcceptRejectedOfferConflicts(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewOfferService(repo, newFakeStorage(), 0)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	bidder1 := createTestUser(t, db, "bidder1@test.com", false)
	bidder2 := createTestUser(t, db, "bidder2@test.com", false)
	property := createTestProperty(t, db, seller.ID, 1)

	offer1 := createTestOffer(t, db, property.ID, bidder1.ID, 280000, models.OfferStatusPending)
	offer2 := createTestOffer(t, db, property.ID, bidder2.ID, 290000, models.OfferStatusPending)

	if _, err := service.AcceptOffer(ctx, seller.ID, offer2.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	_, err := service.AcceptOffer(ctx, seller.ID, offer1.ID)
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("expected conflict accepting a rejected offer, got %v", err)
	}
}

func TestAcceptOfferRequiresOwner(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewOfferService(repo, newFakeStorage(), 0)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	bidder := createTestUser(t, db, "bidder@test.com", false)
	property := createTestProperty(t, db, seller.ID, 1)
	offer := createTestOffer(t, db, property.ID, bidder.ID, 280000, models.OfferStatusPending)

	_, err := service.AcceptOffer(ctx, bidder.ID, offer.ID)
	if !apperr.IsKind(err, apperr.Authorization) {
		t.Errorf("expected authorization error, got %v", err)
	}
}

func TestAcceptOfferConflictsWhenListingSoldConcurrently(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewOfferService(repo, newFakeStorage(), 0)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	bidder := createTestUser(t, db, "bidder@test.com", false)
	property := createTestProperty(t, db, seller.ID, 1)
	offer := createTestOffer(t, db, property.ID, bidder.ID, 280000, models.OfferStatusPending)

	// Another accept committed the sold flag first
	db.Model(&models.Property{}).Where("id = ?", property.ID).Update("sold", true)

	_, err := service.AcceptOffer(ctx, seller.ID, offer.ID)
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("expected conflict when the listing is already sold, got %v", err)
	}

	var stored models.Offer
	if err := db.First(&stored, "id = ?", offer.ID).Error; err != nil {
		t.Fatalf("failed to read offer: %v", err)
	}
	if stored.OfferStatus != models.OfferStatusPending {
		t.Errorf("expected rollback to leave the offer pending, got %s", stored.OfferStatus)
	}
}

func TestCancelPendingOffer(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewOfferService(repo, newFakeStorage(), 0)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	bidder := createTestUser(t, db, "bidder@test.com", false)
	property := createTestProperty(t, db, seller.ID, 1)
	offer := createTestOffer(t, db, property.ID, bidder.ID, 280000, models.OfferStatusPending)

	result, err := service.CancelOffer(ctx, bidder.ID, offer.ID)
	if err != nil {
		t.Fatalf("CancelOffer failed: %v", err)
	}
	if result.Offer.OfferStatus != models.OfferStatusCancelled {
		t.Errorf("expected cancelled offer, got %s", result.Offer.OfferStatus)
	}
}

func TestCancelAcceptedOfferReopensListing(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewOfferService(repo, newFakeStorage(), 0)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	bidder := createTestUser(t, db, "bidder@test.com", false)
	property := createTestProperty(t, db, seller.ID, 1)
	offer := createTestOffer(t, db, property.ID, bidder.ID, 280000, models.OfferStatusPending)

	if _, err := service.AcceptOffer(ctx, seller.ID, offer.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	result, err := service.CancelOffer(ctx, bidder.ID, offer.ID)
	if err != nil {
		t.Fatalf("CancelOffer failed: %v", err)
	}
	if result.Property.Sold {
		t.Errorf("expected listing to reopen after cancelling the accepted offer")
	}
}

func TestCancelAcceptedOfferFailsUnpaidContract(t *testing.T) {
	repo, db := newTestRepo(t)
	offers := NewOfferService(repo, newFakeStorage(), 0)
	settlement := NewSettlementService(repo, newFakePayments(), "gbp")
	ctx := context.Background()

	_, bidder, offer, contract := seedSettlement(t, db, models.ContractStatusAwaitingPayment)
	db.Model(&models.Property{}).Where("id = ?", offer.PropertyID).Update("sold", true)

	result, err := offers.CancelOffer(ctx, bidder.ID, offer.ID)
	if err != nil {
		t.Fatalf("CancelOffer failed: %v", err)
	}
	if result.Property.Sold {
		t.Errorf("expected listing to reopen")
	}

	var stored models.Contract
	if err := db.First(&stored, "id = ?", contract.ID).Error; err != nil {
		t.Fatalf("failed to read contract: %v", err)
	}
	if stored.Status != models.ContractStatusFailed {
		t.Errorf("expected contract Failed after cancellation, got %s", stored.Status)
	}
	if stored.FailureReason == nil {
		t.Errorf("expected failure reason recorded")
	}

	// The payment callback for the dead deal must not capture money
	_, err = settlement.ConfirmPayment(ctx, &models.ConfirmPaymentRequest{
		ContractID: contract.ID.String(),
		Amount:     offer.Amount,
		Currency:   "gbp",
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("expected conflict confirming payment for a cancelled offer, got %v", err)
	}
}

func TestCancelOfferBlockedOncePaid(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewOfferService(repo, newFakeStorage(), 0)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	bidder := createTestUser(t, db, "bidder@test.com", false)
	property := createTestProperty(t, db, seller.ID, 1)
	offer := createTestOffer(t, db, property.ID, bidder.ID, 280000, models.OfferStatusAccepted)
	createTestContract(t, db, property, offer, models.ContractStatusPaid)

	_, err := service.CancelOffer(ctx, bidder.ID, offer.ID)
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("expected conflict cancelling a paid offer, got %v", err)
	}
}

func TestCancelRejectedOfferConflicts(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewOfferService(repo, newFakeStorage(), 0)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	bidder := createTestUser(t, db, "bidder@test.com", false)
	property := createTestProperty(t, db, seller.ID, 1)
	offer := createTestOffer(t, db, property.ID, bidder.ID, 280000, models.OfferStatusRejected)

	_, err := service.CancelOffer(ctx, bidder.ID, offer.ID)
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestCreateOfferRules(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewOfferService(repo, newFakeStorage(), 0)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	bidder := createTestUser(t, db, "bidder@test.com", false)
	property := createTestProperty(t, db, seller.ID, 1)

	// Bidding on your own listing is rejected
	_, err := service.CreateOffer(ctx, seller.ID, &models.CreateOfferRequest{
		PropertyID: property.ID.String(),
		Amount:     decimal.NewFromInt(280000),
	})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("expected validation error for own listing, got %v", err)
	}

	// Non-positive amounts are rejected
	_, err = service.CreateOffer(ctx, bidder.ID, &models.CreateOfferRequest{
		PropertyID: property.ID.String(),
		Amount:     decimal.Zero,
	})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("expected validation error for zero amount, got %v", err)
	}

	offer, err := service.CreateOffer(ctx, bidder.ID, &models.CreateOfferRequest{
		PropertyID: property.ID.String(),
		Amount:     decimal.NewFromInt(280000),
	})
	if err != nil {
		t.Fatalf("CreateOffer failed: %v", err)
	}
	if offer.OfferStatus != models.OfferStatusPending {
		t.Errorf("expected pending offer, got %s", offer.OfferStatus)
	}
	if offer.Status != models.StatusNotePending {
		t.Errorf("expected processing note %q, got %q", models.StatusNotePending, offer.Status)
	}

	// A second live offer on the same listing is rejected
	_, err = service.CreateOffer(ctx, bidder.ID, &models.CreateOfferRequest{
		PropertyID: property.ID.String(),
		Amount:     decimal.NewFromInt(285000),
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("expected conflict for duplicate offer, got %v", err)
	}

	// Cancelling frees the slot for a fresh offer
	if _, err := service.CancelOffer(ctx, bidder.ID, offer.ID); err != nil {
		t.Fatalf("CancelOffer failed: %v", err)
	}
	if _, err := service.CreateOffer(ctx, bidder.ID, &models.CreateOfferRequest{
		PropertyID: property.ID.String(),
		Amount:     decimal.NewFromInt(285000),
	}); err != nil {
		t.Fatalf("expected fresh offer after cancellation, got %v", err)
	}
}

func TestCreateOfferDuplicateRaceMapsToConflict(t *testing.T) {
	repo, db := newTestRepo(t)
	store := newFakeStorage()
	service := NewOfferService(repo, store, 0)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	bidder := createTestUser(t, db, "bidder@test.com", false)
	property := createTestProperty(t, db, seller.ID, 1)

	// A competing offer lands after the duplicate check has passed, so the
	// insert hits the partial unique index instead
	store.onUpload = func() {
		createTestOffer(t, db, property.ID, bidder.ID, 285000, models.OfferStatusPending)
	}

	_, err := service.CreateOffer(ctx, bidder.ID, &models.CreateOfferRequest{
		PropertyID: property.ID.String(),
		Amount:     decimal.NewFromInt(280000),
		Mortgage:   []string{"data:image/png;base64,bW9ydGdhZ2U="},
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("expected conflict for a concurrent duplicate offer, got %v", err)
	}
}

func TestCreateOfferOnSoldListingConflicts(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewOfferService(repo, newFakeStorage(), 0)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	bidder := createTestUser(t, db, "bidder@test.com", false)
	property := createTestProperty(t, db, seller.ID, 1)
	db.Model(&models.Property{}).Where("id = ?", property.ID).Update("sold", true)

	_, err := service.CreateOffer(ctx, bidder.ID, &models.CreateOfferRequest{
		PropertyID: property.ID.String(),
		Amount:     decimal.NewFromInt(280000),
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("expected conflict for sold listing, got %v", err)
	}
}

func TestExpirePendingOffers(t *testing.T) {
	repo, db := newTestRepo(t)
	service := NewOfferService(repo, newFakeStorage(), time.Hour)
	ctx := context.Background()

	seller := createTestUser(t, db, "seller@test.com", true)
	bidder := createTestUser(t, db, "bidder@test.com", false)
	property := createTestProperty(t, db, seller.ID, 1)

	stale := createTestOffer(t, db, property.ID, bidder.ID, 280000, models.OfferStatusPending)
	past := time.Now().Add(-time.Minute)
	db.Model(&models.Offer{}).Where("id = ?", stale.ID).Update("expires_at", past)

	expired, err := service.ExpirePendingOffers(ctx)
	if err != nil {
		t.Fatalf("ExpirePendingOffers failed: %v", err)
	}
	if expired != 1 {
		t.Errorf("expected 1 expired offer, got %d", expired)
	}

	var stored models.Offer
	if err := db.First(&stored, "id = ?", stale.ID).Error; err != nil {
		t.Fatalf("failed to read offer: %v", err)
	}
	if stored.OfferStatus != models.OfferStatusCancelled {
		t.Errorf("expected cancelled offer, got %s", stored.OfferStatus)
	}
}

package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kalhuss/property-manage/internal/apperr"
	"github.com/kalhuss/property-manage/internal/models"
	"github.com/kalhuss/property-manage/internal/repository"
)

// SettlementService drives a signed contract through payment capture and
// seller payout, exactly once:
//
//	AwaitingSignature -> AwaitingPayment -> Paid -> PayoutInitiated -> PayoutComplete
//
// with Failed reachable from any non-terminal state. Payment confirmations
// arrive at-least-once, so every transition is a conditional update keyed on
// the current state.
type SettlementService struct {
	repo     *repository.Repository
	payments PaymentsGateway
	currency string
}

func NewSettlementService(repo *repository.Repository, payments PaymentsGateway, currency string) *SettlementService {
	return &SettlementService{
		repo:     repo,
		payments: payments,
		currency: currency,
	}
}

// Checkout creates a checkout session for a signed contract and returns its
// URL. Bidder only; the contract must be awaiting payment.
func (s *SettlementService) Checkout(ctx context.Context, bidderID, contractID uuid.UUID) (string, error) {
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return "", err
	}

	if contract.UserID != bidderID {
		return "", apperr.New(apperr.Authorization, "Only the accepted bidder can pay for the contract")
	}

	if contract.Status != models.ContractStatusAwaitingPayment {
		return "", apperr.Newf(apperr.Conflict, "Contract is not awaiting payment, current status: %s", contract.Status)
	}

	offer, err := s.repo.GetOfferByID(ctx, contract.OfferID)
	if err != nil {
		return "", apperr.Wrap(apperr.Persistence, "Error reading offer", err)
	}

	url, sessionID, err := s.payments.CreateCheckoutSession(ctx, offer.Amount, contract.ID.String())
	if err != nil {
		return "", apperr.Wrap(apperr.Upstream, "Failed to create checkout session", err)
	}

	contract.CheckoutSessionID = &sessionID
	if err := s.repo.UpdateContract(ctx, contract); err != nil {
		return "", apperr.Wrap(apperr.Persistence, "Error updating contract", err)
	}

	return url, nil
}

// ConfirmPayment handles the payment-confirmation callback. The reported
// amount must equal the accepted offer amount. Duplicate deliveries return
// the current state without a second transition.
func (s *SettlementService) ConfirmPayment(ctx context.Context, req *models.ConfirmPaymentRequest) (*models.Contract, error) {
	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "Invalid contract id")
	}

	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	switch contract.Status {
	case models.ContractStatusPaid, models.ContractStatusPayoutInitiated, models.ContractStatusPayoutComplete:
		// Duplicate delivery after capture: nothing more to do.
		return contract, nil
	case models.ContractStatusAwaitingSignature:
		return nil, apperr.New(apperr.Conflict, "Contract has not been signed")
	case models.ContractStatusFailed:
		return nil, apperr.New(apperr.Conflict, "Contract has failed")
	}

	offer, err := s.repo.GetOfferByID(ctx, contract.OfferID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error reading offer", err)
	}

	if !strings.EqualFold(req.Currency, s.currency) {
		return nil, apperr.Newf(apperr.Conflict, "Unexpected currency %q", req.Currency)
	}

	if !req.Amount.Equal(offer.Amount) {
		return nil, apperr.Newf(apperr.Conflict,
			"Confirmed amount %s does not match the accepted offer amount %s",
			req.Amount.StringFixed(2), offer.Amount.StringFixed(2))
	}

	rows, err := s.repo.TransitionContractStatus(ctx, contract.ID,
		models.ContractStatusAwaitingPayment, models.ContractStatusPaid,
		map[string]interface{}{"paid": true})
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error updating contract", err)
	}
	if rows == 0 {
		// A concurrent duplicate won the transition; report the state it left.
		return s.getContract(ctx, contractID)
	}

	contract.Status = models.ContractStatusPaid
	contract.Paid = true

	log.Printf("Contract %s marked paid", contract.ID)

	return contract, nil
}

// Payout transfers the captured amount to the seller's payout account. The
// PayoutInitiated state is claimed before the transfer call, so a duplicate
// request can never produce a second transfer.
func (s *SettlementService) Payout(ctx context.Context, callerID, contractID uuid.UUID) (*models.Contract, error) {
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	property, err := s.repo.GetPropertyByID(ctx, contract.PropertyID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error reading property", err)
	}

	if property.UserID != callerID && contract.UserID != callerID {
		return nil, apperr.New(apperr.Authorization, "Not a party to this contract")
	}

	switch contract.Status {
	case models.ContractStatusPayoutComplete:
		return contract, nil
	case models.ContractStatusPayoutInitiated:
		return nil, apperr.New(apperr.Conflict, "Payout is already in flight")
	case models.ContractStatusPaid:
		// proceed
	default:
		return nil, apperr.Newf(apperr.Conflict, "Contract is not paid, current status: %s", contract.Status)
	}

	bank, err := s.repo.GetBankDetailsByUser(ctx, property.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.fail(ctx, contract, "Seller has no registered payout account")
		}
		return nil, apperr.Wrap(apperr.Persistence, "Error reading bank details", err)
	}

	offer, err := s.repo.GetOfferByID(ctx, contract.OfferID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error reading offer", err)
	}

	rows, err := s.repo.TransitionContractStatus(ctx, contract.ID,
		models.ContractStatusPaid, models.ContractStatusPayoutInitiated, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error updating contract", err)
	}
	if rows == 0 {
		return nil, apperr.New(apperr.Conflict, "Payout was initiated concurrently")
	}

	transferRef, err := s.payments.CreateTransfer(ctx, bank.AccountID, offer.Amount)
	if err != nil {
		return nil, s.fail(ctx, contract, "Payout transfer failed: "+err.Error())
	}

	// The gateway delivers no payout confirmation callback, so a successful
	// transfer request completes the state machine here.
	rows, err = s.repo.TransitionContractStatus(ctx, contract.ID,
		models.ContractStatusPayoutInitiated, models.ContractStatusPayoutComplete,
		map[string]interface{}{"transfer_ref": transferRef})
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error updating contract", err)
	}
	if rows == 0 {
		return s.getContract(ctx, contractID)
	}

	contract.Status = models.ContractStatusPayoutComplete
	contract.TransferRef = &transferRef

	log.Printf("Contract %s payout complete, transfer %s to account %s",
		contract.ID, transferRef, bank.AccountID)

	return contract, nil
}

// GetSettlement returns the settlement state of a contract to a party.
func (s *SettlementService) GetSettlement(ctx context.Context, callerID, contractID uuid.UUID) (*models.Contract, error) {
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	if contract.UserID != callerID {
		property, err := s.repo.GetPropertyByID(ctx, contract.PropertyID)
		if err != nil {
			return nil, apperr.Wrap(apperr.Persistence, "Error reading property", err)
		}
		if property.UserID != callerID {
			return nil, apperr.New(apperr.Authorization, "Not a party to this contract")
		}
	}

	return contract, nil
}

func (s *SettlementService) getContract(ctx context.Context, contractID uuid.UUID) (*models.Contract, error) {
	contract, err := s.repo.GetContractByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Contract not found")
		}
		return nil, apperr.Wrap(apperr.Persistence, "Error reading contract", err)
	}
	return contract, nil
}

// fail records a terminal Failed state with the reason and surfaces it as an
// upstream error. Failures are never swallowed.
func (s *SettlementService) fail(ctx context.Context, contract *models.Contract, reason string) error {
	if _, err := s.repo.FailContract(ctx, contract.ID, reason); err != nil {
		log.Printf("Error recording failure for contract %s: %v", contract.ID, err)
	}

	log.Printf("Contract %s failed: %s", contract.ID, reason)

	return apperr.New(apperr.Upstream, reason)
}

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

// BankService registers seller payout accounts with the payments gateway and
// runs identity verification for them.
type BankService struct {
	repo        *repository.Repository
	payments    PaymentsGateway
	frontendURL string
}

func NewBankService(repo *repository.Repository, payments PaymentsGateway, frontendURL string) *BankService {
	return &BankService{
		repo:        repo,
		payments:    payments,
		frontendURL: frontendURL,
	}
}

// AddBankDetails creates a payout account at the gateway and stores the bank
// details against the user. One payout account per user.
func (s *BankService) AddBankDetails(ctx context.Context, userID uuid.UUID, req *models.AddBankDetailsRequest, clientIP string) (*models.BankDetails, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "User not found")
		}
		return nil, apperr.Wrap(apperr.Persistence, "Error reading user", err)
	}

	if user.BankAdded {
		return nil, apperr.New(apperr.Conflict, "Bank details already added")
	}

	accountID, err := s.payments.CreatePayoutAccount(ctx, models.PayoutAccountDetails{
		Email:         user.Email,
		Name:          req.Name,
		Surname:       req.Surname,
		PhoneNumber:   req.PhoneNumber,
		DOBDay:        req.DOBDay,
		DOBMonth:      req.DOBMonth,
		DOBYear:       req.DOBYear,
		Address:       req.Address,
		City:          req.City,
		Postcode:      req.Postcode,
		SortCode:      req.SortCode,
		AccountNumber: req.AccountNumber,
		IP:            clientIP,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "Failed to create payout account", err)
	}

	details := &models.BankDetails{
		ID:            uuid.New(),
		UserID:        user.ID,
		AccountID:     accountID,
		Address:       req.Address,
		City:          req.City,
		Postcode:      req.Postcode,
		SortCode:      req.SortCode,
		AccountNumber: req.AccountNumber,
	}

	if err := s.repo.CreateBankDetails(ctx, details); err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error saving bank details", err)
	}

	if err := s.repo.SetUserBankAdded(ctx, user.ID, true); err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error updating user", err)
	}

	log.Printf("Payout account %s registered for user %s", accountID, user.ID)

	details.AccountNumber = maskAccountNumber(details.AccountNumber)

	return details, nil
}

// GetBankDetails returns the caller's bank details with the account number
// masked to its last four digits.
func (s *BankService) GetBankDetails(ctx context.Context, userID uuid.UUID) (*models.BankDetails, error) {
	details, err := s.repo.GetBankDetailsByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Bank details not found")
		}
		return nil, apperr.Wrap(apperr.Persistence, "Error reading bank details", err)
	}

	details.AccountNumber = maskAccountNumber(details.AccountNumber)

	return details, nil
}

// CreateVerificationSession starts an identity-verification session for the
// caller's payout account and returns the hosted URL.
func (s *BankService) CreateVerificationSession(ctx context.Context, userID uuid.UUID) (string, string, error) {
	details, err := s.repo.GetBankDetailsByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", apperr.New(apperr.Conflict, "Add bank details before verifying")
		}
		return "", "", apperr.Wrap(apperr.Persistence, "Error reading bank details", err)
	}

	returnURL := strings.TrimRight(s.frontendURL, "/") + "/verified"

	url, sessionID, err := s.payments.CreateVerificationSession(ctx, details.AccountID, returnURL)
	if err != nil {
		return "", "", apperr.Wrap(apperr.Upstream, "Failed to create verification session", err)
	}

	return url, sessionID, nil
}

// CheckVerification polls the verification session and marks the user
// verified once the processor reports success.
func (s *BankService) CheckVerification(ctx context.Context, userID uuid.UUID, sessionID string) (bool, error) {
	verified, err := s.payments.CheckVerificationSession(ctx, sessionID)
	if err != nil {
		return false, apperr.Wrap(apperr.Upstream, "Failed to check verification session", err)
	}

	if verified {
		if err := s.repo.SetUserVerified(ctx, userID, true); err != nil {
			return false, apperr.Wrap(apperr.Persistence, "Error updating user", err)
		}
		log.Printf("User %s verified", userID)
	}

	return verified, nil
}

func maskAccountNumber(n string) string {
	if len(n) <= 4 {
		return n
	}
	return strings.Repeat("*", len(n)-4) + n[len(n)-4:]
}

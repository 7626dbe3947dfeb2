package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/kalhuss/property-manage/internal/apperr"
	"github.com/kalhuss/property-manage/internal/models"
	"github.com/kalhuss/property-manage/internal/repository"
	"github.com/kalhuss/property-manage/internal/storage"
)

// ContractService generates the signable contract artifact for an accepted
// offer and records the bidder's signed copy.
type ContractService struct {
	repo  *repository.Repository
	store StorageGateway
}

func NewContractService(repo *repository.Repository, store StorageGateway) *ContractService {
	return &ContractService{repo: repo, store: store}
}

// GenerateContract renders and stores the contract for an accepted offer and
// creates the contract record awaiting signature. Calling it again for the
// same offer returns the existing contract.
func (s *ContractService) GenerateContract(ctx context.Context, bidderID uuid.UUID, req *models.CreateContractRequest) (*models.Contract, error) {
	offerID, err := uuid.Parse(req.OfferID)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "Invalid offer id")
	}

	offer, err := s.repo.GetOfferByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Offer not found")
		}
		return nil, apperr.Wrap(apperr.Persistence, "Error reading offer", err)
	}

	if offer.UserID != bidderID {
		return nil, apperr.New(apperr.Authorization, "Only the accepted bidder can generate the contract")
	}

	if offer.OfferStatus != models.OfferStatusAccepted {
		return nil, apperr.Newf(apperr.Conflict, "Offer is not accepted, current status: %s", offer.OfferStatus)
	}

	if existing, err := s.repo.GetContractByOffer(ctx, offerID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.Persistence, "Error reading contract", err)
	}

	property, err := s.repo.GetPropertyByID(ctx, offer.PropertyID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error reading property", err)
	}

	seller, err := s.repo.GetUserByID(ctx, property.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error reading seller", err)
	}

	buyer, err := s.repo.GetUserByID(ctx, offer.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error reading buyer", err)
	}

	pdfBytes, err := renderContractPDF(property, offer, seller, buyer)
	if err != nil {
		return nil, fmt.Errorf("failed to render contract: %w", err)
	}

	path, err := newContractPath(bidderID)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Upload(ctx, path, pdfBytes, "application/pdf")
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "Failed to upload contract", err)
	}

	contract := &models.Contract{
		ID:          uuid.New(),
		PropertyID:  offer.PropertyID,
		UserID:      offer.UserID,
		OfferID:     offer.ID,
		ContractPDF: pq.StringArray{stored},
		Status:      models.ContractStatusAwaitingSignature,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.CreateContract(ctx, contract); err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error adding entry to database", err)
	}

	log.Printf("Contract %s generated for offer %s", contract.ID, offer.ID)

	return contract, nil
}

// SignContract stores the bidder's signed artifact, flips the offer's signed
// flag and moves the contract into AwaitingPayment.
func (s *ContractService) SignContract(ctx context.Context, bidderID uuid.UUID, req *models.SignContractRequest) (*models.Contract, error) {
	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "Invalid contract id")
	}

	contract, err := s.repo.GetContractByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Contract not found")
		}
		return nil, apperr.Wrap(apperr.Persistence, "Error reading contract", err)
	}

	if contract.UserID != bidderID {
		return nil, apperr.New(apperr.Authorization, "Only the accepted bidder can sign the contract")
	}

	if contract.Status != models.ContractStatusAwaitingSignature {
		return nil, apperr.Newf(apperr.Conflict, "Contract is not awaiting signature, current status: %s", contract.Status)
	}

	data, contentType, err := decodeDataURI(req.SignedDocument)
	if err != nil {
		return nil, err
	}
	if contentType == "application/octet-stream" {
		contentType = "application/pdf"
	}

	path, err := newContractPath(bidderID)
	if err != nil {
		return nil, err
	}

	// Stored before the state machine is allowed to leave AwaitingSignature
	stored, err := s.store.Upload(ctx, path, data, contentType)
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "Failed to upload contract", err)
	}

	now := time.Now()
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		rows, err := tx.TransitionContractStatus(ctx, contract.ID,
			models.ContractStatusAwaitingSignature, models.ContractStatusAwaitingPayment,
			map[string]interface{}{
				"contract_pdf": append(contract.ContractPDF, stored),
				"signature":    req.Signature,
				"signed_at":    now,
			})
		if err != nil {
			return apperr.Wrap(apperr.Persistence, "Error updating contract", err)
		}
		if rows == 0 {
			return apperr.New(apperr.Conflict, "Contract was already signed")
		}

		if err := tx.SetOfferSigned(ctx, contract.OfferID, true); err != nil {
			return apperr.Wrap(apperr.Persistence, "Error updating offer status", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	contract.ContractPDF = append(contract.ContractPDF, stored)
	contract.Signature = &req.Signature
	contract.SignedAt = &now
	contract.Status = models.ContractStatusAwaitingPayment

	log.Printf("Contract %s signed by user %s", contract.ID, bidderID)

	return contract, nil
}

// GetContract retrieves a contract. Visible to both parties.
func (s *ContractService) GetContract(ctx context.Context, callerID, contractID uuid.UUID) (*models.Contract, error) {
	contract, err := s.repo.GetContractByID(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "Contract not found")
		}
		return nil, apperr.Wrap(apperr.Persistence, "Error reading contract", err)
	}

	if err := s.authorizeParty(ctx, callerID, contract); err != nil {
		return nil, err
	}

	return contract, nil
}

// GetDocument downloads the latest stored contract artifact.
func (s *ContractService) GetDocument(ctx context.Context, callerID, contractID uuid.UUID) ([]byte, error) {
	contract, err := s.GetContract(ctx, callerID, contractID)
	if err != nil {
		return nil, err
	}

	if len(contract.ContractPDF) == 0 {
		return nil, apperr.New(apperr.NotFound, "Contract has no stored document")
	}

	data, err := s.store.Download(ctx, contract.ContractPDF[len(contract.ContractPDF)-1])
	if err != nil {
		return nil, apperr.Wrap(apperr.Upstream, "Failed to download contract", err)
	}

	return data, nil
}

// authorizeParty ensures the caller is the bidder or the listing owner.
func (s *ContractService) authorizeParty(ctx context.Context, callerID uuid.UUID, contract *models.Contract) error {
	if contract.UserID == callerID {
		return nil
	}

	property, err := s.repo.GetPropertyByID(ctx, contract.PropertyID)
	if err != nil {
		return apperr.Wrap(apperr.Persistence, "Error reading property", err)
	}

	if property.UserID != callerID {
		return apperr.New(apperr.Authorization, "Not a party to this contract")
	}

	return nil
}

func newContractPath(userID uuid.UUID) (string, error) {
	return storage.NewObjectPath(userID.String(), "contracts")
}

// renderContractPDF produces the signable artifact. The creation date is
// pinned to the offer's creation time so the same inputs always reproduce
// byte-identical output.
func renderContractPDF(property *models.Property, offer *models.Offer, seller, buyer *models.User) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(offer.CreatedAt.UTC())
	pdf.SetModificationDate(offer.CreatedAt.UTC())
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Property Purchase Contract")
	pdf.Ln(18)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Listing number: %d", property.PropertyNumber),
		fmt.Sprintf("Address: %s, %s", property.Address, property.Postcode),
		fmt.Sprintf("Tenure: %s", property.Tenure),
		fmt.Sprintf("Agreed amount: GBP %s", offer.Amount.StringFixed(2)),
		"",
		fmt.Sprintf("Seller: %s %s (%s)", seller.Name, seller.Surname, seller.Email),
		fmt.Sprintf("Buyer: %s %s (%s)", buyer.Name, buyer.Surname, buyer.Email),
		"",
		"The seller agrees to transfer the above property to the buyer on",
		"receipt of the agreed amount through the platform's payment provider.",
		"",
		"Buyer signature: ____________________________",
	}
	for _, line := range lines {
		pdf.Cell(0, 8, line)
		pdf.Ln(8)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}

	return buf.Bytes(), nil
}

package repository

import (
	"context"

	"github.com/kalhuss/property-manage/internal/models"

	"github.com/google/uuid"
)

// CreateContract creates a new contract
func (r *Repository) CreateContract(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

// GetContractByID retrieves a contract by ID
func (r *Repository) GetContractByID(ctx context.Context, contractID uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	err := r.db.WithContext(ctx).Where("id = ?", contractID).First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// GetContractByOffer retrieves the contract generated for an offer
func (r *Repository) GetContractByOffer(ctx context.Context, offerID uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	err := r.db.WithContext(ctx).Where("offer_id = ?", offerID).First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// UpdateContract updates a contract
func (r *Repository) UpdateContract(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Save(contract).Error
}

// TransitionContractStatus moves a contract from one settlement state to
// another as a single conditional update, optionally setting extra columns
// in the same statement. Zero rows means the contract had already left the
// expected state, which is how duplicate webhook deliveries become no-ops.
func (r *Repository) TransitionContractStatus(ctx context.Context, contractID uuid.UUID, from, to models.ContractStatus, extra map[string]interface{}) (int64, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).
		Model(&models.Contract{}).
		Where("id = ? AND status = ?", contractID, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// FailContract moves a non-terminal contract to Failed with a reason.
func (r *Repository) FailContract(ctx context.Context, contractID uuid.UUID, reason string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Contract{}).
		Where("id = ? AND status NOT IN ?", contractID,
			[]models.ContractStatus{models.ContractStatusPayoutComplete, models.ContractStatusFailed}).
		Updates(map[string]interface{}{
			"status":         models.ContractStatusFailed,
			"failure_reason": reason,
		})
	return result.RowsAffected, result.Error
}

// CreateBankDetails stores a seller's payout destination
func (r *Repository) CreateBankDetails(ctx context.Context, details *models.BankDetails) error {
	return r.db.WithContext(ctx).Create(details).Error
}

// GetBankDetailsByUser retrieves a user's payout destination
func (r *Repository) GetBankDetailsByUser(ctx context.Context, userID uuid.UUID) (*models.BankDetails, error) {
	var details models.BankDetails
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&details).Error
	if err != nil {
		return nil, err
	}
	return &details, nil
}

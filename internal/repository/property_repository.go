package repository

import (
	"context"

	"github.com/kalhuss/property-manage/internal/models"

	"github.com/google/uuid"
)

// CreateProperty creates a new property listing
func (r *Repository) CreateProperty(ctx context.Context, property *models.Property) error {
	return r.db.WithContext(ctx).Create(property).Error
}

// GetPropertyByID retrieves a property by ID
func (r *Repository) GetPropertyByID(ctx context.Context, propertyID uuid.UUID) (*models.Property, error) {
	var property models.Property
	err := r.db.WithContext(ctx).Where("id = ?", propertyID).First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetPropertyByNumber retrieves a property by its public sequential number
func (r *Repository) GetPropertyByNumber(ctx context.Context, number int64) (*models.Property, error) {
	var property models.Property
	err := r.db.WithContext(ctx).Where("property_number = ?", number).First(&property).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// NextPropertyNumber allocates the next public listing number. Callers must
// run it inside the transaction that also inserts the row.
func (r *Repository) NextPropertyNumber(ctx context.Context) (int64, error) {
	var max int64
	err := r.db.WithContext(ctx).
		Model(&models.Property{}).
		Select("COALESCE(MAX(property_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// GetProperties retrieves unsold listings, newest first
func (r *Repository) GetProperties(ctx context.Context, limit, offset int) ([]*models.Property, int64, error) {
	var properties []*models.Property
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Property{}).Where("sold = ?", false)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&properties).Error
	if err != nil {
		return nil, 0, err
	}

	return properties, total, nil
}

// GetPropertiesByOwner retrieves all listings created by a user
func (r *Repository) GetPropertiesByOwner(ctx context.Context, userID uuid.UUID) ([]*models.Property, error) {
	var properties []*models.Property
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&properties).Error
	if err != nil {
		return nil, err
	}
	return properties, nil
}

// UpdateProperty updates a property listing
func (r *Repository) UpdateProperty(ctx context.Context, property *models.Property) error {
	return r.db.WithContext(ctx).Save(property).Error
}

// SetPropertySold flips the sold flag for a listing as a conditional
// update. Zero rows means another transaction flipped it first.
func (r *Repository) SetPropertySold(ctx context.Context, propertyID uuid.UUID, sold bool) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ? AND sold = ?", propertyID, !sold).
		Update("sold", sold)
	return result.RowsAffected, result.Error
}

// DeleteProperty removes a listing
func (r *Repository) DeleteProperty(ctx context.Context, propertyID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Property{}, "id = ?", propertyID).Error
}

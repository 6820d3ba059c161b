package db

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edumart/edumart/biz/dal/model"
)

// ResourceDAO handles CRUD operations for resource records.
type ResourceDAO struct{}

func NewResourceDAO() *ResourceDAO { return &ResourceDAO{} }

func (dao *ResourceDAO) Create(ctx context.Context, db *gorm.DB, res *model.Resource) error {
	if res == nil {
		return nil
	}
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(res).Error
}

// Finalize sets the storage key and preview URL on a placeholder row. It
// is the saga's single commit point; a map update is used so a NULL
// preview URL is written explicitly.
func (dao *ResourceDAO) Finalize(ctx context.Context, db *gorm.DB, id, fileURL string, previewURL *string) error {
	result := db.WithContext(ctx).
		Model(&model.Resource{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"file_url":    fileURL,
			"preview_url": previewURL,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HardDelete removes a row outright. Compensation uses this so a failed
// upload leaves no trace, not even a soft-deleted one.
func (dao *ResourceDAO) HardDelete(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&model.Resource{}).Error
}

func (dao *ResourceDAO) GetByID(ctx context.Context, db *gorm.DB, id string) (*model.Resource, error) {
	var res model.Resource
	if err := db.WithContext(ctx).Where("id = ?", id).First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (dao *ResourceDAO) ListBySellerID(ctx context.Context, db *gorm.DB, sellerID int64) ([]model.Resource, error) {
	var resources []model.Resource
	if err := db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&resources).Error; err != nil {
		return nil, err
	}
	return resources, nil
}

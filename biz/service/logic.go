package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/edumart/edumart/biz/dal/db"
	"github.com/edumart/edumart/biz/dal/model"
)

var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrNotOwner         = errors.New("resource belongs to another seller")
)

// Logic wraps data persistence for resource records.
type Logic struct {
	db          *gorm.DB
	resourceDAO *db.ResourceDAO
}

func NewLogic(dbConn *gorm.DB) *Logic {
	return &Logic{
		db:          dbConn,
		resourceDAO: db.NewResourceDAO(),
	}
}

func (l *Logic) CreateResource(ctx context.Context, res *model.Resource) error {
	return l.resourceDAO.Create(ctx, l.db, res)
}

func (l *Logic) FinalizeResource(ctx context.Context, id, fileURL string, previewURL *string) error {
	if err := l.resourceDAO.Finalize(ctx, l.db, id, fileURL, previewURL); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResourceNotFound
		}
		return err
	}
	return nil
}

func (l *Logic) DeleteResource(ctx context.Context, id string) error {
	return l.resourceDAO.HardDelete(ctx, l.db, id)
}

func (l *Logic) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	res, err := l.resourceDAO.GetByID(ctx, l.db, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrResourceNotFound
	}
	return res, err
}

func (l *Logic) ListResourcesBySeller(ctx context.Context, sellerID int64) ([]model.Resource, error) {
	return l.resourceDAO.ListBySellerID(ctx, l.db, sellerID)
}

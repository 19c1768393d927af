package db

import (
	"context"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
)

type EstablishmentRepo struct {
	db *DbDao
}

func NewEstablishmentRepo(db *DbDao) *EstablishmentRepo {
	return &EstablishmentRepo{db: db}
}

func (s *EstablishmentRepo) CreateEstablishment(ctx context.Context, establishment *model.Establishment) error {
	return translateError(s.db.WithContext(ctx).Create(establishment).Error)
}

func (s *EstablishmentRepo) GetEstablishmentByID(ctx context.Context, establishmentID int64) (*model.Establishment, error) {
	var establishment model.Establishment
	err := s.db.WithContext(ctx).First(&establishment, "establishment_id = ?", establishmentID).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &establishment, nil
}

func (s *EstablishmentRepo) ListEstablishments(ctx context.Context) ([]model.Establishment, error) {
	var establishments []model.Establishment
	err := s.db.WithContext(ctx).Order("establishment_id").Find(&establishments).Error
	if err != nil {
		return nil, translateError(err)
	}
	return establishments, nil
}

// 刪除店家, 其訂單由外鍵級聯刪除
func (s *EstablishmentRepo) DeleteEstablishment(ctx context.Context, establishmentID int64) error {
	result := s.db.WithContext(ctx).Delete(&model.Establishment{}, "establishment_id = ?", establishmentID)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

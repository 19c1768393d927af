package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/repository/db"
	"go.opentelemetry.io/otel/attribute"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+380[0-9]{9}$`)
)

type IEstablishmentService interface {
	CreateEstablishment(ctx context.Context, input CreateEstablishmentInput) (*model.Establishment, error)
	GetEstablishment(ctx context.Context, establishmentID int64) (*model.Establishment, error)
	ListEstablishments(ctx context.Context) ([]model.Establishment, error)
	DeleteEstablishment(ctx context.Context, establishmentID int64) error
}

type CreateEstablishmentInput struct {
	Type    model.EstablishmentType
	Name    string
	Email   string
	Phone   string
	Address string
}

type EstablishmentService struct {
	store db.UnifiedDB
	opts  options
}

func NewEstablishmentService(store db.UnifiedDB, opts ...Option) *EstablishmentService {
	return &EstablishmentService{store: store, opts: newOptions(opts...)}
}

func (s *EstablishmentService) CreateEstablishment(ctx context.Context, input CreateEstablishmentInput) (establishment *model.Establishment, err error) {
	ctx, span := s.opts.tracer.Start(ctx, "EstablishmentService.CreateEstablishment")
	defer func() { endSpan(span, err) }()

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Address = strings.TrimSpace(input.Address)

	if !input.Type.Valid() {
		return nil, newValidationError("type", "must be one of cafe, restaurant, shop")
	}
	if err := errors.Join(validateName("name", input.Name), validateName("address", input.Address)); err != nil {
		return nil, firstValidationError(err)
	}
	if len(input.Email) > maxNameLength || !emailPattern.MatchString(input.Email) {
		return nil, newValidationError("email", "must be a valid email address")
	}
	if !phonePattern.MatchString(input.Phone) {
		return nil, newValidationError("phone", "must match +380#########")
	}

	establishment = &model.Establishment{
		Type:    input.Type,
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
	}
	if err := s.store.CreateEstablishment(ctx, establishment); err != nil {
		return nil, mapNotFound(err, ErrEstablishmentNotFound)
	}
	span.SetAttributes(attribute.Int64("establishment.id", establishment.EstablishmentID))
	return establishment, nil
}

func (s *EstablishmentService) GetEstablishment(ctx context.Context, establishmentID int64) (establishment *model.Establishment, err error) {
	ctx, span := s.opts.tracer.Start(ctx, "EstablishmentService.GetEstablishment")
	defer func() { endSpan(span, err) }()

	establishment, err = s.store.GetEstablishmentByID(ctx, establishmentID)
	if err != nil {
		return nil, mapNotFound(err, ErrEstablishmentNotFound)
	}
	return establishment, nil
}

func (s *EstablishmentService) ListEstablishments(ctx context.Context) (establishments []model.Establishment, err error) {
	ctx, span := s.opts.tracer.Start(ctx, "EstablishmentService.ListEstablishments")
	defer func() { endSpan(span, err) }()

	establishments, err = s.store.ListEstablishments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list establishments: %w", err)
	}
	return establishments, nil
}

// DeleteEstablishment 級聯刪除訂單前先歸還所有明細佔用的庫存
func (s *EstablishmentService) DeleteEstablishment(ctx context.Context, establishmentID int64) (err error) {
	ctx, span := s.opts.tracer.Start(ctx, "EstablishmentService.DeleteEstablishment")
	span.SetAttributes(attribute.Int64("establishment.id", establishmentID))
	defer func() { endSpan(span, err) }()

	var releasedOrders int
	err = stockTx(ctx, s.store, s.opts, "DeleteEstablishment", func(tx db.UnifiedDB) error {
		if _, err := tx.GetEstablishmentByID(ctx, establishmentID); err != nil {
			return mapNotFound(err, ErrEstablishmentNotFound)
		}
		orders, err := tx.ListOrdersByEstablishment(ctx, establishmentID)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		for _, order := range orders {
			if _, err := releaseLines(ctx, tx, order.Lines); err != nil {
				return err
			}
		}
		releasedOrders = len(orders)
		if err := tx.DeleteEstablishment(ctx, establishmentID); err != nil {
			return mapNotFound(err, ErrEstablishmentNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.opts.logger.Info().Int64("establishment_id", establishmentID).Int("orders", releasedOrders).Msg("establishment deleted")
	return nil
}

var _ IEstablishmentService = (*EstablishmentService)(nil)

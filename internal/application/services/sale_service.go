package services

import (
	"context"
	"strings"

	"github.com/4DevsO/qtut-b4a/internal/application/command"
	"github.com/4DevsO/qtut-b4a/internal/application/interfaces"
	"github.com/4DevsO/qtut-b4a/internal/application/mapper"
	"github.com/4DevsO/qtut-b4a/internal/application/query"
	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
	"github.com/4DevsO/qtut-b4a/internal/domain/filter"
	"github.com/4DevsO/qtut-b4a/internal/domain/repositories"
	"github.com/4DevsO/qtut-b4a/internal/errs"
)

type SaleService struct {
	saleRepo    repositories.SaleRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
}

func NewSaleService(
	saleRepo repositories.SaleRepository,
	productRepo repositories.ProductRepository,
	userRepo repositories.UserRepository,
) interfaces.SaleService {
	return &SaleService{
		saleRepo:    saleRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

// saleDraft accumulates what each creation stage resolves.
type saleDraft struct {
	cmd         *command.CreateSaleCommand
	creator     *entities.User
	products    []*entities.Product
	mainProduct *entities.Product
	sale        *entities.Sale
}

// saleStage is one step of sale creation. A stage only reads what earlier
// stages put in the draft.
type saleStage func(ctx context.Context, d *saleDraft) error

// CreateSale resolves the creator, then the products, then the main product,
// and persists the sale. The first failing stage aborts the rest, so nothing
// is written unless every reference resolved.
func (s *SaleService) CreateSale(ctx context.Context, cmd *command.CreateSaleCommand) (*command.SaleCommandResult, error) {
	stages := []saleStage{
		s.resolveCreator,
		s.resolveProducts,
		s.resolveMainProduct,
		s.persistSale,
	}

	d := &saleDraft{cmd: cmd}
	for _, stage := range stages {
		if err := stage(ctx, d); err != nil {
			return nil, err
		}
	}

	return &command.SaleCommandResult{
		Result: mapper.NewSaleResultFromEntity(d.sale),
	}, nil
}

func (s *SaleService) resolveCreator(ctx context.Context, d *saleDraft) error {
	creator, err := s.userRepo.FindById(ctx, d.cmd.CreatorObjectId)
	if err != nil {
		return err
	}
	if creator == nil {
		return errs.NotFound("User not found for %s", d.cmd.CreatorObjectId)
	}
	d.creator = creator
	return nil
}

// resolveProducts keeps the products in the order they were listed.
func (s *SaleService) resolveProducts(ctx context.Context, d *saleDraft) error {
	ids := d.cmd.Products.Strings()
	if len(ids) == 0 {
		return errs.NotFound("No products were found for ObjectsIds %s", strings.Join(ids, ","))
	}

	found, err := s.productRepo.FindByIds(ctx, ids)
	if err != nil {
		return err
	}
	byId := make(map[string]*entities.Product, len(found))
	for _, p := range found {
		byId[p.Id] = p
	}

	d.products = make([]*entities.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := byId[id]
		if !ok {
			return errs.NotFound("Product was not found for %s", id)
		}
		d.products = append(d.products, p)
	}
	return nil
}

// resolveMainProduct requires the main product to be one of the listed
// products.
func (s *SaleService) resolveMainProduct(_ context.Context, d *saleDraft) error {
	for _, p := range d.products {
		if p.Id == d.cmd.MainProductObjectId {
			d.mainProduct = p
			return nil
		}
	}
	return errs.NotFound("Main product not found for objectId %s", d.cmd.MainProductObjectId)
}

func (s *SaleService) persistSale(ctx context.Context, d *saleDraft) error {
	if err := d.cmd.Location.Validate(); err != nil {
		return errs.Wrap(errs.CodeInvalidJSON, err)
	}

	sale := entities.NewSale(d.cmd.Fixed, d.cmd.Card, d.cmd.CloseTime.Ptr(), d.cmd.Location,
		d.cmd.LocationDescription, d.products, d.mainProduct, d.creator)
	createdSale, err := s.saleRepo.Create(ctx, sale)
	if err != nil {
		return err
	}
	d.sale = createdSale
	return nil
}

func (s *SaleService) FindSaleById(ctx context.Context, id string) (*query.SaleQueryResult, error) {
	sale, err := s.saleRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, errs.NotFound("Sale was not found for %s", id)
	}

	return &query.SaleQueryResult{
		Result: mapper.NewSaleResultFromEntity(sale),
	}, nil
}

func (s *SaleService) FindSalesByFilter(ctx context.Context, q *query.FilterQuery) (*query.SaleQueryListResult, error) {
	sales, err := s.saleRepo.FindByFilter(ctx, filter.FromMap(q.Filter))
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, errs.NotFound("No sales were found for the filter %s", renderJSON(q.Filter))
	}

	return &query.SaleQueryListResult{
		Result: mapper.NewSaleResultsFromEntities(sales),
	}, nil
}

func (s *SaleService) FindSalesByLocationRadius(ctx context.Context, q *query.LocationRadiusQuery) (*query.SaleQueryListResult, error) {
	if err := q.Location.Validate(); err != nil {
		return nil, errs.Wrap(errs.CodeInvalidJSON, err)
	}
	if q.Radius < 0 {
		return nil, errs.Newf(errs.CodeInvalidQuery, "radius must not be negative, got %v", q.Radius)
	}

	sales, err := s.saleRepo.FindNear(ctx, q.Location, q.Radius)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, errs.NotFound("No sales were found for the %vkm and location %s", q.Radius, renderJSON(q.Location))
	}

	return &query.SaleQueryListResult{
		Result: mapper.NewSaleResultsFromEntities(sales),
	}, nil
}

func (s *SaleService) UpdateSale(ctx context.Context, cmd *command.UpdateSaleCommand) (*command.SaleCommandResult, error) {
	patch := cmd.Sale
	if patch == nil {
		patch = &entities.SalePatch{}
	}

	sale, err := s.saleRepo.FindById(ctx, patch.Id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, errs.NotFound("Sale was not found for %s", patch.Id)
	}

	patch.Apply(sale)
	updatedSale, err := s.saleRepo.Update(ctx, sale)
	if err != nil {
		return nil, err
	}

	return &command.SaleCommandResult{
		Result: mapper.NewSaleResultFromEntity(updatedSale),
	}, nil
}

func (s *SaleService) DeleteSale(ctx context.Context, id string) (*command.MessageCommandResult, error) {
	sale, err := s.saleRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, errs.NotFound("Sale was not found for %s", id)
	}

	if err := s.saleRepo.Delete(ctx, sale.Id); err != nil {
		return nil, err
	}
	return &command.MessageCommandResult{Message: "Sale was deleted"}, nil
}

package services

import (
	"context"

	"github.com/4DevsO/qtut-b4a/internal/application/command"
	"github.com/4DevsO/qtut-b4a/internal/application/interfaces"
	"github.com/4DevsO/qtut-b4a/internal/application/mapper"
	"github.com/4DevsO/qtut-b4a/internal/application/query"
	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
	"github.com/4DevsO/qtut-b4a/internal/domain/filter"
	"github.com/4DevsO/qtut-b4a/internal/domain/repositories"
	"github.com/4DevsO/qtut-b4a/internal/errs"
)

type ProductService struct {
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
}

func NewProductService(productRepo repositories.ProductRepository, userRepo repositories.UserRepository) interfaces.ProductService {
	return &ProductService{
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, cmd *command.CreateProductCommand) (*command.ProductCommandResult, error) {
	creator, err := s.userRepo.FindById(ctx, cmd.CreatorObjectId)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, errs.NotFound("User not found for %s", cmd.CreatorObjectId)
	}

	product := entities.NewProduct(cmd.Name, cmd.Price, cmd.Description, cmd.Pictures, cmd.Tags, creator)
	createdProduct, err := s.productRepo.Create(ctx, product)
	if err != nil {
		return nil, err
	}

	return &command.ProductCommandResult{
		Result: mapper.NewProductResultFromEntity(createdProduct),
	}, nil
}

func (s *ProductService) FindProductById(ctx context.Context, id string) (*query.ProductQueryResult, error) {
	product, err := s.productRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errs.NotFound("Product was not found for %s", id)
	}

	return &query.ProductQueryResult{
		Result: mapper.NewProductResultFromEntity(product),
	}, nil
}

func (s *ProductService) FindProductsByFilter(ctx context.Context, q *query.FilterQuery) (*query.ProductQueryListResult, error) {
	products, err := s.productRepo.FindByFilter(ctx, filter.FromMap(q.Filter))
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, errs.NotFound("No products were found for the filter %s", renderJSON(q.Filter))
	}

	return &query.ProductQueryListResult{
		Result: mapper.NewProductResultsFromEntities(products),
	}, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, cmd *command.UpdateProductCommand) (*command.ProductCommandResult, error) {
	patch := cmd.Product
	if patch == nil {
		patch = &entities.ProductPatch{}
	}

	product, err := s.productRepo.FindById(ctx, patch.Id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errs.NotFound("Product was not found for %s", patch.Id)
	}

	patch.Apply(product)
	updatedProduct, err := s.productRepo.Update(ctx, product)
	if err != nil {
		return nil, err
	}

	return &command.ProductCommandResult{
		Result: mapper.NewProductResultFromEntity(updatedProduct),
	}, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) (*command.MessageCommandResult, error) {
	product, err := s.productRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errs.NotFound("Product was not found for %s", id)
	}

	if err := s.productRepo.Delete(ctx, product.Id); err != nil {
		return nil, err
	}
	return &command.MessageCommandResult{Message: "Product was deleted"}, nil
}

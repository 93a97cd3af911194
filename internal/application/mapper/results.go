package mapper

import (
	"github.com/4DevsO/qtut-b4a/internal/application/common"
	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
)

const userClassName = "_User"

func NewUserResultFromEntity(user *entities.User) *common.UserResult {
	if user == nil {
		return nil
	}
	return &common.UserResult{
		Id:         user.Id,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
		Username:   user.Username,
		Email:      user.Email,
		Premium:    user.Premium,
		ACL:        user.ACL,
		Attributes: user.Attributes,
	}
}

func NewUserResultsFromEntities(users []*entities.User) []*common.UserResult {
	results := make([]*common.UserResult, len(users))
	for i, u := range users {
		results[i] = NewUserResultFromEntity(u)
	}
	return results
}

func NewProductResultFromEntity(product *entities.Product) *common.ProductResult {
	if product == nil {
		return nil
	}
	return &common.ProductResult{
		Id:           product.Id,
		CreatedAt:    product.CreatedAt,
		UpdatedAt:    product.UpdatedAt,
		Name:         product.Name,
		Price:        product.Price,
		Description:  product.Description,
		Pictures:     product.Pictures,
		Tags:         product.Tags,
		UserObjectId: product.UserId,
		User:         common.NewPointer(userClassName, product.UserId),
	}
}

func NewProductResultsFromEntities(products []*entities.Product) []*common.ProductResult {
	results := make([]*common.ProductResult, len(products))
	for i, p := range products {
		results[i] = NewProductResultFromEntity(p)
	}
	return results
}

func NewSaleResultFromEntity(sale *entities.Sale) *common.SaleResult {
	if sale == nil {
		return nil
	}
	return &common.SaleResult{
		Id:                  sale.Id,
		CreatedAt:           sale.CreatedAt,
		UpdatedAt:           sale.UpdatedAt,
		Fixed:               sale.Fixed,
		Products:            NewProductResultsFromEntities(sale.Products),
		MainProductObjectId: sale.MainProductId,
		MainProduct:         NewProductResultFromEntity(sale.MainProduct),
		Card:                sale.Card,
		CloseTime:           sale.CloseTime,
		Location: common.GeoPointResult{
			Type:      "GeoPoint",
			Latitude:  sale.Location.Latitude,
			Longitude: sale.Location.Longitude,
		},
		LocationDescription: sale.LocationDescription,
		UserObjectId:        sale.UserId,
		User:                NewUserResultFromEntity(sale.User),
		Active:              sale.Active,
	}
}

func NewSaleResultsFromEntities(sales []*entities.Sale) []*common.SaleResult {
	results := make([]*common.SaleResult, len(sales))
	for i, s := range sales {
		results[i] = NewSaleResultFromEntity(s)
	}
	return results
}

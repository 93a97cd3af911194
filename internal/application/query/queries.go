package query

import (
	"github.com/4DevsO/qtut-b4a/internal/application/common"
	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
)

// FilterQuery carries a filter map as the caller sent it.
type FilterQuery struct {
	Filter map[string]any `json:"filter"`
}

type LocationRadiusQuery struct {
	Location entities.GeoPoint `json:"location"`
	Radius   float64           `json:"radius"`
}

type UserQueryResult struct {
	Result *common.UserResult `json:"result"`
}

type UserQueryListResult struct {
	Result []*common.UserResult `json:"result"`
}

type ProductQueryResult struct {
	Result *common.ProductResult `json:"result"`
}

type ProductQueryListResult struct {
	Result []*common.ProductResult `json:"result"`
}

type SaleQueryResult struct {
	Result *common.SaleResult `json:"result"`
}

type SaleQueryListResult struct {
	Result []*common.SaleResult `json:"result"`
}

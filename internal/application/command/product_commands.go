package command

import (
	"github.com/4DevsO/qtut-b4a/internal/application/common"
	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
)

type CreateProductCommand struct {
	Name            string   `json:"name"`
	Price           float64  `json:"price"`
	Description     string   `json:"description"`
	Pictures        []string `json:"pictures"`
	Tags            []string `json:"tags"`
	CreatorObjectId string   `json:"creatorObjectId"`
}

type UpdateProductCommand struct {
	Product *entities.ProductPatch `json:"product"`
}

type ProductCommandResult struct {
	Result *common.ProductResult `json:"result"`
}

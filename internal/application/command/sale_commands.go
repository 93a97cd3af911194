package command

import (
	"github.com/4DevsO/qtut-b4a/internal/application/common"
	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
)

type CreateSaleCommand struct {
	Fixed               bool              `json:"fixed"`
	Products            entities.RefList  `json:"products"`
	MainProductObjectId string            `json:"mainProductObjectId"`
	Card                bool              `json:"card"`
	CloseTime           *entities.Date    `json:"closeTime"`
	Location            entities.GeoPoint `json:"location"`
	LocationDescription string            `json:"locationDescription"`
	CreatorObjectId     string            `json:"creatorObjectId"`
}

type UpdateSaleCommand struct {
	Sale *entities.SalePatch `json:"sale"`
}

type SaleCommandResult struct {
	Result *common.SaleResult `json:"result"`
}

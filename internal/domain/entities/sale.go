package entities

import (
	"time"

	"github.com/google/uuid"
)

type Sale struct {
	Id                  string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Fixed               bool
	ProductIds          []string
	MainProductId       string
	Card                bool
	CloseTime           *time.Time
	Location            GeoPoint
	LocationDescription string
	UserId              string
	Active              bool

	// Expanded references, filled by reads. A reference whose target was
	// deleted stays nil (or is skipped for Products).
	Products    []*Product
	MainProduct *Product
	User        *User
}

// NewSale builds an active sale from already-resolved references.
func NewSale(fixed, card bool, closeTime *time.Time, location GeoPoint, locationDescription string,
	products []*Product, mainProduct *Product, owner *User) *Sale {
	now := time.Now().UTC()
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.Id
	}
	return &Sale{
		Id:                  uuid.NewString(),
		CreatedAt:           now,
		UpdatedAt:           now,
		Fixed:               fixed,
		ProductIds:          ids,
		MainProductId:       mainProduct.Id,
		Card:                card,
		CloseTime:           closeTime,
		Location:            location,
		LocationDescription: locationDescription,
		UserId:              owner.Id,
		Active:              true,
		Products:            products,
		MainProduct:         mainProduct,
		User:                owner,
	}
}

type SalePatch struct {
	Id                  string    `json:"objectId"`
	Fixed               *bool     `json:"fixed"`
	Products            *RefList  `json:"products"`
	MainProductObjectId *string   `json:"mainProductObjectId"`
	MainProduct         *Ref      `json:"mainProduct"`
	Card                *bool     `json:"card"`
	CloseTime           *Date     `json:"closeTime"`
	Location            *GeoPoint `json:"location"`
	LocationDescription *string   `json:"locationDescription"`
	UserObjectId        *string   `json:"userObjectId"`
	User                *Ref      `json:"user"`
	Active              *bool     `json:"active"`
}

// Apply overwrites every field present in the patch, references included.
// Expanded references are dropped since they may no longer match.
func (sp *SalePatch) Apply(s *Sale) {
	if sp.Fixed != nil {
		s.Fixed = *sp.Fixed
	}
	if sp.Products != nil {
		s.ProductIds = sp.Products.Strings()
	}
	if sp.MainProductObjectId != nil {
		s.MainProductId = *sp.MainProductObjectId
	}
	if sp.MainProduct != nil {
		s.MainProductId = sp.MainProduct.String()
	}
	if sp.Card != nil {
		s.Card = *sp.Card
	}
	if sp.CloseTime != nil {
		s.CloseTime = sp.CloseTime.Ptr()
	}
	if sp.Location != nil {
		s.Location = *sp.Location
	}
	if sp.LocationDescription != nil {
		s.LocationDescription = *sp.LocationDescription
	}
	if sp.UserObjectId != nil {
		s.UserId = *sp.UserObjectId
	}
	if sp.User != nil {
		s.UserId = sp.User.String()
	}
	if sp.Active != nil {
		s.Active = *sp.Active
	}
	s.Products = nil
	s.MainProduct = nil
	s.User = nil
	s.UpdatedAt = time.Now().UTC()
}

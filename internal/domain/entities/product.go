package entities

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	Id          string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string
	Price       float64
	Description string
	Pictures    []string
	Tags        []string
	// UserId is the owner; the owner reference is derived from it.
	UserId string
}

func NewProduct(name string, price float64, description string, pictures, tags []string, owner *User) *Product {
	now := time.Now().UTC()
	return &Product{
		Id:          uuid.NewString(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Name:        name,
		Price:       price,
		Description: description,
		Pictures:    nonNil(pictures),
		Tags:        nonNil(tags),
		UserId:      owner.Id,
	}
}

// ProductPatch lists the product fields an update may overwrite. A nil field
// is left untouched.
type ProductPatch struct {
	Id           string    `json:"objectId"`
	Name         *string   `json:"name"`
	Price        *float64  `json:"price"`
	Description  *string   `json:"description"`
	Pictures     *[]string `json:"pictures"`
	Tags         *[]string `json:"tags"`
	UserObjectId *string   `json:"userObjectId"`
	User         *Ref      `json:"user"`
}

// Apply overwrites every field present in the patch. No validation happens
// here: an update is free to point the product at another owner.
func (pp *ProductPatch) Apply(p *Product) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Pictures != nil {
		p.Pictures = nonNil(*pp.Pictures)
	}
	if pp.Tags != nil {
		p.Tags = nonNil(*pp.Tags)
	}
	if pp.UserObjectId != nil {
		p.UserId = *pp.UserObjectId
	}
	if pp.User != nil {
		p.UserId = pp.User.String()
	}
	p.UpdatedAt = time.Now().UTC()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package mongodb

import (
	"time"

	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
)

type userDocument struct {
	Id         string         `bson:"_id"`
	CreatedAt  time.Time      `bson:"createdAt"`
	UpdatedAt  time.Time      `bson:"updatedAt"`
	Username   string         `bson:"username"`
	Email      string         `bson:"email"`
	Password   string         `bson:"password"`
	Premium    bool           `bson:"premium"`
	ACL        entities.ACL   `bson:"acl,omitempty"`
	Attributes map[string]any `bson:"attributes,omitempty"`
}

type productDocument struct {
	Id          string    `bson:"_id"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
	Name        string    `bson:"name"`
	Price       float64   `bson:"price"`
	Description string    `bson:"description"`
	Pictures    []string  `bson:"pictures"`
	Tags        []string  `bson:"tags"`
	UserId      string    `bson:"userId"`
}

// geoJSONPoint stores coordinates as [longitude, latitude].
type geoJSONPoint struct {
	Type        string     `bson:"type"`
	Coordinates [2]float64 `bson:"coordinates"`
}

type saleDocument struct {
	Id                  string       `bson:"_id"`
	CreatedAt           time.Time    `bson:"createdAt"`
	UpdatedAt           time.Time    `bson:"updatedAt"`
	Fixed               bool         `bson:"fixed"`
	ProductIds          []string     `bson:"productIds"`
	MainProductId       string       `bson:"mainProductId"`
	Card                bool         `bson:"card"`
	CloseTime           *time.Time   `bson:"closeTime,omitempty"`
	Location            geoJSONPoint `bson:"location"`
	LocationDescription string       `bson:"locationDescription"`
	UserId              string       `bson:"userId"`
	Active              bool         `bson:"active"`
}

func newUserDocument(u *entities.User) *userDocument {
	return &userDocument{
		Id:         u.Id,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
		Username:   u.Username,
		Email:      u.Email,
		Password:   u.Password,
		Premium:    u.Premium,
		ACL:        u.ACL,
		Attributes: u.Attributes,
	}
}

func (d *userDocument) entity() *entities.User {
	attrs := d.Attributes
	if attrs == nil {
		attrs = make(map[string]any)
	}
	return &entities.User{
		Id:         d.Id,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
		Username:   d.Username,
		Email:      d.Email,
		Password:   d.Password,
		Premium:    d.Premium,
		ACL:        d.ACL,
		Attributes: attrs,
	}
}

func newProductDocument(p *entities.Product) *productDocument {
	return &productDocument{
		Id:          p.Id,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Pictures:    p.Pictures,
		Tags:        p.Tags,
		UserId:      p.UserId,
	}
}

func (d *productDocument) entity() *entities.Product {
	return &entities.Product{
		Id:          d.Id,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		Name:        d.Name,
		Price:       d.Price,
		Description: d.Description,
		Pictures:    orEmpty(d.Pictures),
		Tags:        orEmpty(d.Tags),
		UserId:      d.UserId,
	}
}

func newSaleDocument(s *entities.Sale) *saleDocument {
	return &saleDocument{
		Id:            s.Id,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		Fixed:         s.Fixed,
		ProductIds:    s.ProductIds,
		MainProductId: s.MainProductId,
		Card:          s.Card,
		CloseTime:     s.CloseTime,
		Location: geoJSONPoint{
			Type:        "Point",
			Coordinates: [2]float64{s.Location.Longitude, s.Location.Latitude},
		},
		LocationDescription: s.LocationDescription,
		UserId:              s.UserId,
		Active:              s.Active,
	}
}

func (d *saleDocument) entity() *entities.Sale {
	return &entities.Sale{
		Id:                  d.Id,
		CreatedAt:           d.CreatedAt.UTC(),
		UpdatedAt:           d.UpdatedAt.UTC(),
		Fixed:               d.Fixed,
		ProductIds:          orEmpty(d.ProductIds),
		MainProductId:       d.MainProductId,
		Card:                d.Card,
		CloseTime:           d.CloseTime,
		Location:            d.point(),
		LocationDescription: d.LocationDescription,
		UserId:              d.UserId,
		Active:              d.Active,
	}
}

func (d *saleDocument) point() entities.GeoPoint {
	return entities.GeoPoint{Latitude: d.Location.Coordinates[1], Longitude: d.Location.Coordinates[0]}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package postgres

import (
	"time"

	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
)

type UserModel struct {
	Id         string `gorm:"primaryKey;size:36"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Username   string         `gorm:"uniqueIndex;not null"`
	Email      string         `gorm:"uniqueIndex;not null"`
	Password   string         `gorm:"not null"`
	Premium    bool           `gorm:"not null"`
	ACL        entities.ACL   `gorm:"column:acl;type:text;serializer:json"`
	Attributes map[string]any `gorm:"type:text;serializer:json"`
}

func (UserModel) TableName() string {
	return "users"
}

type ProductModel struct {
	Id          string `gorm:"primaryKey;size:36"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string
	Price       float64
	Description string
	Pictures    []string `gorm:"type:text;serializer:json"`
	Tags        []string `gorm:"type:text;serializer:json"`
	UserId      string   `gorm:"index;size:36"`
}

func (ProductModel) TableName() string {
	return "products"
}

type SaleModel struct {
	Id                  string `gorm:"primaryKey;size:36"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Fixed               bool
	ProductIds          []string      `gorm:"type:text;serializer:json"`
	MainProductId       string        `gorm:"index;size:36"`
	MainProduct         *ProductModel `gorm:"foreignKey:MainProductId"`
	Card                bool
	CloseTime           *time.Time
	Latitude            float64 `gorm:"index"`
	Longitude           float64
	LocationDescription string
	UserId              string     `gorm:"index;size:36"`
	User                *UserModel `gorm:"foreignKey:UserId"`
	Active              bool
}

func (SaleModel) TableName() string {
	return "sales"
}

func userToModel(u *entities.User) *UserModel {
	return &UserModel{
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

func userToEntity(m *UserModel) *entities.User {
	attrs := m.Attributes
	if attrs == nil {
		attrs = make(map[string]any)
	}
	return &entities.User{
		Id:         m.Id,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		Username:   m.Username,
		Email:      m.Email,
		Password:   m.Password,
		Premium:    m.Premium,
		ACL:        m.ACL,
		Attributes: attrs,
	}
}

func productToModel(p *entities.Product) *ProductModel {
	return &ProductModel{
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

func productToEntity(m *ProductModel) *entities.Product {
	return &entities.Product{
		Id:          m.Id,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Name:        m.Name,
		Price:       m.Price,
		Description: m.Description,
		Pictures:    orEmpty(m.Pictures),
		Tags:        orEmpty(m.Tags),
		UserId:      m.UserId,
	}
}

func saleToModel(s *entities.Sale) *SaleModel {
	return &SaleModel{
		Id:                  s.Id,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
		Fixed:               s.Fixed,
		ProductIds:          s.ProductIds,
		MainProductId:       s.MainProductId,
		Card:                s.Card,
		CloseTime:           s.CloseTime,
		Latitude:            s.Location.Latitude,
		Longitude:           s.Location.Longitude,
		LocationDescription: s.LocationDescription,
		UserId:              s.UserId,
		Active:              s.Active,
	}
}

// saleToEntity maps the row and its preloaded main product and user.
// Products are expanded separately.
func saleToEntity(m *SaleModel) *entities.Sale {
	s := &entities.Sale{
		Id:                  m.Id,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
		Fixed:               m.Fixed,
		ProductIds:          orEmpty(m.ProductIds),
		MainProductId:       m.MainProductId,
		Card:                m.Card,
		CloseTime:           m.CloseTime,
		Location:            entities.GeoPoint{Latitude: m.Latitude, Longitude: m.Longitude},
		LocationDescription: m.LocationDescription,
		UserId:              m.UserId,
		Active:              m.Active,
	}
	if m.MainProduct != nil {
		s.MainProduct = productToEntity(m.MainProduct)
	}
	if m.User != nil {
		s.User = userToEntity(m.User)
	}
	return s
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

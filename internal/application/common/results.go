package common

import (
	"encoding/json"
	"time"

	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
)

// Pointer references another entity without expanding it.
type Pointer struct {
	Type      string `json:"__type"`
	ClassName string `json:"className"`
	ObjectId  string `json:"objectId"`
}

func NewPointer(className, objectId string) *Pointer {
	if objectId == "" {
		return nil
	}
	return &Pointer{Type: "Pointer", ClassName: className, ObjectId: objectId}
}

type GeoPointResult struct {
	Type      string  `json:"__type"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UserResult never carries the password. Attributes are written inline next
// to the named fields.
type UserResult struct {
	Id           string         `json:"objectId"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	Username     string         `json:"username"`
	Email        string         `json:"email"`
	Premium      bool           `json:"premium"`
	ACL          entities.ACL   `json:"ACL,omitempty"`
	SessionToken string         `json:"sessionToken,omitempty"`
	Attributes   map[string]any `json:"-"`
}

func (u UserResult) MarshalJSON() ([]byte, error) {
	type plain UserResult
	named, err := json.Marshal(plain(u))
	if err != nil || len(u.Attributes) == 0 {
		return named, err
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(named, &out); err != nil {
		return nil, err
	}
	for k, v := range u.Attributes {
		if _, taken := out[k]; taken || k == "password" {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = raw
	}
	return json.Marshal(out)
}

type ProductResult struct {
	Id           string    `json:"objectId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	Description  string    `json:"description"`
	Pictures     []string  `json:"pictures"`
	Tags         []string  `json:"tags"`
	UserObjectId string    `json:"userObjectId"`
	User         *Pointer  `json:"user,omitempty"`
}

type SaleResult struct {
	Id                  string           `json:"objectId"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
	Fixed               bool             `json:"fixed"`
	Products            []*ProductResult `json:"products"`
	MainProductObjectId string           `json:"mainProductObjectId"`
	MainProduct         *ProductResult   `json:"mainProduct,omitempty"`
	Card                bool             `json:"card"`
	CloseTime           *time.Time       `json:"closeTime,omitempty"`
	Location            GeoPointResult   `json:"location"`
	LocationDescription string           `json:"locationDescription"`
	UserObjectId        string           `json:"userObjectId"`
	User                *UserResult      `json:"user,omitempty"`
	Active              bool             `json:"active"`
}

package entities

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4DevsO/qtut-b4a/internal/errs"
)

func TestNewUserDefaults(t *testing.T) {
	u := NewUser("alice", "alice@example.com", "secret")

	assert.NotEmpty(t, u.Id)
	assert.False(t, u.Premium)
	assert.Equal(t, Permission{Read: true}, u.ACL[PublicACLKey])
	assert.Equal(t, Permission{Read: true, Write: true}, u.ACL[u.Id])
}

func TestPasswordHashing(t *testing.T) {
	u := NewUser("alice", "alice@example.com", "secret")
	require.NoError(t, u.HashPassword())

	assert.NotEqual(t, "secret", u.Password)
	assert.NoError(t, u.CheckPassword("secret"))
	assert.Error(t, u.CheckPassword("wrong"))
}

func TestRestrictToOwner(t *testing.T) {
	u := NewUser("alice", "alice@example.com", "secret")
	u.RestrictToOwner()

	assert.Equal(t, ACL{u.Id: {Read: true, Write: true}}, u.ACL)
}

func TestNewValidatedUser(t *testing.T) {
	tests := []struct {
		name string
		user *User
		code int
	}{
		{"ok", NewUser("alice", "alice@example.com", "secret"), 0},
		{"missing username", NewUser("", "alice@example.com", "secret"), errs.CodeUsernameMissing},
		{"missing password", NewUser("alice", "alice@example.com", ""), errs.CodePasswordMissing},
		{"missing email", NewUser("alice", "", "secret"), errs.CodeEmailMissing},
		{"bad email", NewUser("alice", "not-an-email", "secret"), errs.CodeInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vu, err := NewValidatedUser(tt.user)
			if tt.code == 0 {
				require.NoError(t, err)
				assert.Same(t, tt.user, vu.GetUser())
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, errs.From(err).Code)
		})
	}
}

func TestUserPatchKeepsUnknownKeysAsAttributes(t *testing.T) {
	var p UserPatch
	err := json.Unmarshal([]byte(`{"objectId":"u1","premium":true,"nickname":"al","age":30,"createdAt":"x"}`), &p)
	require.NoError(t, err)

	assert.Equal(t, "u1", p.Id)
	require.NotNil(t, p.Premium)
	assert.True(t, *p.Premium)
	assert.Equal(t, map[string]any{"nickname": "al", "age": float64(30)}, p.Attributes)

	u := NewUser("alice", "alice@example.com", "secret")
	require.NoError(t, p.Apply(u))
	assert.True(t, u.Premium)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "al", u.Attributes["nickname"])
}

func TestUserPatchHashesPassword(t *testing.T) {
	var p UserPatch
	require.NoError(t, json.Unmarshal([]byte(`{"objectId":"u1","password":"new"}`), &p))

	u := NewUser("alice", "alice@example.com", "old")
	require.NoError(t, p.Apply(u))
	assert.NoError(t, u.CheckPassword("new"))
}

func TestProductPatchOverwritesOnlyPresentFields(t *testing.T) {
	owner := NewUser("alice", "alice@example.com", "secret")
	p := NewProduct("Widget", 10, "a widget", []string{"a.png"}, []string{"tool"}, owner)

	var patch ProductPatch
	require.NoError(t, json.Unmarshal([]byte(`{"objectId":"x","price":12.5,"user":{"__type":"Pointer","className":"_User","objectId":"other"}}`), &patch))
	patch.Apply(p)

	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, 12.5, p.Price)
	assert.Equal(t, []string{"tool"}, p.Tags)
	assert.Equal(t, "other", p.UserId)
}

func TestSalePatch(t *testing.T) {
	owner := NewUser("alice", "alice@example.com", "secret")
	p1 := NewProduct("A", 1, "", nil, nil, owner)
	p2 := NewProduct("B", 2, "", nil, nil, owner)
	s := NewSale(true, false, nil, GeoPoint{Latitude: 1, Longitude: 2}, "here", []*Product{p1, p2}, p1, owner)
	require.True(t, s.Active)

	var patch SalePatch
	body := `{"objectId":"s","active":false,"products":["x",{"objectId":"y"}],"closeTime":{"__type":"Date","iso":"2024-05-01T10:00:00Z"}}`
	require.NoError(t, json.Unmarshal([]byte(body), &patch))
	patch.Apply(s)

	assert.False(t, s.Active)
	assert.True(t, s.Fixed)
	assert.Equal(t, []string{"x", "y"}, s.ProductIds)
	assert.Equal(t, p1.Id, s.MainProductId)
	require.NotNil(t, s.CloseTime)
	assert.True(t, s.CloseTime.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	assert.Nil(t, s.Products)
}

func TestGeoDistance(t *testing.T) {
	paris := GeoPoint{Latitude: 48.8566, Longitude: 2.3522}
	london := GeoPoint{Latitude: 51.5074, Longitude: -0.1278}

	assert.InDelta(t, 343.5, paris.DistanceKm(london), 1.0)
	assert.Zero(t, paris.DistanceKm(paris))
	assert.Error(t, GeoPoint{Latitude: 91}.Validate())
	assert.Error(t, GeoPoint{Longitude: -181}.Validate())
}

func TestGeoDistanceAntipodal(t *testing.T) {
	halfCircumference := math.Pi * EarthRadiusKm
	pairs := [][2]GeoPoint{
		{{Latitude: 0, Longitude: 0}, {Latitude: 0, Longitude: 180}},
		{{Latitude: 45, Longitude: 10}, {Latitude: -45, Longitude: -170}},
		{{Latitude: 90, Longitude: 0}, {Latitude: -90, Longitude: 0}},
		{{Latitude: 33.3, Longitude: -71.2}, {Latitude: -33.3, Longitude: 108.8}},
	}
	for _, p := range pairs {
		d := p[0].DistanceKm(p[1])
		assert.False(t, math.IsNaN(d), "%v -> %v", p[0], p[1])
		assert.InDelta(t, halfCircumference, d, 1e-3)
	}
}

func TestBoundingBox(t *testing.T) {
	p := GeoPoint{Latitude: 10, Longitude: 20}
	minLat, maxLat, minLng, maxLng, wraps := p.BoundingBox(100)

	assert.False(t, wraps)
	assert.Less(t, minLat, 10.0)
	assert.Greater(t, maxLat, 10.0)
	assert.Less(t, minLng, 20.0)
	assert.Greater(t, maxLng, 20.0)

	_, _, _, _, wraps = GeoPoint{Latitude: 89.9}.BoundingBox(100)
	assert.True(t, wraps)
	_, _, _, _, wraps = GeoPoint{Longitude: 179.9}.BoundingBox(100)
	assert.True(t, wraps)
}

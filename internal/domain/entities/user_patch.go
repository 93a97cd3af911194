package entities

import (
	"encoding/json"
	"time"
)

// reservedUserKeys are never accepted as user attributes.
var reservedUserKeys = map[string]struct{}{
	"objectId":     {},
	"createdAt":    {},
	"updatedAt":    {},
	"ACL":          {},
	"sessionToken": {},
}

// UserPatch lists the user fields an update may overwrite. Keys that are not
// one of the named fields are kept in Attributes since users carry arbitrary
// additional fields.
type UserPatch struct {
	Id         string
	Username   *string
	Email      *string
	Password   *string
	Premium    *bool
	Attributes map[string]any
}

func (up *UserPatch) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*up = UserPatch{}
	for key, value := range raw {
		var err error
		switch key {
		case "objectId":
			err = json.Unmarshal(value, &up.Id)
		case "username":
			err = json.Unmarshal(value, &up.Username)
		case "email":
			err = json.Unmarshal(value, &up.Email)
		case "password":
			err = json.Unmarshal(value, &up.Password)
		case "premium":
			err = json.Unmarshal(value, &up.Premium)
		default:
			if _, reserved := reservedUserKeys[key]; reserved {
				continue
			}
			var v any
			if err = json.Unmarshal(value, &v); err == nil {
				if up.Attributes == nil {
					up.Attributes = make(map[string]any)
				}
				up.Attributes[key] = v
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Apply overwrites every field present in the patch. A new password is hashed.
func (up *UserPatch) Apply(u *User) error {
	if up.Username != nil {
		u.Username = *up.Username
	}
	if up.Email != nil {
		u.Email = *up.Email
	}
	if up.Premium != nil {
		u.Premium = *up.Premium
	}
	if len(up.Attributes) > 0 && u.Attributes == nil {
		u.Attributes = make(map[string]any, len(up.Attributes))
	}
	for k, v := range up.Attributes {
		u.Attributes[k] = v
	}
	u.UpdatedAt = time.Now().UTC()
	if up.Password != nil {
		return u.SetPassword(*up.Password)
	}
	return nil
}

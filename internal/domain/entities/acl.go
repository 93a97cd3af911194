package entities

// PublicACLKey is the ACL principal that stands for everyone.
const PublicACLKey = "*"

type Permission struct {
	Read  bool `json:"read,omitempty"`
	Write bool `json:"write,omitempty"`
}

// ACL maps a principal (a user id or "*") to its permissions.
type ACL map[string]Permission

// DefaultUserACL lets everybody read the user and only the user write it.
func DefaultUserACL(userID string) ACL {
	return ACL{
		PublicACLKey: {Read: true},
		userID:       {Read: true, Write: true},
	}
}

func OwnerOnlyACL(userID string) ACL {
	return ACL{userID: {Read: true, Write: true}}
}

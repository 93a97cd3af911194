package entities

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	Id         string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Username   string
	Email      string
	Password   string
	Premium    bool
	ACL        ACL
	Attributes map[string]any
}

func NewUser(username, email, password string) *User {
	now := time.Now().UTC()
	id := uuid.NewString()
	return &User{
		Id:         id,
		CreatedAt:  now,
		UpdatedAt:  now,
		Username:   username,
		Email:      email,
		Password:   password,
		Premium:    false,
		ACL:        DefaultUserACL(id),
		Attributes: make(map[string]any),
	}
}

func (u *User) HashPassword() error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

// RestrictToOwner replaces the ACL so only the user can read or write the record.
func (u *User) RestrictToOwner() {
	u.ACL = OwnerOnlyACL(u.Id)
	u.UpdatedAt = time.Now().UTC()
}

func (u *User) SetPassword(password string) error {
	u.Password = password
	u.UpdatedAt = time.Now().UTC()
	return u.HashPassword()
}

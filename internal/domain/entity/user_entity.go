package entity

import (
	"time"
)

// User is the aggregate root for user domain.
// ID, CreatedAt and UpdatedAt are assigned by the store.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser is the input accepted when creating a user
type NewUser struct {
	Name  string
	Email string
	Age   int
}

// UserPatch carries the fields of a partial update; nil means "not supplied".
type UserPatch struct {
	Name  *string
	Email *string
	Age   *int
}

// IsEmpty reports whether no field was supplied
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Age == nil
}

// Apply copies the supplied fields onto u
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Age != nil {
		u.Age = *p.Age
	}
}

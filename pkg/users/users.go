// Package users defines back-office accounts and their authorities.
package users

import (
	"slices"
	"time"
)

// Authority names.
const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

// Authority is a granted role.
type Authority struct {
	Name string `json:"name" yaml:"name" gorm:"primaryKey;size:50"`
}

// TableName returns the table name for Authority.
func (Authority) TableName() string { return "authorities" }

// User is a back-office account. Credentials and one-time keys never leave
// the process in JSON.
type User struct {
	ID            int64       `json:"id" yaml:"id" gorm:"primaryKey"`
	Login         string      `json:"login" yaml:"login" gorm:"size:50;uniqueIndex;not null"`
	PasswordHash  string      `json:"-" yaml:"-" gorm:"size:60;not null"`
	FirstName     string      `json:"firstName,omitempty" yaml:"firstName,omitempty" gorm:"size:50"`
	LastName      string      `json:"lastName,omitempty" yaml:"lastName,omitempty" gorm:"size:50"`
	Email         string      `json:"email,omitempty" yaml:"email,omitempty" gorm:"size:191;index"`
	ImageURL      string      `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty" gorm:"size:256"`
	Activated     bool        `json:"activated" yaml:"activated" gorm:"not null;default:false"`
	LangKey       string      `json:"langKey,omitempty" yaml:"langKey,omitempty" gorm:"size:10"`
	ActivationKey *string     `json:"-" yaml:"-" gorm:"size:36;index"`
	ResetKey      *string     `json:"-" yaml:"-" gorm:"size:36;index"`
	ResetDate     *time.Time  `json:"-" yaml:"-"`
	CreatedAt     time.Time   `json:"createdDate" yaml:"createdDate"`
	UpdatedAt     time.Time   `json:"lastModifiedDate" yaml:"lastModifiedDate"`
	Authorities   []Authority `json:"authorities,omitempty" yaml:"authorities,omitempty" gorm:"many2many:user_authorities;joinForeignKey:UserID;joinReferences:AuthorityName"`
}

// TableName returns the table name for User.
func (User) TableName() string { return "users" }

// AuthorityNames returns the names of the user's authorities.
func (u User) AuthorityNames() []string {
	names := make([]string, 0, len(u.Authorities))
	for _, a := range u.Authorities {
		names = append(names, a.Name)
	}
	return names
}

// HasAuthority reports whether the user holds the named authority.
func (u User) HasAuthority(name string) bool {
	return slices.Contains(u.AuthorityNames(), name)
}

// Ref identifies a user inside other resources.
type Ref struct {
	ID    int64  `json:"id" yaml:"id"`
	Login string `json:"login,omitempty" yaml:"login,omitempty"`
}

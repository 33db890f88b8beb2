package domain

import "strings"

// User is the signed-in customer's profile as served by the remote API.
// Email is owned by the identity provider and is read-only here.
type User struct {
	ID           string
	Email        string
	Name         string
	AddressLine1 string
	City         string
	Country      string
}

// DisplayName falls back to the email when no name was saved yet.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return u.Email
}

// ApplyProfile copies the editable profile fields from other, leaving ID and
// Email untouched.
func (u *User) ApplyProfile(other User) {
	u.Name = strings.TrimSpace(other.Name)
	u.AddressLine1 = strings.TrimSpace(other.AddressLine1)
	u.City = strings.TrimSpace(other.City)
	u.Country = strings.TrimSpace(other.Country)
}

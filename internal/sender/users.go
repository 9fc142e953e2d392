package sender

import (
	"errors"
	"strconv"
	"strings"
)

// ErrIncompleteProfile is returned when a user has no usable name or address.
var ErrIncompleteProfile = errors.New("incomplete user profile")

// User is a site account that may send or receive mail.
type User struct {
	ID          int    `yaml:"id"`
	Email       string `yaml:"email"`
	FirstName   string `yaml:"first_name"`
	LastName    string `yaml:"last_name"`
	DisplayName string `yaml:"display_name"`
	Admin       bool   `yaml:"admin"`
}

// Name returns "First Last" when both are set, otherwise the display name.
func (u User) Name() (string, error) {
	name := u.DisplayName
	if u.FirstName != "" && u.LastName != "" {
		name = u.FirstName + " " + u.LastName
	}
	if name == "" {
		return "", ErrIncompleteProfile
	}
	return name, nil
}

// Identity returns the user's default sender identity.
func (u User) Identity() (Identity, error) {
	if u.Email == "" {
		return Identity{}, ErrIncompleteProfile
	}
	name, err := u.Name()
	if err != nil {
		return Identity{}, err
	}
	return Identity{Name: name, Email: u.Email}, nil
}

// Directory is the list of known users.
type Directory []User

// Lookup finds a user by numeric ID or by address, ignoring case. With
// adminOnly set, non-administrators are not found.
func (d Directory) Lookup(idOrEmail string, adminOnly bool) (User, bool) {
	key := strings.TrimSpace(idOrEmail)
	id, numErr := strconv.Atoi(key)

	for _, u := range d {
		if adminOnly && !u.Admin {
			continue
		}
		if numErr == nil && u.ID == id {
			return u, true
		}
		if numErr != nil && strings.EqualFold(u.Email, key) {
			return u, true
		}
	}
	return User{}, false
}

// ResolveAddress turns a CLI argument into an address. IDs and admin-only
// lookups must match a known user; any other argument is taken as an
// address and returned lowercased.
func (d Directory) ResolveAddress(idOrEmail string, adminOnly bool) string {
	key := strings.TrimSpace(idOrEmail)
	if _, err := strconv.Atoi(key); err != nil && !adminOnly {
		return strings.ToLower(key)
	}
	u, ok := d.Lookup(key, adminOnly)
	if !ok {
		return ""
	}
	return u.Email
}

package user

import (
	"net/mail"
	"strings"
	"time"
)

type CreateUserRequest struct {
	Username          string `json:"username,omitempty"`
	IsAdmin           bool   `json:"isAdmin,omitempty"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	PlainTextPassword string `json:"-"`
}

type User struct {
	ID             uint64    `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
	IsAdmin        bool      `json:"isAdmin"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Created        time.Time `json:"created"`
}

// HasEmail reports whether the user has an address mail can be sent to.
func (u User) HasEmail() bool {
	if strings.TrimSpace(u.Email) == "" {
		return false
	}
	_, err := mail.ParseAddress(u.Email)
	return err == nil
}

func (u User) HasPhone() bool {
	digits := 0
	for _, r := range u.Phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7
}

// HasContact reports whether the user can be reached by email or SMS.
func (u User) HasContact() bool {
	return u.HasEmail() || u.HasPhone()
}

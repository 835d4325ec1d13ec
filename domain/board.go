package domain

import (
	"fmt"
	"strings"
	"time"
)

// Board is a named collection of tasks.
type Board struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewBoard validates the board name.
func NewBoard(name string) (Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Board{}, fmt.Errorf("%w: board name is required", ErrValidation)
	}
	return Board{Name: name}, nil
}

// User is a read-only reference used for assignee lookup.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email"`
}

// DisplayName resolves an assignee identifier (email) to the user's full
// name. Unknown identifiers are returned as-is.
func DisplayName(users []User, email string) string {
	if email == "" {
		return ""
	}
	for _, u := range users {
		if u.Email == email && u.FullName != "" {
			return u.FullName
		}
	}
	return email
}

// ShortName is the first word of DisplayName, as shown on cards.
func ShortName(users []User, email string) string {
	name := DisplayName(users, email)
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}

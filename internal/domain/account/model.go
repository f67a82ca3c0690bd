package account

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/physiocare/dashboard/internal/platform/apperr"
	"github.com/physiocare/dashboard/internal/platform/auth"
)

const (
	msgBadUsername = "ชื่อผู้ใช้ไม่ถูกต้อง"
	msgBadPassword = "รหัสผ่านไม่ถูกต้อง"
	minPasswordLen = 6
)

// User is a dashboard operator account.
type User struct {
	ID           uuid.UUID `json:"_id"`
	Username     string    `json:"username"`
	Name         string    `json:"name,omitempty"`
	Surname      string    `json:"surname,omitempty"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
}

func (r *RegisterRequest) normalize() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Name = strings.TrimSpace(r.Name)
	r.Surname = strings.TrimSpace(r.Surname)
	r.Email = strings.TrimSpace(r.Email)
	if r.Username == "" || r.Password == "" {
		return apperr.Validation("", "please provide all values")
	}
	if len(r.Password) < minPasswordLen {
		return apperr.Validation("password", "password must be at least 6 characters")
	}
	return nil
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AutoLoginRequest replays the stored password hash the browser kept from
// an earlier session.
type AutoLoginRequest struct {
	Username             string `json:"username"`
	PasswordFromFrontend string `json:"passwordFromFrontend"`
}

// Session is the outcome of a successful login.
type Session struct {
	Token  string
	Claims *auth.Claims
	User   *User
}

// ExpiresAt is when the session cookie should expire.
func (s *Session) ExpiresAt() time.Time {
	return s.Claims.ExpiresAt.Time
}

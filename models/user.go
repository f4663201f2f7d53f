package models

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ReservedUsername cannot be registered because it names the current-user endpoint.
const ReservedUsername = "me"

var (
	ErrUsernameEmpty    = errors.New("username must not be empty")
	ErrUsernameCharset  = errors.New("username may only contain letters, digits and @/./+/-/_")
	ErrUsernameReserved = errors.New("username `me` is reserved")
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// User represents an account that publishes recipes and follows other authors
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(254);not null;uniqueIndex:idx_user_email"`
	Username     string    `json:"username" gorm:"type:varchar(150);not null;uniqueIndex:idx_user_username"`
	FirstName    string    `json:"first_name" gorm:"type:varchar(150);not null"`
	LastName     string    `json:"last_name" gorm:"type:varchar(150);not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(128);not null"`
	DateJoined   time.Time `json:"-" gorm:"autoCreateTime"`
}

// ValidateUsername reports whether username is acceptable for a new account.
func ValidateUsername(username string) error {
	if username == "" {
		return ErrUsernameEmpty
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameCharset
	}
	if strings.EqualFold(username, ReservedUsername) {
		return ErrUsernameReserved
	}
	return nil
}

// SetPassword stores a bcrypt hash of password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

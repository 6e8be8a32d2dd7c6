package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrPasswordEmpty      = errors.New("password cannot be empty")
	ErrUserIDEmpty        = errors.New("user id cannot be empty")
	ErrUserNameEmpty      = errors.New("name cannot be empty")
)

const bcryptCost = 12

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	ReferredBy   *string   `json:"referred_by" db:"referred_by"`
	XP           int       `json:"xp" db:"xp"`
	Badges       []string  `json:"badges" db:"badges"`
	Pro          bool      `json:"pro" db:"pro"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func NewUser(id, name, email string) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrUserIDEmpty
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrUserNameEmpty
	}

	email = strings.TrimSpace(email)
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	now := time.Now().UTC()
	return &User{
		ID:        id,
		Name:      name,
		Email:     strings.ToLower(email),
		Badges:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (u *User) SetPassword(plainPassword string) error {
	if utf8.RuneCountInString(plainPassword) == 0 {
		return ErrPasswordEmpty
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcryptCost)
	if err != nil {
		return err
	}

	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (u *User) CheckPassword(plainPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plainPassword)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// UpdateProfile changes the fields a user may edit directly. Empty values
// keep the current ones.
func (u *User) UpdateProfile(name, email string) error {
	e := strings.TrimSpace(email)
	if e != "" && !isValidEmail(e) {
		return ErrInvalidEmail
	}

	if n := strings.TrimSpace(name); n != "" {
		u.Name = n
	}
	if e != "" {
		u.Email = strings.ToLower(e)
	}

	u.UpdatedAt = time.Now().UTC()
	return nil
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

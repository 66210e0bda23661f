package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// User validation errors. All wrap ErrValidation so callers can match the
// whole family with errors.Is.
var (
	ErrEmptyUserID         = fmt.Errorf("%w: user ID cannot be empty", ErrValidation)
	ErrInvalidEmail        = fmt.Errorf("%w: invalid email format", ErrValidation)
	ErrEmptyEmail          = fmt.Errorf("%w: email cannot be empty", ErrValidation)
	ErrInvalidUsername     = fmt.Errorf("%w: username must be between 3 and 50 characters", ErrValidation)
	ErrEmptyDisplayName    = fmt.Errorf("%w: display name cannot be empty", ErrValidation)
	ErrDisplayNameTooLong  = fmt.Errorf("%w: display name must be at most 100 characters", ErrValidation)
	ErrPasswordTooShort    = fmt.Errorf("%w: password must be at least 8 characters long", ErrValidation)
	ErrPasswordTooLong     = fmt.Errorf("%w: password must be at most 72 characters long", ErrValidation)
	ErrEmptyPassword       = fmt.Errorf("%w: password cannot be empty", ErrValidation)
	ErrEmptyHashedPassword = fmt.Errorf("%w: hashed password cannot be empty", ErrValidation)
)

// User represents a registered user of the application.
// A user owns zero or more tasks as assignee and zero or more as creator.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name"`
	Password       string    `json:"-"` // Plaintext password, used temporarily during registration/updates
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a new User with the given email, username, display name
// and password. It generates a new UUID for the user ID and sets the
// creation/update timestamps. Returns an error if validation fails.
//
// NOTE: This function only sets up the user structure with the plaintext password.
// The caller is responsible for hashing the password before storing the user.
func NewUser(email, username, displayName, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:          uuid.New(),
		Email:       email,
		Username:    username,
		DisplayName: displayName,
		Password:    password, // Plaintext password - must be hashed before storage
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	if !validateEmailFormat(u.Email) {
		return ErrInvalidEmail
	}

	// Length limits count characters; only the password is measured in
	// bytes, since bcrypt's 72-byte cap applies to the encoded input.
	if n := utf8.RuneCountInString(u.Username); n < 3 || n > 50 {
		return ErrInvalidUsername
	}

	if u.DisplayName == "" {
		return ErrEmptyDisplayName
	}

	if utf8.RuneCountInString(u.DisplayName) > 100 {
		return ErrDisplayNameTooLong
	}

	// During user creation/update we need to validate the provided password.
	if u.Password != "" {
		if len(u.Password) < 8 {
			return ErrPasswordTooShort
		}
		// bcrypt's practical input limit
		if len(u.Password) > 72 {
			return ErrPasswordTooLong
		}
	} else {
		// When no plaintext password is provided, the user must have a hashed
		// password (this is the case for existing users loaded from the database).
		if u.HashedPassword == "" {
			return ErrEmptyPassword
		}
	}

	return nil
}

// validateEmailFormat performs basic validation of email format.
// Returns true if the email appears to be in a valid format.
// This is intentionally simple; uniqueness and deliverability are the
// store's and the mail system's problems respectively.
func validateEmailFormat(email string) bool {
	atIndex := strings.IndexByte(email, '@')
	if atIndex <= 0 || atIndex == len(email)-1 {
		return false
	}

	domainPart := email[atIndex+1:]
	if len(domainPart) < 3 {
		return false
	}

	dotIndex := strings.IndexByte(domainPart, '.')
	return dotIndex > 0 && dotIndex < len(domainPart)-1
}

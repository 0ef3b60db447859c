// Package validation checks untrusted form input before it reaches the data model.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"yatube/internal/models"
)

const (
	MaxUsernameLength   = 150
	MaxNameLength       = 150
	MaxEmailLength      = 254
	MinPasswordLength   = 8
	MaxPasswordLength   = 128
	MaxGroupTitleLength = 200
	MaxGroupSlugLength  = 50
	MaxPostTextLength   = 10000
	MaxCommentLength    = 5000
)

var (
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
	slugRegex     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

var errRequired = errors.New("This field is required.")

// FieldErrors collects messages per form field.
type FieldErrors map[string][]string

// Add records msg for field.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Check records err for field when err is not nil.
func (fe FieldErrors) Check(field string, err error) {
	if err != nil {
		fe.Add(field, err.Error())
	}
}

// Err returns a validation AppError carrying the fields, or nil when there are none.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return models.NewFieldValidationError(fe)
}

// Fields extracts per-field messages from a validation error.
func Fields(err error) FieldErrors {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeValidation {
		if appErr.Fields != nil {
			return appErr.Fields
		}
		return FieldErrors{"__all__": {appErr.Message}}
	}
	return nil
}

func requiredText(text string, maxLen int) error {
	if strings.TrimSpace(text) == "" {
		return errRequired
	}
	if utf8.RuneCountInString(text) > maxLen {
		return fmt.Errorf("Ensure this value has at most %d characters.", maxLen)
	}
	return nil
}

// ValidatePostText requires non-blank post text.
func ValidatePostText(text string) error {
	return requiredText(text, MaxPostTextLength)
}

// ValidateCommentText requires non-blank comment text.
func ValidateCommentText(text string) error {
	return requiredText(text, MaxCommentLength)
}

// ValidateUsername accepts letters, digits and @/./+/-/_ up to 150 characters.
func ValidateUsername(username string) error {
	if username == "" {
		return errRequired
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return fmt.Errorf("Ensure this value has at most %d characters.", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	return nil
}

// ValidateName checks an optional first or last name.
func ValidateName(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("Ensure this value has at most %d characters.", MaxNameLength)
	}
	return nil
}

// ValidateEmail requires a bare address such as user@example.com.
func ValidateEmail(email string) error {
	if email == "" {
		return errRequired
	}
	if len(email) > MaxEmailLength {
		return fmt.Errorf("Ensure this value has at most %d characters.", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return errors.New("Enter a valid email address.")
	}
	return nil
}

// ValidatePassword enforces a minimum length and rejects all-numeric passwords.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return fmt.Errorf("This password is too short. It must contain at least %d characters.", MinPasswordLength)
	}
	if n > MaxPasswordLength {
		return fmt.Errorf("Ensure this value has at most %d characters.", MaxPasswordLength)
	}
	if strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		return errors.New("This password is entirely numeric.")
	}
	return nil
}

// ValidateGroupTitle requires a title of at most 200 characters.
func ValidateGroupTitle(title string) error {
	return requiredText(title, MaxGroupTitleLength)
}

// ValidateGroupSlug requires a URL-safe slug.
func ValidateGroupSlug(slug string) error {
	if slug == "" {
		return errRequired
	}
	if len(slug) > MaxGroupSlugLength {
		return fmt.Errorf("Ensure this value has at most %d characters.", MaxGroupSlugLength)
	}
	if !slugRegex.MatchString(slug) {
		return errors.New("Enter a valid slug consisting of letters, numbers, underscores or hyphens.")
	}
	return nil
}

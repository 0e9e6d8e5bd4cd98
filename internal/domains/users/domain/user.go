package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

var (
	ErrInvalidEmail  = errors.New("email is invalid")
	ErrWeakPassword  = errors.New("password is too short")
	ErrInvalidPhone  = errors.New("phone must be in international format")
	ErrInvalidLocale = errors.New("locale is invalid")
	ErrInvalidName   = errors.New("name is too long")
)

var (
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern  = regexp.MustCompile(`^\+[0-9]{8,15}$`)
	localePattern = regexp.MustCompile(`^[a-z]{2}$`)
)

const maxNameLength = 100

// User is a registered customer.
type User struct {
	ID            string
	Email         string
	Phone         string
	PhoneVerified bool
	FirstName     string
	LastName      string
	Locale        string
	PasswordHash  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Profile is the optional data supplied at registration.
type Profile struct {
	FirstName string
	LastName  string
	Phone     string
	Locale    string
}

// ProfileUpdate carries a partial profile change. Nil fields are untouched.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Locale    *string
}

// NewUser builds a user with a fresh id from an already hashed password.
func NewUser(email, passwordHash string, profile Profile, now time.Time) (*User, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Locale:       "en",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	update := ProfileUpdate{FirstName: &profile.FirstName, LastName: &profile.LastName, Phone: &profile.Phone}
	if profile.Locale != "" {
		update.Locale = &profile.Locale
	}
	if err := u.ApplyProfile(update, now); err != nil {
		return nil, err
	}
	return u, nil
}

// ApplyProfile changes the profile. A new phone number must be verified again.
func (u *User) ApplyProfile(update ProfileUpdate, now time.Time) error {
	next := *u
	if update.FirstName != nil {
		next.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		next.LastName = strings.TrimSpace(*update.LastName)
	}
	if len(next.FirstName) > maxNameLength || len(next.LastName) > maxNameLength {
		return ErrInvalidName
	}
	if update.Phone != nil {
		phone := NormalizePhone(*update.Phone)
		if phone != "" && !ValidPhone(phone) {
			return ErrInvalidPhone
		}
		if phone != u.Phone {
			next.Phone = phone
			next.PhoneVerified = false
		}
	}
	if update.Locale != nil {
		locale := strings.ToLower(strings.TrimSpace(*update.Locale))
		if !localePattern.MatchString(locale) {
			return ErrInvalidLocale
		}
		next.Locale = locale
	}
	next.UpdatedAt = now
	*u = next
	return nil
}

// MarkPhoneVerified records phone as the verified number.
func (u *User) MarkPhoneVerified(phone string, now time.Time) {
	u.Phone = NormalizePhone(phone)
	u.PhoneVerified = true
	u.UpdatedAt = now
}

// CheckPassword compares password against the stored bcrypt hash.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Clone returns a copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword hashes password with bcrypt at cost.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips spaces so "+33 6 12" and "+33612" compare equal.
func NormalizePhone(phone string) string {
	return strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
}

// ValidEmail requires an '@' and a dot in the domain part.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPhone reports whether phone is in E.164 form.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

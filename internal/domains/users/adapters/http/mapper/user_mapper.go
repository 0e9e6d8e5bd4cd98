package mapper

import (
	"time"

	userdomain "github.com/aromaline/storefront/internal/domains/users/domain"
	userports "github.com/aromaline/storefront/internal/domains/users/ports"
)

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Locale    string `json:"locale"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PromoteInput turns a guest order into an account.
type PromoteInput struct {
	OrderNumber string `json:"orderNumber"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

// ProfileInput is a partial profile update; omitted fields are unchanged.
type ProfileInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Locale    *string `json:"locale"`
}

type PhoneInput struct {
	Phone string `json:"phone"`
}

type ConfirmPhoneInput struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type AddressInput struct {
	Label      string `json:"label"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Phone      string `json:"phone"`
	Country    string `json:"country"`
	City       string `json:"city"`
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
	Apartment  string `json:"apartment"`
	IsDefault  bool   `json:"isDefault"`
}

// User is the transport-level user payload. The password hash never leaves the server.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	PhoneVerified bool      `json:"phoneVerified"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Locale        string    `json:"locale"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Address struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Phone      string `json:"phone"`
	Country    string `json:"country"`
	City       string `json:"city"`
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
	Apartment  string `json:"apartment"`
	IsDefault  bool   `json:"isDefault"`
}

// Session is returned after sign-in.
type Session struct {
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expiresAt"`
	User          User      `json:"user"`
	ClaimedOrders int       `json:"claimedOrders"`
}

func ToRegisterCommand(in RegisterInput, guestToken string) userports.RegisterCommand {
	return userports.RegisterCommand{
		Email:    in.Email,
		Password: in.Password,
		Profile: userdomain.Profile{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Phone:     in.Phone,
			Locale:    in.Locale,
		},
		GuestToken: guestToken,
	}
}

func ToPromoteCommand(in PromoteInput, locale, guestToken string) userports.PromoteCommand {
	return userports.PromoteCommand{
		OrderNumber: in.OrderNumber,
		Email:       in.Email,
		Password:    in.Password,
		Profile:     userdomain.Profile{FirstName: in.FirstName, LastName: in.LastName, Locale: locale},
		GuestToken:  guestToken,
	}
}

func ToProfileUpdate(in ProfileInput) userdomain.ProfileUpdate {
	return userdomain.ProfileUpdate{FirstName: in.FirstName, LastName: in.LastName, Phone: in.Phone, Locale: in.Locale}
}

func ToDomainAddress(in AddressInput) userdomain.AddressInput {
	return userdomain.AddressInput{
		Label:       in.Label,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Phone:       in.Phone,
		Country:     in.Country,
		City:        in.City,
		Street:      in.Street,
		PostalCode:  in.PostalCode,
		Apartment:   in.Apartment,
		MakeDefault: in.IsDefault,
	}
}

// FromDomainUser converts a domain user into a transport representation.
func FromDomainUser(user *userdomain.User) User {
	if user == nil {
		return User{}
	}
	return User{
		ID:            user.ID,
		Email:         user.Email,
		Phone:         user.Phone,
		PhoneVerified: user.PhoneVerified,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Locale:        user.Locale,
		CreatedAt:     user.CreatedAt,
	}
}

func FromDomainAddress(a userdomain.Address) Address {
	return Address{
		ID:         a.ID,
		Label:      a.Label,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Phone:      a.Phone,
		Country:    a.Country,
		City:       a.City,
		Street:     a.Street,
		PostalCode: a.PostalCode,
		Apartment:  a.Apartment,
		IsDefault:  a.IsDefault,
	}
}

func FromDomainAddresses(list []userdomain.Address) []Address {
	out := make([]Address, 0, len(list))
	for _, a := range list {
		out = append(out, FromDomainAddress(a))
	}
	return out
}

func FromAuthResult(result *userports.AuthResult) Session {
	if result == nil {
		return Session{}
	}
	return Session{
		Token:         result.Session.Token,
		ExpiresAt:     result.Session.ExpiresAt,
		User:          FromDomainUser(result.User),
		ClaimedOrders: result.ClaimedOrders,
	}
}

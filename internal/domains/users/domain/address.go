package domain

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxAddresses bounds a user's address book.
const MaxAddresses = 10

// Message keys used as field error values.
const (
	MsgRequired = "validation.required"
	MsgPhone    = "validation.phone"
)

var (
	ErrAddressNotFound  = errors.New("address not found")
	ErrTooManyAddresses = errors.New("address book is full")
)

// FieldError reports which address fields failed validation.
type FieldError struct {
	Fields map[string]string
}

func (e *FieldError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "address validation failed: " + strings.Join(keys, ", ")
}

// Address is a saved delivery address.
type Address struct {
	ID         string
	UserID     string
	Label      string
	FirstName  string
	LastName   string
	Phone      string
	Country    string
	City       string
	Street     string
	PostalCode string
	Apartment  string
	IsDefault  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AddressInput is the editable part of an address.
type AddressInput struct {
	Label       string
	FirstName   string
	LastName    string
	Phone       string
	Country     string
	City        string
	Street      string
	PostalCode  string
	Apartment   string
	MakeDefault bool
}

// Normalize trims every field.
func (in AddressInput) Normalize() AddressInput {
	in.Label = strings.TrimSpace(in.Label)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = NormalizePhone(in.Phone)
	in.Country = strings.TrimSpace(in.Country)
	in.City = strings.TrimSpace(in.City)
	in.Street = strings.TrimSpace(in.Street)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Apartment = strings.TrimSpace(in.Apartment)
	return in
}

// Validate requires country, city and street; phone is optional but must be E.164.
func (in AddressInput) Validate() error {
	fields := map[string]string{}
	if in.Country == "" {
		fields["country"] = MsgRequired
	}
	if in.City == "" {
		fields["city"] = MsgRequired
	}
	if in.Street == "" {
		fields["street"] = MsgRequired
	}
	if in.Phone != "" && !ValidPhone(in.Phone) {
		fields["phone"] = MsgPhone
	}
	if len(fields) > 0 {
		return &FieldError{Fields: fields}
	}
	return nil
}

func (a *Address) apply(in AddressInput, now time.Time) {
	a.Label = in.Label
	a.FirstName = in.FirstName
	a.LastName = in.LastName
	a.Phone = in.Phone
	a.Country = in.Country
	a.City = in.City
	a.Street = in.Street
	a.PostalCode = in.PostalCode
	a.Apartment = in.Apartment
	a.UpdatedAt = now
}

// AddressBook enforces that a non-empty book has exactly one default.
type AddressBook struct {
	userID    string
	addresses []Address
}

func NewAddressBook(userID string, addresses []Address) *AddressBook {
	b := &AddressBook{userID: userID, addresses: append([]Address(nil), addresses...)}
	b.repair()
	return b
}

// Addresses lists the default first, then newest first.
func (b *AddressBook) Addresses() []Address {
	out := append([]Address(nil), b.addresses...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Add appends an address. The first address is always the default.
func (b *AddressBook) Add(in AddressInput, now time.Time) (Address, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return Address{}, err
	}
	if len(b.addresses) >= MaxAddresses {
		return Address{}, ErrTooManyAddresses
	}
	a := Address{ID: uuid.NewString(), UserID: b.userID, CreatedAt: now}
	a.apply(in, now)
	b.addresses = append(b.addresses, a)
	if in.MakeDefault || len(b.addresses) == 1 {
		b.setDefault(a.ID, now)
	}
	return b.get(a.ID), nil
}

// Update replaces the editable fields of an address.
func (b *AddressBook) Update(id string, in AddressInput, now time.Time) (Address, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return Address{}, err
	}
	idx := b.index(id)
	if idx < 0 {
		return Address{}, ErrAddressNotFound
	}
	b.addresses[idx].apply(in, now)
	if in.MakeDefault {
		b.setDefault(id, now)
	}
	return b.get(id), nil
}

// Remove deletes an address. Removing the default promotes the newest remaining one.
func (b *AddressBook) Remove(id string, now time.Time) error {
	idx := b.index(id)
	if idx < 0 {
		return ErrAddressNotFound
	}
	wasDefault := b.addresses[idx].IsDefault
	b.addresses = append(b.addresses[:idx], b.addresses[idx+1:]...)
	if wasDefault && len(b.addresses) > 0 {
		b.setDefault(b.newest().ID, now)
	}
	return nil
}

// SetDefault makes id the only default address.
func (b *AddressBook) SetDefault(id string, now time.Time) (Address, error) {
	if b.index(id) < 0 {
		return Address{}, ErrAddressNotFound
	}
	b.setDefault(id, now)
	return b.get(id), nil
}

func (b *AddressBook) setDefault(id string, now time.Time) {
	for i := range b.addresses {
		want := b.addresses[i].ID == id
		if b.addresses[i].IsDefault != want {
			b.addresses[i].IsDefault = want
			b.addresses[i].UpdatedAt = now
		}
	}
}

// repair fixes books loaded with zero or several defaults.
func (b *AddressBook) repair() {
	if len(b.addresses) == 0 {
		return
	}
	var chosen *Address
	for i := range b.addresses {
		a := &b.addresses[i]
		if a.IsDefault && (chosen == nil || a.CreatedAt.After(chosen.CreatedAt)) {
			chosen = a
		}
	}
	if chosen == nil {
		chosen = b.newest()
	}
	id := chosen.ID
	for i := range b.addresses {
		b.addresses[i].IsDefault = b.addresses[i].ID == id
	}
}

func (b *AddressBook) newest() *Address {
	var newest *Address
	for i := range b.addresses {
		if newest == nil || b.addresses[i].CreatedAt.After(newest.CreatedAt) {
			newest = &b.addresses[i]
		}
	}
	return newest
}

func (b *AddressBook) index(id string) int {
	for i := range b.addresses {
		if b.addresses[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *AddressBook) get(id string) Address {
	return b.addresses[b.index(id)]
}

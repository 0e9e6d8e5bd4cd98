package domain

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Gender is the audience a fragrance is marketed to.
type Gender string

const (
	GenderWomen  Gender = "women"
	GenderMen    Gender = "men"
	GenderUnisex Gender = "unisex"
)

// Concentration is the perfume oil strength.
type Concentration string

const (
	ConcentrationParfum Concentration = "parfum"
	ConcentrationEDP    Concentration = "edp"
	ConcentrationEDT    Concentration = "edt"
	ConcentrationEDC    Concentration = "edc"
)

var (
	ErrInvalidSlug          = errors.New("product slug must be lowercase letters, digits and hyphens")
	ErrInvalidName          = errors.New("product name is required")
	ErrInvalidBrand         = errors.New("product brand is required")
	ErrInvalidGender        = errors.New("product gender is invalid")
	ErrInvalidConcentration = errors.New("product concentration is invalid")
	ErrInvalidFamily        = errors.New("product family is required")
	ErrNoVariants           = errors.New("product needs at least one variant")
	ErrInvalidVariant       = errors.New("variant needs a sku, a positive volume, a non-negative price and stock")
	ErrDuplicateSKU         = errors.New("variant sku is duplicated")
	ErrInsufficientStock    = errors.New("insufficient stock")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Translation holds locale-specific copy.
type Translation struct {
	Name        string
	Description string
}

// Variant is a purchasable bottle size.
type Variant struct {
	ID       int64
	SKU      string
	VolumeML int
	Price    decimal.Decimal
	Stock    int
}

// Product is the catalog aggregate.
type Product struct {
	ID            int64
	Slug          string
	Name          string
	Brand         string
	Description   string
	Gender        Gender
	Family        string
	Concentration Concentration
	Notes         []string
	Images        []string
	Translations  map[string]Translation
	Variants      []Variant
	RatingAverage decimal.Decimal
	RatingCount   int
	Popularity    int
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate enforces aggregate invariants and normalizes enum casing.
func (p *Product) Validate() error {
	p.Slug = strings.TrimSpace(p.Slug)
	if !slugPattern.MatchString(p.Slug) {
		return ErrInvalidSlug
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(p.Brand) == "" {
		return ErrInvalidBrand
	}
	p.Gender = Gender(strings.ToLower(string(p.Gender)))
	switch p.Gender {
	case GenderWomen, GenderMen, GenderUnisex:
	default:
		return ErrInvalidGender
	}
	p.Concentration = Concentration(strings.ToLower(string(p.Concentration)))
	switch p.Concentration {
	case ConcentrationParfum, ConcentrationEDP, ConcentrationEDT, ConcentrationEDC:
	default:
		return ErrInvalidConcentration
	}
	p.Family = strings.ToLower(strings.TrimSpace(p.Family))
	if p.Family == "" {
		return ErrInvalidFamily
	}
	if len(p.Variants) == 0 {
		return ErrNoVariants
	}
	seen := make(map[string]struct{}, len(p.Variants))
	for _, v := range p.Variants {
		if strings.TrimSpace(v.SKU) == "" || v.VolumeML <= 0 || v.Price.IsNegative() || v.Stock < 0 {
			return ErrInvalidVariant
		}
		if _, dup := seen[v.SKU]; dup {
			return ErrDuplicateSKU
		}
		seen[v.SKU] = struct{}{}
	}
	return nil
}

// LowestPrice returns the cheapest variant price.
func (p *Product) LowestPrice() (decimal.Decimal, bool) {
	if len(p.Variants) == 0 {
		return decimal.Zero, false
	}
	lowest := p.Variants[0].Price
	for _, v := range p.Variants[1:] {
		if v.Price.LessThan(lowest) {
			lowest = v.Price
		}
	}
	return lowest, true
}

// InStock reports whether any variant can be bought.
func (p *Product) InStock() bool {
	for _, v := range p.Variants {
		if v.Stock > 0 {
			return true
		}
	}
	return false
}

// Variant finds a variant by id.
func (p *Product) Variant(id int64) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// Volumes lists the distinct bottle sizes in ascending order.
func (p *Product) Volumes() []int {
	set := map[int]struct{}{}
	for _, v := range p.Variants {
		set[v.VolumeML] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Localized returns the name and description for locale, falling back to the base copy.
func (p *Product) Localized(locale string) (name, description string) {
	name, description = p.Name, p.Description
	if t, ok := p.Translations[strings.ToLower(locale)]; ok {
		if t.Name != "" {
			name = t.Name
		}
		if t.Description != "" {
			description = t.Description
		}
	}
	return name, description
}

// PrimaryImage is the first image or empty.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// SetRating replaces the review aggregate.
func (p *Product) SetRating(average decimal.Decimal, count int) {
	p.RatingAverage = average.Round(2)
	p.RatingCount = count
}

// Clone deep-copies the aggregate.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	c.Notes = append([]string(nil), p.Notes...)
	c.Images = append([]string(nil), p.Images...)
	c.Variants = append([]Variant(nil), p.Variants...)
	if p.Translations != nil {
		c.Translations = make(map[string]Translation, len(p.Translations))
		for k, v := range p.Translations {
			c.Translations[k] = v
		}
	}
	return &c
}

// Slugify derives a slug from free text.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

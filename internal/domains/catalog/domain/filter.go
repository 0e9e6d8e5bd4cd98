package domain

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Sort orders filter results.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortPopular   Sort = "popular"
	SortRating    Sort = "rating"
	SortName      Sort = "name"
)

const (
	DefaultPageSize = 24
	MaxPageSize     = 96
)

var (
	ErrInvalidSort       = errors.New("sort is not supported")
	ErrInvalidPriceRange = errors.New("price range is invalid")
)

// ParseSort accepts the public sort names; empty means newest.
func ParseSort(raw string) (Sort, error) {
	switch s := Sort(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return SortNewest, nil
	case SortNewest, SortPriceAsc, SortPriceDesc, SortPopular, SortRating, SortName:
		return s, nil
	default:
		return "", ErrInvalidSort
	}
}

// Filter is a product search request.
type Filter struct {
	Query          string
	Brands         []string
	Genders        []string
	Families       []string
	Notes          []string
	Concentrations []string
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	VolumesML      []int
	InStockOnly    bool
	Sort           Sort
	Page           int
	PageSize       int
}

// Normalize returns a copy with defaults applied, list values trimmed,
// lowercased and de-duplicated. It rejects unknown sorts and bad price bounds.
func (f Filter) Normalize() (Filter, error) {
	sortBy, err := ParseSort(string(f.Sort))
	if err != nil {
		return Filter{}, err
	}
	f.Sort = sortBy
	f.Query = strings.TrimSpace(f.Query)
	f.Brands = normalizeList(f.Brands)
	f.Genders = normalizeList(f.Genders)
	f.Families = normalizeList(f.Families)
	f.Notes = normalizeList(f.Notes)
	f.Concentrations = normalizeList(f.Concentrations)

	volumes := make([]int, 0, len(f.VolumesML))
	seen := map[int]struct{}{}
	for _, v := range f.VolumesML {
		if _, dup := seen[v]; v > 0 && !dup {
			seen[v] = struct{}{}
			volumes = append(volumes, v)
		}
	}
	f.VolumesML = volumes

	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		return Filter{}, ErrInvalidPriceRange
	}
	if f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		return Filter{}, ErrInvalidPriceRange
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return Filter{}, ErrInvalidPriceRange
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f, nil
}

func normalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Matches evaluates the filter against one product. Lists are OR within and
// AND across; price bounds, volumes and stock match when any variant does.
// The filter must be normalized.
func (f Filter) Matches(p *Product) bool {
	if p == nil || !p.Active {
		return false
	}
	if f.Query != "" && !matchesQuery(p, strings.ToLower(f.Query)) {
		return false
	}
	if !inList(f.Brands, p.Brand) || !inList(f.Genders, string(p.Gender)) ||
		!inList(f.Families, p.Family) || !inList(f.Concentrations, string(p.Concentration)) {
		return false
	}
	if len(f.Notes) > 0 {
		found := false
		for _, n := range p.Notes {
			if inList(f.Notes, n) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		found := false
		for _, v := range p.Variants {
			if (f.MinPrice == nil || v.Price.GreaterThanOrEqual(*f.MinPrice)) &&
				(f.MaxPrice == nil || v.Price.LessThanOrEqual(*f.MaxPrice)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.InStockOnly && !p.InStock() {
		return false
	}
	if len(f.VolumesML) > 0 {
		found := false
		for _, v := range p.Variants {
			for _, want := range f.VolumesML {
				if v.VolumeML == want {
					found = true
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchesQuery(p *Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Brand), q) {
		return true
	}
	for _, n := range p.Notes {
		if strings.Contains(strings.ToLower(n), q) {
			return true
		}
	}
	return false
}

func inList(list []string, value string) bool {
	if len(list) == 0 {
		return true
	}
	value = strings.ToLower(value)
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// SortProducts orders products in place. Ties are broken by ascending ID.
func SortProducts(products []*Product, by Sort) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		switch by {
		case SortPriceAsc, SortPriceDesc:
			pa, okA := a.LowestPrice()
			pb, okB := b.LowestPrice()
			if okA != okB {
				return okA
			}
			if !pa.Equal(pb) {
				if by == SortPriceAsc {
					return pa.LessThan(pb)
				}
				return pa.GreaterThan(pb)
			}
		case SortPopular:
			if a.Popularity != b.Popularity {
				return a.Popularity > b.Popularity
			}
		case SortRating:
			if !a.RatingAverage.Equal(b.RatingAverage) {
				return a.RatingAverage.GreaterThan(b.RatingAverage)
			}
		case SortName:
			na, nb := strings.ToLower(a.Name), strings.ToLower(b.Name)
			if na != nb {
				return na < nb
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
}

// Facets summarizes the values available for filtering.
type Facets struct {
	Brands         []string
	Genders        []string
	Families       []string
	Notes          []string
	Concentrations []string
	VolumesML      []int
	PriceMin       decimal.Decimal
	PriceMax       decimal.Decimal
}

// BuildFacets aggregates active products.
func BuildFacets(products []*Product) Facets {
	brands, genders, families, notes, concs := map[string]struct{}{}, map[string]struct{}{}, map[string]struct{}{}, map[string]struct{}{}, map[string]struct{}{}
	volumes := map[int]struct{}{}
	var facets Facets
	priced := false
	for _, p := range products {
		if p == nil || !p.Active {
			continue
		}
		brands[p.Brand] = struct{}{}
		genders[string(p.Gender)] = struct{}{}
		families[p.Family] = struct{}{}
		concs[string(p.Concentration)] = struct{}{}
		for _, n := range p.Notes {
			notes[strings.ToLower(n)] = struct{}{}
		}
		for _, v := range p.Variants {
			volumes[v.VolumeML] = struct{}{}
			if !priced || v.Price.LessThan(facets.PriceMin) {
				facets.PriceMin = v.Price
			}
			if !priced || v.Price.GreaterThan(facets.PriceMax) {
				facets.PriceMax = v.Price
			}
			priced = true
		}
	}
	facets.Brands = sortedKeys(brands)
	facets.Genders = sortedKeys(genders)
	facets.Families = sortedKeys(families)
	facets.Notes = sortedKeys(notes)
	facets.Concentrations = sortedKeys(concs)
	facets.VolumesML = make([]int, 0, len(volumes))
	for v := range volumes {
		facets.VolumesML = append(facets.VolumesML, v)
	}
	sort.Ints(facets.VolumesML)
	return facets
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

package mapper

import (
	"time"

	"github.com/aromaline/storefront/internal/domains/catalog/domain"
	"github.com/aromaline/storefront/internal/shared/projection"
)

// Variant is the HTTP representation of a bottle size. Prices are decimal strings.
type Variant struct {
	ID       int64  `json:"id"`
	SKU      string `json:"sku"`
	VolumeML int    `json:"volumeMl"`
	Price    string `json:"price"`
	Stock    int    `json:"stock"`
	InStock  bool   `json:"inStock"`
}

// ProductSummary is the listing card shape.
type ProductSummary struct {
	ID            int64  `json:"id"`
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Brand         string `json:"brand"`
	Gender        string `json:"gender"`
	Family        string `json:"family"`
	Concentration string `json:"concentration"`
	Image         string `json:"image,omitempty"`
	PriceFrom     string `json:"priceFrom"`
	InStock       bool   `json:"inStock"`
	VolumesML     []int  `json:"volumesMl"`
	RatingAverage string `json:"ratingAverage"`
	RatingCount   int    `json:"ratingCount"`
}

// Product is the detail page shape.
type Product struct {
	ProductSummary
	Description string    `json:"description"`
	Notes       []string  `json:"notes"`
	Images      []string  `json:"images"`
	Variants    []Variant `json:"variants"`
}

// ProductPage is a paginated listing.
type ProductPage struct {
	Items      []ProductSummary `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

// Facets lists the filter values offered by the catalog.
type Facets struct {
	Brands         []string `json:"brands"`
	Genders        []string `json:"genders"`
	Families       []string `json:"families"`
	Notes          []string `json:"notes"`
	Concentrations []string `json:"concentrations"`
	VolumesML      []int    `json:"volumesMl"`
	PriceMin       string   `json:"priceMin"`
	PriceMax       string   `json:"priceMax"`
}

// FromDomainSummary renders a listing card in locale.
func FromDomainSummary(p *domain.Product, locale string) ProductSummary {
	if p == nil {
		return ProductSummary{}
	}
	name, _ := p.Localized(locale)
	lowest, _ := p.LowestPrice()
	return ProductSummary{
		ID:            p.ID,
		Slug:          p.Slug,
		Name:          name,
		Brand:         p.Brand,
		Gender:        string(p.Gender),
		Family:        p.Family,
		Concentration: string(p.Concentration),
		Image:         p.PrimaryImage(),
		PriceFrom:     lowest.StringFixed(2),
		InStock:       p.InStock(),
		VolumesML:     p.Volumes(),
		RatingAverage: p.RatingAverage.StringFixed(2),
		RatingCount:   p.RatingCount,
	}
}

// FromDomainProduct renders the detail view in locale.
func FromDomainProduct(p *domain.Product, locale string) Product {
	if p == nil {
		return Product{}
	}
	_, description := p.Localized(locale)
	out := Product{
		ProductSummary: FromDomainSummary(p, locale),
		Description:    description,
		Notes:          append([]string{}, p.Notes...),
		Images:         append([]string{}, p.Images...),
		Variants:       make([]Variant, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		out.Variants = append(out.Variants, Variant{
			ID:       v.ID,
			SKU:      v.SKU,
			VolumeML: v.VolumeML,
			Price:    v.Price.StringFixed(2),
			Stock:    v.Stock,
			InStock:  v.Stock > 0,
		})
	}
	return out
}

// FromDomainPage renders a listing page.
func FromDomainPage(page projection.Page[*domain.Product], locale string) ProductPage {
	out := ProductPage{
		Items:      make([]ProductSummary, 0, len(page.Items)),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages(),
	}
	for _, p := range page.Items {
		out.Items = append(out.Items, FromDomainSummary(p, locale))
	}
	return out
}

// FromDomainList renders a plain list of cards.
func FromDomainList(products []*domain.Product, locale string) []ProductSummary {
	out := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		out = append(out, FromDomainSummary(p, locale))
	}
	return out
}

func FromDomainFacets(f domain.Facets) Facets {
	return Facets{
		Brands:         nonNilStrings(f.Brands),
		Genders:        nonNilStrings(f.Genders),
		Families:       nonNilStrings(f.Families),
		Notes:          nonNilStrings(f.Notes),
		Concentrations: nonNilStrings(f.Concentrations),
		VolumesML:      append([]int{}, f.VolumesML...),
		PriceMin:       f.PriceMin.StringFixed(2),
		PriceMax:       f.PriceMax.StringFixed(2),
	}
}

// Review is the HTTP representation of a product review.
type Review struct {
	ID         int64     `json:"id"`
	AuthorName string    `json:"authorName"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ReviewPage is a paginated review listing.
type ReviewPage struct {
	Items    []Review `json:"items"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
}

// ReviewInput is the review submission payload.
type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func FromDomainReview(r *domain.Review) Review {
	if r == nil {
		return Review{}
	}
	return Review{ID: r.ID, AuthorName: r.AuthorName, Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt}
}

func FromDomainReviewPage(page projection.Page[*domain.Review]) ReviewPage {
	out := ReviewPage{Items: make([]Review, 0, len(page.Items)), Total: page.Total, Page: page.Page, PageSize: page.PageSize}
	for _, r := range page.Items {
		out.Items = append(out.Items, FromDomainReview(r))
	}
	return out
}

func nonNilStrings(values []string) []string {
	return append([]string{}, values...)
}

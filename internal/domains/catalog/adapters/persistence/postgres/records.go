package postgres

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/aromaline/storefront/internal/domains/catalog/domain"
)

// productRecord maps the product aggregate root.
type productRecord struct {
	ID            int64           `gorm:"primaryKey;column:id"`
	Slug          string          `gorm:"column:slug"`
	Name          string          `gorm:"column:name"`
	Brand         string          `gorm:"column:brand"`
	Description   string          `gorm:"column:description"`
	Gender        string          `gorm:"column:gender"`
	Family        string          `gorm:"column:family"`
	Concentration string          `gorm:"column:concentration"`
	Notes         pq.StringArray  `gorm:"column:notes;type:text[]"`
	Images        pq.StringArray  `gorm:"column:images;type:text[]"`
	Translations  string          `gorm:"column:translations;type:jsonb"`
	RatingAverage decimal.Decimal `gorm:"column:rating_average"`
	RatingCount   int             `gorm:"column:rating_count"`
	Popularity    int             `gorm:"column:popularity"`
	Active        bool            `gorm:"column:active"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
	Variants      []variantRecord `gorm:"foreignKey:ProductID"`
}

func (productRecord) TableName() string { return "products" }

type variantRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	ProductID int64           `gorm:"column:product_id"`
	SKU       string          `gorm:"column:sku"`
	VolumeML  int             `gorm:"column:volume_ml"`
	Price     decimal.Decimal `gorm:"column:price"`
	Stock     int             `gorm:"column:stock"`
}

func (variantRecord) TableName() string { return "product_variants" }

type reviewRecord struct {
	ID         int64     `gorm:"primaryKey;column:id"`
	ProductID  int64     `gorm:"column:product_id"`
	UserID     string    `gorm:"column:user_id;type:uuid"`
	AuthorName string    `gorm:"column:author_name"`
	Rating     int       `gorm:"column:rating"`
	Comment    string    `gorm:"column:comment"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (reviewRecord) TableName() string { return "reviews" }

type translationJSON struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

func toRecord(p *domain.Product) (productRecord, error) {
	translations := make(map[string]translationJSON, len(p.Translations))
	for locale, t := range p.Translations {
		translations[locale] = translationJSON{Name: t.Name, Description: t.Description}
	}
	raw, err := json.Marshal(translations)
	if err != nil {
		return productRecord{}, err
	}
	rec := productRecord{
		ID:            p.ID,
		Slug:          p.Slug,
		Name:          p.Name,
		Brand:         p.Brand,
		Description:   p.Description,
		Gender:        string(p.Gender),
		Family:        p.Family,
		Concentration: string(p.Concentration),
		Notes:         pq.StringArray(nonNil(p.Notes)),
		Images:        pq.StringArray(nonNil(p.Images)),
		Translations:  string(raw),
		RatingAverage: p.RatingAverage,
		RatingCount:   p.RatingCount,
		Popularity:    p.Popularity,
		Active:        p.Active,
	}
	for _, v := range p.Variants {
		rec.Variants = append(rec.Variants, variantRecord{
			ID:        v.ID,
			ProductID: p.ID,
			SKU:       v.SKU,
			VolumeML:  v.VolumeML,
			Price:     v.Price,
			Stock:     v.Stock,
		})
	}
	return rec, nil
}

func (r productRecord) toDomain() *domain.Product {
	p := &domain.Product{
		ID:            r.ID,
		Slug:          r.Slug,
		Name:          r.Name,
		Brand:         r.Brand,
		Description:   r.Description,
		Gender:        domain.Gender(r.Gender),
		Family:        r.Family,
		Concentration: domain.Concentration(r.Concentration),
		Notes:         []string(r.Notes),
		Images:        []string(r.Images),
		RatingAverage: r.RatingAverage,
		RatingCount:   r.RatingCount,
		Popularity:    r.Popularity,
		Active:        r.Active,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	var translations map[string]translationJSON
	if r.Translations != "" && json.Unmarshal([]byte(r.Translations), &translations) == nil && len(translations) > 0 {
		p.Translations = make(map[string]domain.Translation, len(translations))
		for locale, t := range translations {
			p.Translations[locale] = domain.Translation{Name: t.Name, Description: t.Description}
		}
	}
	for _, v := range r.Variants {
		p.Variants = append(p.Variants, domain.Variant{
			ID:       v.ID,
			SKU:      v.SKU,
			VolumeML: v.VolumeML,
			Price:    v.Price,
			Stock:    v.Stock,
		})
	}
	return p
}

func (r reviewRecord) toDomain() *domain.Review {
	return &domain.Review{
		ID:         r.ID,
		ProductID:  r.ProductID,
		UserID:     r.UserID,
		AuthorName: r.AuthorName,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// Package seed loads catalog fixtures from YAML.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/aromaline/storefront/internal/domains/catalog/domain"
	"github.com/aromaline/storefront/internal/domains/catalog/ports"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type file struct {
	Products []product `yaml:"products"`
}

type product struct {
	Slug          string                 `yaml:"slug"`
	Name          string                 `yaml:"name"`
	Brand         string                 `yaml:"brand"`
	Description   string                 `yaml:"description"`
	Gender        string                 `yaml:"gender"`
	Family        string                 `yaml:"family"`
	Concentration string                 `yaml:"concentration"`
	Notes         []string               `yaml:"notes"`
	Images        []string               `yaml:"images"`
	Popularity    int                    `yaml:"popularity"`
	Inactive      bool                   `yaml:"inactive"`
	Translations  map[string]translation `yaml:"translations"`
	Variants      []variant              `yaml:"variants"`
}

type translation struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type variant struct {
	SKU      string `yaml:"sku"`
	VolumeML int    `yaml:"volume_ml"`
	Price    string `yaml:"price"`
	Stock    int    `yaml:"stock"`
}

// Default returns the catalog bundled with the binary.
func Default() ([]*domain.Product, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// LoadFile reads fixtures from path.
func LoadFile(path string) ([]*domain.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog seed: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates fixtures.
func Load(r io.Reader) ([]*domain.Product, error) {
	var doc file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode catalog seed: %w", err)
	}
	out := make([]*domain.Product, 0, len(doc.Products))
	for i, raw := range doc.Products {
		p, err := raw.toDomain()
		if err != nil {
			return nil, fmt.Errorf("product %d (%s): %w", i, raw.Slug, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (p product) toDomain() (*domain.Product, error) {
	slug := p.Slug
	if slug == "" {
		slug = domain.Slugify(p.Brand + " " + p.Name)
	}
	out := &domain.Product{
		Slug:          slug,
		Name:          p.Name,
		Brand:         p.Brand,
		Description:   p.Description,
		Gender:        domain.Gender(p.Gender),
		Family:        p.Family,
		Concentration: domain.Concentration(p.Concentration),
		Notes:         p.Notes,
		Images:        p.Images,
		Popularity:    p.Popularity,
		Active:        !p.Inactive,
	}
	if len(p.Translations) > 0 {
		out.Translations = make(map[string]domain.Translation, len(p.Translations))
		for locale, t := range p.Translations {
			out.Translations[locale] = domain.Translation{Name: t.Name, Description: t.Description}
		}
	}
	for _, v := range p.Variants {
		price, err := decimal.NewFromString(v.Price)
		if err != nil {
			return nil, fmt.Errorf("variant %s price: %w", v.SKU, err)
		}
		out.Variants = append(out.Variants, domain.Variant{SKU: v.SKU, VolumeML: v.VolumeML, Price: price, Stock: v.Stock})
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Apply upserts fixtures whose slug does not resolve to an active product.
// Active products are left alone so live stock is not reset on restart.
func Apply(ctx context.Context, svc ports.Service, products []*domain.Product, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	inserted := 0
	for _, p := range products {
		if _, err := svc.GetProduct(ctx, p.Slug); err == nil {
			continue
		} else if !errors.Is(err, ports.ErrNotFound) {
			return inserted, err
		}
		if _, err := svc.UpsertProduct(ctx, p); err != nil {
			return inserted, fmt.Errorf("seed %s: %w", p.Slug, err)
		}
		inserted++
	}
	logger.Info("catalog seed applied", slog.Int("inserted", inserted), slog.Int("fixtures", len(products)))
	return inserted, nil
}

package postgres

import (
	"context"
	"errors"
	"sort"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aromaline/storefront/internal/domains/catalog/domain"
	"github.com/aromaline/storefront/internal/domains/catalog/ports"
	"github.com/aromaline/storefront/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists the catalog in PostgreSQL using GORM. Filtering is
// delegated to the filter_products stored procedure.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
// The schema is owned by the migrations package.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

const filterSQL = `SELECT product_id, total_count FROM filter_products(` +
	`?, ?::text[], ?::text[], ?::text[], ?::text[], ?::text[], ?::numeric, ?::numeric, ?::integer[], ?, ?, ?, ?)`

type filterRow struct {
	ProductID  int64 `gorm:"column:product_id"`
	TotalCount int64 `gorm:"column:total_count"`
}

// Filter runs the stored procedure for one page and hydrates the matching products in order.
func (r *Repository) Filter(ctx context.Context, filter domain.Filter) (projection.Page[*domain.Product], error) {
	page := projection.Page[*domain.Product]{Items: []*domain.Product{}, Page: filter.Page, PageSize: filter.PageSize}
	if err := r.ensureDB(); err != nil {
		return page, err
	}
	rows, err := r.runFilter(ctx, filter, filter.PageSize, projection.Offset(filter.Page, filter.PageSize))
	if err != nil {
		return page, err
	}
	if len(rows) == 0 {
		if filter.Page > 1 {
			// Past the last page the window function has no row to report the total on.
			probe, err := r.runFilter(ctx, filter, 1, 0)
			if err != nil {
				return page, err
			}
			if len(probe) > 0 {
				page.Total = int(probe[0].TotalCount)
			}
		}
		return page, nil
	}
	page.Total = int(rows[0].TotalCount)

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	products, err := r.loadByIDs(ctx, ids)
	if err != nil {
		return page, err
	}
	for _, id := range ids {
		if p, ok := products[id]; ok {
			page.Items = append(page.Items, p)
		}
	}
	return page, nil
}

func (r *Repository) runFilter(ctx context.Context, f domain.Filter, limit, offset int) ([]filterRow, error) {
	var minPrice, maxPrice any
	if f.MinPrice != nil {
		minPrice = f.MinPrice.String()
	}
	if f.MaxPrice != nil {
		maxPrice = f.MaxPrice.String()
	}
	volumes := make(pq.Int64Array, 0, len(f.VolumesML))
	for _, v := range f.VolumesML {
		volumes = append(volumes, int64(v))
	}
	var rows []filterRow
	err := r.db.WithContext(ctx).Raw(filterSQL,
		f.Query,
		pq.StringArray(f.Brands),
		pq.StringArray(f.Genders),
		pq.StringArray(f.Families),
		pq.StringArray(f.Notes),
		pq.StringArray(f.Concentrations),
		minPrice,
		maxPrice,
		volumes,
		f.InStockOnly,
		string(f.Sort),
		limit,
		offset,
	).Scan(&rows).Error
	return rows, err
}

func (r *Repository) loadByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	var records []productRecord
	if err := r.withVariants(ctx).Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]*domain.Product, len(records))
	for i := range records {
		out[records[i].ID] = records[i].toDomain()
	}
	return out, nil
}

func (r *Repository) withVariants(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("volume_ml ASC, id ASC")
	})
}

// GetBySlug fetches a product by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := r.withVariants(ctx).First(&record, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// GetByID fetches a product by identifier.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := r.withVariants(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) GetByVariantIDs(ctx context.Context, variantIDs []int64) (map[int64]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	out := map[int64]*domain.Product{}
	if len(variantIDs) == 0 {
		return out, nil
	}
	var variants []variantRecord
	if err := r.db.WithContext(ctx).Select("id", "product_id").Where("id IN ?", variantIDs).Find(&variants).Error; err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return out, nil
	}
	productIDs := make([]int64, 0, len(variants))
	for _, v := range variants {
		productIDs = append(productIDs, v.ProductID)
	}
	products, err := r.loadByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	for _, v := range variants {
		if p, ok := products[v.ProductID]; ok {
			out[v.ID] = p
		}
	}
	return out, nil
}

func (r *Repository) Related(ctx context.Context, product *domain.Product, limit int) ([]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []productRecord
	if err := r.withVariants(ctx).
		Where("active AND id <> ? AND (family = ? OR lower(brand) = lower(?))", product.ID, product.Family, product.Brand).
		Order("popularity DESC, id ASC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Product, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDomain())
	}
	return out, nil
}

type priceBounds struct {
	PriceMin decimal.Decimal `gorm:"column:price_min"`
	PriceMax decimal.Decimal `gorm:"column:price_max"`
}

func (r *Repository) Facets(ctx context.Context) (domain.Facets, error) {
	var facets domain.Facets
	if err := r.ensureDB(); err != nil {
		return facets, err
	}
	db := r.db.WithContext(ctx)
	queries := []struct {
		sql  string
		dest *[]string
	}{
		{"SELECT DISTINCT brand FROM products WHERE active ORDER BY brand", &facets.Brands},
		{"SELECT DISTINCT gender FROM products WHERE active ORDER BY gender", &facets.Genders},
		{"SELECT DISTINCT family FROM products WHERE active ORDER BY family", &facets.Families},
		{"SELECT DISTINCT concentration FROM products WHERE active ORDER BY concentration", &facets.Concentrations},
		{"SELECT DISTINCT lower(n) FROM products p, unnest(p.notes) AS n WHERE p.active ORDER BY 1", &facets.Notes},
	}
	for _, q := range queries {
		if err := db.Raw(q.sql).Scan(q.dest).Error; err != nil {
			return domain.Facets{}, err
		}
	}
	if err := db.Raw(`SELECT DISTINCT v.volume_ml FROM product_variants v
		JOIN products p ON p.id = v.product_id WHERE p.active ORDER BY 1`).Scan(&facets.VolumesML).Error; err != nil {
		return domain.Facets{}, err
	}
	var bounds priceBounds
	if err := db.Raw(`SELECT COALESCE(MIN(v.price), 0) AS price_min, COALESCE(MAX(v.price), 0) AS price_max
		FROM product_variants v JOIN products p ON p.id = v.product_id WHERE p.active`).Scan(&bounds).Error; err != nil {
		return domain.Facets{}, err
	}
	facets.PriceMin, facets.PriceMax = bounds.PriceMin, bounds.PriceMax
	return facets, nil
}

// Save upserts a product by id, or by slug when the id is unset, and
// reconciles its variants by SKU.
func (r *Repository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	record, err := toRecord(product)
	if err != nil {
		return nil, err
	}
	variants := record.Variants
	record.Variants = nil

	conflictColumn := "slug"
	if record.ID != 0 {
		conflictColumn = "id"
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: conflictColumn}},
			DoUpdates: clause.Assignments(map[string]any{
				"slug":          record.Slug,
				"name":          record.Name,
				"brand":         record.Brand,
				"description":   record.Description,
				"gender":        record.Gender,
				"family":        record.Family,
				"concentration": record.Concentration,
				"notes":         record.Notes,
				"images":        record.Images,
				"translations":  gorm.Expr("?::jsonb", record.Translations),
				"popularity":    record.Popularity,
				"active":        record.Active,
				"updated_at":    gorm.Expr("NOW()"),
			}),
		}).Omit(clause.Associations).Create(&record).Error; err != nil {
			return err
		}
		if record.ID == 0 {
			if err := tx.Model(&productRecord{}).Select("id").Where("slug = ?", record.Slug).Scan(&record.ID).Error; err != nil {
				return err
			}
		}
		skus := make([]string, 0, len(variants))
		for i := range variants {
			variants[i].ProductID = record.ID
			skus = append(skus, variants[i].SKU)
		}
		if err := tx.Where("product_id = ? AND sku NOT IN ?", record.ID, skus).Delete(&variantRecord{}).Error; err != nil {
			return err
		}
		for i := range variants {
			v := variants[i]
			v.ID = 0
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "sku"}},
				DoUpdates: clause.AssignmentColumns([]string{"product_id", "volume_ml", "price", "stock"}),
			}).Create(&v).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ports.ErrSlugTaken
		}
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// Delete removes a product and, through the foreign key, its variants.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&productRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) SetRating(ctx context.Context, productID int64, average decimal.Decimal, count int) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&productRecord{}).Where("id = ?", productID).Updates(map[string]any{
		"rating_average": average.Round(2),
		"rating_count":   count,
		"updated_at":     gorm.Expr("NOW()"),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// AdjustStock applies deltas in one transaction.
func (r *Repository) AdjustStock(ctx context.Context, deltas map[int64]int) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return AdjustStockTx(tx, deltas)
	})
}

type stockRow struct {
	ID    int64 `gorm:"column:id"`
	Stock int   `gorm:"column:stock"`
}

// AdjustStockTx locks the affected variant rows with SELECT ... FOR UPDATE,
// in id order, then applies the deltas. It must run inside a transaction so
// callers can combine it with their own writes.
func AdjustStockTx(tx *gorm.DB, deltas map[int64]int) error {
	if len(deltas) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var rows []stockRow
	if err := tx.Raw("SELECT id, stock FROM product_variants WHERE id IN ? ORDER BY id FOR UPDATE", ids).
		Scan(&rows).Error; err != nil {
		return err
	}
	if len(rows) != len(ids) {
		return ports.ErrVariantNotFound
	}
	for _, row := range rows {
		if row.Stock+deltas[row.ID] < 0 {
			return domain.ErrInsufficientStock
		}
	}
	for _, id := range ids {
		if deltas[id] == 0 {
			continue
		}
		if err := tx.Exec("UPDATE product_variants SET stock = stock + ? WHERE id = ?", deltas[id], id).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres catalog repository not configured")
	}
	return nil
}

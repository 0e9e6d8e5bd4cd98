package postgres

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/aromaline/storefront/internal/domains/catalog/domain"
	"github.com/aromaline/storefront/internal/domains/catalog/ports"
	"github.com/aromaline/storefront/internal/shared/projection"
)

var _ ports.ReviewRepository = (*ReviewRepository)(nil)

// ReviewRepository persists reviews; (product_id, user_id) is unique.
type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) List(ctx context.Context, productID int64, page, pageSize int) (projection.Page[*domain.Review], error) {
	out := projection.Page[*domain.Review]{Items: []*domain.Review{}, Page: page, PageSize: pageSize}
	if err := r.ensureDB(); err != nil {
		return out, err
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&reviewRecord{}).Where("product_id = ?", productID).Count(&total).Error; err != nil {
		return out, err
	}
	out.Total = int(total)
	var records []reviewRecord
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Offset(projection.Offset(page, pageSize)).
		Limit(pageSize).
		Find(&records).Error; err != nil {
		return out, err
	}
	for i := range records {
		out.Items = append(out.Items, records[i].toDomain())
	}
	return out, nil
}

func (r *ReviewRepository) Add(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if review == nil {
		return nil, errors.New("review is nil")
	}
	record := reviewRecord{
		ProductID:  review.ProductID,
		UserID:     review.UserID,
		AuthorName: review.AuthorName,
		Rating:     review.Rating,
		Comment:    review.Comment,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ports.ErrReviewExists
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

type statsRow struct {
	Average decimal.Decimal `gorm:"column:average"`
	Count   int             `gorm:"column:count"`
}

func (r *ReviewRepository) Stats(ctx context.Context, productID int64) (ports.ReviewStats, error) {
	if err := r.ensureDB(); err != nil {
		return ports.ReviewStats{}, err
	}
	var row statsRow
	if err := r.db.WithContext(ctx).Raw(
		"SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0) AS average, COUNT(*) AS count FROM reviews WHERE product_id = ?",
		productID,
	).Scan(&row).Error; err != nil {
		return ports.ReviewStats{}, err
	}
	return ports.ReviewStats{Average: row.Average, Count: row.Count}, nil
}

func (r *ReviewRepository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres review repository not configured")
	}
	return nil
}

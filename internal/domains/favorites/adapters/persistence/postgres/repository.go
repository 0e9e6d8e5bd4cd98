package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aromaline/storefront/internal/domains/favorites/domain"
	"github.com/aromaline/storefront/internal/domains/favorites/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists favorites in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type favoriteRecord struct {
	UserID    string    `gorm:"primaryKey;column:user_id"`
	ProductID int64     `gorm:"primaryKey;column:product_id"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (favoriteRecord) TableName() string { return "favorites" }

func (r *Repository) List(ctx context.Context, userID string) ([]domain.Favorite, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []favoriteRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, product_id DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Favorite, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.Favorite{UserID: rec.UserID, ProductID: rec.ProductID, CreatedAt: rec.CreatedAt})
	}
	return out, nil
}

func (r *Repository) Add(ctx context.Context, favorite domain.Favorite) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	rec := favoriteRecord{UserID: favorite.UserID, ProductID: favorite.ProductID, CreatedAt: favorite.CreatedAt}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ports.ErrProductNotFound
	}
	return err
}

func (r *Repository) Remove(ctx context.Context, userID string, productID int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&favoriteRecord{}).Error
}

func (r *Repository) Exists(ctx context.Context, userID string, productID int64) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&favoriteRecord{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres favorites repository not configured")
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/aromaline/storefront/internal/domains/cart/domain"
	"github.com/aromaline/storefront/internal/domains/cart/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists cart lines in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// cartItemRecord maps one cart line; (owner_key, variant_id) is the key.
type cartItemRecord struct {
	OwnerKey  string    `gorm:"primaryKey;column:owner_key"`
	VariantID int64     `gorm:"primaryKey;column:variant_id"`
	ProductID int64     `gorm:"column:product_id"`
	Quantity  int       `gorm:"column:quantity"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (cartItemRecord) TableName() string { return "cart_items" }

func (r *Repository) Get(ctx context.Context, ownerKey string) (*domain.Cart, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []cartItemRecord
	if err := r.db.WithContext(ctx).
		Where("owner_key = ?", ownerKey).
		Order("created_at ASC, variant_id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	cart := domain.New(ownerKey)
	for _, rec := range records {
		cart.Items = append(cart.Items, domain.Item{
			VariantID: rec.VariantID,
			ProductID: rec.ProductID,
			Quantity:  rec.Quantity,
			AddedAt:   rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		})
		if rec.UpdatedAt.After(cart.UpdatedAt) {
			cart.UpdatedAt = rec.UpdatedAt
		}
	}
	return cart, nil
}

// Save replaces every line of the cart in one transaction.
func (r *Repository) Save(ctx context.Context, cart *domain.Cart) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if cart == nil || cart.OwnerKey == "" {
		return errors.New("cart owner is required")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_key = ?", cart.OwnerKey).Delete(&cartItemRecord{}).Error; err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return nil
		}
		now := time.Now().UTC()
		records := make([]cartItemRecord, 0, len(cart.Items))
		for _, item := range cart.Items {
			rec := cartItemRecord{
				OwnerKey:  cart.OwnerKey,
				VariantID: item.VariantID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				CreatedAt: item.AddedAt,
				UpdatedAt: item.UpdatedAt,
			}
			if rec.CreatedAt.IsZero() {
				rec.CreatedAt = now
			}
			if rec.UpdatedAt.IsZero() {
				rec.UpdatedAt = now
			}
			records = append(records, rec)
		}
		return tx.Create(&records).Error
	})
}

func (r *Repository) Delete(ctx context.Context, ownerKey string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("owner_key = ?", ownerKey).Delete(&cartItemRecord{}).Error
}

// PurgeGuestCarts removes guest carts whose newest line is older than olderThan.
func (r *Repository) PurgeGuestCarts(ctx context.Context, olderThan time.Time) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	result := r.db.WithContext(ctx).Exec(`DELETE FROM cart_items WHERE owner_key IN (
		SELECT owner_key FROM cart_items WHERE owner_key LIKE ?
		GROUP BY owner_key HAVING MAX(updated_at) < ?)`, domain.GuestKeyPrefix()+"%", olderThan)
	return result.RowsAffected, result.Error
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres cart repository not configured")
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aromaline/storefront/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

var errIdempotencyUnconfigured = errors.New("postgres idempotency store not configured")

// IdempotencyStore persists checkout keys in order_idempotency_keys.
type IdempotencyStore struct {
	db *gorm.DB
}

func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

// Reserve inserts the reservation, overwriting only an expired row. The
// primary key serializes concurrent inserts; the read-back tells which
// request won by its token.
func (s *IdempotencyStore) Reserve(ctx context.Context, k ports.CheckoutKey) (*ports.CheckoutKey, error) {
	if s == nil || s.db == nil {
		return nil, errIdempotencyUnconfigured
	}
	row := checkoutKeyRecord{
		Scope:       k.Scope,
		Key:         k.Key,
		RequestHash: k.RequestHash,
		Token:       k.Token,
		CreatedAt:   k.CreatedAt,
		ExpiresAt:   k.ExpiresAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"request_hash", "token", "order_id", "created_at", "expires_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "order_idempotency_keys.expires_at <= ?", Vars: []any{k.CreatedAt}},
		}},
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	var stored checkoutKeyRecord
	if err := s.db.WithContext(ctx).Where("scope = ? AND key = ?", k.Scope, k.Key).Take(&stored).Error; err != nil {
		return nil, err
	}
	if stored.Token == k.Token {
		return nil, nil
	}
	return stored.toPort(), nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, k ports.CheckoutKey) error {
	if s == nil || s.db == nil {
		return errIdempotencyUnconfigured
	}
	res := s.db.WithContext(ctx).Model(&checkoutKeyRecord{}).
		Where("scope = ? AND key = ? AND token = ?", k.Scope, k.Key, k.Token).
		Updates(map[string]any{"order_id": k.OrderID, "expires_at": k.ExpiresAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrIdempotencyConflict
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, k ports.CheckoutKey) error {
	if s == nil || s.db == nil {
		return errIdempotencyUnconfigured
	}
	return s.db.WithContext(ctx).
		Where("scope = ? AND key = ? AND token = ? AND order_id IS NULL", k.Scope, k.Key, k.Token).
		Delete(&checkoutKeyRecord{}).Error
}

func (s *IdempotencyStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errIdempotencyUnconfigured
	}
	res := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&checkoutKeyRecord{})
	return res.RowsAffected, res.Error
}

type checkoutKeyRecord struct {
	Scope       string    `gorm:"primaryKey;column:scope"`
	Key         string    `gorm:"primaryKey;column:key"`
	RequestHash string    `gorm:"column:request_hash"`
	Token       string    `gorm:"column:token"`
	OrderID     *string   `gorm:"column:order_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (checkoutKeyRecord) TableName() string { return "order_idempotency_keys" }

func (r checkoutKeyRecord) toPort() *ports.CheckoutKey {
	k := &ports.CheckoutKey{
		Scope:       r.Scope,
		Key:         r.Key,
		RequestHash: r.RequestHash,
		Token:       r.Token,
		CreatedAt:   r.CreatedAt,
		ExpiresAt:   r.ExpiresAt,
	}
	if r.OrderID != nil {
		k.OrderID = *r.OrderID
	}
	return k
}

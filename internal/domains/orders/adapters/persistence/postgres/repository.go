package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	catalogpg "github.com/aromaline/storefront/internal/domains/catalog/adapters/persistence/postgres"
	catalogdomain "github.com/aromaline/storefront/internal/domains/catalog/domain"
	catalogports "github.com/aromaline/storefront/internal/domains/catalog/ports"
	"github.com/aromaline/storefront/internal/domains/orders/domain"
	"github.com/aromaline/storefront/internal/domains/orders/ports"
	"github.com/aromaline/storefront/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM. Stock moves in the
// same transaction as the order row, with variant rows locked FOR UPDATE.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type orderRecord struct {
	ID            string            `gorm:"primaryKey;column:id"`
	Number        string            `gorm:"column:number"`
	UserID        *string           `gorm:"column:user_id"`
	Email         string            `gorm:"column:email"`
	Phone         string            `gorm:"column:phone"`
	FirstName     string            `gorm:"column:first_name"`
	LastName      string            `gorm:"column:last_name"`
	Country       string            `gorm:"column:country"`
	City          string            `gorm:"column:city"`
	Street        string            `gorm:"column:street"`
	PostalCode    string            `gorm:"column:postal_code"`
	Apartment     string            `gorm:"column:apartment"`
	Notes         string            `gorm:"column:notes"`
	Subtotal      decimal.Decimal   `gorm:"column:subtotal"`
	ShippingFee   decimal.Decimal   `gorm:"column:shipping_fee"`
	Total         decimal.Decimal   `gorm:"column:total"`
	Currency      string            `gorm:"column:currency"`
	PaymentMethod string            `gorm:"column:payment_method"`
	Status        string            `gorm:"column:status"`
	Locale        string            `gorm:"column:locale"`
	CreatedAt     time.Time         `gorm:"column:created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at"`
	Lines         []orderLineRecord `gorm:"foreignKey:OrderID"`
}

func (orderRecord) TableName() string { return "orders" }

type orderLineRecord struct {
	ID          int64           `gorm:"primaryKey;column:id"`
	OrderID     string          `gorm:"column:order_id"`
	Position    int             `gorm:"column:position"`
	VariantID   int64           `gorm:"column:variant_id"`
	ProductID   int64           `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name"`
	VolumeML    int             `gorm:"column:volume_ml"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price"`
	Quantity    int             `gorm:"column:quantity"`
	LineTotal   decimal.Decimal `gorm:"column:line_total"`
}

func (orderLineRecord) TableName() string { return "order_lines" }

// Create reserves stock and inserts the order with its lines atomically.
func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	rec := toRecord(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := stockError(catalogpg.AdjustStockTx(tx, order.StockDeltas())); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&rec).Error; err != nil {
			return err
		}
		return tx.Create(&rec.Lines).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, order.ID)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.first(ctx, "number = ?", number)
}

func (r *Repository) first(ctx context.Context, query string, arg any) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var rec orderRecord
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&rec, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return rec.toDomain(), nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string, page, pageSize int) (projection.Page[*domain.Order], error) {
	result := projection.Page[*domain.Order]{Items: []*domain.Order{}, Page: page, PageSize: pageSize}
	if err := r.ensureDB(); err != nil {
		return result, err
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&orderRecord{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return result, err
	}
	result.Total = int(total)
	if total == 0 {
		return result, nil
	}
	var records []orderRecord
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("user_id = ?", userID).
		Order("created_at DESC, number DESC").
		Offset(projection.Offset(page, pageSize)).
		Limit(pageSize).
		Find(&records).Error; err != nil {
		return result, err
	}
	for i := range records {
		result.Items = append(result.Items, records[i].toDomain())
	}
	return result, nil
}

// Cancel flips a pending order to cancelled and restocks its lines.
func (r *Repository) Cancel(ctx context.Context, order *domain.Order) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&orderRecord{}).
			Where("id = ? AND status = ?", order.ID, string(domain.StatusPending)).
			Updates(map[string]any{"status": string(domain.StatusCancelled), "updated_at": order.UpdatedAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotCancellable
		}
		return stockError(catalogpg.AdjustStockTx(tx, order.RestockDeltas()))
	})
}

func (r *Repository) ClaimGuestOrders(ctx context.Context, userID, email string) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("user_id IS NULL AND lower(email) = ?", email).
		Updates(map[string]any{"user_id": userID, "updated_at": gorm.Expr("NOW()")})
	return res.RowsAffected, res.Error
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func stockError(err error) error {
	if errors.Is(err, catalogdomain.ErrInsufficientStock) || errors.Is(err, catalogports.ErrVariantNotFound) {
		return ports.ErrInsufficientStock
	}
	return err
}

func toRecord(o *domain.Order) orderRecord {
	rec := orderRecord{
		ID:            o.ID,
		Number:        o.Number,
		Email:         o.Contact.Email,
		Phone:         o.Contact.Phone,
		FirstName:     o.Contact.FirstName,
		LastName:      o.Contact.LastName,
		Country:       o.Shipping.Country,
		City:          o.Shipping.City,
		Street:        o.Shipping.Street,
		PostalCode:    o.Shipping.PostalCode,
		Apartment:     o.Shipping.Apartment,
		Notes:         o.Shipping.Notes,
		Subtotal:      o.Subtotal,
		ShippingFee:   o.ShippingFee,
		Total:         o.Total,
		Currency:      o.Currency,
		PaymentMethod: string(o.PaymentMethod),
		Status:        string(o.Status),
		Locale:        o.Locale,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.UserID != "" {
		userID := o.UserID
		rec.UserID = &userID
	}
	for i, l := range o.Lines {
		rec.Lines = append(rec.Lines, orderLineRecord{
			OrderID:     o.ID,
			Position:    i,
			VariantID:   l.VariantID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			VolumeML:    l.VolumeML,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			LineTotal:   l.LineTotal,
		})
	}
	return rec
}

func (r orderRecord) toDomain() *domain.Order {
	o := &domain.Order{
		ID:     r.ID,
		Number: r.Number,
		Contact: domain.Contact{
			Email:     r.Email,
			Phone:     r.Phone,
			FirstName: r.FirstName,
			LastName:  r.LastName,
		},
		Shipping: domain.Shipping{
			Country:    r.Country,
			City:       r.City,
			Street:     r.Street,
			PostalCode: r.PostalCode,
			Apartment:  r.Apartment,
			Notes:      r.Notes,
		},
		Subtotal:      r.Subtotal,
		ShippingFee:   r.ShippingFee,
		Total:         r.Total,
		Currency:      r.Currency,
		PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
		Status:        domain.Status(r.Status),
		Locale:        r.Locale,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Lines:         make([]domain.Line, 0, len(r.Lines)),
	}
	if r.UserID != nil {
		o.UserID = *r.UserID
	}
	for _, l := range r.Lines {
		o.Lines = append(o.Lines, domain.Line{
			VariantID:   l.VariantID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			VolumeML:    l.VolumeML,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			LineTotal:   l.LineTotal,
		})
	}
	return o
}

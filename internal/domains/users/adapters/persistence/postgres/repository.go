package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aromaline/storefront/internal/domains/users/domain"
	"github.com/aromaline/storefront/internal/domains/users/ports"
)

var (
	_ ports.Repository        = (*Repository)(nil)
	_ ports.AddressRepository = (*Repository)(nil)
)

// Repository persists users and address books in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type userRecord struct {
	ID            string    `gorm:"primaryKey;column:id"`
	Email         string    `gorm:"column:email"`
	Phone         string    `gorm:"column:phone"`
	PhoneVerified bool      `gorm:"column:phone_verified"`
	FirstName     string    `gorm:"column:first_name"`
	LastName      string    `gorm:"column:last_name"`
	Locale        string    `gorm:"column:locale"`
	PasswordHash  string    `gorm:"column:password_hash"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

type addressRecord struct {
	ID         string    `gorm:"primaryKey;column:id"`
	UserID     string    `gorm:"column:user_id"`
	Label      string    `gorm:"column:label"`
	FirstName  string    `gorm:"column:first_name"`
	LastName   string    `gorm:"column:last_name"`
	Phone      string    `gorm:"column:phone"`
	Country    string    `gorm:"column:country"`
	City       string    `gorm:"column:city"`
	Street     string    `gorm:"column:street"`
	PostalCode string    `gorm:"column:postal_code"`
	Apartment  string    `gorm:"column:apartment"`
	IsDefault  bool      `gorm:"column:is_default"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (addressRecord) TableName() string { return "addresses" }

func (r *Repository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user is nil")
	}
	record := toRecord(user)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ports.ErrEmailTaken
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Update writes the mutable profile columns. Email and password are fixed.
func (r *Repository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user is nil")
	}
	result := r.db.WithContext(ctx).Model(&userRecord{}).Where("id = ?", user.ID).Updates(map[string]any{
		"phone":          user.Phone,
		"phone_verified": user.PhoneVerified,
		"first_name":     user.FirstName,
		"last_name":      user.LastName,
		"locale":         user.Locale,
		"updated_at":     user.UpdatedAt,
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return r.GetByID(ctx, user.ID)
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", domain.NormalizeEmail(email))
}

func (r *Repository) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record userRecord
	if err := r.db.WithContext(ctx).First(&record, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return loadAddresses(r.db.WithContext(ctx), userID)
}

// UpdateAddresses locks the user row so concurrent edits of one book serialize.
func (r *Repository) UpdateAddresses(ctx context.Context, userID string, fn func(*domain.AddressBook) error) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner userRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&owner, "id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ErrNotFound
		}
		if err != nil {
			return err
		}
		current, err := loadAddresses(tx, userID)
		if err != nil {
			return err
		}
		book := domain.NewAddressBook(userID, current)
		if err := fn(book); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&addressRecord{}).Error; err != nil {
			return err
		}
		next := book.Addresses()
		if len(next) == 0 {
			return nil
		}
		records := make([]addressRecord, 0, len(next))
		for _, a := range next {
			records = append(records, toAddressRecord(a))
		}
		return tx.Create(&records).Error
	})
}

func loadAddresses(db *gorm.DB, userID string) ([]domain.Address, error) {
	var records []addressRecord
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Address, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toDomain())
	}
	return out, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres user repository not configured")
	}
	return nil
}

func toRecord(u *domain.User) userRecord {
	return userRecord{
		ID:            u.ID,
		Email:         u.Email,
		Phone:         u.Phone,
		PhoneVerified: u.PhoneVerified,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Locale:        u.Locale,
		PasswordHash:  u.PasswordHash,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (r userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:            r.ID,
		Email:         r.Email,
		Phone:         r.Phone,
		PhoneVerified: r.PhoneVerified,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Locale:        r.Locale,
		PasswordHash:  r.PasswordHash,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func toAddressRecord(a domain.Address) addressRecord {
	return addressRecord{
		ID: a.ID, UserID: a.UserID, Label: a.Label, FirstName: a.FirstName, LastName: a.LastName,
		Phone: a.Phone, Country: a.Country, City: a.City, Street: a.Street, PostalCode: a.PostalCode,
		Apartment: a.Apartment, IsDefault: a.IsDefault, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt,
	}
}

func (r addressRecord) toDomain() domain.Address {
	return domain.Address{
		ID: r.ID, UserID: r.UserID, Label: r.Label, FirstName: r.FirstName, LastName: r.LastName,
		Phone: r.Phone, Country: r.Country, City: r.City, Street: r.Street, PostalCode: r.PostalCode,
		Apartment: r.Apartment, IsDefault: r.IsDefault, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

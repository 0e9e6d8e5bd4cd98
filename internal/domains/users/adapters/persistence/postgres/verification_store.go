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

var _ ports.VerificationStore = (*VerificationStore)(nil)

// VerificationStore keeps one pending phone code per user.
type VerificationStore struct {
	db *gorm.DB
}

func NewVerificationStore(db *gorm.DB) *VerificationStore {
	return &VerificationStore{db: db}
}

type verificationRecord struct {
	UserID    string    `gorm:"primaryKey;column:user_id"`
	Phone     string    `gorm:"column:phone"`
	CodeHash  string    `gorm:"column:code_hash"`
	Attempts  int       `gorm:"column:attempts"`
	SentAt    time.Time `gorm:"column:sent_at"`
	ExpiresAt time.Time `gorm:"column:expires_at"`
}

func (verificationRecord) TableName() string { return "phone_verifications" }

func (s *VerificationStore) Get(ctx context.Context, userID string) (*domain.Verification, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var rec verificationRecord
	if err := s.db.WithContext(ctx).First(&rec, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	v := domain.Verification(rec)
	return &v, nil
}

func (s *VerificationStore) Save(ctx context.Context, verification domain.Verification) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	rec := verificationRecord(verification)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"phone", "code_hash", "attempts", "sent_at", "expires_at"}),
		}).
		Create(&rec).Error
}

// SpendAttempt increments attempts only while the code is live and under the
// limit. When no row qualifies, the current row explains why.
func (s *VerificationStore) SpendAttempt(ctx context.Context, userID, phone string, now time.Time) (*domain.Verification, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var rec verificationRecord
	res := s.db.WithContext(ctx).Raw(`UPDATE phone_verifications
		SET attempts = attempts + 1
		WHERE user_id = ? AND phone = ? AND expires_at > ? AND attempts < ?
		RETURNING user_id, phone, code_hash, attempts, sent_at, expires_at`,
		userID, domain.NormalizePhone(phone), now, domain.MaxCodeAttempts).Scan(&rec)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		v := domain.Verification(rec)
		return &v, nil
	}
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNoPendingVerification
	}
	if err := current.CheckAttempt(phone, now); err != nil {
		return nil, err
	}
	return nil, domain.ErrTooManyAttempts
}

func (s *VerificationStore) Delete(ctx context.Context, userID string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&verificationRecord{}, "user_id = ?", userID).Error
}

func (s *VerificationStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres verification store not configured")
	}
	return nil
}

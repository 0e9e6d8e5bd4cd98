package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxCommentLength = 2000

var (
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong  = errors.New("review comment is too long")
	ErrInvalidReviewer = errors.New("review requires an authenticated user")
)

// Review is a customer's rating of a product.
type Review struct {
	ID         int64
	ProductID  int64
	UserID     string
	AuthorName string
	Rating     int
	Comment    string
	CreatedAt  time.Time
}

// NewReview validates and constructs a review.
func NewReview(productID int64, userID, authorName string, rating int, comment string) (*Review, error) {
	r := &Review{
		ProductID:  productID,
		UserID:     strings.TrimSpace(userID),
		AuthorName: strings.TrimSpace(authorName),
		Rating:     rating,
		Comment:    strings.TrimSpace(comment),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Review) Validate() error {
	if r.UserID == "" {
		return ErrInvalidReviewer
	}
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	if utf8.RuneCountInString(r.Comment) > maxCommentLength {
		return ErrCommentTooLong
	}
	return nil
}

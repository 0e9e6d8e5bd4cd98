package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/aromaline/storefront/internal/domains/orders/domain"
	"github.com/aromaline/storefront/internal/domains/orders/ports"
)

type normalizedCheckout struct {
	UserID        string                `json:"userId"`
	GuestToken    string                `json:"guestToken"`
	Items         []domain.CheckoutItem `json:"items"`
	Contact       domain.Contact        `json:"contact"`
	Shipping      domain.Shipping       `json:"shipping"`
	PaymentMethod domain.PaymentMethod  `json:"paymentMethod"`
}

// FingerprintCheckout hashes the checkout payload, excluding the idempotency key.
// Item order does not change the fingerprint.
func FingerprintCheckout(cmd ports.CheckoutCommand) (string, error) {
	req := cmd.Request.Normalize()
	items := req.MergedItems()
	sort.Slice(items, func(i, j int) bool { return items[i].VariantID < items[j].VariantID })
	payload, err := json.Marshal(normalizedCheckout{
		UserID:        cmd.UserID,
		GuestToken:    cmd.GuestToken,
		Items:         items,
		Contact:       req.Contact,
		Shipping:      req.Shipping,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

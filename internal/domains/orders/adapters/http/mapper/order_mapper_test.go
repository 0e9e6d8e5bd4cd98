package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aromaline/storefront/internal/domains/orders/domain"
	"github.com/aromaline/storefront/internal/shared/projection"
)

func TestFromDomainOrder_RendersMoneyAsFixedStrings(t *testing.T) {
	o := &domain.Order{
		Number: "PF-0A1B2C3D",
		Status: domain.StatusPending,
		Lines: []domain.Line{{
			VariantID: 1, ProductID: 2, ProductName: "Amber Veil", VolumeML: 50,
			UnitPrice: decimal.RequireFromString("45"), Quantity: 2, LineTotal: decimal.RequireFromString("90"),
		}},
		Subtotal:      decimal.RequireFromString("90"),
		ShippingFee:   decimal.RequireFromString("7"),
		Total:         decimal.RequireFromString("97"),
		Currency:      "EUR",
		PaymentMethod: domain.PaymentCashOnDelivery,
		CreatedAt:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	out := FromDomainOrder(o)
	assert.Equal(t, "90.00", out.Subtotal)
	assert.Equal(t, "7.00", out.ShippingFee)
	assert.Equal(t, "97.00", out.Total)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, "45.00", out.Lines[0].UnitPrice)
	assert.Equal(t, "cash_on_delivery", out.PaymentMethod)
}

func TestFromDomainPage_TotalPages(t *testing.T) {
	page := FromDomainPage(projection.Page[*domain.Order]{Items: []*domain.Order{{Number: "PF-1"}}, Total: 21, Page: 1, PageSize: 10})
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "PF-1", page.Items[0].Number)
}

func TestCheckoutInput_IgnoresClientPrices(t *testing.T) {
	var in CheckoutInput
	body := `{"items":[{"variantId":3,"quantity":2,"price":"0.01"}],"paymentMethod":"online","contact":{"email":"a@b.io"}}`
	require.NoError(t, json.Unmarshal([]byte(body), &in))

	req := ToDomainRequest(in)
	assert.Equal(t, []domain.CheckoutItem{{VariantID: 3, Quantity: 2}}, req.Items)
	assert.Equal(t, domain.PaymentOnline, req.PaymentMethod)
	assert.Equal(t, "a@b.io", req.Contact.Email)
}

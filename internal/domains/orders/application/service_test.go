package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogmemory "github.com/aromaline/storefront/internal/domains/catalog/adapters/memory"
	catalogapp "github.com/aromaline/storefront/internal/domains/catalog/application"
	catalogdomain "github.com/aromaline/storefront/internal/domains/catalog/domain"
	orderscatalog "github.com/aromaline/storefront/internal/domains/orders/adapters/catalog"
	"github.com/aromaline/storefront/internal/domains/orders/adapters/memory"
	"github.com/aromaline/storefront/internal/domains/orders/domain"
	"github.com/aromaline/storefront/internal/domains/orders/ports"
)

type recordingCarts struct {
	mu      sync.Mutex
	cleared [][2]string
}

func (r *recordingCarts) Clear(_ context.Context, userID, guestToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared = append(r.cleared, [2]string{userID, guestToken})
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingPublisher) Publish(_ context.Context, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

type fixture struct {
	svc       *Service
	stock     *catalogmemory.Repository
	carts     *recordingCarts
	publisher *recordingPublisher
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	stock := catalogmemory.NewRepository()
	_, err := stock.Save(ctx, &catalogdomain.Product{
		ID: 1, Slug: "amber-veil", Name: "Amber Veil", Brand: "Maison Test", Active: true,
		Variants: []catalogdomain.Variant{
			{ID: 11, SKU: "AV-50", VolumeML: 50, Price: decimal.RequireFromString("45.00"), Stock: 5},
			{ID: 12, SKU: "AV-100", VolumeML: 100, Price: decimal.RequireFromString("80.00"), Stock: 2},
		},
	})
	require.NoError(t, err)
	_, err = stock.Save(ctx, &catalogdomain.Product{
		ID: 2, Slug: "retired", Name: "Retired", Brand: "Maison Test", Active: false,
		Variants: []catalogdomain.Variant{{ID: 21, SKU: "RT-50", VolumeML: 50, Price: decimal.RequireFromString("10.00"), Stock: 9}},
	})
	require.NoError(t, err)

	prices := orderscatalog.NewPrices(catalogapp.NewService(stock, nil))
	carts := &recordingCarts{}
	publisher := &recordingPublisher{}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(memory.NewRepository(stock), prices,
		WithCarts(carts),
		WithPublisher(publisher),
		WithIdempotencyStore(memory.NewIdempotencyStore()),
		WithClock(func() time.Time { return now }),
	)
	return fixture{svc: svc, stock: stock, carts: carts, publisher: publisher}
}

func validRequest(items ...domain.CheckoutItem) domain.CheckoutRequest {
	return domain.CheckoutRequest{
		Items:         items,
		Contact:       domain.Contact{Email: " Jane@Example.com ", Phone: "+33612345678", FirstName: "Jane", LastName: "Doe"},
		Shipping:      domain.Shipping{Country: "FR", City: "Paris", Street: "1 rue de Rivoli"},
		PaymentMethod: domain.PaymentCashOnDelivery,
	}
}

func stockOf(t *testing.T, repo *catalogmemory.Repository, productID, variantID int64) int {
	t.Helper()
	p, err := repo.GetByID(context.Background(), productID)
	require.NoError(t, err)
	v, ok := p.Variant(variantID)
	require.True(t, ok)
	return v.Stock
}

func TestCheckout_PricesFromCatalogAndReservesStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.svc.Checkout(ctx, ports.CheckoutCommand{
		Request:    validRequest(domain.CheckoutItem{VariantID: 11, Quantity: 2}),
		GuestToken: "guest-token",
		Locale:     "en",
	})
	require.NoError(t, err)

	order := result.Order
	assert.False(t, result.Replayed)
	assert.Regexp(t, `^PF-[0-9A-F]{8}$`, order.Number)
	assert.Equal(t, "jane@example.com", order.Contact.Email)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, "90.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "7.00", order.ShippingFee.StringFixed(2))
	assert.Equal(t, "97.00", order.Total.StringFixed(2))
	assert.Equal(t, 3, stockOf(t, f.stock, 1, 11))

	assert.Equal(t, [][2]string{{"", "guest-token"}}, f.carts.cleared)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "orders.order.placed", f.publisher.events[0].EventName())
}

func TestCheckout_FreeShippingAtThreshold(t *testing.T) {
	f := setup(t)

	result, err := f.svc.Checkout(context.Background(), ports.CheckoutCommand{
		Request: validRequest(domain.CheckoutItem{VariantID: 11, Quantity: 1}, domain.CheckoutItem{VariantID: 12, Quantity: 1}),
		UserID:  "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "125.00", result.Order.Subtotal.StringFixed(2))
	assert.True(t, result.Order.ShippingFee.IsZero())
	assert.Equal(t, "125.00", result.Order.Total.StringFixed(2))
}

func TestCheckout_ValidationErrorsCarryFields(t *testing.T) {
	f := setup(t)
	req := validRequest(domain.CheckoutItem{VariantID: 11, Quantity: 0})
	req.Contact.Phone = "0612"
	req.PaymentMethod = "barter"

	_, err := f.svc.Checkout(context.Background(), ports.CheckoutCommand{Request: req})
	require.ErrorIs(t, err, ErrInvalidInput)
	fields, ok := FieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, domain.MsgQuantity, fields["items[0].quantity"])
	assert.Equal(t, domain.MsgPhone, fields["contact.phone"])
	assert.Equal(t, domain.MsgPaymentMethod, fields["paymentMethod"])
	assert.Empty(t, f.publisher.events)
}

func TestCheckout_UnavailableVariantIsFieldError(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Checkout(context.Background(), ports.CheckoutCommand{
		Request: validRequest(domain.CheckoutItem{VariantID: 11, Quantity: 1}, domain.CheckoutItem{VariantID: 21, Quantity: 1}),
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	fields, _ := FieldErrors(err)
	assert.Equal(t, domain.MsgVariant, fields["items[1].variantId"])
	assert.Equal(t, 5, stockOf(t, f.stock, 1, 11))
}

func TestCheckout_MergedQuantityAboveLimit(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Checkout(context.Background(), ports.CheckoutCommand{
		Request: validRequest(domain.CheckoutItem{VariantID: 11, Quantity: 6}, domain.CheckoutItem{VariantID: 11, Quantity: 5}),
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	fields, _ := FieldErrors(err)
	assert.Equal(t, domain.MsgQuantity, fields["items[0].quantity"])
}

func TestCheckout_InsufficientStockLeavesStockUntouched(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Checkout(context.Background(), ports.CheckoutCommand{
		Request: validRequest(domain.CheckoutItem{VariantID: 11, Quantity: 1}, domain.CheckoutItem{VariantID: 12, Quantity: 3}),
	})
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, ports.ErrInsufficientStock)
	assert.Equal(t, 5, stockOf(t, f.stock, 1, 11))
	assert.Equal(t, 2, stockOf(t, f.stock, 1, 12))
	assert.Empty(t, f.carts.cleared)
}

func TestCheckout_IdempotentReplay(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cmd := ports.CheckoutCommand{
		Request:        validRequest(domain.CheckoutItem{VariantID: 11, Quantity: 1}),
		UserID:         "user-1",
		IdempotencyKey: "key-1",
	}

	first, err := f.svc.Checkout(ctx, cmd)
	require.NoError(t, err)
	second, err := f.svc.Checkout(ctx, cmd)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.Number, second.Order.Number)
	assert.Equal(t, 4, stockOf(t, f.stock, 1, 11))
	assert.Len(t, f.publisher.events, 1)
	assert.Len(t, f.carts.cleared, 1)
}

func TestCheckout_IdempotencyKeyReusedWithDifferentPayload(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cmd := ports.CheckoutCommand{
		Request:        validRequest(domain.CheckoutItem{VariantID: 11, Quantity: 1}),
		UserID:         "user-1",
		IdempotencyKey: "key-1",
	}
	_, err := f.svc.Checkout(ctx, cmd)
	require.NoError(t, err)

	cmd.Request = validRequest(domain.CheckoutItem{VariantID: 11, Quantity: 2})
	_, err = f.svc.Checkout(ctx, cmd)
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

func TestCheckout_IdempotencyKeyScopedPerCustomer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cmd := ports.CheckoutCommand{
		Request:        validRequest(domain.CheckoutItem{VariantID: 11, Quantity: 1}),
		UserID:         "user-1",
		IdempotencyKey: "shared",
	}
	first, err := f.svc.Checkout(ctx, cmd)
	require.NoError(t, err)

	cmd.UserID = ""
	cmd.GuestToken = "guest-token"
	second, err := f.svc.Checkout(ctx, cmd)
	require.NoError(t, err)

	assert.False(t, second.Replayed)
	assert.NotEqual(t, first.Order.Number, second.Order.Number)
	assert.Equal(t, 3, stockOf(t, f.stock, 1, 11))
}

type slowCatalog struct {
	ports.Catalog
	delay time.Duration
}

func (c slowCatalog) Prices(ctx context.Context, ids []int64, locale string) (map[int64]ports.VariantPrice, error) {
	time.Sleep(c.delay)
	return c.Catalog.Prices(ctx, ids, locale)
}

func TestCheckout_ConcurrentRetriesShareOneOrder(t *testing.T) {
	f := setup(t)
	prices := slowCatalog{Catalog: orderscatalog.NewPrices(catalogapp.NewService(f.stock, nil)), delay: 50 * time.Millisecond}
	svc := NewService(memory.NewRepository(f.stock), prices,
		WithIdempotencyStore(memory.NewIdempotencyStore()),
		WithKeyWait(5*time.Second, 5*time.Millisecond),
	)
	cmd := ports.CheckoutCommand{
		Request:        validRequest(domain.CheckoutItem{VariantID: 11, Quantity: 1}),
		GuestToken:     "guest-1",
		IdempotencyKey: "k1",
	}

	const callers = 4
	results := make([]*ports.CheckoutResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Checkout(context.Background(), cmd)
		}(i)
	}
	wg.Wait()

	replayed := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Order.Number, results[i].Order.Number)
		if results[i].Replayed {
			replayed++
		}
	}
	assert.Equal(t, callers-1, replayed)
	assert.Equal(t, 4, stockOf(t, f.stock, 1, 11))
}

func TestCheckout_FailedCheckoutReleasesKey(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cmd := ports.CheckoutCommand{
		Request:        validRequest(domain.CheckoutItem{VariantID: 12, Quantity: 3}),
		UserID:         "user-1",
		IdempotencyKey: "retry-me",
	}
	_, err := f.svc.Checkout(ctx, cmd)
	require.ErrorIs(t, err, ports.ErrInsufficientStock)

	require.NoError(t, f.stock.AdjustStock(ctx, map[int64]int{12: 5}))
	result, err := f.svc.Checkout(ctx, cmd)
	require.NoError(t, err)
	assert.False(t, result.Replayed)
	assert.Equal(t, 4, stockOf(t, f.stock, 1, 12))
}

func TestGetOrder_OwnerOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	result, err := f.svc.Checkout(ctx, ports.CheckoutCommand{
		Request: validRequest(domain.CheckoutItem{VariantID: 11, Quantity: 1}),
		UserID:  "user-1",
	})
	require.NoError(t, err)

	got, err := f.svc.GetOrder(ctx, "user-1", " "+result.Order.Number+" ")
	require.NoError(t, err)
	assert.Equal(t, result.Order.ID, got.ID)

	_, err = f.svc.GetOrder(ctx, "user-2", result.Order.Number)
	require.ErrorIs(t, err, ports.ErrNotFound)
	_, err = f.svc.GetOrder(ctx, "", result.Order.Number)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestLookupGuestOrder_RequiresMatchingEmail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	result, err := f.svc.Checkout(ctx, ports.CheckoutCommand{
		Request:    validRequest(domain.CheckoutItem{VariantID: 11, Quantity: 1}),
		GuestToken: "guest-token",
	})
	require.NoError(t, err)

	got, err := f.svc.LookupGuestOrder(ctx, result.Order.Number, "JANE@example.com")
	require.NoError(t, err)
	assert.Equal(t, result.Order.Number, got.Number)

	_, err = f.svc.LookupGuestOrder(ctx, result.Order.Number, "someone@example.com")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestCancelOrder_RestocksOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	result, err := f.svc.Checkout(ctx, ports.CheckoutCommand{
		Request: validRequest(domain.CheckoutItem{VariantID: 12, Quantity: 2}),
		UserID:  "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, f.stock, 1, 12))

	cancelled, err := f.svc.CancelOrder(ctx, "user-1", result.Order.Number)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, 2, stockOf(t, f.stock, 1, 12))

	_, err = f.svc.CancelOrder(ctx, "user-1", result.Order.Number)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 2, stockOf(t, f.stock, 1, 12))
	assert.Equal(t, "orders.order.cancelled", f.publisher.events[len(f.publisher.events)-1].EventName())
}

func TestClaimGuestOrders_AttachesByEmail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.Checkout(ctx, ports.CheckoutCommand{
		Request:    validRequest(domain.CheckoutItem{VariantID: 11, Quantity: 1}),
		GuestToken: "guest-token",
	})
	require.NoError(t, err)

	n, err := f.svc.ClaimGuestOrders(ctx, "user-9", "jane@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	page, err := f.svc.ListOrders(ctx, "user-9", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, defaultPageSize, page.PageSize)

	n, err = f.svc.ClaimGuestOrders(ctx, "user-10", "jane@example.com")
	require.NoError(t, err)
	assert.Zero(t, n)
}

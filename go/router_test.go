package storefrontserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	storefrontserver "github.com/aromaline/storefront/go"
	cartcatalog "github.com/aromaline/storefront/internal/domains/cart/adapters/catalog"
	cartmemory "github.com/aromaline/storefront/internal/domains/cart/adapters/memory"
	cartapp "github.com/aromaline/storefront/internal/domains/cart/application"
	catalogmemory "github.com/aromaline/storefront/internal/domains/catalog/adapters/memory"
	catalogapp "github.com/aromaline/storefront/internal/domains/catalog/application"
	catalogdomain "github.com/aromaline/storefront/internal/domains/catalog/domain"
	favoritescatalog "github.com/aromaline/storefront/internal/domains/favorites/adapters/catalog"
	favoritesmemory "github.com/aromaline/storefront/internal/domains/favorites/adapters/memory"
	favoritesapp "github.com/aromaline/storefront/internal/domains/favorites/application"
	orderscart "github.com/aromaline/storefront/internal/domains/orders/adapters/cart"
	orderscatalog "github.com/aromaline/storefront/internal/domains/orders/adapters/catalog"
	ordersmemory "github.com/aromaline/storefront/internal/domains/orders/adapters/memory"
	ordersapp "github.com/aromaline/storefront/internal/domains/orders/application"
	usersmemory "github.com/aromaline/storefront/internal/domains/users/adapters/memory"
	usersorders "github.com/aromaline/storefront/internal/domains/users/adapters/orders"
	usersapp "github.com/aromaline/storefront/internal/domains/users/application"
	"github.com/aromaline/storefront/internal/platform/applog"
	"github.com/aromaline/storefront/internal/platform/i18n"
	"github.com/aromaline/storefront/internal/platform/ratelimit"
)

type discardSink struct{ entries []applog.Entry }

func (s *discardSink) Write(_ context.Context, entries []applog.Entry) error {
	s.entries = append(s.entries, entries...)
	return nil
}

func newTestRouter(t *testing.T, policies storefrontserver.Policies) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	products := catalogmemory.NewRepository()
	_, err := products.Save(ctx, &catalogdomain.Product{
		ID: 1, Slug: "amber-veil", Name: "Amber Veil", Brand: "Maison Test", Active: true,
		Gender: catalogdomain.GenderUnisex, Family: "amber", Concentration: catalogdomain.ConcentrationEDP,
		Variants: []catalogdomain.Variant{
			{ID: 11, SKU: "AV-50", VolumeML: 50, Price: decimal.RequireFromString("45.00"), Stock: 5},
			{ID: 12, SKU: "AV-100", VolumeML: 100, Price: decimal.RequireFromString("80.00"), Stock: 2},
		},
	})
	require.NoError(t, err)

	catalogService := catalogapp.NewService(products, catalogmemory.NewReviewRepository())
	cartService := cartapp.NewService(cartmemory.NewRepository(), cartcatalog.NewLookup(catalogService))
	favoritesService := favoritesapp.NewService(favoritesmemory.NewRepository(), favoritescatalog.NewLookup(catalogService))
	ordersService := ordersapp.NewService(ordersmemory.NewRepository(products), orderscatalog.NewPrices(catalogService),
		ordersapp.WithCarts(orderscart.NewClearer(cartService)),
		ordersapp.WithIdempotencyStore(ordersmemory.NewIdempotencyStore()),
	)
	users := usersmemory.NewRepository()
	userService := usersapp.NewService(users, usersmemory.NewSessionStore(),
		usersapp.WithAddressRepository(users),
		usersapp.WithCarts(cartService),
		usersapp.WithGuestOrders(usersorders.NewGuestOrders(ordersService)),
		usersapp.WithBcryptCost(bcrypt.MinCost),
	)

	handlers := storefrontserver.ApiHandleFunctions{
		CatalogAPI:   storefrontserver.NewCatalogAPI(catalogService),
		CartAPI:      storefrontserver.NewCartAPI(cartService),
		FavoritesAPI: storefrontserver.NewFavoritesAPI(favoritesService),
		OrdersAPI:    storefrontserver.NewOrdersAPI(ordersService, nil),
		AuthAPI:      storefrontserver.NewAuthAPI(userService),
		AccountAPI:   storefrontserver.NewAccountAPI(userService),
		LogsAPI:      storefrontserver.NewLogsAPI(applog.NewService(&discardSink{})),
	}
	return storefrontserver.NewRouter(handlers, storefrontserver.RouterOptions{
		Auth:     userService,
		I18n:     i18n.MustLoad(),
		Limiter:  ratelimit.NewMemoryLimiter(),
		Policies: policies,
	})
}

type call struct {
	method  string
	path    string
	body    any
	headers map[string]string
}

func do(t *testing.T, router http.Handler, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func validCheckout() map[string]any {
	return map[string]any{
		"items":         []map[string]any{{"variantId": 11, "quantity": 2}},
		"contact":       map[string]any{"email": "guest@example.com", "phone": "+33612345678", "firstName": "Ana", "lastName": "Guest"},
		"shipping":      map[string]any{"country": "FR", "city": "Paris", "street": "1 rue de Rivoli"},
		"paymentMethod": "cash_on_delivery",
	}
}

func TestProducts_ListAndNotFoundProblem(t *testing.T) {
	router := newTestRouter(t, storefrontserver.Policies{})

	rec := do(t, router, call{method: http.MethodGet, path: "/api/v1/products"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "en", rec.Header().Get("Content-Language"))
	page := decode(t, rec)
	assert.EqualValues(t, 1, page["total"])

	rec = do(t, router, call{method: http.MethodGet, path: "/api/v1/products/unknown"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	problem := decode(t, rec)
	assert.Equal(t, "/problems/not-found", problem["type"])
	assert.Equal(t, "Resource Not Found", problem["title"])
	assert.EqualValues(t, http.StatusNotFound, problem["status"])
	assert.Equal(t, "/api/v1/products/unknown", problem["instance"])
}

func TestProducts_InvalidFilter(t *testing.T) {
	router := newTestRouter(t, storefrontserver.Policies{})
	rec := do(t, router, call{method: http.MethodGet, path: "/api/v1/products?page=abc"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	assert.Contains(t, fields, "page")
}

func TestProtectedRoutes_RequireSession(t *testing.T) {
	router := newTestRouter(t, storefrontserver.Policies{})

	rec := do(t, router, call{method: http.MethodGet, path: "/api/v1/favorites"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Please sign in to continue.", decode(t, rec)["detail"])

	rec = do(t, router, call{method: http.MethodGet, path: "/api/v1/me", headers: map[string]string{
		"Authorization":   "Bearer not-a-session",
		"Accept-Language": "fr-FR,fr;q=0.9",
	}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "fr", rec.Header().Get("Content-Language"))
	problem := decode(t, rec)
	assert.Equal(t, "Non authentifié", problem["title"])
	assert.Equal(t, "Veuillez vous connecter pour continuer.", problem["detail"])
}

func TestCheckout_MissingFields(t *testing.T) {
	router := newTestRouter(t, storefrontserver.Policies{})
	rec := do(t, router, call{method: http.MethodPost, path: "/api/v1/checkout", body: map[string]any{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	fields := decode(t, rec)["fields"].(map[string]any)
	for _, name := range []string{"items", "contact.email", "contact.phone", "shipping.city", "paymentMethod"} {
		assert.Contains(t, fields, name)
	}
	assert.Equal(t, "This field is required.", fields["contact.email"])
	assert.Equal(t, "Your cart is empty.", fields["items"])
}

func TestGuestCheckout_IdempotentAndClearsCart(t *testing.T) {
	router := newTestRouter(t, storefrontserver.Policies{})

	rec := do(t, router, call{method: http.MethodPost, path: "/api/v1/cart/items", body: map[string]any{"variantId": 11, "quantity": 2}})
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get(storefrontserver.CartTokenHeader)
	require.NotEmpty(t, token)
	assert.Equal(t, "90.00", decode(t, rec)["subtotal"])

	headers := map[string]string{storefrontserver.CartTokenHeader: token, storefrontserver.IdempotencyKeyHeader: "key-1"}
	rec = do(t, router, call{method: http.MethodPost, path: "/api/v1/checkout", body: validCheckout(), headers: headers})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode(t, rec)
	assert.Equal(t, "90.00", order["subtotal"])
	assert.Equal(t, "7.00", order["shippingFee"])
	assert.Equal(t, "97.00", order["total"])
	assert.Contains(t, order["message"], order["number"])

	rec = do(t, router, call{method: http.MethodPost, path: "/api/v1/checkout", body: validCheckout(), headers: headers})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order["number"], decode(t, rec)["number"])

	rec = do(t, router, call{method: http.MethodGet, path: "/api/v1/cart", headers: map[string]string{storefrontserver.CartTokenHeader: token}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["lines"])

	rec = do(t, router, call{method: http.MethodPost, path: "/api/v1/orders/lookup", body: map[string]any{
		"number": order["number"], "email": "GUEST@example.com",
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", decode(t, rec)["status"])
}

func TestCheckout_InsufficientStock(t *testing.T) {
	router := newTestRouter(t, storefrontserver.Policies{})
	body := validCheckout()
	body["items"] = []map[string]any{{"variantId": 12, "quantity": 3}}
	rec := do(t, router, call{method: http.MethodPost, path: "/api/v1/checkout", body: body})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Some items are no longer available in the requested quantity.", decode(t, rec)["detail"])
}

func TestAuth_RegisterProfileAndLogin(t *testing.T) {
	router := newTestRouter(t, storefrontserver.Policies{})

	rec := do(t, router, call{method: http.MethodPost, path: "/api/v1/auth/register", body: map[string]any{
		"email": "jane@example.com", "password": "short",
	}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	assert.Equal(t, "Password must be at least 8 characters long.", fields["password"])

	rec = do(t, router, call{method: http.MethodPost, path: "/api/v1/auth/register", body: map[string]any{
		"email": "jane@example.com", "password": "correct-horse", "firstName": "Jane",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decode(t, rec)
	token := session["token"].(string)
	require.NotEmpty(t, token)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	rec = do(t, router, call{method: http.MethodPost, path: "/api/v1/auth/register", body: map[string]any{
		"email": "jane@example.com", "password": "correct-horse",
	}})
	require.Equal(t, http.StatusConflict, rec.Code)

	auth := map[string]string{"Authorization": "Bearer " + token}
	rec = do(t, router, call{method: http.MethodGet, path: "/api/v1/me", headers: auth})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jane@example.com", decode(t, rec)["email"])

	rec = do(t, router, call{method: http.MethodPost, path: "/api/v1/me/addresses", headers: auth, body: map[string]any{
		"country": "FR", "city": "Paris", "street": "1 rue de Rivoli",
	}})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, decode(t, rec)["isDefault"])

	rec = do(t, router, call{method: http.MethodPost, path: "/api/v1/auth/login", body: map[string]any{
		"email": "jane@example.com", "password": "wrong-password",
	}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Email or password is incorrect.", decode(t, rec)["detail"])

	rec = do(t, router, call{method: http.MethodPost, path: "/api/v1/auth/logout", headers: auth})
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, call{method: http.MethodGet, path: "/api/v1/me", headers: auth})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimit_Returns429WithRetryAfter(t *testing.T) {
	policies := storefrontserver.DefaultPolicies()
	policies.Auth = ratelimit.Policy{Name: "auth", Limit: 2, Window: time.Minute}
	router := newTestRouter(t, policies)

	login := call{method: http.MethodPost, path: "/api/v1/auth/login", body: map[string]any{"email": "x@example.com", "password": "whatever-pass"}}
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusUnauthorized, do(t, router, login).Code)
	}
	rec := do(t, router, login)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	problem := decode(t, rec)
	assert.EqualValues(t, 60, problem["retryAfter"])
	assert.NotContains(t, problem, "messageKey")
}

func TestLogs_Validation(t *testing.T) {
	router := newTestRouter(t, storefrontserver.Policies{})

	rec := do(t, router, call{method: http.MethodPost, path: "/api/v1/logs", body: map[string]any{"level": "fatal", "message": "boom"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["fields"], "level")

	rec = do(t, router, call{method: http.MethodPost, path: "/api/v1/logs", body: []map[string]any{
		{"level": "error", "message": "checkout button broken", "url": "/checkout"},
	}})
	require.Equal(t, http.StatusAccepted, rec.Code)
}

// Package storefrontserver is the gin transport for the storefront API.
package storefrontserver

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aromaline/storefront/internal/platform/health"
	"github.com/aromaline/storefront/internal/platform/httpmetrics"
	"github.com/aromaline/storefront/internal/platform/i18n"
	"github.com/aromaline/storefront/internal/platform/ratelimit"
)

// BasePath prefixes every storefront route.
const BasePath = "/api/v1"

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
	// Middleware runs before HandlerFunc, e.g. auth or rate limits.
	Middleware []gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers of every API section.
type ApiHandleFunctions struct {
	CatalogAPI   CatalogAPI
	CartAPI      CartAPI
	FavoritesAPI FavoritesAPI
	OrdersAPI    OrdersAPI
	AuthAPI      AuthAPI
	AccountAPI   AccountAPI
	LogsAPI      LogsAPI
}

// RouterOptions carries the cross-cutting dependencies of the router.
type RouterOptions struct {
	Auth     Authenticator
	I18n     *i18n.Bundle
	Limiter  ratelimit.Limiter
	Policies Policies
	Metrics  *httpmetrics.Metrics
	Health   *health.Handler
	Logger   *slog.Logger
}

// Policies selects the rate limit applied to each protected surface.
type Policies struct {
	Auth     ratelimit.Policy
	OTP      ratelimit.Policy
	Checkout ratelimit.Policy
	Logs     ratelimit.Policy
}

// DefaultPolicies returns the built-in limits.
func DefaultPolicies() Policies {
	return Policies{
		Auth:     ratelimit.PolicyAuth,
		OTP:      ratelimit.PolicyOTP,
		Checkout: ratelimit.PolicyCheckout,
		Logs:     ratelimit.PolicyLogs,
	}
}

// NewRouter returns a new router with recovery and the storefront middleware installed.
func NewRouter(handleFunctions ApiHandleFunctions, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	return NewRouterWithGinEngine(router, handleFunctions, opts)
}

// NewRouterWithGinEngine adds the storefront routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions, opts RouterOptions) *gin.Engine {
	srv := newServer(opts)
	handleFunctions.bind(srv)

	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	if opts.Health != nil {
		router.GET("/healthz", opts.Health.Health)
		router.GET("/readyz", opts.Health.Readiness)
	}
	router.GET("/livez", health.Liveness)

	api := router.Group(BasePath)
	api.Use(srv.requestLogger(), srv.authenticate(), srv.localize())
	for _, route := range getRoutes(handleFunctions, srv) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		handlers := append(append([]gin.HandlerFunc{}, route.Middleware...), route.HandlerFunc)
		switch route.Method {
		case http.MethodGet:
			api.GET(route.Pattern, handlers...)
		case http.MethodPost:
			api.POST(route.Pattern, handlers...)
		case http.MethodPut:
			api.PUT(route.Pattern, handlers...)
		case http.MethodPatch:
			api.PATCH(route.Pattern, handlers...)
		case http.MethodDelete:
			api.DELETE(route.Pattern, handlers...)
		}
	}
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, BasePath) {
			srv.respondProblem(c, problemNotFound())
			return
		}
		c.Status(http.StatusNotFound)
	})
	return router
}

// DefaultHandleFunc is the default handler for routes without an implementation.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func (h *ApiHandleFunctions) bind(srv *server) {
	h.CatalogAPI.srv = srv
	h.CartAPI.srv = srv
	h.FavoritesAPI.srv = srv
	h.OrdersAPI.srv = srv
	h.AuthAPI.srv = srv
	h.AccountAPI.srv = srv
	h.LogsAPI.srv = srv
}

func getRoutes(h ApiHandleFunctions, srv *server) []Route {
	auth := srv.rateLimit(srv.policies.Auth)
	otp := srv.rateLimit(srv.policies.OTP)
	checkout := srv.rateLimit(srv.policies.Checkout)
	logs := srv.rateLimit(srv.policies.Logs)
	signedIn := srv.requireUser()

	return []Route{
		{"FilterProducts", http.MethodGet, "/products", h.CatalogAPI.FilterProducts, nil},
		{"ProductFacets", http.MethodGet, "/products/facets", h.CatalogAPI.Facets, nil},
		{"GetProduct", http.MethodGet, "/products/:slug", h.CatalogAPI.GetProduct, nil},
		{"RelatedProducts", http.MethodGet, "/products/:slug/related", h.CatalogAPI.RelatedProducts, nil},
		{"ListReviews", http.MethodGet, "/products/:slug/reviews", h.CatalogAPI.ListReviews, nil},
		{"AddReview", http.MethodPost, "/products/:slug/reviews", h.CatalogAPI.AddReview, []gin.HandlerFunc{signedIn}},

		{"GetCart", http.MethodGet, "/cart", h.CartAPI.GetCart, nil},
		{"AddCartItem", http.MethodPost, "/cart/items", h.CartAPI.AddItem, nil},
		{"UpdateCartItem", http.MethodPatch, "/cart/items/:variantId", h.CartAPI.UpdateItem, nil},
		{"RemoveCartItem", http.MethodDelete, "/cart/items/:variantId", h.CartAPI.RemoveItem, nil},
		{"ClearCart", http.MethodDelete, "/cart", h.CartAPI.Clear, nil},

		{"ListFavorites", http.MethodGet, "/favorites", h.FavoritesAPI.List, []gin.HandlerFunc{signedIn}},
		{"AddFavorite", http.MethodPost, "/favorites/:productId", h.FavoritesAPI.Add, []gin.HandlerFunc{signedIn}},
		{"RemoveFavorite", http.MethodDelete, "/favorites/:productId", h.FavoritesAPI.Remove, []gin.HandlerFunc{signedIn}},
		{"ToggleFavorite", http.MethodPost, "/favorites/:productId/toggle", h.FavoritesAPI.Toggle, []gin.HandlerFunc{signedIn}},

		{"Checkout", http.MethodPost, "/checkout", h.OrdersAPI.Checkout, []gin.HandlerFunc{checkout}},
		{"ListOrders", http.MethodGet, "/orders", h.OrdersAPI.ListOrders, []gin.HandlerFunc{signedIn}},
		{"LookupGuestOrder", http.MethodPost, "/orders/lookup", h.OrdersAPI.LookupGuestOrder, []gin.HandlerFunc{auth}},
		{"GetOrder", http.MethodGet, "/orders/:number", h.OrdersAPI.GetOrder, []gin.HandlerFunc{signedIn}},
		{"CancelOrder", http.MethodPost, "/orders/:number/cancel", h.OrdersAPI.CancelOrder, []gin.HandlerFunc{signedIn}},

		{"Register", http.MethodPost, "/auth/register", h.AuthAPI.Register, []gin.HandlerFunc{auth}},
		{"Login", http.MethodPost, "/auth/login", h.AuthAPI.Login, []gin.HandlerFunc{auth}},
		{"Logout", http.MethodPost, "/auth/logout", h.AuthAPI.Logout, nil},
		{"PromoteGuest", http.MethodPost, "/auth/promote", h.AuthAPI.PromoteGuest, []gin.HandlerFunc{auth}},

		{"GetProfile", http.MethodGet, "/me", h.AccountAPI.GetProfile, []gin.HandlerFunc{signedIn}},
		{"UpdateProfile", http.MethodPatch, "/me", h.AccountAPI.UpdateProfile, []gin.HandlerFunc{signedIn}},
		{"StartPhoneVerification", http.MethodPost, "/me/phone/verification", h.AccountAPI.StartPhoneVerification, []gin.HandlerFunc{signedIn, otp}},
		{"ConfirmPhone", http.MethodPost, "/me/phone/verification/confirm", h.AccountAPI.ConfirmPhone, []gin.HandlerFunc{signedIn, otp}},
		{"ListAddresses", http.MethodGet, "/me/addresses", h.AccountAPI.ListAddresses, []gin.HandlerFunc{signedIn}},
		{"AddAddress", http.MethodPost, "/me/addresses", h.AccountAPI.AddAddress, []gin.HandlerFunc{signedIn}},
		{"UpdateAddress", http.MethodPut, "/me/addresses/:id", h.AccountAPI.UpdateAddress, []gin.HandlerFunc{signedIn}},
		{"DeleteAddress", http.MethodDelete, "/me/addresses/:id", h.AccountAPI.DeleteAddress, []gin.HandlerFunc{signedIn}},
		{"SetDefaultAddress", http.MethodPost, "/me/addresses/:id/default", h.AccountAPI.SetDefaultAddress, []gin.HandlerFunc{signedIn}},

		{"IngestLogs", http.MethodPost, "/logs", h.LogsAPI.Ingest, []gin.HandlerFunc{logs}},
	}
}

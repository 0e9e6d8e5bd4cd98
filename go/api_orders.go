package storefrontserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	ordersmapper "github.com/aromaline/storefront/internal/domains/orders/adapters/http/mapper"
	ordersapp "github.com/aromaline/storefront/internal/domains/orders/application"
	ordersports "github.com/aromaline/storefront/internal/domains/orders/ports"
)

// IdempotencyKeyHeader lets clients retry a checkout without placing it twice.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrdersAPI wires checkout and order history to the orders bounded context.
type OrdersAPI struct {
	service   ordersports.Service
	workflows ordersports.WorkflowOrchestrator
	srv       *server
}

// NewOrdersAPI creates an OrdersAPI. Checkout runs through workflows when set.
func NewOrdersAPI(service ordersports.Service, workflows ordersports.WorkflowOrchestrator) OrdersAPI {
	return OrdersAPI{service: service, workflows: workflows}
}

// Post /api/v1/checkout
// Places an order for a guest or a signed-in customer
func (api *OrdersAPI) Checkout(c *gin.Context) {
	var payload ordersmapper.CheckoutInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.srv.badRequest(c, err)
		return
	}
	cmd := ordersports.CheckoutCommand{
		Request:        ordersmapper.ToDomainRequest(payload),
		UserID:         currentUserID(c),
		Locale:         requestLocale(c),
		IdempotencyKey: strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)),
	}
	if cmd.UserID == "" {
		cmd.GuestToken = guestCartToken(c, false)
	}
	result, err := api.checkout(c.Request.Context(), cmd)
	if err != nil {
		api.srv.recordCheckout(checkoutOutcome(err))
		api.srv.respondError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
		api.srv.recordCheckout("replayed")
	} else {
		api.srv.recordCheckout("placed")
	}
	order := ordersmapper.FromDomainOrder(result.Order)
	order.Message = api.srv.translate(c, "order.placed", "number", order.Number)
	c.JSON(status, order)
}

func (api *OrdersAPI) checkout(ctx context.Context, cmd ordersports.CheckoutCommand) (*ordersports.CheckoutResult, error) {
	if api.workflows != nil {
		return api.workflows.Checkout(ctx, cmd)
	}
	return api.service.Checkout(ctx, cmd)
}

func checkoutOutcome(err error) string {
	switch {
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, ordersapp.ErrConflict):
		return "conflict"
	default:
		return "failed"
	}
}

// Get /api/v1/orders
func (api *OrdersAPI) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "0"))
	result, err := api.service.ListOrders(c.Request.Context(), currentUserID(c), page, pageSize)
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromDomainPage(result))
}

// Get /api/v1/orders/:number
// Orders of other customers answer 404
func (api *OrdersAPI) GetOrder(c *gin.Context) {
	order, err := api.service.GetOrder(c.Request.Context(), currentUserID(c), c.Param("number"))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromDomainOrder(order))
}

// Post /api/v1/orders/:number/cancel
// Only pending orders can be cancelled; their stock is released
func (api *OrdersAPI) CancelOrder(c *gin.Context) {
	order, err := api.service.CancelOrder(c.Request.Context(), currentUserID(c), c.Param("number"))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromDomainOrder(order))
}

// Post /api/v1/orders/lookup
// Guest order lookup by number and contact email
func (api *OrdersAPI) LookupGuestOrder(c *gin.Context) {
	var payload ordersmapper.LookupInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.srv.badRequest(c, err)
		return
	}
	fields := map[string]string{}
	if strings.TrimSpace(payload.Number) == "" {
		fields["number"] = "validation.required"
	}
	if strings.TrimSpace(payload.Email) == "" {
		fields["email"] = "validation.required"
	}
	if len(fields) > 0 {
		api.srv.respondProblem(c, problemFields(fields))
		return
	}
	order, err := api.service.LookupGuestOrder(c.Request.Context(), payload.Number, payload.Email)
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersmapper.FromDomainOrder(order))
}

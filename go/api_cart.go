package storefrontserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	cartmapper "github.com/aromaline/storefront/internal/domains/cart/adapters/http/mapper"
	cartdomain "github.com/aromaline/storefront/internal/domains/cart/domain"
	cartports "github.com/aromaline/storefront/internal/domains/cart/ports"
)

// CartAPI serves the cart of the signed-in user or of the guest cart token.
type CartAPI struct {
	service cartports.Service
	srv     *server
}

func NewCartAPI(service cartports.Service) CartAPI {
	return CartAPI{service: service}
}

// Get /api/v1/cart
func (api *CartAPI) GetCart(c *gin.Context) {
	owner, ok := cartOwner(c, false)
	if !ok {
		c.JSON(http.StatusOK, cartmapper.FromDomainView(nil))
		return
	}
	view, err := api.service.GetCart(c.Request.Context(), owner, requestLocale(c))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartmapper.FromDomainView(view))
}

// Post /api/v1/cart/items
// Quantities merge into an existing line and are capped at stock
func (api *CartAPI) AddItem(c *gin.Context) {
	var payload cartmapper.AddItemInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.srv.badRequest(c, err)
		return
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}
	owner, _ := cartOwner(c, true)
	view, err := api.service.AddItem(c.Request.Context(), owner, payload.VariantID, payload.Quantity, requestLocale(c))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartmapper.FromDomainView(view))
}

// Patch /api/v1/cart/items/:variantId
// A zero quantity removes the line
func (api *CartAPI) UpdateItem(c *gin.Context) {
	variantID, ok := api.srv.parseIDParam(c, "variantId")
	if !ok {
		return
	}
	var payload cartmapper.UpdateItemInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.srv.badRequest(c, err)
		return
	}
	if payload.Quantity == nil {
		api.srv.respondProblem(c, problemField("quantity", "validation.required"))
		return
	}
	owner, ok := cartOwner(c, false)
	if !ok {
		api.srv.respondProblem(c, problemNotFound())
		return
	}
	view, err := api.service.UpdateItem(c.Request.Context(), owner, variantID, *payload.Quantity, requestLocale(c))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartmapper.FromDomainView(view))
}

// Delete /api/v1/cart/items/:variantId
func (api *CartAPI) RemoveItem(c *gin.Context) {
	variantID, ok := api.srv.parseIDParam(c, "variantId")
	if !ok {
		return
	}
	owner, ok := cartOwner(c, false)
	if !ok {
		api.srv.respondProblem(c, problemNotFound())
		return
	}
	view, err := api.service.RemoveItem(c.Request.Context(), owner, variantID, requestLocale(c))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartmapper.FromDomainView(view))
}

// Delete /api/v1/cart
func (api *CartAPI) Clear(c *gin.Context) {
	owner, ok := cartOwner(c, false)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	if err := api.service.Clear(c.Request.Context(), owner); err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// cartOwner picks the user cart when signed in, otherwise the guest token cart.
// It reports false when there is no cart to address.
func cartOwner(c *gin.Context, issue bool) (cartdomain.Owner, bool) {
	if id := currentUserID(c); id != "" {
		return cartdomain.UserOwner(id), true
	}
	token := guestCartToken(c, issue)
	if token == "" {
		return cartdomain.Owner{}, false
	}
	return cartdomain.GuestOwner(token), true
}

func (s *server) parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		if err == nil {
			err = errors.New(name + " must be a positive integer")
		}
		s.badRequest(c, err)
		return 0, false
	}
	return id, true
}

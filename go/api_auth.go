package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	usermapper "github.com/aromaline/storefront/internal/domains/users/adapters/http/mapper"
	userports "github.com/aromaline/storefront/internal/domains/users/ports"
)

// AuthAPI implements registration and sessions.
type AuthAPI struct {
	service userports.Service
	srv     *server
}

// NewAuthAPI wires dependencies.
func NewAuthAPI(service userports.Service) AuthAPI {
	return AuthAPI{service: service}
}

// Post /api/v1/auth/register
// Creates an account, signs it in and adopts the guest cart and orders
func (api *AuthAPI) Register(c *gin.Context) {
	var payload usermapper.RegisterInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.srv.badRequest(c, err)
		return
	}
	if payload.Locale == "" {
		payload.Locale = requestLocale(c)
	}
	result, err := api.service.Register(c.Request.Context(), usermapper.ToRegisterCommand(payload, guestCartToken(c, false)))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, usermapper.FromAuthResult(result))
}

// Post /api/v1/auth/login
func (api *AuthAPI) Login(c *gin.Context) {
	var payload usermapper.LoginInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.srv.badRequest(c, err)
		return
	}
	result, err := api.service.Login(c.Request.Context(), payload.Email, payload.Password, guestCartToken(c, false))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, usermapper.FromAuthResult(result))
}

// Post /api/v1/auth/logout
// Always succeeds; unknown tokens are ignored
func (api *AuthAPI) Logout(c *gin.Context) {
	if err := api.service.Logout(c.Request.Context(), c.GetString(ctxTokenKey)); err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /api/v1/auth/promote
// Turns a guest order's email into an account
func (api *AuthAPI) PromoteGuest(c *gin.Context) {
	var payload usermapper.PromoteInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.srv.badRequest(c, err)
		return
	}
	cmd := usermapper.ToPromoteCommand(payload, requestLocale(c), guestCartToken(c, false))
	result, err := api.service.PromoteGuest(c.Request.Context(), cmd)
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, usermapper.FromAuthResult(result))
}

package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	usermapper "github.com/aromaline/storefront/internal/domains/users/adapters/http/mapper"
	userports "github.com/aromaline/storefront/internal/domains/users/ports"
)

// AccountAPI serves the signed-in user's profile, phone and address book.
type AccountAPI struct {
	service userports.Service
	srv     *server
}

func NewAccountAPI(service userports.Service) AccountAPI {
	return AccountAPI{service: service}
}

// Get /api/v1/me
func (api *AccountAPI) GetProfile(c *gin.Context) {
	user, err := api.service.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, usermapper.FromDomainUser(user))
}

// Patch /api/v1/me
// Changing the phone number clears its verification
func (api *AccountAPI) UpdateProfile(c *gin.Context) {
	var payload usermapper.ProfileInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.srv.badRequest(c, err)
		return
	}
	user, err := api.service.UpdateProfile(c.Request.Context(), currentUserID(c), usermapper.ToProfileUpdate(payload))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	if payload.Locale != nil {
		c.SetCookie(localeCookie, user.Locale, 365*24*60*60, "/", "", false, false)
	}
	c.JSON(http.StatusOK, usermapper.FromDomainUser(user))
}

// Post /api/v1/me/phone/verification
func (api *AccountAPI) StartPhoneVerification(c *gin.Context) {
	var payload usermapper.PhoneInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.srv.badRequest(c, err)
		return
	}
	if err := api.service.StartPhoneVerification(c.Request.Context(), currentUserID(c), payload.Phone); err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// Post /api/v1/me/phone/verification/confirm
func (api *AccountAPI) ConfirmPhone(c *gin.Context) {
	var payload usermapper.ConfirmPhoneInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.srv.badRequest(c, err)
		return
	}
	user, err := api.service.ConfirmPhone(c.Request.Context(), currentUserID(c), payload.Phone, payload.Code)
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, usermapper.FromDomainUser(user))
}

// Get /api/v1/me/addresses
// The default address comes first
func (api *AccountAPI) ListAddresses(c *gin.Context) {
	list, err := api.service.ListAddresses(c.Request.Context(), currentUserID(c))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, usermapper.FromDomainAddresses(list))
}

// Post /api/v1/me/addresses
func (api *AccountAPI) AddAddress(c *gin.Context) {
	var payload usermapper.AddressInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.srv.badRequest(c, err)
		return
	}
	address, err := api.service.AddAddress(c.Request.Context(), currentUserID(c), usermapper.ToDomainAddress(payload))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, usermapper.FromDomainAddress(*address))
}

// Put /api/v1/me/addresses/:id
func (api *AccountAPI) UpdateAddress(c *gin.Context) {
	var payload usermapper.AddressInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.srv.badRequest(c, err)
		return
	}
	address, err := api.service.UpdateAddress(c.Request.Context(), currentUserID(c), c.Param("id"), usermapper.ToDomainAddress(payload))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, usermapper.FromDomainAddress(*address))
}

// Delete /api/v1/me/addresses/:id
func (api *AccountAPI) DeleteAddress(c *gin.Context) {
	if err := api.service.DeleteAddress(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /api/v1/me/addresses/:id/default
func (api *AccountAPI) SetDefaultAddress(c *gin.Context) {
	address, err := api.service.SetDefaultAddress(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, usermapper.FromDomainAddress(*address))
}

package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	catalogmapper "github.com/aromaline/storefront/internal/domains/catalog/adapters/http/mapper"
	favoritesports "github.com/aromaline/storefront/internal/domains/favorites/ports"
)

// FavoritesAPI serves the signed-in user's favorite products.
type FavoritesAPI struct {
	service favoritesports.Service
	srv     *server
}

func NewFavoritesAPI(service favoritesports.Service) FavoritesAPI {
	return FavoritesAPI{service: service}
}

// Get /api/v1/favorites
func (api *FavoritesAPI) List(c *gin.Context) {
	products, err := api.service.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromDomainList(products, requestLocale(c)))
}

// Post /api/v1/favorites/:productId
// Adding an existing favorite is a no-op
func (api *FavoritesAPI) Add(c *gin.Context) {
	productID, ok := api.srv.parseIDParam(c, "productId")
	if !ok {
		return
	}
	if err := api.service.Add(c.Request.Context(), currentUserID(c), productID); err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"productId": productID, "favorite": true})
}

// Delete /api/v1/favorites/:productId
func (api *FavoritesAPI) Remove(c *gin.Context) {
	productID, ok := api.srv.parseIDParam(c, "productId")
	if !ok {
		return
	}
	if err := api.service.Remove(c.Request.Context(), currentUserID(c), productID); err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"productId": productID, "favorite": false})
}

// Post /api/v1/favorites/:productId/toggle
func (api *FavoritesAPI) Toggle(c *gin.Context) {
	productID, ok := api.srv.parseIDParam(c, "productId")
	if !ok {
		return
	}
	favorite, err := api.service.Toggle(c.Request.Context(), currentUserID(c), productID)
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"productId": productID, "favorite": favorite})
}

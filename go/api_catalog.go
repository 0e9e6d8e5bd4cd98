package storefrontserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	catalogmapper "github.com/aromaline/storefront/internal/domains/catalog/adapters/http/mapper"
	catalogports "github.com/aromaline/storefront/internal/domains/catalog/ports"
	userdomain "github.com/aromaline/storefront/internal/domains/users/domain"
)

// CatalogAPI serves product listing, detail and review routes.
type CatalogAPI struct {
	service catalogports.Service
	srv     *server
}

// NewCatalogAPI creates a CatalogAPI backed by the provided service.
func NewCatalogAPI(service catalogports.Service) CatalogAPI {
	return CatalogAPI{service: service}
}

// Get /api/v1/products
// Filters active products
func (api *CatalogAPI) FilterProducts(c *gin.Context) {
	filter, fields := catalogmapper.ParseFilter(c.Request.URL.Query())
	if len(fields) > 0 {
		api.srv.respondProblem(c, problemFields(fields))
		return
	}
	page, err := api.service.FilterProducts(c.Request.Context(), filter)
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromDomainPage(page, requestLocale(c)))
}

// Get /api/v1/products/facets
func (api *CatalogAPI) Facets(c *gin.Context) {
	facets, err := api.service.Facets(c.Request.Context())
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromDomainFacets(facets))
}

// Get /api/v1/products/:slug
func (api *CatalogAPI) GetProduct(c *gin.Context) {
	product, err := api.service.GetProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromDomainProduct(product, requestLocale(c)))
}

// Get /api/v1/products/:slug/related
func (api *CatalogAPI) RelatedProducts(c *gin.Context) {
	limit, ok := api.queryInt(c, "limit", 0)
	if !ok {
		return
	}
	related, err := api.service.RelatedProducts(c.Request.Context(), c.Param("slug"), limit)
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromDomainList(related, requestLocale(c)))
}

// Get /api/v1/products/:slug/reviews
func (api *CatalogAPI) ListReviews(c *gin.Context) {
	page, ok := api.queryInt(c, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := api.queryInt(c, "pageSize", 0)
	if !ok {
		return
	}
	product, err := api.service.GetProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	reviews, err := api.service.ListReviews(c.Request.Context(), product.ID, page, pageSize)
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalogmapper.FromDomainReviewPage(reviews))
}

// Post /api/v1/products/:slug/reviews
// One review per user and product
func (api *CatalogAPI) AddReview(c *gin.Context) {
	var payload catalogmapper.ReviewInput
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.srv.badRequest(c, err)
		return
	}
	product, err := api.service.GetProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	user := currentUser(c)
	review, err := api.service.AddReview(c.Request.Context(), catalogports.AddReviewCommand{
		ProductID:  product.ID,
		UserID:     user.ID,
		AuthorName: authorName(user),
		Rating:     payload.Rating,
		Comment:    payload.Comment,
	})
	if err != nil {
		api.srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, catalogmapper.FromDomainReview(review))
}

func (api *CatalogAPI) queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		api.srv.respondProblem(c, problemFields(map[string]string{name: "invalid value"}))
		return 0, false
	}
	return value, true
}

// authorName shows the first name and last initial, or the email's local part.
func authorName(user *userdomain.User) string {
	first := strings.TrimSpace(user.FirstName)
	last := strings.TrimSpace(user.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + string([]rune(last)[:1]) + "."
	case first != "":
		return first
	}
	if at := strings.IndexByte(user.Email, '@'); at > 0 {
		return user.Email[:at]
	}
	return "Customer"
}

package storefrontserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	cartapp "github.com/aromaline/storefront/internal/domains/cart/application"
	cartdomain "github.com/aromaline/storefront/internal/domains/cart/domain"
	cartports "github.com/aromaline/storefront/internal/domains/cart/ports"
	catalogapp "github.com/aromaline/storefront/internal/domains/catalog/application"
	catalogdomain "github.com/aromaline/storefront/internal/domains/catalog/domain"
	catalogports "github.com/aromaline/storefront/internal/domains/catalog/ports"
	favoritesapp "github.com/aromaline/storefront/internal/domains/favorites/application"
	favoritesports "github.com/aromaline/storefront/internal/domains/favorites/ports"
	ordersapp "github.com/aromaline/storefront/internal/domains/orders/application"
	ordersdomain "github.com/aromaline/storefront/internal/domains/orders/domain"
	ordersports "github.com/aromaline/storefront/internal/domains/orders/ports"
	usersapp "github.com/aromaline/storefront/internal/domains/users/application"
	usersdomain "github.com/aromaline/storefront/internal/domains/users/domain"
	usersports "github.com/aromaline/storefront/internal/domains/users/ports"
	"github.com/aromaline/storefront/internal/platform/applog"
	apierrors "github.com/aromaline/storefront/internal/shared/errors"
)

// quantityArgs fill {min}/{max} in field messages that carry no arguments of their own.
var quantityArgs = []any{"min", 1, "max", cartdomain.MaxQuantity}

func problemNotFound() apierrors.Problem { return apierrors.NotFound() }

func problemUnauthorized(key string) apierrors.Problem {
	return apierrors.New(apierrors.KindUnauthorized).Message(key)
}

func problemConflict(key string, args ...any) apierrors.Problem {
	return apierrors.New(apierrors.KindConflict).Message(key, args...)
}

func problemTooManyRequests(seconds int, key string) apierrors.Problem {
	p := apierrors.Throttled(seconds)
	return p.Message(key, "seconds", p.RetryAfter)
}

// problemFields builds a validation problem whose field values are message keys.
func problemFields(fields map[string]string) apierrors.Problem {
	return apierrors.Invalid(fields)
}

func problemField(field, key string, args ...any) apierrors.Problem {
	return apierrors.New(apierrors.KindValidation).Field(field, key, args...)
}

func problemInvalid(err error) apierrors.Problem {
	return apierrors.New(apierrors.KindValidation).WithDetail(err.Error())
}

func problemConflictDetail(err error) apierrors.Problem {
	return apierrors.New(apierrors.KindConflict).WithDetail(err.Error())
}

// localizeProblem renders title, detail and field messages in the request locale.
func (s *server) localizeProblem(c *gin.Context, p apierrors.Problem) apierrors.Problem {
	if s.bundle == nil {
		return p
	}
	return p.Localize(s.bundle, requestLocale(c), quantityArgs...)
}

func (s *server) responder() *apierrors.Responder {
	return &apierrors.Responder{
		Localize: s.localizeProblem,
		Mappers: []apierrors.Mapper{
			mapUserError, mapOrderError, mapCartError, mapCatalogError, mapFavoritesError, mapLogError,
		},
	}
}

func (s *server) respondProblem(c *gin.Context, problem apierrors.Problem) {
	s.responder().Write(c, problem)
}

// respondError maps service errors onto problems. Unknown errors become a 500
// and are kept on the gin context for the request log.
func (s *server) respondError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	s.responder().Error(c, err)
}

func mapCatalogError(err error) (apierrors.Problem, bool) {
	switch {
	case errors.Is(err, catalogports.ErrNotFound), errors.Is(err, catalogports.ErrVariantNotFound):
		return problemNotFound(), true
	case errors.Is(err, catalogports.ErrReviewExists):
		return problemConflict("errors.review_exists"), true
	case errors.Is(err, catalogdomain.ErrInvalidRating):
		return problemField("rating", "validation.rating"), true
	case errors.Is(err, catalogdomain.ErrCommentTooLong):
		return problemFields(map[string]string{"comment": err.Error()}), true
	case errors.Is(err, catalogdomain.ErrInvalidReviewer):
		return problemUnauthorized("errors.session_required"), true
	case errors.Is(err, catalogapp.ErrInvalidInput):
		return problemInvalid(err), true
	case errors.Is(err, catalogapp.ErrConflict):
		return problemConflictDetail(err), true
	}
	return apierrors.Problem{}, false
}

func mapCartError(err error) (apierrors.Problem, bool) {
	switch {
	case errors.Is(err, cartdomain.ErrInvalidQuantity):
		return problemField("quantity", "validation.quantity"), true
	case errors.Is(err, cartdomain.ErrInvalidVariant), errors.Is(err, cartports.ErrVariantNotFound):
		return problemField("variantId", "validation.variant"), true
	case errors.Is(err, cartdomain.ErrItemNotFound):
		return problemNotFound(), true
	case errors.Is(err, cartapp.ErrUnavailable):
		return problemConflict("errors.insufficient_stock"), true
	case errors.Is(err, cartapp.ErrInvalidInput):
		return problemInvalid(err), true
	}
	return apierrors.Problem{}, false
}

func mapFavoritesError(err error) (apierrors.Problem, bool) {
	switch {
	case errors.Is(err, favoritesports.ErrProductNotFound):
		return problemNotFound(), true
	case errors.Is(err, favoritesapp.ErrInvalidInput):
		return problemInvalid(err), true
	}
	return apierrors.Problem{}, false
}

func mapOrderError(err error) (apierrors.Problem, bool) {
	if fields, ok := ordersapp.FieldErrors(err); ok {
		return problemFields(fields), true
	}
	switch {
	case errors.Is(err, ordersports.ErrNotFound):
		return problemNotFound(), true
	case errors.Is(err, ordersports.ErrInsufficientStock):
		return problemConflict("errors.insufficient_stock"), true
	case errors.Is(err, ordersports.ErrIdempotencyConflict):
		return problemConflict("errors.idempotency_conflict"), true
	case errors.Is(err, ordersdomain.ErrNotCancellable), errors.Is(err, ordersdomain.ErrInvalidTransition):
		return problemConflict("errors.order_not_cancellable"), true
	case errors.Is(err, ordersdomain.ErrNoLines):
		return problemField("items", ordersdomain.MsgItems), true
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return problemInvalid(err), true
	case errors.Is(err, ordersapp.ErrConflict):
		return problemConflictDetail(err), true
	}
	return apierrors.Problem{}, false
}

func mapUserError(err error) (apierrors.Problem, bool) {
	if fields, ok := usersapp.FieldErrors(err); ok {
		return problemFields(fields), true
	}
	if seconds, ok := usersapp.RetryAfter(err); ok {
		return problemTooManyRequests(seconds, "errors.otp_cooldown"), true
	}
	switch {
	case errors.Is(err, usersapp.ErrAuthentication):
		return problemUnauthorized("errors.invalid_credentials"), true
	case errors.Is(err, usersports.ErrEmailTaken):
		return problemConflict("errors.email_taken"), true
	case errors.Is(err, usersdomain.ErrWeakPassword):
		return problemField("password", "errors.weak_password", "min", usersdomain.MinPasswordLength), true
	case errors.Is(err, usersdomain.ErrInvalidEmail):
		return problemField("email", "validation.email"), true
	case errors.Is(err, usersdomain.ErrInvalidPhone):
		return problemField("phone", "validation.phone"), true
	case errors.Is(err, usersdomain.ErrInvalidLocale):
		return problemFields(map[string]string{"locale": err.Error()}), true
	case errors.Is(err, usersdomain.ErrInvalidName):
		return problemFields(map[string]string{"name": err.Error()}), true
	case errors.Is(err, usersdomain.ErrCodeMismatch):
		return problemField("code", "errors.invalid_code"), true
	case errors.Is(err, usersdomain.ErrCodeExpired), errors.Is(err, usersdomain.ErrNoPendingVerification):
		return problemField("code", "errors.code_expired"), true
	case errors.Is(err, usersdomain.ErrPhoneRejected):
		return problemField("phone", "errors.phone_rejected"), true
	case errors.Is(err, usersdomain.ErrTooManyAttempts):
		return apierrors.New(apierrors.KindTooManyRequests).Message("errors.otp_attempts"), true
	case errors.Is(err, usersdomain.ErrTooManyAddresses):
		return problemConflict("errors.address_limit", "max", usersdomain.MaxAddresses), true
	case errors.Is(err, usersdomain.ErrAddressNotFound), errors.Is(err, usersports.ErrNotFound):
		return problemNotFound(), true
	case errors.Is(err, usersapp.ErrTooManyRequests):
		return problemTooManyRequests(60, "errors.too_many_requests"), true
	case errors.Is(err, usersapp.ErrInvalidInput):
		return problemInvalid(err), true
	case errors.Is(err, usersapp.ErrConflict):
		return problemConflictDetail(err), true
	}
	return apierrors.Problem{}, false
}

func mapLogError(err error) (apierrors.Problem, bool) {
	switch {
	case errors.Is(err, applog.ErrInvalidLevel):
		return problemField("level", "validation.level"), true
	case errors.Is(err, applog.ErrMessageTooLong):
		return problemField("message", "validation.message_length", "max", applog.MaxMessageLength), true
	case errors.Is(err, applog.ErrEmptyMessage):
		return problemField("message", "validation.required"), true
	case applog.IsValidationError(err):
		return problemInvalid(err), true
	}
	return apierrors.Problem{}, false
}

// badRequest answers a payload or parameter that could not be decoded.
func (s *server) badRequest(c *gin.Context, err error) {
	s.respondProblem(c, apierrors.New(apierrors.KindBadRequest).WithDetail(err.Error()))
}

// internal/handlers/errors.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/truckzone/truckzone-backend/internal/i18n"
	"github.com/truckzone/truckzone-backend/internal/services"
	"github.com/truckzone/truckzone-backend/internal/utils"
)

// respondError maps service errors onto the response envelope. Anything not
// recognised is logged and reported as a 500 without details.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "user")
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, "product")
	case errors.Is(err, services.ErrBookingNotFound):
		utils.NotFoundResponse(c, "booking")
	case errors.Is(err, services.ErrCategoryNotFound):
		utils.NotFoundResponse(c, "category")
	case errors.Is(err, services.ErrBrandNotFound):
		utils.NotFoundResponse(c, "brand")
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, "")
	case errors.Is(err, services.ErrAlreadyPaid):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyPaymentAlreadyPaid))
	case errors.Is(err, services.ErrProductSold):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyPaymentProductSold))
	case errors.Is(err, services.ErrPaymentMismatch):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyPaymentMismatch), nil)
	case errors.Is(err, services.ErrInvalidAmount):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyPaymentInvalidAmount), nil)
	case errors.Is(err, services.ErrPaymentNotVerified):
		utils.PaymentRequiredResponse(c, i18n.T(lang, i18n.KeyPaymentNotVerified))
	case errors.Is(err, services.ErrGatewayUnavailable):
		logrus.WithError(err).Warn("Payment gateway unavailable")
		utils.ServiceUnavailableResponse(c, i18n.T(lang, i18n.KeyPaymentGatewayDown))
	case errors.Is(err, services.ErrStorageNotConfigured):
		utils.ServiceUnavailableResponse(c, i18n.T(lang, i18n.KeyStorageNotConfigured))
	case errors.Is(err, services.ErrInvalidFile):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileInvalidType), err.Error())
	default:
		if details := utils.GetValidationErrors(err); len(details) > 0 {
			utils.ValidationErrorResponse(c, details)
			return
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Request failed")
		utils.InternalErrorResponse(c, "")
	}
}

// bindJSON decodes and validates the body, writing the 400 itself on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)

	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

// parseID reads the :id path parameter. A malformed id cannot match any record,
// so it is reported as not found for resource.
func parseID(c *gin.Context, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.NotFoundResponse(c, resource)
		return uuid.Nil, false
	}
	return id, true
}

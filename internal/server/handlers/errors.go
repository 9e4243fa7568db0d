package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/service/auth"
	"github.com/mamadbah2/stockroom/internal/service/notify"
	"github.com/mamadbah2/stockroom/internal/service/products"
	"github.com/mamadbah2/stockroom/internal/service/shopping"
	"github.com/mamadbah2/stockroom/internal/service/stock"
	"github.com/mamadbah2/stockroom/pkg/qr"
)

// Error codes returned in the "error" field of failed responses.
const (
	CodeInvalidRequest           = "invalid_request"
	CodeValidation               = "validation_error"
	CodeNotFound                 = "not_found"
	CodeInsufficientStock        = "insufficient_stock"
	CodeConcurrentUpdate         = "concurrent_update"
	CodeUnauthenticated          = "unauthenticated"
	CodeInvalidCredentials       = "invalid_credentials"
	CodePasswordRecoveryRequired = "password_recovery_required"
	CodeDisabled                 = "disabled"
	CodeInfrastructure           = "infrastructure_error"
)

// infrastructureMessage replaces the cause of 5xx responses; the cause is logged.
const infrastructureMessage = "the record store is unavailable, try again"

// Abort writes the standard error body and stops the handler chain.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": message})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, stock.ErrValidation),
		errors.Is(err, models.ErrInvalidProduct),
		errors.Is(err, products.ErrActorRequired),
		errors.Is(err, shopping.ErrEmptyLabel),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, notify.ErrEmptyMessage),
		errors.Is(err, notify.ErrNoRecipient),
		errors.Is(err, qr.ErrNoPayload):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, stock.ErrProductNotFound),
		errors.Is(err, products.ErrNotFound),
		errors.Is(err, shopping.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, stock.ErrInsufficientStock):
		return http.StatusConflict, CodeInsufficientStock
	case errors.Is(err, stock.ErrConcurrentUpdate):
		return http.StatusConflict, CodeConcurrentUpdate
	case errors.Is(err, auth.ErrWrongState):
		return http.StatusUnauthorized, CodeUnauthenticated
	case errors.Is(err, auth.ErrDisabled), errors.Is(err, notify.ErrDisabled):
		return http.StatusNotImplemented, CodeDisabled
	}
	return http.StatusBadGateway, CodeInfrastructure
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status, code := statusOf(err)
	if code == CodeInfrastructure {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		Abort(c, status, code, infrastructureMessage)
		return
	}
	logger.Debug("request rejected", zap.String("path", c.FullPath()), zap.String("code", code), zap.Error(err))
	Abort(c, status, code, err.Error())
}

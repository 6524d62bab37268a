package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yashrajoria/materials-storefront/errors"
	"github.com/yashrajoria/materials-storefront/providers"
	"github.com/yashrajoria/materials-storefront/services"
)

var errClientClosed = apperrors.New(499, "Request cancelled", nil)

// toAppError maps service and provider errors onto HTTP errors.
func toAppError(err error) *apperrors.Error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var apiErr *providers.APIError
	switch {
	case errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidSignup),
		errors.Is(err, providers.ErrUnsupportedOAuth):
		return apperrors.Wrap(apperrors.ErrValidation, err)
	case errors.Is(err, services.ErrInvalidAPIKey):
		return apperrors.Wrap(apperrors.ErrInvalidAPIKey, err)
	case errors.Is(err, providers.ErrInvalidCredentials):
		return apperrors.Wrap(apperrors.ErrInvalidCredentials, err)
	case errors.Is(err, providers.ErrInvalidSession), errors.Is(err, services.ErrNotLoggedIn):
		return apperrors.Wrap(apperrors.ErrUnauthorized, err)
	case errors.Is(err, providers.ErrUserExists):
		return apperrors.Wrap(apperrors.ErrEmailTaken, err)
	case errors.Is(err, services.ErrLoginInProcess):
		return apperrors.Wrap(apperrors.ErrLoginInProgress, err)
	case errors.Is(err, providers.ErrScrapeFailed):
		return apperrors.Wrap(apperrors.ErrUpstream, err)
	case errors.Is(err, context.Canceled):
		return apperrors.Wrap(errClientClosed, err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.New(http.StatusGatewayTimeout, "Request timed out", err)
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apperrors.New(apiErr.Status, apiErr.Message, err)
		}
		return apperrors.Wrap(apperrors.ErrUpstream, err)
	}
	return apperrors.From(err)
}

// fail records err for the error middleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(toAppError(err))
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(apperrors.Wrap(apperrors.ErrValidation, err))
}

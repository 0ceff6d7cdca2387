package api

import (
	"errors"
	"net/http"

	"AssetBrief/internal/domain/models"
	xhttp "AssetBrief/pkg/http"
	applogger "AssetBrief/pkg/logger"

	"github.com/labstack/echo/v4"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Upstream
// outages are 503, thin price data is 422, an exhausted language model is
// 502; anything unclassified stays a generic 500.
func respondError(c echo.Context, l *applogger.Logger, err error) error {
	var appErr *xhttp.AppError
	switch {
	case models.IsValidation(err):
		var ve *models.ValidationError
		errors.As(err, &ve)
		appErr = xhttp.BadRequestError(ve.Message)
		appErr.Field = ve.Field
	case models.IsInsufficientData(err):
		appErr = xhttp.UnprocessableError(err.Error())
	case models.IsProviderUnavailable(err):
		appErr = xhttp.ServiceUnavailableError(err.Error())
	case models.IsGenerationFailed(err):
		appErr = xhttp.BadGatewayError(err.Error())
	case errors.Is(err, models.ErrNotFound):
		appErr = xhttp.NotFoundError("record not found")
	default:
		l.Error("unclassified handler error", applogger.Error(err))
		appErr = xhttp.InternalError("something went wrong")
	}
	return xhttp.AppErrorResponse(c, appErr.WithError(err))
}

func rateLimitedResponse(c echo.Context) error {
	appErr := xhttp.NewAppError("ERR_RATE_LIMITED", "", "too many requests", http.StatusTooManyRequests)
	return xhttp.AppErrorResponse(c, appErr)
}

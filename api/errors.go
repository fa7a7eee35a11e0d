package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"storefront.GO/core/apperror"
	"storefront.GO/core/logging"
)

// genericFailure is shown for anything the services did not classify.
const genericFailure = "Something went wrong. Please reload and try again."

var kindStatus = map[apperror.Kind]int{
	apperror.KindValidation:      http.StatusBadRequest,
	apperror.KindNotFound:        http.StatusNotFound,
	apperror.KindStale:           http.StatusGone,
	apperror.KindNetwork:         http.StatusBadGateway,
	apperror.KindPricing:         http.StatusUnprocessableEntity,
	apperror.KindCheckoutBlocked: http.StatusConflict,
	apperror.KindAuth:            http.StatusUnauthorized,
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperror.Kind) int {
	if code, ok := kindStatus[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// ErrorHandler is the top-level error boundary: classified errors keep their message,
// everything else is logged and answered with a generic fallback body.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	logger = logging.OrNop(logger)
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		body := echo.Map{"success": false, "error": genericFailure}

		var he *echo.HTTPError
		var ae *apperror.Error
		switch {
		case errors.As(err, &ae):
			code = StatusOf(ae.Kind)
			body["error"] = err.Error()
			body["kind"] = ae.Kind.String()
			body["retryable"] = apperror.Retryable(err)
		case errors.As(err, &he):
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				body["error"] = msg
			} else {
				body["error"] = http.StatusText(code)
			}
		}
		if code >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Error("writing error response failed", zap.Error(err))
		}
	}
}

package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// HTTPErrorHandler renders AppErrors with their status and code. echo
// HTTPErrors keep their status. Anything else is logged and hidden behind a
// generic 500.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status int
			body   interface{}
		)

		var appErr *AppError
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = appErr.HTTPStatus
			body = appErr
			if status >= http.StatusInternalServerError {
				logger.Error().Err(appErr.Err).
					Str("request_id", requestID(c)).
					Str("path", c.Request().URL.Path).
					Msg("internal error")
			}
		case errors.As(err, &httpErr):
			status = httpErr.Code
			msg := httpErr.Message
			if s, ok := msg.(string); ok {
				body = map[string]string{"msg": s}
			} else {
				body = map[string]interface{}{"msg": msg}
			}
		default:
			status = http.StatusInternalServerError
			body = Internal(err)
			logger.Error().Err(err).
				Str("request_id", requestID(c)).
				Str("path", c.Request().URL.Path).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}

func requestID(c echo.Context) string {
	rid, _ := c.Get("request_id").(string)
	return rid
}

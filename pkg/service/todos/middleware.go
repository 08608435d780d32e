package todos

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	corsAllowMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ",")
	corsAllowHeaders = strings.Join([]string{
		echo.HeaderAuthorization, echo.HeaderContentType,
	}, ",")
)

// CORSMiddleware allows browsers on any origin to read every response,
// including errors, with credentials. Preflight requests are answered
// directly.
func CORSMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			h := c.Response().Header()

			// "*" is not accepted by browsers for credentialed requests so the
			// origin is reflected when there is one.
			origin := req.Header.Get(echo.HeaderOrigin)
			if origin == "" {
				origin = "*"
			}
			h.Add(echo.HeaderVary, echo.HeaderOrigin)
			h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			h.Set(echo.HeaderAccessControlAllowCredentials, "true")

			if req.Method == http.MethodOptions {
				h.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
				if reqHeaders := req.Header.Get(echo.HeaderAccessControlRequestHeaders); reqHeaders != "" {
					h.Set(echo.HeaderAccessControlAllowHeaders, reqHeaders)
				} else {
					h.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
				}
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}

// LogMiddleware returns a middleware that logs requests using the IPFS go-log
// logger. Errors are rendered by the echo error handler before logging so the
// final status code is recorded.
func LogMiddleware(logger *logging.ZapEventLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			latency := time.Since(start)

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}

			path := req.URL.Path
			if path == "" {
				path = "/"
			}

			statusCode := res.Status
			logMsg := fmt.Sprintf("[%d:%s] %s %s", statusCode, http.StatusText(statusCode), req.Method, path)
			logFields := buildLogFields(c, id, latency, err, logger.Level())

			switch {
			case statusCode >= 500:
				logger.Errorw(logMsg, logFields...)
			case statusCode >= 400:
				logger.Warnw(logMsg, logFields...)
			default:
				logger.Infow(logMsg, logFields...)
			}

			// already handled
			return nil
		}
	}
}

func buildLogFields(c echo.Context, id string, latency time.Duration, err error, level zapcore.Level) []interface{} {
	req := c.Request()
	res := c.Response()
	fields := []interface{}{
		"id", id,
		"latency", latency.String(),
	}

	if level == zap.DebugLevel {
		fields = append(fields,
			"remote_ip", c.RealIP(),
			"host", req.Host,
			"user_agent", req.UserAgent(),
			"bytes_in", req.ContentLength,
			"bytes_out", res.Size,
		)
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		if te, ok := err.(*Error); ok {
			fields = append(fields, "operation", te.Operation)
			if te.Err != nil {
				fields = append(fields, "cause", te.Err.Error())
			}
		}
	}

	return fields
}

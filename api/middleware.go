package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// GzipRequestMiddleware inflates gzip-encoded request bodies before the
// handlers decode them. A body that is not valid gzip is rejected with 400.
func GzipRequestMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !acceptsGzip(req.Header.Get(echo.HeaderContentEncoding)) {
				return next(c)
			}

			zr, err := gzip.NewReader(req.Body)
			if err != nil {
				_ = req.Body.Close()
				return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
			}
			req.Body = gzipBody{Reader: zr, raw: req.Body}
			req.ContentLength = -1
			req.Header.Del(echo.HeaderContentEncoding)
			req.Header.Del(echo.HeaderContentLength)
			return next(c)
		}
	}
}

func acceptsGzip(header string) bool {
	for _, enc := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(enc), "gzip") {
			return true
		}
	}
	return false
}

type gzipBody struct {
	*gzip.Reader
	raw io.Closer
}

func (g gzipBody) Close() error {
	err := g.Reader.Close()
	if cerr := g.raw.Close(); err == nil {
		err = cerr
	}
	return err
}

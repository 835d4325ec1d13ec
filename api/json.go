package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

const maxBodySize = 1 << 20

// SonicSerializer is an echo.JSONSerializer backed by sonic.
type SonicSerializer struct{}

func (SonicSerializer) Serialize(c echo.Context, i any, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (SonicSerializer) Deserialize(c echo.Context, i any) error {
	if err := sonic.ConfigStd.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body").SetInternal(err)
	}
	return nil
}

var errInvalidBody = errors.New("invalid body")

// decodeBody strictly decodes a JSON request body into dst. Unknown fields
// and bodies over maxBodySize are rejected.
func decodeBody(c echo.Context, dst any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errInvalidBody
	}
	return nil
}

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// StrictBinder decodes JSON bodies only and rejects fields the target type does not declare.
type StrictBinder struct{}

func (StrictBinder) Bind(i any, c echo.Context) error {
	req := c.Request()
	if req.ContentLength == 0 && req.Body == http.NoBody {
		return echo.NewHTTPError(http.StatusBadRequest, "request body is required")
	}
	ctype := req.Header.Get(echo.HeaderContentType)
	if ctype != "" && !strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "content type must be application/json")
	}

	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(i); err != nil {
		if errors.Is(err, io.EOF) {
			return echo.NewHTTPError(http.StatusBadRequest, "request body is required")
		}
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body: "+err.Error()).SetInternal(err)
	}
	if dec.More() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body: trailing data")
	}
	return nil
}
